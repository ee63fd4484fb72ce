package util

import "math/bits"

// MinBuckets is the initial bucket count of a hash index.
const MinBuckets = 16

// BucketIndex maps a 32-bit hash to a bucket index.
// buckets must be a power of two.
func BucketIndex(hash uint32, buckets int) int {
	if buckets <= 1 {
		return 0
	}
	return int(hash & uint32(buckets-1))
}

// GrowBuckets returns the bucket count to use once n entries are resident
// in a table of the given size, keeping the load factor at or below 3/4.
// It returns buckets unchanged when no growth is needed.
func GrowBuckets(buckets, n int) int {
	if buckets < MinBuckets {
		buckets = MinBuckets
	}
	if n*4 <= buckets*3 {
		return buckets
	}
	return nextPow2(n*4/3 + 1)
}

// nextPow2 returns the smallest power of two >= x, and 1 for x <= 1.
func nextPow2(x int) int {
	if x <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(x-1))
}
