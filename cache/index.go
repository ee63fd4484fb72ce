package cache

import "github.com/IvanBrykalov/rastercache/internal/util"

// index is a chained hash table of records keyed by Key.Hash().
// Collisions are resolved by Key.Equal; chains link through record.hashNext.
type index struct {
	buckets []*record
	n       int
}

func (ix *index) len() int { return ix.n }

// find returns the record whose key equals k, or nil.
func (ix *index) find(k Key) *record {
	if ix.n == 0 {
		return nil
	}
	for r := ix.buckets[util.BucketIndex(k.hash, len(ix.buckets))]; r != nil; r = r.hashNext {
		if r.key.hash == k.hash && r.key.Equal(k) {
			return r
		}
	}
	return nil
}

// insert links r into its bucket, growing the table first if needed.
// The caller guarantees no record with an equal key is present.
func (ix *index) insert(r *record) {
	if nb := util.GrowBuckets(len(ix.buckets), ix.n+1); nb != len(ix.buckets) {
		ix.rehash(nb)
	}
	b := util.BucketIndex(r.key.hash, len(ix.buckets))
	r.hashNext = ix.buckets[b]
	ix.buckets[b] = r
	ix.n++
}

// remove unlinks r and reports whether it was present.
func (ix *index) remove(r *record) bool {
	if ix.n == 0 {
		return false
	}
	b := util.BucketIndex(r.key.hash, len(ix.buckets))
	for p := &ix.buckets[b]; *p != nil; p = &(*p).hashNext {
		if *p == r {
			*p = r.hashNext
			r.hashNext = nil
			ix.n--
			return true
		}
	}
	return false
}

// each calls fn for every record, in bucket order.
func (ix *index) each(fn func(*record)) {
	for _, r := range ix.buckets {
		for ; r != nil; r = r.hashNext {
			fn(r)
		}
	}
}

func (ix *index) rehash(nb int) {
	old := ix.buckets
	ix.buckets = make([]*record, nb)
	for _, r := range old {
		for r != nil {
			next := r.hashNext
			b := util.BucketIndex(r.key.hash, nb)
			r.hashNext = ix.buckets[b]
			ix.buckets[b] = r
			r = next
		}
	}
}

func (ix *index) reset() {
	ix.buckets = nil
	ix.n = 0
}
