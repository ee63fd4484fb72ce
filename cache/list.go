package cache

// recencyList is an intrusive doubly linked list over records.
// head is the most recently used record, tail the least.
type recencyList struct {
	head *record
	tail *record
	n    int
}

// addToHead inserts r at MRU in O(1).
func (l *recencyList) addToHead(r *record) {
	r.prev = nil
	r.next = l.head
	if l.head != nil {
		l.head.prev = r
	}
	l.head = r
	if l.tail == nil {
		l.tail = r
	}
	l.n++
}

// moveToHead promotes r to MRU in O(1).
func (l *recencyList) moveToHead(r *record) {
	if r == l.head {
		return
	}
	l.detach(r)
	l.addToHead(r)
}

// detach unlinks r in O(1).
func (l *recencyList) detach(r *record) {
	if r.prev != nil {
		r.prev.next = r.next
	}
	if r.next != nil {
		r.next.prev = r.prev
	}
	if l.head == r {
		l.head = r.next
	}
	if l.tail == r {
		l.tail = r.prev
	}
	r.prev, r.next = nil, nil
	l.n--
}

func (l *recencyList) reset() {
	l.head, l.tail, l.n = nil, nil, 0
}
