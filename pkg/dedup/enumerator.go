package dedup

// Enumerator walks the cross product of two record lists (or the upper
// triangle of one list against itself) in row-major order, one pair per call.
// It is resumable: deletions between calls are reflected by permanently
// skipping nulled slots, never by rescanning. Total work stays linear in the
// product size no matter how many deletions happen mid-scan.
type Enumerator struct {
	list1, list2 *RecordList
	sameBook     bool

	pos1, pos2 int
	visited    int
	ceiling    int
	done       bool
}

// NewEnumerator creates an enumerator over the two lists. When both positions
// index the same underlying book, list1 and list2 must be the same RecordList
// and only pairs with position2 > position1 are yielded, so every unordered
// pair is visited exactly once.
func NewEnumerator(list1, list2 *RecordList, sameBook bool) *Enumerator {
	e := &Enumerator{
		list1:    list1,
		list2:    list2,
		sameBook: sameBook,
		pos1:     0,
	}
	// The first increment inside Next must land on (0, 1) for a shared book
	// and (0, 0) otherwise.
	if sameBook {
		e.pos2 = 0
	} else {
		e.pos2 = -1
	}
	n1, n2 := list1.Len(), list2.Len()
	// Safety valve: one visit per possible pair plus slack for row rollovers.
	// Tripping it means the advance logic broke an invariant.
	e.ceiling = n1*n2 + n1 + n2 + 2
	return e
}

// Next advances to the next live pair. It returns the pair positions and
// ok=true, or ok=false when the scan is exhausted. ErrIterationLimitExceeded
// is returned when the scan fails to terminate within its ceiling.
func (e *Enumerator) Next() (pos1, pos2 int, ok bool, err error) {
	if e.done {
		return 0, 0, false, nil
	}
	if e.visited++; e.visited > e.ceiling {
		e.done = true
		return 0, 0, false, ErrIterationLimitExceeded
	}

	// If the current row's record was deleted since the last visit, push
	// position2 to the end so the inner loop rolls over immediately.
	if e.list1.At(e.pos1) == nil {
		e.pos2 = e.list2.Len()
	}

	for {
		e.pos2++
		if e.pos2 >= e.list2.Len() {
			for {
				e.pos1++
				if e.offEnd() {
					e.done = true
					return 0, 0, false, nil
				}
				if e.list1.At(e.pos1) != nil {
					break
				}
			}
			if e.sameBook {
				e.pos2 = e.pos1 + 1
			} else {
				e.pos2 = 0
			}
			// Position2 now points one short of the next candidate for the
			// different-book case; compensate for the loop increment.
			e.pos2--
			continue
		}
		if e.list2.At(e.pos2) != nil {
			return e.pos1, e.pos2, true, nil
		}
	}
}

func (e *Enumerator) offEnd() bool {
	extra := 0
	if e.sameBook {
		extra = 1
	}
	return e.pos1+extra >= e.list1.Len()
}

// Progress reports how many pairs have been visited out of the maximum the
// scan can cover. The maximum ignores deletions, so progress is monotonic.
func (e *Enumerator) Progress() (current, max int) {
	n1, n2 := e.list1.Len(), e.list2.Len()
	if e.sameBook {
		max = n1 * (n1 - 1) / 2
	} else {
		max = n1 * n2
	}
	current = e.visited
	if current > max {
		current = max
	}
	return current, max
}
