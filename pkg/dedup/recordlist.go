package dedup

import (
	"github.com/Ramsey-B/fern/pkg/enrich"
	"github.com/Ramsey-B/fern/pkg/models"
)

// RecordList is an ordered, sparse list of records. Deleting a record nulls
// its slot; positions are never reused or compacted while a session runs, so
// enumeration state stays valid across deletions. Simplified projections are
// cached per slot and dropped when the slot's record is mutated or deleted.
type RecordList struct {
	records    []*models.Record
	simplified []*models.SimplifiedRecord
}

// NewRecordList wraps a slice of records loaded from the store.
func NewRecordList(records []*models.Record) *RecordList {
	return &RecordList{
		records:    records,
		simplified: make([]*models.SimplifiedRecord, len(records)),
	}
}

// Len returns the slot count, including deleted slots.
func (l *RecordList) Len() int {
	return len(l.records)
}

// At returns the record at a position, or nil when the slot is deleted or out
// of range.
func (l *RecordList) At(pos int) *models.Record {
	if pos < 0 || pos >= len(l.records) {
		return nil
	}
	return l.records[pos]
}

// Live counts the non-deleted records.
func (l *RecordList) Live() int {
	n := 0
	for _, rec := range l.records {
		if rec != nil {
			n++
		}
	}
	return n
}

// Delete nulls a slot. The position keeps its number for the rest of the
// session.
func (l *RecordList) Delete(pos int) {
	if pos < 0 || pos >= len(l.records) {
		return
	}
	l.records[pos] = nil
	l.simplified[pos] = nil
}

// Invalidate drops the cached simplified projection of a slot after its
// record's raw fields changed.
func (l *RecordList) Invalidate(pos int) {
	if pos < 0 || pos >= len(l.simplified) {
		return
	}
	l.simplified[pos] = nil
}

// Simplified returns the cached simplified projection of a slot, building it
// on first access.
func (l *RecordList) Simplified(pos int, enricher *enrich.Enricher) models.SimplifiedRecord {
	rec := l.At(pos)
	if rec == nil {
		return models.SimplifiedRecord{}
	}
	if cached := l.simplified[pos]; cached != nil {
		return *cached
	}
	s := enricher.Simplify(rec)
	l.simplified[pos] = &s
	return s
}
