// Package dedup implements the duplicate detection session: a resumable scan
// over the cross product of two address books that surfaces candidate pairs,
// applies the auto-remove policy and tracks run statistics.
package dedup

import (
	"context"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/Ramsey-B/fern/pkg/compare"
	"github.com/Ramsey-B/fern/pkg/contacts"
	"github.com/Ramsey-B/fern/pkg/enrich"
	"github.com/Ramsey-B/fern/pkg/match"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/normalize"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// State is the session lifecycle phase.
type State string

const (
	StateSearching        State = "searching"
	StateAwaitingDecision State = "awaiting_decision"
	StateFinished         State = "finished"
)

// Side selects one record of the current pair.
type Side string

const (
	SideFirst  Side = "first"
	SideSecond Side = "second"
)

// Options controls a session run.
type Options struct {
	IgnoredFields                 []string `json:"ignoredFields"`
	AutoRemoveDuplicates          bool     `json:"autoRemoveDuplicates"`
	PreserveFirstBookOnAutoRemove bool     `json:"preserveFirstBookOnAutoRemove"`
	DeferInteractiveReview        bool     `json:"deferInteractiveReview"`
	NationalTrunkPrefix           string   `json:"nationalTrunkPrefix"`
	InternationalCallPrefix       string   `json:"internationalCallPrefix"`
	CountryCallingCode            string   `json:"countryCallingCode"`

	// YieldBudget bounds uninterrupted scanning before Advance returns a
	// progress report. Zero means the one second default.
	YieldBudget time.Duration `json:"-"`
}

const defaultYieldBudget = time.Second

// Stats summarizes a session run.
type Stats struct {
	RecordsBefore int      `json:"recordsBefore"`
	Changed       int      `json:"changed"`
	Skipped       int      `json:"skipped"`
	DeletedBook1  int      `json:"deletedBook1"`
	DeletedBook2  int      `json:"deletedBook2"`
	AutoDeleted   int      `json:"autoDeleted"`
	DiffFields    []string `json:"diffFields"`
}

// Pair is a candidate duplicate surfaced for a decision.
type Pair struct {
	Position1  int            `json:"position1"`
	Position2  int            `json:"position2"`
	RecordA    *models.Record `json:"recordA"`
	RecordB    *models.Record `json:"recordB"`
	Comparison compare.Result `json:"comparison"`
	Flags      match.Flags    `json:"flags"`
}

// Progress reports scan position when Advance yields without a pair.
type Progress struct {
	Current int `json:"current"`
	Max     int `json:"max"`
}

// Outcome is the result of one Advance call: exactly one of Pair, Progress or
// Done is set.
type Outcome struct {
	Pair     *Pair     `json:"pair,omitempty"`
	Progress *Progress `json:"progress,omitempty"`
	Done     *Stats    `json:"done,omitempty"`
}

// Notifier receives session events. Implementations must not block the scan.
type Notifier interface {
	DuplicateCandidate(ctx context.Context, sessionID string, pair Pair)
	SessionFinished(ctx context.Context, sessionID string, stats Stats)
}

// Session drives the duplicate search over one or two address books.
// Sessions are not safe for concurrent use; a single driver owns each one.
type Session struct {
	id       string
	log      ectologger.Logger
	store    contacts.Store
	notifier Notifier
	opts     Options

	book1, book2 models.Book
	sameBook     bool

	enricher   *enrich.Enricher
	comparator *compare.Comparator

	list1, list2         *RecordList
	mailLists1, mailLists2 []models.MailingList
	enum                 *Enumerator

	state     State
	stats     Stats
	diffSeen  map[string]struct{}
	queue     [][2]int
	reviewing bool
	reviewPos int
	current   *Pair

	yieldBudget time.Duration
	now         func() time.Time
}

// NewSession validates the options, loads both books from the store and
// leaves the session ready for its first Advance. Configuration errors and an
// empty store are fatal here, before any scanning begins.
func NewSession(
	ctx context.Context,
	log ectologger.Logger,
	store contacts.Store,
	notifier Notifier,
	book1ID, book2ID string,
	opts Options,
) (*Session, error) {
	ctx, span := tracing.StartSpan(ctx, "dedup.NewSession")
	defer span.End()

	cfg, err := normalize.NewConfig(opts.NationalTrunkPrefix, opts.InternationalCallPrefix, opts.CountryCallingCode)
	if err != nil {
		return nil, err
	}
	if opts.YieldBudget <= 0 {
		opts.YieldBudget = defaultYieldBudget
	}

	books, err := store.ListBooks(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "listing address books")
	}
	if len(books) == 0 {
		return nil, ErrStoreUnavailable
	}
	book1, err := findBook(books, book1ID)
	if err != nil {
		return nil, err
	}
	book2, err := findBook(books, book2ID)
	if err != nil {
		return nil, err
	}

	enricher := enrich.New(cfg, opts.IgnoredFields)
	s := &Session{
		id:          uuid.NewString(),
		log:         log,
		store:       store,
		notifier:    notifier,
		opts:        opts,
		book1:       book1,
		book2:       book2,
		sameBook:    book1.ID == book2.ID,
		enricher:    enricher,
		comparator:  compare.New(enricher),
		yieldBudget: opts.YieldBudget,
		now:         time.Now,
	}
	if err := s.load(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func findBook(books []models.Book, id string) (models.Book, error) {
	for _, b := range books {
		if b.ID == id {
			return b, nil
		}
	}
	return models.Book{}, errors.Errorf("address book %s not found", id)
}

// load reads both books, enriches every record and resets the scan state.
// Also used by Restart.
func (s *Session) load(ctx context.Context) error {
	records1, mailLists1, err := s.store.ListRecords(ctx, s.book1.ID)
	if err != nil {
		return errors.Wrapf(err, "listing records of book %s", s.book1.ID)
	}
	for _, rec := range records1 {
		s.enricher.Enrich(rec, mailLists1)
	}
	s.list1 = NewRecordList(records1)
	s.mailLists1 = mailLists1

	if s.sameBook {
		s.list2 = s.list1
		s.mailLists2 = mailLists1
	} else {
		records2, mailLists2, err := s.store.ListRecords(ctx, s.book2.ID)
		if err != nil {
			return errors.Wrapf(err, "listing records of book %s", s.book2.ID)
		}
		for _, rec := range records2 {
			s.enricher.Enrich(rec, mailLists2)
		}
		s.list2 = NewRecordList(records2)
		s.mailLists2 = mailLists2
	}

	s.enum = NewEnumerator(s.list1, s.list2, s.sameBook)
	s.stats = Stats{RecordsBefore: s.list1.Live()}
	if !s.sameBook {
		s.stats.RecordsBefore += s.list2.Live()
	}
	s.diffSeen = map[string]struct{}{}
	s.queue = nil
	s.reviewing = false
	s.reviewPos = 0
	s.current = nil
	s.state = StateSearching
	return nil
}

// ID returns the session's identifier.
func (s *Session) ID() string { return s.id }

// State returns the current lifecycle phase.
func (s *Session) State() State { return s.state }

// Stats returns a snapshot of the run statistics.
func (s *Session) Stats() Stats {
	stats := s.stats
	stats.DiffFields = append([]string(nil), s.stats.DiffFields...)
	return stats
}

// Current returns the pair awaiting a decision, or nil.
func (s *Session) Current() *Pair { return s.current }

// Advance resumes the scan and returns either the next candidate pair (the
// session then awaits a decision), a progress report when the yield budget
// ran out, or the final stats when the scan is exhausted. A persistence
// failure during auto-removal is returned together with the affected pair;
// the session keeps running and the caller decides how to proceed.
func (s *Session) Advance(ctx context.Context) (Outcome, error) {
	ctx, span := tracing.StartSpan(ctx, "dedup.Session.Advance")
	defer span.End()

	switch s.state {
	case StateFinished:
		stats := s.Stats()
		return Outcome{Done: &stats}, nil
	case StateAwaitingDecision:
		return Outcome{Pair: s.current}, nil
	}

	log := s.log.WithContext(ctx).WithField("sessionId", s.id)
	started := s.now()
	for {
		if err := ctx.Err(); err != nil {
			return Outcome{}, err
		}
		if s.now().Sub(started) >= s.yieldBudget {
			current, max := s.enum.Progress()
			return Outcome{Progress: &Progress{Current: current, Max: max}}, nil
		}

		pos1, pos2, ok, err := s.nextPositions()
		if err != nil {
			log.WithError(err).Error("pair enumeration aborted")
			s.state = StateFinished
			return Outcome{}, err
		}
		if !ok {
			return s.finish(ctx, log), nil
		}

		flags := match.Candidates(
			s.list1.Simplified(pos1, s.enricher),
			s.list2.Simplified(pos2, s.enricher),
		)
		if !flags.Any() {
			continue
		}

		pair := &Pair{
			Position1:  pos1,
			Position2:  pos2,
			RecordA:    s.list1.At(pos1),
			RecordB:    s.list2.At(pos2),
			Flags:      flags,
			Comparison: s.comparator.Compare(s.list1.At(pos1), s.list2.At(pos2)),
		}
		s.recordDiffFields(pair.Comparison.DiffFields)
		if s.notifier != nil {
			s.notifier.DuplicateCandidate(ctx, s.id, *pair)
		}

		if s.shouldAutoRemove(pair.Comparison) {
			if err := s.autoRemove(ctx, pair); err != nil {
				// Surface the pair so the user can retry or skip it.
				log.WithError(err).Warn("auto-removal failed, deferring to manual decision")
				s.current = pair
				s.state = StateAwaitingDecision
				return Outcome{Pair: pair}, err
			}
			continue
		}

		if s.opts.DeferInteractiveReview && !s.reviewing {
			s.queue = append(s.queue, [2]int{pos1, pos2})
			continue
		}

		s.current = pair
		s.state = StateAwaitingDecision
		return Outcome{Pair: pair}, nil
	}
}

// nextPositions yields from the raw scan, then, in deferred mode, replays the
// queued pairs that still point at live records.
func (s *Session) nextPositions() (int, int, bool, error) {
	if !s.reviewing {
		pos1, pos2, ok, err := s.enum.Next()
		if err != nil || ok {
			return pos1, pos2, ok, err
		}
		if !s.opts.DeferInteractiveReview {
			return 0, 0, false, nil
		}
		s.reviewing = true
	}
	for s.reviewPos < len(s.queue) {
		p := s.queue[s.reviewPos]
		s.reviewPos++
		if s.list1.At(p[0]) != nil && s.list2.At(p[1]) != nil {
			return p[0], p[1], true, nil
		}
	}
	return 0, 0, false, nil
}

// shouldAutoRemove applies the auto-remove policy: never for incomparable
// pairs, and never against the first book when the preserve-first policy is
// on and the books differ.
func (s *Session) shouldAutoRemove(res compare.Result) bool {
	if res.Ordering == compare.OrderingIncomparable || !s.opts.AutoRemoveDuplicates {
		return false
	}
	if !s.sameBook && s.opts.PreserveFirstBookOnAutoRemove && res.Preference < 0 {
		return false
	}
	return true
}

func (s *Session) autoRemove(ctx context.Context, pair *Pair) error {
	if pair.Comparison.Preference < 0 {
		return s.deleteAt(ctx, 0, pair.Position1, true)
	}
	return s.deleteAt(ctx, 1, pair.Position2, true)
}

func (s *Session) finish(ctx context.Context, log ectologger.Logger) Outcome {
	s.state = StateFinished
	stats := s.Stats()
	log.WithFields(map[string]any{
		"recordsBefore": stats.RecordsBefore,
		"autoDeleted":   stats.AutoDeleted,
		"skipped":       stats.Skipped,
	}).Info("duplicate search finished")
	if s.notifier != nil {
		s.notifier.SessionFinished(ctx, s.id, stats)
	}
	return Outcome{Done: &stats}
}

// Skip counts the current pair as skipped and resumes scanning.
func (s *Session) Skip() error {
	if s.state != StateAwaitingDecision {
		return ErrNoCurrentPair
	}
	s.stats.Skipped++
	s.current = nil
	s.state = StateSearching
	return nil
}

// KeepBoth writes any edited field values back to both records and resumes
// scanning. On a persistence failure the session stays on the current pair so
// the caller can retry or skip.
func (s *Session) KeepBoth(ctx context.Context, editsA, editsB map[string]string) error {
	ctx, span := tracing.StartSpan(ctx, "dedup.Session.KeepBoth")
	defer span.End()

	if s.state != StateAwaitingDecision {
		return ErrNoCurrentPair
	}
	if err := s.updateAt(ctx, 0, s.current.Position1, editsA); err != nil {
		return err
	}
	if err := s.updateAt(ctx, 1, s.current.Position2, editsB); err != nil {
		return err
	}
	s.current = nil
	s.state = StateSearching
	return nil
}

// ApplyKeep writes edits to the kept record, deletes the other one and
// resumes scanning.
func (s *Session) ApplyKeep(ctx context.Context, keep Side, edits map[string]string) error {
	ctx, span := tracing.StartSpan(ctx, "dedup.Session.ApplyKeep")
	defer span.End()

	if s.state != StateAwaitingDecision {
		return ErrNoCurrentPair
	}
	keptBook, keptPos := 0, s.current.Position1
	deleBook, delePos := 1, s.current.Position2
	if keep == SideSecond {
		keptBook, keptPos, deleBook, delePos = deleBook, delePos, keptBook, keptPos
	}
	if err := s.updateAt(ctx, keptBook, keptPos, edits); err != nil {
		return err
	}
	if err := s.deleteAt(ctx, deleBook, delePos, false); err != nil {
		return err
	}
	s.current = nil
	s.state = StateSearching
	return nil
}

// Stop cancels the session. Already-issued store mutations are not rolled
// back.
func (s *Session) Stop(ctx context.Context) Stats {
	if s.state != StateFinished {
		s.finish(ctx, s.log.WithContext(ctx).WithField("sessionId", s.id))
	}
	return s.Stats()
}

// Restart re-reads the books and begins a fresh scan with fresh statistics.
// Only a finished session can be restarted.
func (s *Session) Restart(ctx context.Context) error {
	ctx, span := tracing.StartSpan(ctx, "dedup.Session.Restart")
	defer span.End()

	if s.state != StateFinished {
		return errors.Errorf("cannot restart session in state %s", s.state)
	}
	return s.load(ctx)
}

func (s *Session) list(book int) *RecordList {
	if book == 0 {
		return s.list1
	}
	return s.list2
}

func (s *Session) bookID(book int) string {
	if book == 0 {
		return s.book1.ID
	}
	return s.book2.ID
}

func (s *Session) mailLists(book int) []models.MailingList {
	if book == 0 {
		return s.mailLists1
	}
	return s.mailLists2
}

// updateAt applies edits to a record, persists it and refreshes the slot's
// derived values. A no-op when nothing actually changed.
func (s *Session) updateAt(ctx context.Context, book, pos int, edits map[string]string) error {
	list := s.list(book)
	rec := list.At(pos)
	if rec == nil || len(edits) == 0 {
		return nil
	}
	changed := false
	for field, value := range edits {
		if rec.Value(field) != value {
			rec.SetValue(field, value)
			changed = true
		}
	}
	if !changed {
		return nil
	}
	list.Invalidate(pos)
	s.enricher.Enrich(rec, s.mailLists(book))
	if err := s.store.UpdateRecord(ctx, s.bookID(book), rec); err != nil {
		return &PersistenceError{Op: "update", BookID: s.bookID(book), RecordID: rec.ID, Err: err}
	}
	s.stats.Changed++
	return nil
}

// deleteAt removes a record through the store and nulls its slot. Deletions
// in a shared book all count against book 1.
func (s *Session) deleteAt(ctx context.Context, book, pos int, auto bool) error {
	list := s.list(book)
	rec := list.At(pos)
	if rec == nil {
		return nil
	}
	if err := s.store.DeleteRecord(ctx, s.bookID(book), rec); err != nil {
		return &PersistenceError{Op: "delete", BookID: s.bookID(book), RecordID: rec.ID, Err: err}
	}
	list.Delete(pos)
	if book == 0 || s.sameBook {
		s.stats.DeletedBook1++
	} else {
		s.stats.DeletedBook2++
	}
	if auto {
		s.stats.AutoDeleted++
	}
	return nil
}

func (s *Session) recordDiffFields(diff []string) {
	for _, field := range diff {
		if _, ok := s.diffSeen[field]; ok {
			continue
		}
		s.diffSeen[field] = struct{}{}
		s.stats.DiffFields = append(s.stats.DiffFields, field)
	}
}
