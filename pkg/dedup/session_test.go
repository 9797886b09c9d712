package dedup

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/pkg/compare"
	"github.com/Ramsey-B/fern/pkg/fields"
	"github.com/Ramsey-B/fern/pkg/models"
)

type fakeStore struct {
	books     []models.Book
	records   map[string][]*models.Record
	mailLists map[string][]models.MailingList

	deleted   []string
	updated   []string
	deleteErr error
	updateErr error
}

func (f *fakeStore) ListBooks(ctx context.Context) ([]models.Book, error) {
	return f.books, nil
}

func (f *fakeStore) ListRecords(ctx context.Context, bookID string) ([]*models.Record, []models.MailingList, error) {
	live := make([]*models.Record, 0, len(f.records[bookID]))
	for _, rec := range f.records[bookID] {
		if rec != nil {
			live = append(live, rec)
		}
	}
	return live, f.mailLists[bookID], nil
}

func (f *fakeStore) UpdateRecord(ctx context.Context, bookID string, rec *models.Record) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updated = append(f.updated, rec.ID)
	return nil
}

func (f *fakeStore) DeleteRecord(ctx context.Context, bookID string, rec *models.Record) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, rec.ID)
	for i, r := range f.records[bookID] {
		if r != nil && r.ID == rec.ID {
			f.records[bookID][i] = nil
		}
	}
	return nil
}

func (f *fakeStore) CreateRecord(ctx context.Context, bookID string, fieldValues map[string]string) (string, error) {
	id := fmt.Sprintf("created-%d", len(f.records[bookID]))
	f.records[bookID] = append(f.records[bookID], &models.Record{ID: id, BookID: bookID, Fields: fieldValues})
	return id, nil
}

type fakeNotifier struct {
	candidates []Pair
	finished   []Stats
}

func (n *fakeNotifier) DuplicateCandidate(ctx context.Context, sessionID string, pair Pair) {
	n.candidates = append(n.candidates, pair)
}

func (n *fakeNotifier) SessionFinished(ctx context.Context, sessionID string, stats Stats) {
	n.finished = append(n.finished, stats)
}

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func rec(id string, fieldValues map[string]string) *models.Record {
	return &models.Record{ID: id, Fields: fieldValues}
}

func singleBookStore(records ...*models.Record) *fakeStore {
	return &fakeStore{
		books:   []models.Book{{ID: "b1", Name: "Personal"}},
		records: map[string][]*models.Record{"b1": records},
	}
}

func startSession(t *testing.T, store *fakeStore, book1, book2 string, opts Options) (*Session, *fakeNotifier) {
	t.Helper()
	notifier := &fakeNotifier{}
	s, err := NewSession(context.Background(), testLogger(), store, notifier, book1, book2, opts)
	require.NoError(t, err)
	return s, notifier
}

// runToEnd advances until the session finishes, failing on any surfaced pair.
func runToEnd(t *testing.T, s *Session) Stats {
	t.Helper()
	for {
		out, err := s.Advance(context.Background())
		require.NoError(t, err)
		require.Nil(t, out.Pair, "unexpected pair surfaced")
		if out.Done != nil {
			return *out.Done
		}
	}
}

func TestNewSessionValidation(t *testing.T) {
	t.Run("invalid configuration rejected eagerly", func(t *testing.T) {
		store := singleBookStore()
		_, err := NewSession(context.Background(), testLogger(), store, nil, "b1", "b1", Options{
			NationalTrunkPrefix: "abc",
		})
		assert.Error(t, err)
	})

	t.Run("empty store is fatal", func(t *testing.T) {
		store := &fakeStore{records: map[string][]*models.Record{}}
		_, err := NewSession(context.Background(), testLogger(), store, nil, "b1", "b1", Options{})
		assert.ErrorIs(t, err, ErrStoreUnavailable)
	})

	t.Run("unknown book rejected", func(t *testing.T) {
		store := singleBookStore()
		_, err := NewSession(context.Background(), testLogger(), store, nil, "b1", "nope", Options{})
		assert.Error(t, err)
	})
}

func TestAutoRemoveExactDuplicate(t *testing.T) {
	popular := rec("keep", map[string]string{
		fields.FirstName:       "John",
		fields.LastName:        "Smith",
		fields.PopularityIndex: "5",
	})
	unpopular := rec("delete", map[string]string{
		fields.FirstName:       "John",
		fields.LastName:        "Smith",
		fields.PopularityIndex: "0",
	})
	store := singleBookStore(popular, unpopular)
	s, notifier := startSession(t, store, "b1", "b1", Options{AutoRemoveDuplicates: true})

	stats := runToEnd(t, s)
	assert.Equal(t, []string{"delete"}, store.deleted)
	assert.Equal(t, 1, stats.AutoDeleted)
	assert.Equal(t, 1, stats.DeletedBook1)
	assert.Equal(t, 2, stats.RecordsBefore)
	require.Len(t, notifier.finished, 1)
	require.Len(t, notifier.candidates, 1)
}

func TestIncomparablePairAlwaysSurfaced(t *testing.T) {
	a := rec("a", map[string]string{
		fields.FirstName: "John",
		fields.LastName:  "Smith",
		"Company":        "Acme",
	})
	b := rec("b", map[string]string{
		fields.FirstName: "John",
		fields.LastName:  "Smith",
		"JobTitle":       "Engineer",
	})
	store := singleBookStore(a, b)
	s, _ := startSession(t, store, "b1", "b1", Options{AutoRemoveDuplicates: true})

	out, err := s.Advance(context.Background())
	require.NoError(t, err)
	require.NotNil(t, out.Pair)
	assert.Equal(t, compare.OrderingIncomparable, out.Pair.Comparison.Ordering)
	assert.Equal(t, StateAwaitingDecision, s.State())
	assert.Empty(t, store.deleted)
}

func TestPreserveFirstPolicy(t *testing.T) {
	// The first book's record is less complete, so the comparator prefers
	// deleting it; the preserve-first policy must suppress that.
	store := &fakeStore{
		books: []models.Book{{ID: "b1", Name: "Work"}, {ID: "b2", Name: "Home"}},
		records: map[string][]*models.Record{
			"b1": {rec("small", map[string]string{
				fields.FirstName: "John",
				fields.LastName:  "Smith",
			})},
			"b2": {rec("big", map[string]string{
				fields.FirstName: "John",
				fields.LastName:  "Smith",
				"Company":        "Acme",
			})},
		},
	}
	s, _ := startSession(t, store, "b1", "b2", Options{
		AutoRemoveDuplicates:          true,
		PreserveFirstBookOnAutoRemove: true,
	})

	out, err := s.Advance(context.Background())
	require.NoError(t, err)
	require.NotNil(t, out.Pair)
	assert.Negative(t, out.Pair.Comparison.Preference)
	assert.Empty(t, store.deleted)
}

func TestManualDecisions(t *testing.T) {
	newPair := func(t *testing.T) (*Session, *fakeStore) {
		store := singleBookStore(
			rec("a", map[string]string{fields.FirstName: "John", fields.LastName: "Smith"}),
			rec("b", map[string]string{fields.FirstName: "John", fields.LastName: "Smith", "Company": "Acme"}),
		)
		s, _ := startSession(t, store, "b1", "b1", Options{})
		out, err := s.Advance(context.Background())
		require.NoError(t, err)
		require.NotNil(t, out.Pair)
		return s, store
	}

	t.Run("skip", func(t *testing.T) {
		s, store := newPair(t)
		require.NoError(t, s.Skip())
		stats := runToEnd(t, s)
		assert.Equal(t, 1, stats.Skipped)
		assert.Empty(t, store.deleted)
	})

	t.Run("keep both with edits", func(t *testing.T) {
		s, store := newPair(t)
		err := s.KeepBoth(context.Background(),
			map[string]string{"Company": "Acme"},
			nil,
		)
		require.NoError(t, err)
		assert.Equal(t, []string{"a"}, store.updated)
		stats := runToEnd(t, s)
		assert.Equal(t, 1, stats.Changed)
	})

	t.Run("apply keeping the second", func(t *testing.T) {
		s, store := newPair(t)
		require.NoError(t, s.ApplyKeep(context.Background(), SideSecond, nil))
		assert.Equal(t, []string{"a"}, store.deleted)
		stats := runToEnd(t, s)
		assert.Equal(t, 1, stats.DeletedBook1)
		assert.Equal(t, 0, stats.AutoDeleted)
	})

	t.Run("decision without a pair fails", func(t *testing.T) {
		store := singleBookStore()
		s, _ := startSession(t, store, "b1", "b1", Options{})
		assert.ErrorIs(t, s.Skip(), ErrNoCurrentPair)
		assert.ErrorIs(t, s.ApplyKeep(context.Background(), SideFirst, nil), ErrNoCurrentPair)
	})
}

func TestDeferredReviewReplaysQueue(t *testing.T) {
	store := singleBookStore(
		rec("a", map[string]string{fields.FirstName: "Ann", fields.LastName: "Lee"}),
		rec("b", map[string]string{fields.FirstName: "Ann", fields.LastName: "Lee"}),
		rec("c", map[string]string{fields.FirstName: "Bob", fields.LastName: "Ray"}),
		rec("d", map[string]string{fields.FirstName: "Bob", fields.LastName: "Ray"}),
	)
	s, _ := startSession(t, store, "b1", "b1", Options{DeferInteractiveReview: true})

	// The raw scan queues both matches without surfacing them, then the
	// review pass replays the queue.
	out, err := s.Advance(context.Background())
	require.NoError(t, err)
	require.NotNil(t, out.Pair)
	first := out.Pair
	assert.Equal(t, "a", first.RecordA.ID)
	assert.Equal(t, "b", first.RecordB.ID)

	require.NoError(t, s.Skip())
	out, err = s.Advance(context.Background())
	require.NoError(t, err)
	require.NotNil(t, out.Pair)
	assert.Equal(t, "c", out.Pair.RecordA.ID)

	require.NoError(t, s.Skip())
	out, err = s.Advance(context.Background())
	require.NoError(t, err)
	require.NotNil(t, out.Done)
}

func TestDeferredReviewSkipsDeletedEntries(t *testing.T) {
	// Three mutually matching records. The raw scan queues (0,1), (0,2) and
	// (1,2). Deleting record b during review of the first pair must drop the
	// queued pairs that reference it.
	store := singleBookStore(
		rec("a", map[string]string{fields.FirstName: "Ann", fields.LastName: "Lee"}),
		rec("b", map[string]string{fields.FirstName: "Ann", fields.LastName: "Lee"}),
		rec("c", map[string]string{fields.FirstName: "Ann", fields.LastName: "Lee"}),
	)
	s, _ := startSession(t, store, "b1", "b1", Options{DeferInteractiveReview: true})

	out, err := s.Advance(context.Background())
	require.NoError(t, err)
	require.NotNil(t, out.Pair)
	assert.Equal(t, "a", out.Pair.RecordA.ID)
	assert.Equal(t, "b", out.Pair.RecordB.ID)

	// Keep a, delete b.
	require.NoError(t, s.ApplyKeep(context.Background(), SideFirst, nil))

	out, err = s.Advance(context.Background())
	require.NoError(t, err)
	require.NotNil(t, out.Pair)
	assert.Equal(t, "a", out.Pair.RecordA.ID)
	assert.Equal(t, "c", out.Pair.RecordB.ID)

	require.NoError(t, s.Skip())
	out, err = s.Advance(context.Background())
	require.NoError(t, err)
	require.NotNil(t, out.Done, "pair (b,c) references a deleted record and must not surface")
}

func TestPersistenceFailureSurfacesPair(t *testing.T) {
	store := singleBookStore(
		rec("a", map[string]string{fields.FirstName: "Ann", fields.LastName: "Lee"}),
		rec("b", map[string]string{fields.FirstName: "Ann", fields.LastName: "Lee", "Company": "Acme"}),
	)
	store.deleteErr = fmt.Errorf("disk on fire")
	s, _ := startSession(t, store, "b1", "b1", Options{AutoRemoveDuplicates: true})

	out, err := s.Advance(context.Background())
	var perr *PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "delete", perr.Op)
	require.NotNil(t, out.Pair, "failed pair is surfaced for a manual decision")
	assert.Equal(t, StateAwaitingDecision, s.State())

	// The caller can still skip past the failure.
	store.deleteErr = nil
	require.NoError(t, s.Skip())
	stats := runToEnd(t, s)
	assert.Equal(t, 1, stats.Skipped)
}

func TestYieldBudget(t *testing.T) {
	store := singleBookStore(
		rec("a", map[string]string{fields.FirstName: "Ann"}),
		rec("b", map[string]string{fields.FirstName: "Bob"}),
		rec("c", map[string]string{fields.FirstName: "Cay"}),
	)
	s, _ := startSession(t, store, "b1", "b1", Options{})
	// A clock that jumps far past the budget on every reading forces an
	// immediate progress yield.
	base := time.Now()
	s.now = func() time.Time {
		base = base.Add(2 * time.Second)
		return base
	}

	out, err := s.Advance(context.Background())
	require.NoError(t, err)
	require.NotNil(t, out.Progress)
	assert.Equal(t, 3, out.Progress.Max)
}

func TestStopAndRestart(t *testing.T) {
	store := singleBookStore(
		rec("a", map[string]string{fields.FirstName: "Ann", fields.LastName: "Lee"}),
		rec("b", map[string]string{fields.FirstName: "Ann", fields.LastName: "Lee"}),
	)
	s, notifier := startSession(t, store, "b1", "b1", Options{})

	out, err := s.Advance(context.Background())
	require.NoError(t, err)
	require.NotNil(t, out.Pair)

	s.Stop(context.Background())
	assert.Equal(t, StateFinished, s.State())
	require.Len(t, notifier.finished, 1)

	// A finished session restarts with fresh statistics against re-read
	// books.
	require.NoError(t, s.Restart(context.Background()))
	assert.Equal(t, StateSearching, s.State())
	stats := s.Stats()
	assert.Equal(t, 2, stats.RecordsBefore)
	assert.Zero(t, stats.Skipped)
	assert.Empty(t, stats.DiffFields)

	out, err = s.Advance(context.Background())
	require.NoError(t, err)
	require.NotNil(t, out.Pair, "restarted session finds the surviving pair again")
}

func TestDiffFieldsAccumulated(t *testing.T) {
	store := singleBookStore(
		rec("a", map[string]string{fields.FirstName: "Ann", fields.LastName: "Lee", "Company": "Acme"}),
		rec("b", map[string]string{fields.FirstName: "Ann", fields.LastName: "Lee"}),
	)
	s, _ := startSession(t, store, "b1", "b1", Options{})

	out, err := s.Advance(context.Background())
	require.NoError(t, err)
	require.NotNil(t, out.Pair)
	require.NoError(t, s.Skip())
	stats := runToEnd(t, s)
	assert.Equal(t, []string{"Company"}, stats.DiffFields)
}
