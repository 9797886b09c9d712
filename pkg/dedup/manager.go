package dedup

import (
	"context"
	"sync"

	"github.com/Gobusters/ectologger"
	"github.com/pkg/errors"

	"github.com/Ramsey-B/fern/pkg/contacts"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// ErrSessionNotFound is returned when a session id is unknown to the manager.
var ErrSessionNotFound = errors.New("session not found")

// Manager owns the live sessions. Route handlers create, look up and close
// sessions through it; each session itself stays single-owner.
type Manager struct {
	log      ectologger.Logger
	store    contacts.Store
	notifier Notifier
	defaults Options

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager creates an empty session registry. The defaults fill in session
// options the caller leaves unset.
func NewManager(log ectologger.Logger, store contacts.Store, notifier Notifier, defaults Options) *Manager {
	return &Manager{
		log:      log,
		store:    store,
		notifier: notifier,
		defaults: defaults,
		sessions: map[string]*Session{},
	}
}

func (m *Manager) applyDefaults(opts Options) Options {
	if opts.NationalTrunkPrefix == "" {
		opts.NationalTrunkPrefix = m.defaults.NationalTrunkPrefix
	}
	if opts.InternationalCallPrefix == "" {
		opts.InternationalCallPrefix = m.defaults.InternationalCallPrefix
	}
	if opts.CountryCallingCode == "" {
		opts.CountryCallingCode = m.defaults.CountryCallingCode
	}
	if opts.YieldBudget <= 0 {
		opts.YieldBudget = m.defaults.YieldBudget
	}
	return opts
}

// Create starts a new session over the given books and registers it.
func (m *Manager) Create(ctx context.Context, book1ID, book2ID string, opts Options) (*Session, error) {
	ctx, span := tracing.StartSpan(ctx, "dedup.Manager.Create")
	defer span.End()

	s, err := NewSession(ctx, m.log, m.store, m.notifier, book1ID, book2ID, m.applyDefaults(opts))
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.sessions[s.ID()] = s
	m.mu.Unlock()

	m.log.WithContext(ctx).WithFields(map[string]any{
		"sessionId": s.ID(),
		"book1Id":   book1ID,
		"book2Id":   book2ID,
	}).Info("duplicate search session created")
	return s, nil
}

// Get returns a registered session.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Close stops a session and removes it from the registry, returning its final
// statistics.
func (m *Manager) Close(ctx context.Context, id string) (Stats, error) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return Stats{}, ErrSessionNotFound
	}
	return s.Stop(ctx), nil
}

// IDs lists the registered session ids.
func (m *Manager) IDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	return ids
}
