package state

import (
	"log/slog"
	"slices"
	"sync"

	"github.com/wacspeakers/speakerdir/internal/models"
)

// Request identifies a family of requests whose responses must be applied in
// issue order. Each family carries its own generation counter.
type Request int

const (
	SpeakerList Request = iota
	SpeakerDetail
	Session
	numRequests
)

// Snapshot is a copy of every slice, safe to read without locking.
type Snapshot struct {
	Search  SearchState          `json:"speaker"`
	Account models.AccountRecord `json:"user"`
	Profile ProfileState         `json:"profile"`
}

// Store owns the state slices. Dispatches are serialized: one intent is
// reduced and announced to subscribers before the next is looked at.
type Store struct {
	dispatchMu sync.Mutex

	mu      sync.RWMutex
	search  SearchState
	account models.AccountRecord
	profile ProfileState
	gens    [numRequests]uint64
	open    [numRequests]int

	subsMu  sync.Mutex
	subs    map[int]func(Snapshot)
	nextSub int

	logger *slog.Logger
}

// NewStore returns a store holding the initial slices.
func NewStore(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		search:  NewSearchState(),
		account: models.NewAccountRecord(),
		profile: NewProfileState(),
		subs:    make(map[int]func(Snapshot)),
		logger:  logger,
	}
}

// Dispatch reduces in into every slice and notifies subscribers.
// Subscribers run on the dispatching goroutine and must not Dispatch.
func (s *Store) Dispatch(in Intent) {
	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()

	s.mu.Lock()
	s.apply(in)
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
}

// Begin starts a request of kind and returns its generation. Only the
// response of the most recently begun request may be applied. Every Begin
// must be paired with a Finish once the request has settled.
func (s *Store) Begin(kind Request) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.beginLocked(kind)
}

// BeginIdle starts a request of kind only when no request of kind is open.
// It reports false, and begins nothing, while one is still running.
func (s *Store) BeginIdle(kind Request) (uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.open[kind] > 0 {
		return 0, false
	}
	return s.beginLocked(kind), true
}

func (s *Store) beginLocked(kind Request) uint64 {
	s.gens[kind]++
	s.open[kind]++
	return s.gens[kind]
}

// Finish marks one request of kind as settled, whether it succeeded,
// failed or was dropped as stale.
func (s *Store) Finish(kind Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.open[kind] > 0 {
		s.open[kind]--
	}
}

// Pending reports whether a request of kind is still running.
func (s *Store) Pending(kind Request) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.open[kind] > 0
}

// Latest reports whether gen is still the newest generation of kind.
func (s *Store) Latest(kind Request, gen uint64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gens[kind] == gen
}

// DispatchLatest dispatches intents in order only if gen is still the
// newest generation of kind, and reports whether it did. Subscribers see
// one snapshot after all of them. A stale response is dropped.
func (s *Store) DispatchLatest(kind Request, gen uint64, intents ...Intent) bool {
	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()

	s.mu.Lock()
	if s.gens[kind] != gen {
		s.mu.Unlock()
		for _, in := range intents {
			s.logger.Debug("dropping stale response", "intent", Name(in), "generation", gen)
		}
		return false
	}
	for _, in := range intents {
		s.apply(in)
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
	return true
}

func (s *Store) apply(in Intent) {
	s.logger.Debug("dispatch", "intent", Name(in))
	s.search = ReduceSearch(s.search, in)
	s.account = ReduceAccount(s.account, in)
	s.profile = ReduceProfile(s.profile, in)
}

// Subscribe registers fn to receive a snapshot after every dispatch.
// The returned function unsubscribes.
func (s *Store) Subscribe(fn func(Snapshot)) func() {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()

	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.subsMu.Lock()
		defer s.subsMu.Unlock()
		delete(s.subs, id)
	}
}

func (s *Store) notify(snap Snapshot) {
	s.subsMu.Lock()
	subs := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.subsMu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
}

// Snapshot returns a copy of every slice.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Search returns a copy of the listing slice.
func (s *Store) Search() SearchState {
	return s.Snapshot().Search
}

// Account returns a copy of the account record.
func (s *Store) Account() models.AccountRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.account.Clone()
}

// Profile returns a copy of the profile slice.
func (s *Store) Profile() ProfileState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneProfile(s.profile)
}

func (s *Store) snapshotLocked() Snapshot {
	search := s.search
	search.Results = slices.Clone(s.search.Results)
	if s.search.Speaker != nil {
		sp := *s.search.Speaker
		search.Speaker = &sp
	}
	return Snapshot{
		Search:  search,
		Account: s.account.Clone(),
		Profile: cloneProfile(s.profile),
	}
}

func cloneProfile(p ProfileState) ProfileState {
	p.Profile = models.Profile{Fields: p.Profile.Fields.Clone()}
	return p
}
