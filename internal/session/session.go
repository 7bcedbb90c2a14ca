package session

import (
	"errors"
	"sync"
	"time"
	"tournament-results/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrRunInProgress   = errors.New("an aggregation run is already in progress for this session")
	ErrSessionNotFound = errors.New("session not found")
)

// Session is the aggregation context passed into every operation: the
// current ledger snapshot and what produced it.
type Session struct {
	ID        string
	CreatedAt time.Time

	run        sync.Mutex
	mu         sync.RWMutex
	ledger     *domain.MergedLedger
	lastPeriod int
	sourceFile string
}

func New() *Session {
	return &Session{ID: uuid.NewString(), CreatedAt: time.Now()}
}

// Begin claims the session for one run. The returned func releases it.
func (s *Session) Begin() (func(), error) {
	if !s.run.TryLock() {
		return nil, ErrRunInProgress
	}
	return s.run.Unlock, nil
}

// Snapshot returns the current ledger, nil before anything was merged or
// imported. Callers must not modify it.
func (s *Session) Snapshot() *domain.MergedLedger {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ledger
}

func (s *Session) LastPeriod() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastPeriod
}

func (s *Session) SourceFile() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sourceFile
}

// Replace swaps in a new ledger as a whole.
func (s *Session) Replace(l *domain.MergedLedger, period int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ledger = l
	if period > 0 {
		s.lastPeriod = period
	}
}

// Load replaces the ledger with one read from an uploaded file.
func (s *Session) Load(l *domain.MergedLedger, fileName string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ledger = l
	s.sourceFile = fileName
	if periods := l.Periods(); len(periods) > 0 {
		s.lastPeriod = periods[len(periods)-1]
	}
}

type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewStore() *Store {
	return &Store{sessions: make(map[string]*Session)}
}

func (st *Store) Create() *Session {
	s := New()
	st.mu.Lock()
	st.sessions[s.ID] = s
	st.mu.Unlock()
	return s
}

func (st *Store) Get(id string) (*Session, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

func (st *Store) Delete(id string) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	if _, ok := st.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(st.sessions, id)
	return nil
}

// Expire drops sessions created before cutoff and reports how many went.
func (st *Store) Expire(cutoff time.Time) int {
	st.mu.Lock()
	defer st.mu.Unlock()
	n := 0
	for id, s := range st.sessions {
		if s.CreatedAt.Before(cutoff) {
			delete(st.sessions, id)
			n++
		}
	}
	return n
}
