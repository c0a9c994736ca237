package status

import (
	"sort"
	"sync"
	"time"
)

// CycleStatus is the last observed state of one sync loop.
type CycleStatus struct {
	Worker      string    `json:"worker"`
	Cycles      int64     `json:"cycles"`
	Failures    int64     `json:"failures"`
	LastSuccess time.Time `json:"last_success,omitzero"`
	LastError   string    `json:"last_error,omitempty"`
	LastErrorAt time.Time `json:"last_error_at,omitzero"`
	Terminated  bool      `json:"terminated"`
}

// Failure is one failed cycle, kept in a bounded ring for the status API.
type Failure struct {
	Worker   string    `json:"worker"`
	Category string    `json:"category"`
	Error    string    `json:"error"`
	At       time.Time `json:"at"`
}

// Store tracks per-worker cycle outcomes. All methods are safe for
// concurrent use and no-ops on a nil store.
type Store struct {
	mu       sync.RWMutex
	byWorker map[string]*CycleStatus
	recent   []Failure
	limit    int
}

func NewStore(limit int) *Store {
	if limit <= 0 {
		limit = 100
	}
	return &Store{byWorker: make(map[string]*CycleStatus), limit: limit}
}

func (s *Store) RecordSuccess(worker string) {
	if s == nil || worker == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.get(worker)
	st.Cycles++
	st.LastSuccess = time.Now().UTC()
}

func (s *Store) RecordFailure(worker, category string, err error) {
	if s == nil || worker == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	st := s.get(worker)
	st.Cycles++
	st.Failures++
	st.LastError = err.Error()
	st.LastErrorAt = now
	if len(s.recent) < s.limit {
		s.recent = append(s.recent, Failure{Worker: worker, Category: category, Error: err.Error(), At: now})
		return
	}
	copy(s.recent, s.recent[1:])
	s.recent[len(s.recent)-1] = Failure{Worker: worker, Category: category, Error: err.Error(), At: now}
}

func (s *Store) MarkTerminated(worker string) {
	if s == nil || worker == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.get(worker).Terminated = true
}

// Workers returns a snapshot of every tracked loop, ordered by name.
func (s *Store) Workers() []CycleStatus {
	if s == nil {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]CycleStatus, 0, len(s.byWorker))
	for _, st := range s.byWorker {
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Worker < out[j].Worker })
	return out
}

// Recent returns the newest failures, newest last. limit <= 0 returns all.
func (s *Store) Recent(limit int) []Failure {
	if s == nil {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := len(s.recent)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]Failure, n)
	copy(out, s.recent[len(s.recent)-n:])
	return out
}

func (s *Store) get(worker string) *CycleStatus {
	st, ok := s.byWorker[worker]
	if !ok {
		st = &CycleStatus{Worker: worker}
		s.byWorker[worker] = st
	}
	return st
}
