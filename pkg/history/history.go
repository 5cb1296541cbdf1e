// Package history keeps how often each candidate was chosen for a code and
// persists those counts so ranking survives restarts.
package history

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/btree"
)

// ErrInvalidRecord is returned for selections with an empty code or candidate.
var ErrInvalidRecord = errors.New("history record needs a code and a candidate")

// IOError reports a failed read or write of the backing storage. The
// in-memory table stays authoritative when it is returned.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("history %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// Record is one (code, candidate) selection tally.
type Record struct {
	Code      string    `msgpack:"code"`
	Candidate string    `msgpack:"candidate"`
	Count     int       `msgpack:"count"`
	LastUsed  time.Time `msgpack:"last_used"`
}

func lessRecord(a, b *Record) bool {
	if a.Code != b.Code {
		return a.Code < b.Code
	}
	return a.Candidate < b.Candidate
}

// Toggle reads and writes the history switch.
type Toggle interface {
	IsEnabled() bool
	SetEnabled(bool)
}

// Option configures a Store.
type Option func(*Store)

// WithFlushOnWrite persists after every Record call. Without it, state is
// written by Flush and Close only.
func WithFlushOnWrite(enabled bool) Option {
	return func(s *Store) {
		s.flushOnWrite = enabled
	}
}

// WithClock replaces time.Now for LastUsed stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// Store is the usage table. All methods are safe for concurrent use.
type Store struct {
	mu      sync.Mutex
	table   *btree.BTreeG[*Record]
	backend Backend
	toggle  Toggle

	flushOnWrite bool
	now          func() time.Time
}

// New loads history from backend. Missing or unreadable storage starts an
// empty table with a warning. A nil backend keeps history in memory only.
func New(backend Backend, toggle Toggle, opts ...Option) *Store {
	s := &Store{
		table:        btree.NewG(8, lessRecord),
		backend:      backend,
		toggle:       toggle,
		flushOnWrite: true,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if backend == nil {
		return s
	}
	records, err := backend.Load()
	if err != nil {
		log.Warnf("History at %s is unreadable, starting empty: %v", backend.Path(), err)
		return s
	}
	for i := range records {
		r := records[i]
		if r.Code == "" || r.Candidate == "" || r.Count < 1 {
			continue
		}
		if prev, ok := s.table.Get(&r); ok && prev.Count >= r.Count {
			continue
		}
		s.table.ReplaceOrInsert(&r)
	}
	log.Debugf("Loaded %d history records from %s", s.table.Len(), backend.Path())
	return s
}

// Record counts one selection of candidate for code.
func (s *Store) Record(code, candidate string) error {
	if code == "" || candidate == "" {
		return ErrInvalidRecord
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := &Record{Code: code, Candidate: candidate}
	r, ok := s.table.Get(key)
	if !ok {
		r = key
		s.table.ReplaceOrInsert(r)
	}
	r.Count++
	r.LastUsed = s.now()

	if !s.flushOnWrite || s.backend == nil {
		return nil
	}
	if u, ok := s.backend.(Upserter); ok {
		if err := u.Upsert(*r); err != nil {
			return &IOError{Op: "write", Path: s.backend.Path(), Err: err}
		}
		return nil
	}
	return s.saveLocked()
}

// UsageCount returns how often candidate was chosen for code.
func (s *Store) UsageCount(code, candidate string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.table.Get(&Record{Code: code, Candidate: candidate}); ok {
		return r.Count
	}
	return 0
}

// Counts returns a snapshot of every candidate count recorded for code.
func (s *Store) Counts(code string) map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()

	counts := make(map[string]int)
	s.table.AscendGreaterOrEqual(&Record{Code: code}, func(r *Record) bool {
		if r.Code != code {
			return false
		}
		counts[r.Candidate] = r.Count
		return true
	})
	return counts
}

// Records returns all records ordered by code, then candidate.
func (s *Store) Records() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() []Record {
	out := make([]Record, 0, s.table.Len())
	s.table.Ascend(func(r *Record) bool {
		out = append(out, *r)
		return true
	})
	return out
}

// Len returns the number of records.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.table.Len()
}

// Clear deletes every record, in memory and in storage.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.table.Clear(false)
	if s.backend == nil {
		return nil
	}
	return s.saveLocked()
}

// Flush writes the whole table to storage.
func (s *Store) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.backend == nil {
		return nil
	}
	return s.saveLocked()
}

func (s *Store) saveLocked() error {
	if err := s.backend.Save(s.snapshotLocked()); err != nil {
		return &IOError{Op: "write", Path: s.backend.Path(), Err: err}
	}
	return nil
}

// Close flushes and releases the backend.
func (s *Store) Close() error {
	if s.backend == nil {
		return nil
	}
	flushErr := s.Flush()
	if err := s.backend.Close(); err != nil {
		return &IOError{Op: "close", Path: s.backend.Path(), Err: err}
	}
	return flushErr
}

// IsEnabled reports whether selections should be recorded and used for ranking.
func (s *Store) IsEnabled() bool {
	if s.toggle == nil {
		return true
	}
	return s.toggle.IsEnabled()
}

// SetEnabled changes the history setting.
func (s *Store) SetEnabled(enabled bool) {
	if s.toggle != nil {
		s.toggle.SetEnabled(enabled)
	}
}
