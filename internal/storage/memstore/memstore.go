// Package memstore is an in-memory storage.KV used by tests and by
// `--storage memory` for throwaway nodes. It can be told to fail commits so
// callers can exercise their rollback paths.
package memstore

import (
	"bytes"
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/rzbill/sharedq/internal/storage"
)

// ErrInjected is returned by Commit while a failure is armed.
var ErrInjected = errors.New("memstore: injected commit failure")

// Store is a map-backed storage.KV.
type Store struct {
	mu       sync.Mutex
	data     map[string][]byte
	failNext int
	commits  int
	closed   bool
}

var _ storage.KV = (*Store)(nil)

func New() *Store { return &Store{data: make(map[string][]byte)} }

// FailCommits makes the next n commits return ErrInjected without applying.
func (s *Store) FailCommits(n int) {
	s.mu.Lock()
	s.failNext = n
	s.mu.Unlock()
}

// Commits reports how many commits were applied successfully.
func (s *Store) Commits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commits
}

func (s *Store) Get(key []byte) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[string(key)]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return append([]byte{}, v...), nil
}

func (s *Store) Commit(ctx context.Context, muts []storage.Mutation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.New("memstore: closed")
	}
	if s.failNext > 0 {
		s.failNext--
		return ErrInjected
	}
	for _, m := range muts {
		if m.Delete {
			delete(s.data, string(m.Key))
			continue
		}
		s.data[string(m.Key)] = append([]byte{}, m.Value...)
	}
	s.commits++
	return nil
}

func (s *Store) Scan(prefix []byte, fn func(key, value []byte) error) error {
	s.mu.Lock()
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		if bytes.HasPrefix([]byte(k), prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	vals := make([][]byte, len(keys))
	for i, k := range keys {
		vals[i] = append([]byte{}, s.data[k]...)
	}
	s.mu.Unlock()

	for i, k := range keys {
		if err := fn([]byte(k), vals[i]); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}
