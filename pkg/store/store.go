package store

import (
	"context"
	"sync"

	"github.com/chenjianlong/filetask/pkg/task"
)

type State int

const (
	NotFound State = iota
	Pending
	Ready
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Ready:
		return "ready"
	}
	return "not_found"
}

type entry struct {
	result *task.Result
	ready  chan struct{}
}

// Store keeps task results until they are evicted. Results are immutable once
// put, so readers share an RLock.
type Store struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

func New() *Store {
	return &Store{entries: make(map[string]*entry)}
}

// Register makes id known to the store so Get reports Pending until Put.
func (s *Store) Register(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[id]; !ok {
		s.entries[id] = &entry{ready: make(chan struct{})}
	}
}

func (s *Store) Put(id string, res task.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		e = &entry{ready: make(chan struct{})}
		s.entries[id] = e
	}
	if e.result != nil {
		return task.Errorf(task.DuplicateResult, "duplicate result for task %s", id)
	}
	res.TaskID = id
	e.result = &res
	close(e.ready)
	return nil
}

func (s *Store) Get(id string) (task.Result, State) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[id]
	if !ok {
		return task.Result{}, NotFound
	}
	if e.result == nil {
		return task.Result{}, Pending
	}
	return *e.result, Ready
}

// Wait blocks until the result for id is published or ctx ends.
func (s *Store) Wait(ctx context.Context, id string) (task.Result, error) {
	s.mu.RLock()
	e, ok := s.entries[id]
	s.mu.RUnlock()
	if !ok {
		return task.Result{}, task.Errorf(task.NotFound, "unknown task %s", id)
	}
	select {
	case <-e.ready:
	case <-ctx.Done():
		return task.Result{}, ctx.Err()
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return *e.result, nil
}

func (s *Store) Evict(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[id]; !ok {
		return false
	}
	delete(s.entries, id)
	return true
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
