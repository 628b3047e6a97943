package tabular

import (
	"context"
	"sync"
)

// MemoryStore keeps tables in process memory. Unknown tables read as
// empty at version 0.
type MemoryStore struct {
	mu     sync.RWMutex
	tables map[string]*Table

	// FailReads and FailWrites inject store outages.
	FailReads  error
	FailWrites error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tables: make(map[string]*Table)}
}

func (s *MemoryStore) Read(ctx context.Context, name string) (*Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.FailReads != nil {
		return nil, s.FailReads
	}
	t, ok := s.tables[name]
	if !ok {
		return &Table{Name: name}, nil
	}
	return t.Clone(), nil
}

func (s *MemoryStore) Write(ctx context.Context, t *Table) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailWrites != nil {
		return s.FailWrites
	}

	var current int64
	if existing, ok := s.tables[t.Name]; ok {
		current = existing.Version
	}
	if current != t.Version {
		return ErrVersionConflict
	}

	stored := t.Clone()
	stored.Version = current + 1
	s.tables[t.Name] = stored
	t.Version = stored.Version
	return nil
}

// Seed replaces a table wholesale, bumping its version.
func (s *MemoryStore) Seed(name string, rows ...Row) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var version int64
	if existing, ok := s.tables[name]; ok {
		version = existing.Version
	}
	t := (&Table{Name: name, Rows: rows}).Clone()
	t.Version = version + 1
	s.tables[name] = t
}
