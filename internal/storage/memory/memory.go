// Package memory is an in-process bill store for development and tests.
// Data is lost on restart.
package memory

import (
	"context"
	"sort"
	"sync"

	"billreminder/internal/core"
)

type Store struct {
	mu     sync.RWMutex
	nextID int64
	bills  map[int64]core.Bill
}

func New() *Store {
	return &Store{
		nextID: 1,
		bills:  make(map[int64]core.Bill),
	}
}

func (s *Store) BillsByOwner(_ context.Context, ownerID string) ([]core.Bill, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []core.Bill{}
	for _, b := range s.bills {
		if b.OwnerID == ownerID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].DueDate.Equal(out[j].DueDate) {
			return out[i].DueDate.Before(out[j].DueDate)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) BillByOwnerAndID(_ context.Context, ownerID string, id int64) (core.Bill, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.bills[id]
	if !ok || b.OwnerID != ownerID {
		return core.Bill{}, core.ErrNotFound
	}
	return b, nil
}

func (s *Store) Insert(_ context.Context, b core.Bill) (core.Bill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b.ID = s.nextID
	s.nextID++
	s.bills[b.ID] = b
	return b, nil
}

func (s *Store) Replace(_ context.Context, b core.Bill) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.bills[b.ID]
	if !ok || cur.OwnerID != b.OwnerID {
		return core.ErrNotFound
	}
	s.bills[b.ID] = b
	return nil
}

func (s *Store) Delete(_ context.Context, ownerID string, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bills[id]
	if !ok || b.OwnerID != ownerID {
		return core.ErrNotFound
	}
	delete(s.bills, id)
	return nil
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }
