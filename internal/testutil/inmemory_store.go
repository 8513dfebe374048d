package testutil

import (
	"context"
	"sync"

	ierr "github.com/upbill/upbill/internal/errors"
)

// InMemoryStore is a generic map-backed store shared by the in-memory
// repository fakes. Items are stored by id; callers are responsible for
// copying on the way in and out.
type InMemoryStore[T any] struct {
	mu    sync.RWMutex
	items map[string]T
}

func NewInMemoryStore[T any]() *InMemoryStore[T] {
	return &InMemoryStore[T]{items: make(map[string]T)}
}

func (s *InMemoryStore[T]) Create(ctx context.Context, id string, item T) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; ok {
		return ierr.NewError("item already exists").
			WithReportableDetails(map[string]interface{}{"id": id}).
			Mark(ierr.ErrAlreadyExists)
	}
	s.items[id] = item
	return nil
}

func (s *InMemoryStore[T]) Get(ctx context.Context, id string) (T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[id]
	if !ok {
		var zero T
		return zero, ierr.NewError("item not found").
			WithReportableDetails(map[string]interface{}{"id": id}).
			Mark(ierr.ErrNotFound)
	}
	return item, nil
}

func (s *InMemoryStore[T]) Update(ctx context.Context, id string, item T) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return ierr.NewError("item not found").
			WithReportableDetails(map[string]interface{}{"id": id}).
			Mark(ierr.ErrNotFound)
	}
	s.items[id] = item
	return nil
}

func (s *InMemoryStore[T]) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return ierr.NewError("item not found").
			WithReportableDetails(map[string]interface{}{"id": id}).
			Mark(ierr.ErrNotFound)
	}
	delete(s.items, id)
	return nil
}

// List returns items matching the filter, or all items when filter is nil.
// No ordering is guaranteed.
func (s *InMemoryStore[T]) List(ctx context.Context, filter func(ctx context.Context, item T) bool) []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []T
	for _, item := range s.items {
		if filter == nil || filter(ctx, item) {
			out = append(out, item)
		}
	}
	return out
}

func (s *InMemoryStore[T]) Count(ctx context.Context, filter func(ctx context.Context, item T) bool) int {
	return len(s.List(ctx, filter))
}

// notFoundErr builds the standard not-found error the fakes return, matching
// what the postgres repositories produce.
func notFoundErr(entity, id string) error {
	return ierr.NewErrorf("%s not found", entity).
		WithReportableDetails(map[string]interface{}{"id": id}).
		Mark(ierr.ErrNotFound)
}

func alreadyExistsErr(entity, key string) error {
	return ierr.NewErrorf("%s already exists", entity).
		WithReportableDetails(map[string]interface{}{"key": key}).
		Mark(ierr.ErrAlreadyExists)
}

func (s *InMemoryStore[T]) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = make(map[string]T)
}
