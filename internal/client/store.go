package client

import (
	"context"
	"errors"
	"slices"
	"sync"
)

// Status is the part of every store state that tracks the last fetch.
type Status struct {
	IsLoading bool
	// Error is the message of the last failed fetch, empty after a
	// successful one.
	Error string
}

// store holds a state value and notifies subscribers after each change.
// Subscribers run synchronously, outside the lock, in subscription order.
type store[S any] struct {
	mu     sync.Mutex
	state  S
	subs   map[int]func(S)
	order  []int
	nextID int
}

func (s *store[S]) snapshot() S {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *store[S]) subscribe(fn func(S)) (cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.subs == nil {
		s.subs = make(map[int]func(S))
	}
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.order = append(s.order, id)

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subs, id)
			s.order = slices.DeleteFunc(s.order, func(v int) bool { return v == id })
		})
	}
}

func (s *store[S]) update(fn func(*S)) {
	s.mu.Lock()
	fn(&s.state)
	state := s.state
	subs := make([]func(S), 0, len(s.subs))
	for _, id := range s.order {
		if sub, ok := s.subs[id]; ok {
			subs = append(subs, sub)
		}
	}
	s.mu.Unlock()

	for _, sub := range subs {
		sub(state)
	}
}

// fetch runs one store action: mark loading and clear the error, call get,
// then either apply the result or record the error, then clear loading.
// Data from earlier fetches is kept when get fails.
func fetch[S, T any](ctx context.Context, st *store[S], status func(*S) *Status, get func(context.Context) (T, error), apply func(*S, T)) error {
	st.update(func(s *S) {
		*status(s) = Status{IsLoading: true}
	})

	result, err := get(ctx)

	st.update(func(s *S) {
		if err != nil {
			*status(s) = Status{Error: errorMessage(err)}
			return
		}
		apply(s, result)
		*status(s) = Status{}
	})
	return err
}

func errorMessage(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}
