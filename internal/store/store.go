// internal/store/store.go
package store

import (
	"errors"
	"sync/atomic"
)

// Store holds the current Policy. Replacement is wholesale and atomic; a
// rejected policy leaves the previous one in effect.
type Store struct {
	cur atomic.Pointer[Policy]
}

// New validates p and returns a store holding it.
func New(p Policy) (*Store, error) {
	s := &Store{}
	if err := s.Swap(p); err != nil {
		return nil, err
	}
	return s, nil
}

// Load returns the current policy.
func (s *Store) Load() Policy {
	if p := s.cur.Load(); p != nil {
		return *p
	}
	return Policy{}
}

// Swap validates p and installs it.
func (s *Store) Swap(p Policy) error {
	if s == nil {
		return errors.New("store: nil store")
	}
	if err := p.Validate(); err != nil {
		return err
	}
	p.Offline = append([]Message(nil), p.Offline...)
	s.cur.Store(&p)
	return nil
}

// ReplaceOffline installs a copy of the current policy with a new offline
// list and returns it.
func (s *Store) ReplaceOffline(msgs []Message) (Policy, error) {
	for {
		old := s.cur.Load()
		if old == nil {
			return Policy{}, errors.New("store: no policy loaded")
		}
		next, err := old.WithOffline(msgs)
		if err != nil {
			return Policy{}, err
		}
		if s.cur.CompareAndSwap(old, &next) {
			return next, nil
		}
	}
}
