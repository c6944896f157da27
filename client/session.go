package client

import (
	"context"
	"errors"
	"sync"

	"github.com/brojonat/ledgerlens/service/view"
)

var (
	// ErrEmptyQuery is returned by Session.Search for a blank query.
	ErrEmptyQuery = view.ErrEmptyQuery

	// ErrSuperseded is returned by a search that finished after a newer one started.
	ErrSuperseded = errors.New("search superseded by a newer search")
)

// ContractGetter fetches a contract by address. *Client satisfies it.
type ContractGetter interface {
	Contract(ctx context.Context, address string) (*Contract, error)
}

// Session tracks the contract currently on display for one user. Only the
// most recent search may replace it; starting a search cancels the previous one.
type Session struct {
	getter ContractGetter

	mu      sync.Mutex
	seq     uint64
	cancel  context.CancelFunc
	current *Contract
}

// NewSession creates a Session backed by getter.
func NewSession(getter ContractGetter) *Session {
	return &Session{getter: getter}
}

// Search trims and validates query, then fetches it. If another search starts
// before this one finishes, this one returns ErrSuperseded and leaves
// Current untouched.
func (s *Session) Search(ctx context.Context, query string) (*Contract, error) {
	address, err := view.NormalizeQuery(query)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	s.seq++
	seq := s.seq
	if s.cancel != nil {
		s.cancel()
	}
	s.cancel = cancel
	s.mu.Unlock()

	result, err := s.getter.Contract(ctx, address)

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.seq {
		return nil, ErrSuperseded
	}
	s.cancel = nil
	if err != nil {
		s.current = nil
		return nil, err
	}
	s.current = result
	return result, nil
}

// Current returns the result of the latest successful search, or nil.
func (s *Session) Current() *Contract {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}
