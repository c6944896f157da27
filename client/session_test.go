package client

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedGetter answers each address according to a per-address behavior.
type scriptedGetter struct {
	mu        sync.Mutex
	started   map[string]chan struct{}
	release   map[string]chan struct{}
	ignoreCtx bool
	errs      map[string]error
}

func newScriptedGetter() *scriptedGetter {
	return &scriptedGetter{
		started: map[string]chan struct{}{},
		release: map[string]chan struct{}{},
		errs:    map[string]error{},
	}
}

// block makes lookups of address wait until released.
func (g *scriptedGetter) block(address string) (started, release chan struct{}) {
	g.mu.Lock()
	defer g.mu.Unlock()
	started, release = make(chan struct{}), make(chan struct{})
	g.started[address] = started
	g.release[address] = release
	return started, release
}

func (g *scriptedGetter) Contract(ctx context.Context, address string) (*Contract, error) {
	g.mu.Lock()
	started, release := g.started[address], g.release[address]
	err := g.errs[address]
	g.mu.Unlock()

	if started != nil {
		close(started)
		if g.ignoreCtx {
			<-release
		} else {
			select {
			case <-release:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	if err != nil {
		return nil, err
	}
	return &Contract{Address: address, Balance: "1.00"}, nil
}

func TestSession_Search(t *testing.T) {
	s := NewSession(newScriptedGetter())

	got, err := s.Search(context.Background(), "  addrA \n")
	require.NoError(t, err)
	assert.Equal(t, "addrA", got.Address)
	assert.Same(t, got, s.Current())
}

func TestSession_EmptyQuery(t *testing.T) {
	s := NewSession(newScriptedGetter())

	_, err := s.Search(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyQuery)
	assert.Nil(t, s.Current())
}

func TestSession_NewerSearchCancelsOlder(t *testing.T) {
	g := newScriptedGetter()
	started, _ := g.block("slow")
	s := NewSession(g)

	done := make(chan error, 1)
	go func() {
		_, err := s.Search(context.Background(), "slow")
		done <- err
	}()
	<-started

	got, err := s.Search(context.Background(), "fast")
	require.NoError(t, err)
	assert.Equal(t, "fast", got.Address)

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrSuperseded)
	case <-time.After(2 * time.Second):
		t.Fatal("older search was not cancelled")
	}
	assert.Equal(t, "fast", s.Current().Address)
}

func TestSession_StaleResultDoesNotClobber(t *testing.T) {
	g := newScriptedGetter()
	g.ignoreCtx = true
	started, release := g.block("slow")
	s := NewSession(g)

	done := make(chan error, 1)
	go func() {
		_, err := s.Search(context.Background(), "slow")
		done <- err
	}()
	<-started

	_, err := s.Search(context.Background(), "fast")
	require.NoError(t, err)

	close(release)
	assert.ErrorIs(t, <-done, ErrSuperseded)
	assert.Equal(t, "fast", s.Current().Address)
}

func TestSession_FailedSearchClearsCurrent(t *testing.T) {
	g := newScriptedGetter()
	g.errs["broken"] = errors.New("request failed with status 500")
	s := NewSession(g)

	_, err := s.Search(context.Background(), "good")
	require.NoError(t, err)
	require.NotNil(t, s.Current())

	_, err = s.Search(context.Background(), "broken")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrSuperseded)
	assert.Nil(t, s.Current())
}
