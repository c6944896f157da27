package solana

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectRandomEndpoint(t *testing.T) {
	t.Run("successful selection from multiple endpoints", func(t *testing.T) {
		endpoints := []string{
			"https://api.mainnet-beta.solana.com",
			"https://mainnet.helius-rpc.com",
			"https://rpc.ankr.com/solana",
		}

		selected, err := SelectRandomEndpoint(endpoints)
		require.NoError(t, err)
		assert.Contains(t, endpoints, selected)
	})

	t.Run("successful selection from single endpoint", func(t *testing.T) {
		endpoints := []string{"https://api.mainnet-beta.solana.com"}

		selected, err := SelectRandomEndpoint(endpoints)
		require.NoError(t, err)
		assert.Equal(t, endpoints[0], selected)
	})

	t.Run("error on empty slice", func(t *testing.T) {
		_, err := SelectRandomEndpoint([]string{})
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "no RPC endpoints configured")
	})

	t.Run("error on nil slice", func(t *testing.T) {
		_, err := SelectRandomEndpoint(nil)
		assert.Error(t, err)
	})
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDiscoverEndpoint(t *testing.T) {
	t.Run("skips unhealthy endpoints", func(t *testing.T) {
		endpoints := []string{"https://down-1.example.com", "https://up.example.com", "https://down-2.example.com"}
		probe := func(ctx context.Context, endpoint string) error {
			if endpoint == "https://up.example.com" {
				return nil
			}
			return errors.New("connection refused")
		}

		selected, err := DiscoverEndpoint(context.Background(), endpoints, probe, discardLogger())
		require.NoError(t, err)
		assert.Equal(t, "https://up.example.com", selected)
	})

	t.Run("probes each endpoint once when all are down", func(t *testing.T) {
		endpoints := []string{"https://a.example.com", "https://b.example.com"}
		calls := map[string]int{}
		probe := func(ctx context.Context, endpoint string) error {
			calls[endpoint]++
			return errors.New("timeout")
		}

		_, err := DiscoverEndpoint(context.Background(), endpoints, probe, discardLogger())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no healthy RPC endpoint")
		assert.Equal(t, map[string]int{"https://a.example.com": 1, "https://b.example.com": 1}, calls)
	})

	t.Run("does not mutate the caller's slice", func(t *testing.T) {
		endpoints := []string{"https://a.example.com", "https://b.example.com", "https://c.example.com"}
		original := append([]string(nil), endpoints...)
		probe := func(ctx context.Context, endpoint string) error { return errors.New("down") }

		_, _ = DiscoverEndpoint(context.Background(), endpoints, probe, discardLogger())
		assert.Equal(t, original, endpoints)
	})

	t.Run("no endpoints", func(t *testing.T) {
		_, err := DiscoverEndpoint(context.Background(), nil, RPCHealthProbe, discardLogger())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no RPC endpoints configured")
	})
}

func TestProvider_LazySingleClient(t *testing.T) {
	probes := 0
	probe := func(ctx context.Context, endpoint string) error {
		probes++
		return nil
	}

	p := NewProvider([]string{"https://rpc.example.com/?api-key=secret"}, probe, nil, discardLogger())
	p.newRPC = func(endpoint string) RPCClient { return &mockRPCClient{} }

	assert.Equal(t, 0, probes, "discovery must not happen before first use")

	first, err := p.Get(context.Background())
	require.NoError(t, err)
	second, err := p.Get(context.Background())
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, probes)
	assert.Equal(t, "rpc.example.com", first.Endpoint())
}

func TestProvider_DiscoveryFailurePropagates(t *testing.T) {
	fail := true
	probe := func(ctx context.Context, endpoint string) error {
		if fail {
			return errors.New("unreachable")
		}
		return nil
	}

	p := NewProvider([]string{"https://rpc.example.com"}, probe, nil, discardLogger())
	p.newRPC = func(endpoint string) RPCClient { return &mockRPCClient{} }

	client, err := p.Get(context.Background())
	require.Error(t, err)
	assert.Nil(t, client)

	fail = false
	client, err = p.Get(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, client)
}

func TestEndpointLabel(t *testing.T) {
	assert.Equal(t, "mainnet.helius-rpc.com", endpointLabel("https://mainnet.helius-rpc.com/?api-key=abc"))
	assert.Equal(t, "unknown", endpointLabel("not a url"))
}
