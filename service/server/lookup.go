package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/brojonat/ledgerlens/service/contract"
	"github.com/brojonat/ledgerlens/service/market"
	"github.com/brojonat/ledgerlens/service/nats"
)

// publishTimeout bounds how long a lookup response waits on NATS.
const publishTimeout = 2 * time.Second

// ContractFetcher loads a contract snapshot. *contract.Normalizer satisfies it.
type ContractFetcher interface {
	FetchSnapshot(ctx context.Context, address string) (*contract.Snapshot, error)
}

// MarketFetcher loads display-only market data. *market.Client satisfies it.
type MarketFetcher interface {
	Fetch(ctx context.Context, symbol string) (*market.MarketData, error)
}

// lookupService runs a contract lookup and announces it on NATS.
type lookupService struct {
	contracts ContractFetcher
	publisher nats.Publisher
	logger    *slog.Logger
}

func (l *lookupService) Lookup(ctx context.Context, address string) (*contract.Snapshot, error) {
	snap, err := l.contracts.FetchSnapshot(ctx, address)
	if err != nil {
		return nil, err
	}
	l.publish(ctx, snap)
	return snap, nil
}

// publish never fails the lookup.
func (l *lookupService) publish(ctx context.Context, snap *contract.Snapshot) {
	if l.publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := l.publisher.PublishLookup(ctx, nats.FromSnapshot(snap, time.Now())); err != nil {
		l.logger.Warn("failed to publish lookup event", "address", snap.Address, "error", err)
	}
}
