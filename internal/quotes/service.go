package quotes

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"

	"marketdata/internal/cache"
)

// PriceSource returns the current price of a symbol from a provider.
type PriceSource interface {
	Price(ctx context.Context, symbol string) (string, error)
}

// Store is the latest-price cache the service reads through.
type Store interface {
	SetLatest(ctx context.Context, p cache.PricePoint) error
	GetLatest(ctx context.Context, symbol string) (cache.PricePoint, error)
}

// Service answers "latest price for a symbol": cache hit when the stream or
// a previous fetch already populated it, otherwise one provider fetch
// coalesced across concurrent callers asking for the same symbol.
type Service struct {
	source PriceSource
	store  Store // optional
	sf     singleflight.Group
}

func NewService(source PriceSource, store Store) *Service {
	return &Service{source: source, store: store}
}

func (s *Service) Latest(ctx context.Context, symbol string) (cache.PricePoint, error) {
	if s.store != nil {
		if p, err := s.store.GetLatest(ctx, symbol); err == nil {
			return p, nil
		}
	}
	v, err, _ := s.sf.Do(symbol, func() (any, error) {
		price, err := s.source.Price(ctx, symbol)
		if err != nil {
			return nil, err
		}
		p := cache.PricePoint{Symbol: symbol, Price: price, Time: time.Now().UTC()}
		if s.store != nil {
			// Best effort; a cache write failure must not fail the read.
			_ = s.store.SetLatest(ctx, p)
		}
		return p, nil
	})
	if err != nil {
		return cache.PricePoint{}, err
	}
	return v.(cache.PricePoint), nil
}
