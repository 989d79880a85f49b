package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// PricePoint is the latest known price for a symbol. Price stays a string to
// avoid float rounding on the way through.
type PricePoint struct {
	Symbol string    `json:"symbol"`
	Price  string    `json:"price"`
	Time   time.Time `json:"time"`
}

// ErrNotFound reports that no cached price exists for the symbol.
var ErrNotFound = errors.New("cache: no price for symbol")

// Redis stores the latest price per symbol under latest:<symbol> with a TTL,
// so consumers reading behind a live stream never see stale data for long.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &Redis{client: client, ttl: ttl}
}

// SetLatest overwrites the cached price for p.Symbol.
func (r *Redis) SetLatest(ctx context.Context, p PricePoint) error {
	b, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal price point: %w", err)
	}
	if err := r.client.Set(ctx, latestKey(p.Symbol), b, r.ttl).Err(); err != nil {
		return fmt.Errorf("set latest price: %w", err)
	}
	return nil
}

// GetLatest returns the cached price for symbol, or ErrNotFound.
func (r *Redis) GetLatest(ctx context.Context, symbol string) (PricePoint, error) {
	b, err := r.client.Get(ctx, latestKey(symbol)).Bytes()
	if errors.Is(err, redis.Nil) {
		return PricePoint{}, ErrNotFound
	}
	if err != nil {
		return PricePoint{}, fmt.Errorf("get latest price: %w", err)
	}
	var p PricePoint
	if err := json.Unmarshal(b, &p); err != nil {
		return PricePoint{}, fmt.Errorf("unmarshal price point: %w", err)
	}
	return p, nil
}

func latestKey(symbol string) string { return "latest:" + symbol }
