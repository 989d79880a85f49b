// Command stream subscribes to live price updates and keeps the latest-price
// cache warm. Events are printed as they arrive; Ctrl+C stops the session
// cleanly at the next message boundary.
package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"marketdata/internal/cache"
	"marketdata/internal/config"
	"marketdata/internal/httpx"
	"marketdata/internal/providers/twelvedata"
	"marketdata/internal/ratelimit"
	"marketdata/internal/request"
	"marketdata/internal/stream"
)

func main() {
	symbolsFlag := flag.String("symbols", "AAPL,MSFT", "comma-separated symbols to subscribe")
	flag.Parse()

	cfg := config.Load()
	if cfg.TwelveDataAPIKey == "" {
		log.Fatal("TWELVEDATA_API_KEY is required")
	}
	symbols := splitCSV(*symbolsFlag)
	if len(symbols) == 0 {
		log.Fatal("no symbols to subscribe")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := connectCache(ctx, cfg)

	hc := httpx.New(time.Duration(cfg.RequestTimeoutSec) * time.Second)
	td := twelvedata.New(cfg.TwelveDataAPIKey, request.NewDispatcher(hc, ratelimit.NewRegistry()))

	onMessage := func(ev stream.Event) {
		if ev.Symbol == "" {
			return // heartbeats and subscribe acks carry no symbol
		}
		log.Printf("%s %s = %s", ev.Time.Format("15:04:05"), ev.Symbol, strconv.FormatFloat(ev.Price, 'f', -1, 64))
		if store != nil {
			p := cache.PricePoint{
				Symbol: ev.Symbol,
				Price:  strconv.FormatFloat(ev.Price, 'f', -1, 64),
				Time:   ev.Time,
			}
			if err := store.SetLatest(ctx, p); err != nil {
				log.Printf("cache: %v", err)
			}
		}
	}
	onError := func(err error) { log.Printf("stream: %v", err) }

	mgr := stream.NewManager(td.StreamConfig(onMessage, onError))
	if err := mgr.Subscribe(symbols...); err != nil {
		log.Fatalf("subscribe: %v", err)
	}
	if err := mgr.Start(ctx); err != nil {
		log.Fatalf("start: %v", err)
	}
	log.Printf("streaming %v; press Ctrl+C to stop", symbols)

	select {
	case <-ctx.Done():
		mgr.Stop()
		select {
		case <-mgr.Done():
		case <-time.After(5 * time.Second):
			log.Print("timed out waiting for session teardown")
		}
	case <-mgr.Done():
		// Session ended on its own (peer close); onError already reported why.
	}
}

// connectCache returns the redis-backed store, or nil when redis is not
// reachable so the stream still runs uncached.
func connectCache(ctx context.Context, cfg config.Config) *cache.Redis {
	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Printf("warning: redis at %s unavailable, running without cache: %v", cfg.RedisAddr, err)
		client.Close()
		return nil
	}
	return cache.NewRedis(client, time.Duration(cfg.CacheTTLSec)*time.Second)
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
