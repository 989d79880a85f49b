// Command server exposes the latest-price read path over HTTP: cache-first
// lookups backed by a rate-limited TwelveData fetch.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"marketdata/internal/cache"
	"marketdata/internal/config"
	"marketdata/internal/httpx"
	"marketdata/internal/providers/twelvedata"
	"marketdata/internal/quotes"
	"marketdata/internal/ratelimit"
	"marketdata/internal/request"
)

func main() {
	cfg := config.Load()
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	if cfg.TwelveDataAPIKey == "" {
		log.Println("warning: TWELVEDATA_API_KEY not set; provider fetches will fail")
	}

	hc := httpx.New(time.Duration(cfg.RequestTimeoutSec) * time.Second)
	var tdOpts []twelvedata.Option
	if cfg.TwelveDataMaxRPM > 0 {
		tdOpts = append(tdOpts, twelvedata.WithRateLimit(cfg.TwelveDataMaxRPM, time.Minute))
	}
	td := twelvedata.New(cfg.TwelveDataAPIKey, request.NewDispatcher(hc, ratelimit.NewRegistry()), tdOpts...)

	var store quotes.Store
	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		log.Printf("warning: redis at %s unavailable, serving uncached: %v", cfg.RedisAddr, err)
		redisClient.Close()
	} else {
		store = cache.NewRedis(redisClient, time.Duration(cfg.CacheTTLSec)*time.Second)
	}
	cancel()

	svc := quotes.NewService(td, store)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/api/price", func(w http.ResponseWriter, r *http.Request) {
		handlePrice(w, r, svc)
	})

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("server listening on :%s", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	_ = srv.Shutdown(shutdownCtx)
}

func handlePrice(w http.ResponseWriter, r *http.Request, svc *quotes.Service) {
	symbol := strings.TrimSpace(r.URL.Query().Get("symbol"))
	if symbol == "" {
		http.Error(w, "missing symbol query param", http.StatusBadRequest)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	p, err := svc.Latest(ctx, symbol)
	if err != nil {
		status := http.StatusBadGateway
		var re *request.Error
		if errors.As(err, &re) && re.Kind == request.KindHTTPStatus && re.Status == http.StatusNotFound {
			status = http.StatusNotFound
		}
		http.Error(w, err.Error(), status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(p)
}
