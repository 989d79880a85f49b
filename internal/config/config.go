package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Config carries the environment-supplied settings the commands wire the
// core with. API keys are opaque here; each provider client knows its own
// auth convention and default rate limits.
type Config struct {
	AlphavantageAPIKey string
	FinnhubAPIKey      string
	TwelveDataAPIKey   string

	// Per-provider calls-per-minute overrides; 0 keeps the client default.
	AlphavantageMaxRPM int
	FinnhubMaxRPM      int
	TwelveDataMaxRPM   int

	RedisAddr         string
	CacheTTLSec       int
	RequestTimeoutSec int
}

// Load reads settings from the environment, with a .env file as fallback.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		RedisAddr:         "localhost:6379",
		CacheTTLSec:       120,
		RequestTimeoutSec: 10,
	}
	cfg.AlphavantageAPIKey = os.Getenv("ALPHAVANTAGE_API_KEY")
	cfg.FinnhubAPIKey = os.Getenv("FINNHUB_API_KEY")
	cfg.TwelveDataAPIKey = os.Getenv("TWELVEDATA_API_KEY")
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	envInt("ALPHAVANTAGE_MAX_RPM", &cfg.AlphavantageMaxRPM)
	envInt("FINNHUB_MAX_RPM", &cfg.FinnhubMaxRPM)
	envInt("TWELVEDATA_MAX_RPM", &cfg.TwelveDataMaxRPM)
	envInt("CACHE_TTL_SEC", &cfg.CacheTTLSec)
	envInt("REQUEST_TIMEOUT_SEC", &cfg.RequestTimeoutSec)
	return cfg
}

func envInt(name string, dst *int) {
	v := os.Getenv(name)
	if v == "" {
		return
	}
	var x int
	if _, err := fmt.Sscanf(v, "%d", &x); err == nil && x > 0 {
		*dst = x
	}
}
