// Command fetch issues a single REST call against one provider and prints
// the decoded response as JSON. Useful for poking at endpoints and checking
// credentials without standing anything else up.
//
// Usage:
//
//	fetch -provider twelvedata -op price -symbol AAPL
//	fetch -provider alphavantage -op listings
//	fetch -provider finnhub -op candles -symbol MSFT -resolution D
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"marketdata/internal/config"
	"marketdata/internal/httpx"
	"marketdata/internal/providers/alphavantage"
	"marketdata/internal/providers/finnhub"
	"marketdata/internal/providers/twelvedata"
	"marketdata/internal/ratelimit"
	"marketdata/internal/request"
)

func main() {
	var (
		provider   = flag.String("provider", "twelvedata", "alphavantage | finnhub | twelvedata")
		op         = flag.String("op", "quote", "operation to run (see usage)")
		symbol     = flag.String("symbol", "AAPL", "symbol to query")
		interval   = flag.String("interval", "1day", "time series interval (twelvedata)")
		resolution = flag.String("resolution", "D", "candle resolution (finnhub)")
		category   = flag.String("category", "general", "news category (finnhub)")
		keywords   = flag.String("keywords", "", "search keywords (alphavantage)")
		indicator  = flag.String("indicator", "sma", "technical indicator name (twelvedata)")
	)
	flag.Parse()

	cfg := config.Load()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	hc := httpx.New(time.Duration(cfg.RequestTimeoutSec) * time.Second)
	d := request.NewDispatcher(hc, ratelimit.NewRegistry())

	out, err := run(ctx, cfg, d, *provider, *op, *symbol, *interval, *resolution, *category, *keywords, *indicator)
	if err != nil {
		log.Fatalf("fetch: %v", err)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		log.Fatalf("fetch: encoding output: %v", err)
	}
}

func run(ctx context.Context, cfg config.Config, d *request.Dispatcher, provider, op, symbol, interval, resolution, category, keywords, indicator string) (any, error) {
	switch provider {
	case "alphavantage":
		var opts []alphavantage.Option
		if cfg.AlphavantageMaxRPM > 0 {
			opts = append(opts, alphavantage.WithRateLimit(cfg.AlphavantageMaxRPM, time.Minute))
		}
		c := alphavantage.New(cfg.AlphavantageAPIKey, d, opts...)
		switch op {
		case "daily":
			return c.TimeSeriesDaily(ctx, symbol, "compact")
		case "quote":
			return c.GlobalQuote(ctx, symbol)
		case "overview":
			return c.CompanyOverview(ctx, symbol)
		case "search":
			return c.SymbolSearch(ctx, keywords)
		case "listings":
			return c.ListingStatus(ctx)
		case "earnings":
			return c.EarningsCalendar(ctx, symbol, "")
		case "earnings-history":
			return c.Earnings(ctx, symbol)
		}
	case "finnhub":
		var opts []finnhub.Option
		if cfg.FinnhubMaxRPM > 0 {
			opts = append(opts, finnhub.WithRateLimit(cfg.FinnhubMaxRPM, time.Minute))
		}
		c := finnhub.New(cfg.FinnhubAPIKey, d, opts...)
		switch op {
		case "quote":
			return c.Quote(ctx, symbol)
		case "profile":
			return c.CompanyProfile(ctx, symbol)
		case "candles":
			return c.StockCandles(ctx, symbol, resolution, time.Now().AddDate(0, -1, 0), time.Now())
		case "news":
			return c.MarketNews(ctx, category)
		case "peers":
			return c.CompanyPeers(ctx, symbol)
		case "earnings":
			return c.EarningsCalendar(ctx, time.Now().AddDate(0, -1, 0), time.Now().AddDate(0, 1, 0), symbol)
		}
	case "twelvedata":
		var opts []twelvedata.Option
		if cfg.TwelveDataMaxRPM > 0 {
			opts = append(opts, twelvedata.WithRateLimit(cfg.TwelveDataMaxRPM, time.Minute))
		}
		c := twelvedata.New(cfg.TwelveDataAPIKey, d, opts...)
		switch op {
		case "series":
			return c.TimeSeries(ctx, symbol, interval, 30)
		case "quote":
			return c.Quote(ctx, symbol)
		case "price":
			return c.Price(ctx, symbol)
		case "stocks":
			return c.StocksList(ctx, "", "", "")
		case "indicator":
			return c.TechnicalIndicator(ctx, symbol, interval, indicator, nil)
		}
	default:
		return nil, fmt.Errorf("unknown provider %q", provider)
	}
	return nil, fmt.Errorf("unknown op %q for provider %q", op, provider)
}
