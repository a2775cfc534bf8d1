package chainbean

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PaesslerAG/jsonpath"
)

// CoinGeckoBaseURL is the default endpoint of the price service.
const CoinGeckoBaseURL = "https://api.coingecko.com/api/v3"

// PriceLookupError is the explicit error response of the price service for
// one (coin, date) lookup. It is recoverable: the enricher logs it and leaves
// the group unannotated.
type PriceLookupError struct {
	ID  string
	Day Date
}

func (e *PriceLookupError) Error() string {
	return fmt.Sprintf("cannot find %s at %s", e.ID, e.Day)
}

// HistoricalPrice is the answer to one historical lookup: the coin's ticker
// symbol and its price per fiat currency on that day.
type HistoricalPrice struct {
	ID     string
	Day    Date
	Symbol string
	Prices map[string]float64
}

// Price returns the price in the given fiat currency, if reported.
func (p *HistoricalPrice) Price(fiat string) (float64, bool) {
	v, ok := p.Prices[strings.ToLower(fiat)]
	return v, ok
}

// CoinGecko is the client for the price service. Lookups dispatch through
// the injected scheduler; responses are cached on disk with daily expiry
// since a past date's price does not change.
type CoinGecko struct {
	BaseURL string
	sched   *Scheduler
	client  *http.Client
}

// NewCoinGecko creates a client dispatching through sched.
func NewCoinGecko(sched *Scheduler) *CoinGecko {
	return &CoinGecko{BaseURL: CoinGeckoBaseURL, sched: sched, client: cachedClient()}
}

// History schedules one historical price lookup and returns its future, so
// callers can fan out several lookups and join on the results.
func (g *CoinGecko) History(ctx context.Context, id string, day Date) *Future[*HistoricalPrice] {
	return Schedule(ctx, g.sched, func(context.Context) (*HistoricalPrice, error) {
		return g.history(id, day)
	})
}

func (g *CoinGecko) history(id string, day Date) (*HistoricalPrice, error) {
	addr := fmt.Sprintf("%s/coins/%s/history?date=%s", g.BaseURL, url.PathEscape(id), day.CoinDate())

	// The payload shape varies (error object, missing market_data), so it is
	// read as generic JSON and probed with jsonpath.
	var jobj any
	if err := jwget(g.client, addr, &jobj); err != nil {
		return nil, fmt.Errorf("cannot fetch history of %s: %w", id, err)
	}

	if _, err := jsonpath.Get("$.error", jobj); err == nil {
		return nil, &PriceLookupError{ID: id, Day: day}
	}

	price := &HistoricalPrice{ID: id, Day: day, Prices: make(map[string]float64)}
	if jval, err := jsonpath.Get("$.symbol", jobj); err == nil {
		if s, ok := jval.(string); ok {
			price.Symbol = s
		}
	}

	jval, err := jsonpath.Get("$.market_data.current_price", jobj)
	if err != nil {
		return nil, fmt.Errorf("no market data for %s at %s", id, day)
	}
	currencies, ok := jval.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("unexpected market data for %s at %s: %v", id, day, jval)
	}
	for cur, v := range currencies {
		if f, ok := v.(float64); ok {
			price.Prices[cur] = f
		}
	}
	return price, nil
}
