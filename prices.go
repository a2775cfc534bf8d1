package chainbean

import (
	"context"
	"log"
	"strconv"
	"strings"
)

// PriceSource issues historical price lookups. *CoinGecko implements it.
type PriceSource interface {
	History(ctx context.Context, id string, day Date) *Future[*HistoricalPrice]
}

// priceGroup keys one upstream lookup: all directives of one entry date and
// one coin id share a single request.
type priceGroup struct {
	day  Date
	coin string
}

// FillPrices annotates the cost basis of directives with historical prices.
//
// Directives are grouped by (entry date, coin id), where the coin id comes
// from the configured symbol table; assets without a coin id are excluded.
// Exactly one lookup is issued per group, all groups dispatched concurrently
// through the source's scheduler and joined before returning. A failed group
// is logged and left unannotated; it never fails the run.
//
// Within an answered group, only directives with a non-negative amount whose
// symbol matches the response's symbol (case-insensitively) are annotated.
func FillPrices(ctx context.Context, entries []*Entry, cfg *Config, src PriceSource) {
	groups := make(map[priceGroup][]*Directive)
	var order []priceGroup
	for _, e := range entries {
		for _, d := range e.Directives {
			id, ok := cfg.CoinID(d.Symbol)
			if !ok {
				continue
			}
			g := priceGroup{day: e.Date, coin: id}
			if _, ok := groups[g]; !ok {
				order = append(order, g)
			}
			groups[g] = append(groups[g], d)
		}
	}

	// Fan out one lookup per group, then join on every future.
	futures := make([]*Future[*HistoricalPrice], len(order))
	for i, g := range order {
		futures[i] = src.History(ctx, g.coin, g.day)
	}
	for i, g := range order {
		price, err := futures[i].Wait()
		if err != nil {
			log.Printf("price lookup failed (group left unannotated): %v", err)
			continue
		}
		annotate(groups[g], price, cfg.Fiat)
	}
}

func annotate(dirs []*Directive, price *HistoricalPrice, fiat string) {
	v, ok := price.Price(fiat)
	if !ok {
		log.Printf("no %s price for %s at %s", fiat, price.ID, price.Day)
		return
	}
	cost := strconv.FormatFloat(v, 'f', -1, 64) + " " + fiat
	for _, d := range dirs {
		if d.Amount.Sign() >= 0 && strings.EqualFold(d.Symbol, price.Symbol) {
			d.Cost = cost
		}
	}
}
