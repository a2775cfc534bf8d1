package chainbean

import (
	"context"
	"fmt"
	"log"
)

// Explorer is the full ledger-explorer surface the pipeline consumes.
// *Etherscan implements it.
type Explorer interface {
	NormalTransactions(ctx context.Context, address string) ([]RawTransfer, error)
	TokenTransfers(ctx context.Context, address string) ([]RawTransfer, error)
	TransactionFetcher
	BalanceFetcher
}

// Roaster runs the whole pipeline: fetch, aggregate, build directives, apply
// rules, enrich prices, and collect balance assertions.
type Roaster struct {
	Config   *Config
	Explorer Explorer
	Prices   PriceSource
}

// NewRoaster wires the pipeline. The explorer and price source carry their
// own schedulers.
func NewRoaster(cfg *Config, explorer Explorer, prices PriceSource) *Roaster {
	return &Roaster{Config: cfg, Explorer: explorer, Prices: prices}
}

// Roast processes every tracked connection and returns the resulting ledger.
//
// Connections are processed one at a time over a single shared aggregation
// map, so a transaction sighted from two tracked addresses aggregates once.
// Within one connection the phases run in strict sequence: listing fetches,
// native pass, token pass (each unseen-hash lookup awaited before its leg is
// appended), reference point, then balance queries. Any fetch failure aborts
// the run; only price enrichment failures are contained.
func (r *Roaster) Roast(ctx context.Context) (*Ledger, error) {
	agg := NewAggregator()
	var balances []BalanceAssertion

	for _, conn := range r.Config.Connections {
		if conn.Type != ChainEthereum {
			continue
		}
		log.Printf("processing %s", conn.AccountPrefix)

		natives, err := r.Explorer.NormalTransactions(ctx, conn.Address)
		if err != nil {
			return nil, fmt.Errorf("connection %s: %w", conn.Address, err)
		}
		tokens, err := r.Explorer.TokenTransfers(ctx, conn.Address)
		if err != nil {
			return nil, fmt.Errorf("connection %s: %w", conn.Address, err)
		}

		for _, t := range natives {
			agg.AddNative(t)
		}
		for i, t := range tokens {
			log.Printf("  process token transfer (%d / %d)", i+1, len(tokens))
			if err := agg.AddToken(ctx, r.Explorer, t); err != nil {
				return nil, fmt.Errorf("connection %s: %w", conn.Address, err)
			}
		}

		ref, ok := ReferencePoint(natives, tokens)
		if !ok {
			continue // no activity, nothing to assert
		}
		bs, err := BuildBalances(ctx, r.Explorer, conn, agg.Tokens(), ref)
		if err != nil {
			return nil, fmt.Errorf("connection %s: %w", conn.Address, err)
		}
		balances = append(balances, bs...)
	}

	entries := BuildEntries(agg.Transactions(), r.Config.Connections, r.Config.DefaultAccount)
	ApplyRules(r.Config.Rules, entries)
	FillPrices(ctx, entries, r.Config, r.Prices)

	return &Ledger{Entries: entries, Balances: balances}, nil
}
