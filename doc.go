// Package chainbean turns raw on-chain activity into a beancount ledger.
//
// For a set of tracked addresses it fetches native and ERC-20 transfers from
// an Etherscan-compatible explorer, reconciles both streams into aggregated
// transactions keyed by hash, converts them into balanced double-entry
// directives, rewrites directive fields through user-configured rules, and
// attaches historical market prices from CoinGecko.
//
// The core pipeline stages are:
//   - Scheduler: bounds concurrency and inter-request spacing per remote
//     service (one instance per service, injected into the clients).
//   - Aggregator: merges the native and token transfer streams, deduplicates
//     repeated legs and classifies each transaction.
//   - Directive builder: emits one ledger entry per aggregated transaction,
//     resolving tracked addresses to their account prefixes.
//   - Rule engine: pattern-based rewriting of directive fields.
//   - Price enricher: one historical price lookup per (date, coin) group.
//   - Balance builder: point-in-time balance assertions per tracked token.
//
// This package holds all the pipeline logic; the `cbn` command-line tool in
// cmd/ only wires configuration, API credentials and file output around it.
package chainbean
