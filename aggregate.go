package chainbean

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
)

// TxKind classifies an aggregated transaction. The String form is the
// narration tag of the ledger entry built from it.
type TxKind int

const (
	// EthTransfer is a plain native-currency transfer with a nonzero value.
	EthTransfer TxKind = iota
	// ERC20Transfer is a transaction carrying exactly one token leg.
	ERC20Transfer
	// ERC20Exchange is a transaction carrying more than one token leg.
	ERC20Exchange
	// ContractExecution is a native transaction with a zero value.
	ContractExecution
)

func (k TxKind) String() string {
	switch k {
	case EthTransfer:
		return "ETH Transfer"
	case ERC20Transfer:
		return "ERC20 Transfer"
	case ERC20Exchange:
		return "ERC20 Exchange"
	case ContractExecution:
		return "Contract Execution"
	default:
		return "unknown"
	}
}

// RawTransfer is one record of either explorer listing (native transactions
// or token transfers), with the fields as the API delivers them: decimal
// strings for value, timestamp, block number and gas.
type RawTransfer struct {
	Hash            string `json:"hash"`
	From            string `json:"from"`
	To              string `json:"to"`
	Value           string `json:"value"`
	TimeStamp       string `json:"timeStamp"`
	BlockNumber     string `json:"blockNumber"`
	GasUsed         string `json:"gasUsed"`
	GasPrice        string `json:"gasPrice"`
	TokenSymbol     string `json:"tokenSymbol"`
	TokenDecimal    string `json:"tokenDecimal"`
	ContractAddress string `json:"contractAddress"`
}

// TxDetail is the merged detail of one transaction fetched by hash, used when
// a hash is first sighted through a token leg and the native listing never
// mentioned it.
type TxDetail struct {
	Hash     string
	From     string
	To       string
	Value    string
	GasUsed  string
	GasPrice string
}

// TransactionFetcher fetches the detail of a transaction by hash.
// *Etherscan implements it.
type TransactionFetcher interface {
	TransactionByHash(ctx context.Context, hash string) (TxDetail, error)
}

// AggregatedTransaction is the reconciled view of all legs sharing one hash.
// It is created on first sighting from either source stream, mutated while
// the streams drain, and immutable once aggregation is done.
type AggregatedTransaction struct {
	Hash        string
	From        string
	To          string
	Value       string // native value in smallest units
	GasUsed     string
	GasPrice    string
	TimeStamp   string // unix seconds
	BlockNumber string
	Kind        TxKind
	Legs        []RawTransfer
}

// unix returns the transaction timestamp as unix seconds.
func (t *AggregatedTransaction) unix() int64 { return parseUnix(t.TimeStamp) }

// TokenInfo is the first-seen metadata of a token symbol.
type TokenInfo struct {
	ContractAddress string
	TokenDecimal    string
}

// TokenMeta pairs a symbol with its metadata, for stable iteration.
type TokenMeta struct {
	Symbol string
	Info   TokenInfo
}

// Aggregator merges native-transfer and token-transfer records into
// aggregated transactions keyed by hash. One instance serves a whole run, so
// a transaction sighted from two tracked addresses aggregates only once.
// It must only be mutated from a single phase at a time.
type Aggregator struct {
	txs    map[string]*AggregatedTransaction
	tokens map[string]TokenInfo
}

// NewAggregator creates an empty aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{
		txs:    make(map[string]*AggregatedTransaction),
		tokens: make(map[string]TokenInfo),
	}
}

// AddNative records one native-transfer record. The first sighting of a hash
// creates the entry and classifies it; a later sighting only backfills the
// native value, since a token leg may have created the entry without one.
func (a *Aggregator) AddNative(r RawTransfer) {
	if tx, ok := a.txs[r.Hash]; ok {
		tx.Value = r.Value
		return
	}
	kind := EthTransfer
	if r.Value == "0" {
		kind = ContractExecution
	}
	a.txs[r.Hash] = &AggregatedTransaction{
		Hash:        r.Hash,
		From:        r.From,
		To:          r.To,
		Value:       r.Value,
		GasUsed:     r.GasUsed,
		GasPrice:    r.GasPrice,
		TimeStamp:   r.TimeStamp,
		BlockNumber: r.BlockNumber,
		Kind:        kind,
	}
}

// AddToken records one token-transfer record. When the hash is unseen the
// transaction detail is fetched first — the fetch completes before the leg is
// appended, so later phases always observe a fully populated entry. A leg
// whose (from, to, value) triple is already recorded is a duplicate and is
// dropped silently.
func (a *Aggregator) AddToken(ctx context.Context, fetcher TransactionFetcher, r RawTransfer) error {
	r.From = strings.ToLower(r.From)
	r.TokenSymbol = strings.ToUpper(r.TokenSymbol)

	if _, ok := a.tokens[r.TokenSymbol]; !ok {
		a.tokens[r.TokenSymbol] = TokenInfo{
			ContractAddress: r.ContractAddress,
			TokenDecimal:    r.TokenDecimal,
		}
	}

	tx, ok := a.txs[r.Hash]
	if !ok {
		detail, err := fetcher.TransactionByHash(ctx, r.Hash)
		if err != nil {
			return fmt.Errorf("cannot fetch transaction %s: %w", r.Hash, err)
		}
		tx = &AggregatedTransaction{
			Hash:        detail.Hash,
			From:        detail.From,
			To:          detail.To,
			Value:       detail.Value,
			GasUsed:     detail.GasUsed,
			GasPrice:    detail.GasPrice,
			TimeStamp:   r.TimeStamp,
			BlockNumber: r.BlockNumber,
		}
		a.txs[r.Hash] = tx
	}

	for _, leg := range tx.Legs {
		if leg.From == r.From && leg.To == r.To && leg.Value == r.Value {
			return nil
		}
	}
	tx.Legs = append(tx.Legs, r)
	if len(tx.Legs) <= 1 {
		tx.Kind = ERC20Transfer
	} else {
		tx.Kind = ERC20Exchange
	}
	return nil
}

// Transactions returns the aggregated transactions in ascending timestamp
// order. Call it only once both source streams are exhausted.
func (a *Aggregator) Transactions() []*AggregatedTransaction {
	txs := slices.Collect(maps.Values(a.txs))
	slices.SortStableFunc(txs, func(x, y *AggregatedTransaction) int {
		return int(x.unix() - y.unix())
	})
	return txs
}

// Tokens returns the token metadata discovered so far, sorted by symbol.
func (a *Aggregator) Tokens() []TokenMeta {
	meta := make([]TokenMeta, 0, len(a.tokens))
	for _, sym := range slices.Sorted(maps.Keys(a.tokens)) {
		meta = append(meta, TokenMeta{Symbol: sym, Info: a.tokens[sym]})
	}
	return meta
}

// RefPoint is the reference block and time of one tracked address, used to
// date and tag its balance assertions.
type RefPoint struct {
	BlockNumber int64
	TimeStamp   int64
}

// ReferencePoint compares the last record of each source list and keeps the
// one with the higher block number. This deliberately looks only at the tail
// records, not the true maximum across all records.
func ReferencePoint(natives, tokens []RawTransfer) (RefPoint, bool) {
	var tails []RawTransfer
	if len(tokens) > 0 {
		tails = append(tails, tokens[len(tokens)-1])
	}
	if len(natives) > 0 {
		tails = append(tails, natives[len(natives)-1])
	}
	if len(tails) == 0 {
		return RefPoint{}, false
	}
	last := tails[0]
	for _, t := range tails[1:] {
		if blockNumber(t) > blockNumber(last) {
			last = t
		}
	}
	return RefPoint{BlockNumber: blockNumber(last), TimeStamp: parseUnix(last.TimeStamp)}, true
}

func blockNumber(r RawTransfer) int64 {
	v, err := strconv.ParseInt(r.BlockNumber, 10, 64)
	if err != nil {
		return 0
	}
	return v
}
