package chainbean

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
)

// EtherscanBaseURL is the default endpoint of the ledger-explorer service.
const EtherscanBaseURL = "https://api.etherscan.io/api"

// Etherscan is the client for the ledger-explorer service. All requests go
// through the injected scheduler, which owns the service's rate limit.
type Etherscan struct {
	BaseURL string
	apiKey  string
	sched   *Scheduler
	client  *http.Client
	// details memoizes transaction lookups by hash: a hash is fetched at most
	// once per process even when sighted from several tracked addresses.
	details *cache.Cache
}

// NewEtherscan creates a client authenticating with apiKey and dispatching
// through sched.
func NewEtherscan(apiKey string, sched *Scheduler) *Etherscan {
	return &Etherscan{
		BaseURL: EtherscanBaseURL,
		apiKey:  apiKey,
		sched:   sched,
		client:  new(http.Client),
		details: cache.New(24*time.Hour, time.Hour),
	}
}

// result reads the explorer's JSON envelope. The absence of the result field
// signals an error, as does an explicit NOTOK message with no payload.
func (e *Etherscan) result(addr string, out any) error {
	var payload struct {
		Status  string          `json:"status"`
		Message string          `json:"message"`
		Result  json.RawMessage `json:"result"`
	}
	if err := jwget(e.client, addr, &payload); err != nil {
		return err
	}
	if len(payload.Result) == 0 || string(payload.Result) == "null" {
		return fmt.Errorf("explorer response has no result (status=%q message=%q)", payload.Status, payload.Message)
	}
	if err := json.Unmarshal(payload.Result, out); err != nil {
		return fmt.Errorf("cannot read explorer result: %w", err)
	}
	return nil
}

func (e *Etherscan) endpoint(params url.Values) string {
	params.Set("apikey", e.apiKey)
	return e.BaseURL + "?" + params.Encode()
}

// NormalTransactions lists the native transactions of an address.
func (e *Etherscan) NormalTransactions(ctx context.Context, address string) ([]RawTransfer, error) {
	addr := e.endpoint(url.Values{
		"module":  {"account"},
		"action":  {"txlist"},
		"address": {address},
	})
	return Schedule(ctx, e.sched, func(context.Context) ([]RawTransfer, error) {
		var list []RawTransfer
		if err := e.result(addr, &list); err != nil {
			return nil, fmt.Errorf("cannot list transactions of %s: %w", address, err)
		}
		return list, nil
	}).Wait()
}

// TokenTransfers lists the ERC-20 transfers of an address.
func (e *Etherscan) TokenTransfers(ctx context.Context, address string) ([]RawTransfer, error) {
	addr := e.endpoint(url.Values{
		"module":  {"account"},
		"action":  {"tokentx"},
		"address": {address},
	})
	return Schedule(ctx, e.sched, func(context.Context) ([]RawTransfer, error) {
		var list []RawTransfer
		if err := e.result(addr, &list); err != nil {
			return nil, fmt.Errorf("cannot list token transfers of %s: %w", address, err)
		}
		return list, nil
	}).Wait()
}

// TransactionByHash fetches the detail of one transaction: sender, receiver,
// native value and gas, merged from the proxy transaction and receipt
// endpoints (two scheduled calls). Results are memoized per hash.
func (e *Etherscan) TransactionByHash(ctx context.Context, hash string) (TxDetail, error) {
	if d, ok := e.details.Get(hash); ok {
		return d.(TxDetail), nil
	}

	txAddr := e.endpoint(url.Values{
		"module": {"proxy"},
		"action": {"eth_getTransactionByHash"},
		"txhash": {hash},
	})
	receiptAddr := e.endpoint(url.Values{
		"module": {"proxy"},
		"action": {"eth_getTransactionReceipt"},
		"txhash": {hash},
	})

	tx, err := Schedule(ctx, e.sched, func(context.Context) (proxyTx, error) {
		var t proxyTx
		if err := e.result(txAddr, &t); err != nil {
			return t, err
		}
		return t, nil
	}).Wait()
	if err != nil {
		return TxDetail{}, fmt.Errorf("cannot fetch transaction %s: %w", hash, err)
	}

	receipt, err := Schedule(ctx, e.sched, func(context.Context) (proxyReceipt, error) {
		var r proxyReceipt
		if err := e.result(receiptAddr, &r); err != nil {
			return r, err
		}
		return r, nil
	}).Wait()
	if err != nil {
		return TxDetail{}, fmt.Errorf("cannot fetch receipt %s: %w", hash, err)
	}

	detail := TxDetail{Hash: tx.Hash, From: tx.From, To: tx.To}
	if detail.Value, err = parseHex(tx.Value); err != nil {
		return TxDetail{}, fmt.Errorf("transaction %s: %w", hash, err)
	}
	if detail.GasPrice, err = parseHex(tx.GasPrice); err != nil {
		return TxDetail{}, fmt.Errorf("transaction %s: %w", hash, err)
	}
	if detail.GasUsed, err = parseHex(receipt.GasUsed); err != nil {
		return TxDetail{}, fmt.Errorf("receipt %s: %w", hash, err)
	}
	e.details.SetDefault(hash, detail)
	return detail, nil
}

// TokenBalance fetches the balance of a token contract for an address at the
// given block tag, in smallest units.
func (e *Etherscan) TokenBalance(ctx context.Context, contract, address, tag string) (string, error) {
	addr := e.endpoint(url.Values{
		"module":          {"account"},
		"action":          {"tokenbalance"},
		"contractaddress": {contract},
		"address":         {address},
		"tag":             {tag},
	})
	return Schedule(ctx, e.sched, func(context.Context) (string, error) {
		var balance string
		if err := e.result(addr, &balance); err != nil {
			return "", fmt.Errorf("cannot fetch balance of %s for %s: %w", contract, address, err)
		}
		return balance, nil
	}).Wait()
}

// proxyTx is the payload of eth_getTransactionByHash: quantities are
// hex-encoded.
type proxyTx struct {
	Hash     string `json:"hash"`
	From     string `json:"from"`
	To       string `json:"to"`
	Value    string `json:"value"`
	GasPrice string `json:"gasPrice"`
}

// proxyReceipt is the payload of eth_getTransactionReceipt.
type proxyReceipt struct {
	GasUsed string `json:"gasUsed"`
}

// parseHex converts a 0x-prefixed hex quantity into a decimal string, the
// form the listing endpoints use.
func parseHex(s string) (string, error) {
	trimmed := strings.TrimPrefix(s, "0x")
	if trimmed == "" {
		return "0", nil
	}
	v, ok := new(big.Int).SetString(trimmed, 16)
	if !ok {
		return "", fmt.Errorf("invalid hex quantity %q", s)
	}
	return v.String(), nil
}
