package chainbean

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/Rhymond/go-money"
)

// ChainType identifies the ledger model of a tracked address. Only the
// account-based Ethereum model is supported.
type ChainType string

const ChainEthereum ChainType = "ethereum"

// Connection is a tracked address with a known account prefix. The registry
// is read-only for the pipeline.
type Connection struct {
	Address       string    `json:"address"`
	Type          ChainType `json:"type"`
	AccountPrefix string    `json:"accountPrefix"`
}

// Coin maps an asset ticker symbol to the price service's canonical coin id.
type Coin struct {
	Symbol string `json:"symbol"`
	ID     string `json:"id"`
}

// Accounts holds the configured fallback accounts: deposit and withdraw for
// transfer counterparts that are not tracked connections, and the native
// transaction-fee account.
type Accounts struct {
	Deposit  string `json:"deposit"`
	Withdraw string `json:"withdraw"`
	EthTx    string `json:"ethTx"`
}

// Config is the typed configuration consumed read-only by the pipeline.
// It is validated once, at load time.
type Config struct {
	Fiat           string       `json:"fiat"`
	Coins          []Coin       `json:"coins"`
	Connections    []Connection `json:"connections"`
	DefaultAccount Accounts     `json:"defaultAccount"`
	Rules          []Rule       `json:"rules"`
}

// DecodeConfig reads and validates a JSON configuration.
func DecodeConfig(r io.Reader) (*Config, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	cfg := new(Config)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("cannot decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for correctness and applies quick fixes
// where applicable (addresses are canonicalized to lower case).
func (c *Config) Validate() error {
	c.Fiat = strings.ToUpper(c.Fiat)
	if money.GetCurrency(c.Fiat) == nil {
		return fmt.Errorf("unknown fiat currency: %q", c.Fiat)
	}
	if c.DefaultAccount.Deposit == "" || c.DefaultAccount.Withdraw == "" || c.DefaultAccount.EthTx == "" {
		return fmt.Errorf("default accounts (deposit, withdraw, ethTx) must all be set")
	}
	seen := make(map[string]bool)
	for i := range c.Connections {
		conn := &c.Connections[i]
		if conn.Address == "" {
			return fmt.Errorf("connection %d: address is missing", i)
		}
		if conn.AccountPrefix == "" {
			return fmt.Errorf("connection %q: accountPrefix is missing", conn.Address)
		}
		switch conn.Type {
		case ChainEthereum:
		default:
			return fmt.Errorf("connection %q: unsupported chain type %q", conn.Address, conn.Type)
		}
		conn.Address = strings.ToLower(conn.Address)
		if seen[conn.Address] {
			return fmt.Errorf("connection %q declared twice", conn.Address)
		}
		seen[conn.Address] = true
	}
	coins := make(map[string]bool)
	for _, coin := range c.Coins {
		if coin.Symbol == "" || coin.ID == "" {
			return fmt.Errorf("coin entries need both symbol and id, got %+v", coin)
		}
		if coins[coin.Symbol] {
			return fmt.Errorf("coin symbol %q declared twice", coin.Symbol)
		}
		coins[coin.Symbol] = true
	}
	return nil
}

// CoinID resolves an asset symbol to the price service's coin id.
func (c *Config) CoinID(symbol string) (string, bool) {
	for _, coin := range c.Coins {
		if coin.Symbol == symbol {
			return coin.ID, true
		}
	}
	return "", false
}

// FindConnection returns the tracked connection for an address, or nil.
// Addresses are canonicalized to lower case at load time, so the lookup
// expects a lowercased address.
func FindConnection(addr string, conns []Connection) *Connection {
	for i := range conns {
		if conns[i].Address == addr {
			return &conns[i]
		}
	}
	return nil
}
