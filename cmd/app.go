// Package cmd implements the CLI application to roast on-chain activity
// into a beancount ledger.
package cmd

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/cwlin/chainbean"
	"github.com/google/subcommands"
	"github.com/joho/godotenv"
)

// Register the subcommands. A main package calls Register() and then
// Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	c.Register(&roastCmd{}, "ledger")
	c.Register(&balancesCmd{}, "ledger")
	c.Register(&checkCmd{}, "configuration")
	c.Register(&assistCmd{}, "configuration")
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to
// use global flags.

var configPath = flag.String("config", "crypto.json", "Path to the configuration file (connections, coins, rules)")
var etherscanAPIFlag = flag.String("etherscan-api-key", "", "Etherscan API key.\n If missing it is read from the environment variable ETHERSCAN_API_KEY.")

// Per-service request pacing. The two services have different rate limits,
// so each gets its own scheduler.
const (
	etherscanMaxConcurrent = 1
	etherscanMinTime       = 200 * time.Millisecond
	coingeckoMaxConcurrent = 1
	coingeckoMinTime       = 600 * time.Millisecond
)

// environment is the process environment surface of the tool, hydrated once.
type environment struct {
	EtherscanAPIKey string `env:"ETHERSCAN_API_KEY"`
	GeminiAPIKey    string `env:"GEMINI_API_KEY"`
}

// loadEnvironment reads .env (if present) and the process environment.
func loadEnvironment() (environment, error) {
	_ = godotenv.Load() // a missing .env file is fine
	var e environment
	err := env.Parse(&e)
	return e, err
}

// etherscanAPIKey resolves the API key: the flag wins, then the environment.
func etherscanAPIKey() (string, error) {
	if *etherscanAPIFlag != "" {
		return *etherscanAPIFlag, nil
	}
	e, err := loadEnvironment()
	if err != nil {
		return "", err
	}
	if e.EtherscanAPIKey == "" {
		return "", errors.New("no Etherscan API key: set --etherscan-api-key or ETHERSCAN_API_KEY")
	}
	return e.EtherscanAPIKey, nil
}

// LoadConfig reads and validates the configuration file.
func LoadConfig() (*chainbean.Config, error) {
	f, err := os.Open(*configPath)
	if err != nil {
		return nil, fmt.Errorf("cannot open config %q: %w", *configPath, err)
	}
	defer f.Close()
	return chainbean.DecodeConfig(f)
}

// newExplorer builds the Etherscan client with its own scheduler.
func newExplorer() (*chainbean.Etherscan, error) {
	key, err := etherscanAPIKey()
	if err != nil {
		return nil, err
	}
	sched := chainbean.NewScheduler(etherscanMaxConcurrent, etherscanMinTime)
	return chainbean.NewEtherscan(key, sched), nil
}

// newPriceSource builds the CoinGecko client with its own scheduler.
func newPriceSource() *chainbean.CoinGecko {
	return chainbean.NewCoinGecko(chainbean.NewScheduler(coingeckoMaxConcurrent, coingeckoMinTime))
}
