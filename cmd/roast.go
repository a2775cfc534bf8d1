package cmd

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/cwlin/chainbean"
	"github.com/google/subcommands"
)

type roastCmd struct {
	output string
}

func (*roastCmd) Name() string     { return "roast" }
func (*roastCmd) Synopsis() string { return "fetches on-chain activity and writes the beancount ledger" }
func (*roastCmd) Usage() string {
	return `cbn roast [-o <file>]

Fetches the native and token transfers of every tracked connection, merges
them into transactions, builds double-entry directives, applies the
configured rules, attaches historical prices, and writes the resulting
ledger.

A fetch failure aborts the run and writes nothing. A failed price lookup
only leaves the affected postings without a cost annotation.

Requires an Etherscan API key (--etherscan-api-key or ETHERSCAN_API_KEY).

Usage Examples:
# Write the ledger next to the config file.
$ cbn roast

# Write to stdout.
$ cbn roast -o -
`
}

func (c *roastCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.output, "o", "crypto.bean", "Output file, or '-' for stdout.")
}

func (c *roastCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	explorer, err := newExplorer()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	roaster := chainbean.NewRoaster(cfg, explorer, newPriceSource())
	ledger, err := roaster.Roast(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: roast failed: %v\n", err)
		return subcommands.ExitFailure
	}

	var buf bytes.Buffer
	if err := ledger.Encode(&buf); err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot encode ledger: %v\n", err)
		return subcommands.ExitFailure
	}

	if c.output == "-" {
		os.Stdout.Write(buf.Bytes())
		return subcommands.ExitSuccess
	}
	if err := os.WriteFile(c.output, buf.Bytes(), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot write %q: %v\n", c.output, err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Wrote %d entries and %d balance assertions to %s\n", len(ledger.Entries), len(ledger.Balances), c.output)
	return subcommands.ExitSuccess
}
