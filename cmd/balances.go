package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/cwlin/chainbean"
	"github.com/google/subcommands"
)

type balancesCmd struct{}

func (*balancesCmd) Name() string     { return "balances" }
func (*balancesCmd) Synopsis() string { return "prints the balance assertions of every connection" }
func (*balancesCmd) Usage() string {
	return `cbn balances

Fetches the activity of every tracked connection and prints only the
point-in-time balance assertions, one line per tracked token, without
building the full ledger.
`
}

func (*balancesCmd) SetFlags(*flag.FlagSet) {}

func (c *balancesCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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

	agg := chainbean.NewAggregator()
	for _, conn := range cfg.Connections {
		if conn.Type != chainbean.ChainEthereum {
			continue
		}
		natives, err := explorer.NormalTransactions(ctx, conn.Address)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: connection %s: %v\n", conn.Address, err)
			return subcommands.ExitFailure
		}
		tokens, err := explorer.TokenTransfers(ctx, conn.Address)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: connection %s: %v\n", conn.Address, err)
			return subcommands.ExitFailure
		}
		for _, t := range tokens {
			if err := agg.AddToken(ctx, explorer, t); err != nil {
				fmt.Fprintf(os.Stderr, "Error: connection %s: %v\n", conn.Address, err)
				return subcommands.ExitFailure
			}
		}
		ref, ok := chainbean.ReferencePoint(natives, tokens)
		if !ok {
			continue
		}
		assertions, err := chainbean.BuildBalances(ctx, explorer, conn, agg.Tokens(), ref)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: connection %s: %v\n", conn.Address, err)
			return subcommands.ExitFailure
		}
		for _, b := range assertions {
			fmt.Println(b)
		}
	}
	return subcommands.ExitSuccess
}
