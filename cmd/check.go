package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"
)

type checkCmd struct{}

func (*checkCmd) Name() string     { return "check" }
func (*checkCmd) Synopsis() string { return "validates the configuration and prints a summary" }
func (*checkCmd) Usage() string {
	return `cbn check

Loads and validates the configuration file, then prints a summary of the
tracked connections, the coin table and the rules.
`
}

func (*checkCmd) SetFlags(*flag.FlagSet) {}

func (c *checkCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Configuration %s\n\n", *configPath)
	fmt.Fprintf(&b, "Fiat currency: **%s**\n\n", cfg.Fiat)

	fmt.Fprintf(&b, "## Connections\n\n")
	fmt.Fprintf(&b, "| Account prefix | Chain | Address |\n|---|---|---|\n")
	for _, conn := range cfg.Connections {
		fmt.Fprintf(&b, "| %s | %s | %s |\n", conn.AccountPrefix, conn.Type, conn.Address)
	}

	fmt.Fprintf(&b, "\n## Coins\n\n")
	fmt.Fprintf(&b, "| Symbol | Coin id |\n|---|---|\n")
	for _, coin := range cfg.Coins {
		fmt.Fprintf(&b, "| %s | %s |\n", coin.Symbol, coin.ID)
	}

	fmt.Fprintf(&b, "\n## Rules\n\n")
	if len(cfg.Rules) == 0 {
		fmt.Fprintf(&b, "none\n")
	}
	for i, rule := range cfg.Rules {
		var pats, trans []string
		for _, p := range rule.Pattern {
			pats = append(pats, fmt.Sprintf("%s = %q", p.Field, p.Value))
		}
		for _, t := range rule.Transform {
			trans = append(trans, fmt.Sprintf("%s → %q", t.Field, t.Value))
		}
		fmt.Fprintf(&b, "%d. when any of [%s] then [%s]\n", i+1, strings.Join(pats, ", "), strings.Join(trans, ", "))
	}

	printMarkdown(b.String())
	return subcommands.ExitSuccess
}
