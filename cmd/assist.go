package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/cwlin/chainbean/advisor"
	"github.com/google/subcommands"
	"google.golang.org/genai"
)

type assistCmd struct {
	ledger string
}

func (*assistCmd) Name() string     { return "assist" }
func (*assistCmd) Synopsis() string { return "starts an interactive session proposing rules" }
func (*assistCmd) Usage() string {
	return `cbn assist [-ledger <file>] [question]

Starts an interactive AI session that proposes classification rules for the
postings of a roasted ledger that still sit on the fallback accounts.

Requires a Gemini API key in the environment (GEMINI_API_KEY).
`
}

func (c *assistCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.ledger, "ledger", "crypto.bean", "Roasted ledger file to inspect.")
}

func (c *assistCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	content, err := os.ReadFile(c.ledger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot read ledger %q (run 'cbn roast' first): %v\n", c.ledger, err)
		return subcommands.ExitFailure
	}

	// The postings worth classifying are the ones on fallback accounts.
	var postings []string
	for _, line := range strings.Split(string(content), "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, cfg.DefaultAccount.Deposit) ||
			strings.HasPrefix(trimmed, cfg.DefaultAccount.Withdraw) {
			postings = append(postings, trimmed)
		}
	}

	if _, err := loadEnvironment(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	client, err := genai.NewClient(ctx, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing Gemini's client: %v\n", err)
		return subcommands.ExitFailure
	}

	a := advisor.New(os.Stdout, os.Stdin, postings)
	var prompts []string
	if f.NArg() > 0 {
		prompts = append(prompts, strings.Join(f.Args(), " "))
	}
	if err := a.Run(ctx, client, prompts...); err != nil {
		fmt.Fprintf(os.Stderr, "Advisor failed: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
