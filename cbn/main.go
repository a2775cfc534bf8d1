package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/cwlin/chainbean/cmd"
	"github.com/google/subcommands"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

func main() {
	// Shell completion: this returns immediately unless the shell asked for
	// completions.
	completion().Complete("cbn")

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	cmd.Register(commander)

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}

func completion() *complete.Command {
	return &complete.Command{
		Flags: map[string]complete.Predictor{
			"config":            predict.Files("*.json"),
			"etherscan-api-key": predict.Nothing,
		},
		Sub: map[string]*complete.Command{
			"roast": {Flags: map[string]complete.Predictor{"o": predict.Files("*.bean")}},
			"balances": {},
			"check":    {},
			"assist":   {Flags: map[string]complete.Predictor{"ledger": predict.Files("*.bean")}},
		},
	}
}
