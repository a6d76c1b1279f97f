package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mercator-hq/pursuit/pkg/cli"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "pursuit",
	Short: "Pursuit - declarative record queries compiled to predicates",
	Long: `Pursuit compiles declarative query descriptors into predicate functions
and applies them to collections of records.

A descriptor maps field paths to comparator conditions:

  {"age": {"greaterThanOrEqualTo": 21, "lessThan": 68},
   "name.last": {"beginsWith": "P"},
   "!not": {"gender": {"equals": "Male"}}}

Mappings are conjunctions, sequences are disjunctions, and the optimizer
evaluates cheap and selective tests first.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits with the code for its error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.ExitCode(err))
	}
}

func init() {
	// Global persistent flags (available to all subcommands)
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (defaults plus PURSUIT_* environment when empty)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
