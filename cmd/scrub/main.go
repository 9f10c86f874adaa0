package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "scrub",
	Short: "Corpus cleaning pipeline",
	Long: `scrub cleans a textual corpus before model training: exact-duplicate
elimination, cheap quality heuristics, near-duplicate clustering, and
materialization as compressed, size-bounded shards.`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
