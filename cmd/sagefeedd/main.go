package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sagelearn/sagefeed/internal/cli"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "sagefeedd",
		Short: "Sagefeed daemon",
		Long:  "Sagefeed daemon for running the retrieval-augmented feedback API server",
	}

	cli.AddHelpJSONFlag(rootCmd)
	rootCmd.AddCommand(cli.ServeCmd())

	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
