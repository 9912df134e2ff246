package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "paper-trader",
	Short: "Paper-trading server with a virtual cash ledger",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "./configs", "directory containing config.yml")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(accountCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
