package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "pitboss",
	Short: "PITBOSS - risk-gated trading decision pipeline",
	Long: `PITBOSS scans a watchlist, reasons over market snapshots with an LLM,
gates the resulting signals through a risk engine and routes approved
trades to an approval queue or straight to the brokerage.`,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug mode")
}

func main() {
	// API keys commonly live in .env during development; absence is fine.
	godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
