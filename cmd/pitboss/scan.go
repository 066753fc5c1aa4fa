package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/quantpit/pitboss/internal/logger"
	"github.com/quantpit/pitboss/internal/reason"
	"github.com/spf13/cobra"
)

var scanCmd = &cobra.Command{
	Use:   "scan [symbols...]",
	Short: "Analyze symbols once and print the signals",
	Long: `Runs the snapshot and reasoning steps for the given symbols (or the
configured watchlist) without touching the risk gate or the brokerage.`,
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	log := logger.Must(debug)
	defer log.Sync()

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}

	symbols := args
	if len(symbols) == 0 {
		symbols = cfg.Scan.Watchlist
	}
	if len(symbols) == 0 {
		return fmt.Errorf("no symbols given and watchlist is empty")
	}

	data, err := buildMarketData(cfg, log)
	if err != nil {
		return err
	}
	reasoner, err := buildReasoner(cfg, log)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SYMBOL\tACTION\tCONF\tENTRY\tSTOP\tTARGET\tRATIONALE\t")
	fmt.Fprintln(w, "------\t------\t----\t-----\t----\t------\t---------\t")

	for _, symbol := range symbols {
		symbol = strings.ToUpper(strings.TrimSpace(symbol))

		snapshot, err := data.Snapshot(ctx, symbol)
		if err != nil {
			fmt.Fprintf(w, "%s\t-\t-\t-\t-\t-\tdata unavailable: %v\t\n", symbol, err)
			continue
		}

		signal, err := reasoner.Analyze(ctx, *snapshot, reason.PortfolioContext{})
		if err != nil {
			fmt.Fprintf(w, "%s\t-\t-\t-\t-\t-\treasoning failed: %v\t\n", symbol, err)
			continue
		}

		rationale := signal.Rationale
		if len(rationale) > 60 {
			rationale = rationale[:57] + "..."
		}
		fmt.Fprintf(w, "%s\t%s\t%.0f\t%.2f\t%.2f\t%.2f\t%s\t\n",
			symbol, signal.Action, signal.Confidence,
			signal.EntryPrice, signal.StopLoss, signal.TakeProfit, rationale)
	}
	return w.Flush()
}
