package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var portfolioCmd = &cobra.Command{
	Use:   "portfolio",
	Short: "Show positions and P&L of a running instance",
	RunE:  runPortfolio,
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the trade history of a running instance",
	RunE:  runHistory,
}

func init() {
	rootCmd.AddCommand(portfolioCmd)
	rootCmd.AddCommand(historyCmd)
}

func runPortfolio(cmd *cobra.Command, args []string) error {
	var env struct {
		Data struct {
			Positions []struct {
				Symbol       string  `json:"symbol"`
				Side         string  `json:"side"`
				Quantity     int64   `json:"quantity"`
				EntryPrice   float64 `json:"entry_price"`
				CurrentPrice float64 `json:"current_price"`
			} `json:"positions"`
			Exposure      float64 `json:"exposure"`
			DailyPnL      float64 `json:"daily_pnl"`
			UnrealizedPnL float64 `json:"unrealized_pnl"`
		} `json:"data"`
	}

	resp, err := controlClient().R().SetResult(&env).Get("/api/positions")
	if err != nil {
		return fmt.Errorf("contacting %s: %w", serverURL, err)
	}
	if resp.IsError() {
		return fmt.Errorf("server returned %d: %s", resp.StatusCode(), resp.String())
	}

	d := env.Data
	fmt.Println("Portfolio Summary")
	fmt.Println("-----------------")
	fmt.Printf("Exposure:        $%.2f\n", d.Exposure)
	fmt.Printf("Daily P&L:       $%.2f\n", d.DailyPnL)
	fmt.Printf("Unrealized P&L:  $%.2f\n", d.UnrealizedPnL)
	fmt.Println()

	if len(d.Positions) == 0 {
		fmt.Println("No open positions.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SYMBOL\tSIDE\tQTY\tAVG COST\tCURRENT\tP&L\t")
	fmt.Fprintln(w, "------\t----\t---\t--------\t-------\t---\t")
	for _, p := range d.Positions {
		pnl := float64(p.Quantity) * (p.CurrentPrice - p.EntryPrice)
		sign := ""
		if pnl >= 0 {
			sign = "+"
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%.2f\t%.2f\t%s%.2f\t\n",
			p.Symbol, p.Side, p.Quantity, p.EntryPrice, p.CurrentPrice, sign, pnl)
	}
	return w.Flush()
}

func runHistory(cmd *cobra.Command, args []string) error {
	var env struct {
		Data struct {
			Trades []struct {
				Symbol      string   `json:"symbol"`
				Side        string   `json:"side"`
				Quantity    int64    `json:"quantity"`
				Price       float64  `json:"price"`
				RealizedPnL *float64 `json:"realized_pnl"`
				Timestamp   string   `json:"timestamp"`
			} `json:"trades"`
		} `json:"data"`
	}

	resp, err := controlClient().R().SetResult(&env).Get("/api/history")
	if err != nil {
		return fmt.Errorf("contacting %s: %w", serverURL, err)
	}
	if resp.IsError() {
		return fmt.Errorf("server returned %d: %s", resp.StatusCode(), resp.String())
	}

	trades := env.Data.Trades
	if len(trades) == 0 {
		fmt.Println("No trades recorded.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tSYMBOL\tSIDE\tQTY\tPRICE\tREALIZED\t")
	fmt.Fprintln(w, "----\t------\t----\t---\t-----\t--------\t")
	for _, t := range trades {
		realized := "-"
		if t.RealizedPnL != nil {
			realized = fmt.Sprintf("%.2f", *t.RealizedPnL)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%.2f\t%s\t\n",
			t.Timestamp, t.Symbol, t.Side, t.Quantity, t.Price, realized)
	}
	return w.Flush()
}
