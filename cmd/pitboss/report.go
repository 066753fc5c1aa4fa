package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate a portfolio report on a running instance",
	RunE:  runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	data, err := controlPost("/api/report")
	if err != nil {
		return err
	}

	fmt.Printf("Report for %v (%v)\n", data["date"], data["trigger"])
	fmt.Printf("  Trades:         %v\n", data["trade_count"])
	fmt.Printf("  Wins/Losses:    %v/%v\n", data["wins"], data["losses"])
	fmt.Printf("  Exposure:       $%v\n", data["exposure"])
	fmt.Printf("  Daily P&L:      $%v\n", data["daily_pnl"])
	fmt.Printf("  Unrealized P&L: $%v\n", data["unrealized_pnl"])
	return nil
}
