package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/spf13/cobra"
)

var serverURL string

var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "Manage the approval queue of a running instance",
}

var queueListCmd = &cobra.Command{
	Use:   "list",
	Short: "List trades waiting for approval",
	RunE:  runQueueList,
}

var queueApproveCmd = &cobra.Command{
	Use:   "approve <id>",
	Short: "Approve one pending trade and execute it",
	Args:  cobra.ExactArgs(1),
	RunE:  runQueueApprove,
}

var queueApproveAllCmd = &cobra.Command{
	Use:   "approve-all",
	Short: "Approve all pending trades and execute them as a batch",
	RunE:  runQueueApproveAll,
}

var queueRejectCmd = &cobra.Command{
	Use:   "reject <id>",
	Short: "Reject one pending trade",
	Args:  cobra.ExactArgs(1),
	RunE:  runQueueReject,
}

var queueClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Discard all pending trades",
	RunE:  runQueueClear,
}

func init() {
	rootCmd.AddCommand(queueCmd)
	queueCmd.AddCommand(queueListCmd)
	queueCmd.AddCommand(queueApproveCmd)
	queueCmd.AddCommand(queueApproveAllCmd)
	queueCmd.AddCommand(queueRejectCmd)
	queueCmd.AddCommand(queueClearCmd)

	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8080", "control server base URL")
}

// controlClient builds a resty client for the control API.
func controlClient() *resty.Client {
	return resty.New().
		SetBaseURL(serverURL).
		SetTimeout(60 * time.Second)
}

// apiEnvelope matches the control server's success envelope.
type apiEnvelope struct {
	Data map[string]any `json:"data"`
}

func controlPost(path string) (map[string]any, error) {
	var env apiEnvelope
	resp, err := controlClient().R().SetResult(&env).Post(path)
	if err != nil {
		return nil, fmt.Errorf("contacting %s: %w", serverURL, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode(), resp.String())
	}
	return env.Data, nil
}

func runQueueList(cmd *cobra.Command, args []string) error {
	var env struct {
		Data struct {
			Trades []struct {
				ID     string `json:"id"`
				State  string `json:"state"`
				Signal struct {
					Symbol     string  `json:"symbol"`
					Action     string  `json:"action"`
					Confidence float64 `json:"confidence"`
					EntryPrice float64 `json:"entry_price"`
				} `json:"signal"`
				Decision struct {
					ApprovedQuantity int64 `json:"approved_quantity"`
				} `json:"decision"`
				CreatedAt time.Time `json:"created_at"`
			} `json:"trades"`
		} `json:"data"`
	}

	resp, err := controlClient().R().SetResult(&env).Get("/api/queue")
	if err != nil {
		return fmt.Errorf("contacting %s: %w", serverURL, err)
	}
	if resp.IsError() {
		return fmt.Errorf("server returned %d: %s", resp.StatusCode(), resp.String())
	}

	trades := env.Data.Trades
	if len(trades) == 0 {
		fmt.Println("Queue is empty.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSYMBOL\tACTION\tQTY\tENTRY\tCONF\tQUEUED\t")
	fmt.Fprintln(w, "--\t------\t------\t---\t-----\t----\t------\t")
	for _, t := range trades {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%.2f\t%.0f\t%s\t\n",
			t.ID, t.Signal.Symbol, t.Signal.Action,
			t.Decision.ApprovedQuantity, t.Signal.EntryPrice,
			t.Signal.Confidence, t.CreatedAt.Format("15:04:05"))
	}
	return w.Flush()
}

func runQueueApprove(cmd *cobra.Command, args []string) error {
	data, err := controlPost("/api/queue/" + args[0] + "/approve")
	if err != nil {
		return err
	}
	if ok, _ := data["success"].(bool); ok {
		fmt.Printf("Executed: order %v\n", data["order_id"])
	} else {
		fmt.Printf("Execution failed: %v\n", data["error"])
	}
	return nil
}

func runQueueApproveAll(cmd *cobra.Command, args []string) error {
	data, err := controlPost("/api/queue/approve_all")
	if err != nil {
		return err
	}
	fmt.Printf("Batch done: %v succeeded, %v failed\n", data["succeeded"], data["failed"])
	return nil
}

func runQueueReject(cmd *cobra.Command, args []string) error {
	if _, err := controlPost("/api/queue/" + args[0] + "/reject"); err != nil {
		return err
	}
	fmt.Printf("Rejected %s\n", args[0])
	return nil
}

func runQueueClear(cmd *cobra.Command, args []string) error {
	data, err := controlPost("/api/queue/clear")
	if err != nil {
		return err
	}
	fmt.Printf("Cleared %v pending trades\n", data["cleared"])
	return nil
}
