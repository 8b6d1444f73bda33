package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"

	"github.com/cwbudde/motionbench/internal/bench"
)

var (
	serverURL string
)

var statusCmd = &cobra.Command{
	Use:   "status [run-id]",
	Short: "Query server status or a specific run",
	Long: `Queries the server for benchmark runs.
If no run-id is provided, lists all runs.
If run-id is provided, shows progress and results for that run.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStatus,
}

var cancelCmd = &cobra.Command{
	Use:   "cancel [run-id]",
	Short: "Cancel a running benchmark on the server",
	Args:  cobra.ExactArgs(1),
	RunE:  runCancel,
}

func init() {
	statusCmd.Flags().StringVar(&serverURL, "server", "http://localhost:8080", "Server URL")
	cancelCmd.Flags().StringVar(&serverURL, "server", "http://localhost:8080", "Server URL")
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(cancelCmd)
}

// jobStatus mirrors the server's run status response.
type jobStatus struct {
	ID      string `json:"id"`
	State   string `json:"state"`
	Request struct {
		Source     string   `json:"source"`
		Strategies []string `json:"strategies"`
	} `json:"request"`
	Progress struct {
		Strategy string  `json:"strategy"`
		Done     int     `json:"done"`
		Total    int     `json:"total"`
		Pair     int     `json:"pair"`
		Pairs    int     `json:"pairs"`
		PSNR     float64 `json:"psnr"`
	} `json:"progress"`
	Results []bench.AlgorithmResult `json:"results"`
	RunID   string                  `json:"runId"`
	Elapsed float64                 `json:"elapsed"`
	Error   string                  `json:"error"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return listJobs(fmt.Sprintf("%s/api/v1/runs", serverURL))
	}
	jobID := args[0]
	return getJobStatus(fmt.Sprintf("%s/api/v1/runs/%s", serverURL, jobID), jobID)
}

func listJobs(url string) error {
	var jobs []jobStatus
	if err := getJSON(url, &jobs); err != nil {
		return err
	}

	if len(jobs) == 0 {
		fmt.Println("No runs found")
		return nil
	}

	fmt.Printf("Found %d run(s):\n\n", len(jobs))
	for _, job := range jobs {
		fmt.Printf("Run ID: %s\n", job.ID)
		fmt.Printf("  State: %s\n", job.State)
		fmt.Printf("  Source: %s\n", job.Request.Source)
		fmt.Printf("  Strategies: %d/%d done\n", job.Progress.Done, job.Progress.Total)
		fmt.Println()
	}
	return nil
}

func getJobStatus(url, jobID string) error {
	var status jobStatus
	if err := getJSON(url, &status); err != nil {
		if errors.Is(err, errNotFound) {
			return fmt.Errorf("run not found: %s", jobID)
		}
		return err
	}

	fmt.Printf("Run: %s\n", status.ID)
	fmt.Printf("State: %s\n", status.State)
	fmt.Printf("Source: %s\n", status.Request.Source)
	fmt.Println()

	fmt.Println("Progress:")
	fmt.Printf("  Strategies: %d/%d\n", status.Progress.Done, status.Progress.Total)
	if status.Progress.Strategy != "" {
		fmt.Printf("  Current: %s, pair %d/%d, %.2f dB\n",
			status.Progress.Strategy, status.Progress.Pair, status.Progress.Pairs, status.Progress.PSNR)
	}
	elapsed := time.Duration(status.Elapsed * float64(time.Second))
	fmt.Printf("  Elapsed: %s\n", bench.FormatDuration(elapsed))
	if status.RunID != "" {
		fmt.Printf("  Stored as: %s\n", status.RunID)
	}

	if len(status.Results) > 0 {
		fmt.Println()
		if err := bench.WriteTable(os.Stdout, status.Results, language.English); err != nil {
			return err
		}
	}

	if status.Error != "" {
		fmt.Printf("\nError: %s\n", status.Error)
	}
	return nil
}

func runCancel(cmd *cobra.Command, args []string) error {
	jobID := args[0]
	req, err := http.NewRequestWithContext(cmd.Context(), http.MethodDelete, fmt.Sprintf("%s/api/v1/runs/%s", serverURL, jobID), nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to server: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusAccepted:
		fmt.Printf("Cancelling run %s\n", jobID)
		return nil
	case http.StatusNotFound:
		return fmt.Errorf("run not found: %s", jobID)
	default:
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned error: %s", string(body))
	}
}

var errNotFound = errors.New("not found")

func getJSON(url string, v any) error {
	resp, err := http.Get(url)
	if err != nil {
		return fmt.Errorf("failed to connect to server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return errNotFound
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned error: %s", string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
