package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

var (
	serverURL      string
	statusSessions bool
)

var statusCmd = &cobra.Command{
	Use:   "status [id]",
	Short: "Query server status or a specific job",
	Long: `Queries the server for job status information.
If no id is provided, lists all jobs (or sessions with --sessions).
If an id is provided, shows detailed status for that job or session.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&serverURL, "server", "http://localhost:8080", "Server URL")
	statusCmd.Flags().BoolVar(&statusSessions, "sessions", false, "Query ask/tell sessions instead of jobs")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	switch {
	case statusSessions && len(args) == 0:
		return listSessions(out, serverURL+"/api/v1/sessions")
	case statusSessions:
		return getSession(out, serverURL+"/api/v1/sessions/"+args[0], args[0])
	case len(args) == 0:
		return listJobs(out, serverURL+"/api/v1/jobs")
	default:
		return getJobStatus(out, serverURL+"/api/v1/jobs/"+args[0]+"/status", args[0])
	}
}

// getJSON fetches url and decodes the body into v.
func getJSON(url string, v any) (int, error) {
	resp, err := http.Get(url)
	if err != nil {
		return 0, fmt.Errorf("failed to connect to server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return resp.StatusCode, fmt.Errorf("server returned error: %s", string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return resp.StatusCode, fmt.Errorf("failed to decode response: %w", err)
	}
	return resp.StatusCode, nil
}

// jobView mirrors the fields of the server's job status this command prints.
type jobView struct {
	ID     string `json:"id"`
	State  string `json:"state"`
	Config struct {
		Benchmark  string `json:"benchmark"`
		Dimensions int    `json:"dimensions"`
		Rounds     int    `json:"rounds"`
		Population int    `json:"population"`
		Points     int    `json:"points"`
		Direction  string `json:"direction"`
		Scaling    string `json:"scaling"`
	} `json:"config"`
	BestSolution []float64 `json:"bestSolution"`
	BestValue    float64   `json:"bestValue"`
	Rounds       int       `json:"rounds"`
	Evaluations  int       `json:"evaluations"`
	Elapsed      float64   `json:"elapsed"`
	EPS          float64   `json:"eps"`
	Error        string    `json:"error"`
}

func listJobs(out io.Writer, url string) error {
	var jobs []jobView
	if _, err := getJSON(url, &jobs); err != nil {
		return err
	}

	if len(jobs) == 0 {
		fmt.Fprintln(out, "No jobs found")
		return nil
	}

	fmt.Fprintf(out, "Found %d job(s):\n\n", len(jobs))
	for _, job := range jobs {
		fmt.Fprintf(out, "Job ID: %s\n", job.ID)
		fmt.Fprintf(out, "  State: %s\n", job.State)
		fmt.Fprintf(out, "  Benchmark: %s (%d dimensions)\n", job.Config.Benchmark, job.Config.Dimensions)
		if job.Rounds > 0 {
			fmt.Fprintf(out, "  Round %d/%d, best %.6g\n", job.Rounds, job.Config.Rounds, job.BestValue)
		}
		fmt.Fprintln(out)
	}
	return nil
}

func getJobStatus(out io.Writer, url, jobID string) error {
	var job jobView
	if code, err := getJSON(url, &job); err != nil {
		if code == http.StatusNotFound {
			return fmt.Errorf("job not found: %s", jobID)
		}
		return err
	}

	fmt.Fprintf(out, "Job: %s\n", job.ID)
	fmt.Fprintf(out, "State: %s\n", job.State)
	fmt.Fprintln(out)

	fmt.Fprintln(out, "Configuration:")
	fmt.Fprintf(out, "  Benchmark: %s\n", job.Config.Benchmark)
	fmt.Fprintf(out, "  Dimensions: %d\n", job.Config.Dimensions)
	fmt.Fprintf(out, "  Rounds: %d\n", job.Config.Rounds)
	fmt.Fprintf(out, "  Population: %d\n", job.Config.Population)
	fmt.Fprintf(out, "  Direction: %s, scaling: %s\n", job.Config.Direction, job.Config.Scaling)
	fmt.Fprintln(out)

	fmt.Fprintln(out, "Progress:")
	fmt.Fprintf(out, "  Round: %d\n", job.Rounds)
	if job.Rounds > 0 {
		fmt.Fprintf(out, "  Best Value: %.6g\n", job.BestValue)
		fmt.Fprintf(out, "  Best Solution: %v\n", job.BestSolution)
	}
	elapsed := time.Duration(job.Elapsed * float64(time.Second))
	fmt.Fprintf(out, "  Elapsed: %s\n", elapsed.Round(time.Millisecond))
	if job.EPS > 0 {
		fmt.Fprintf(out, "  Throughput: %.0f evaluations/sec\n", job.EPS)
	}

	if job.Error != "" {
		fmt.Fprintf(out, "\nError: %s\n", job.Error)
	}
	return nil
}

// sessionView mirrors the server's session JSON.
type sessionView struct {
	ID           string    `json:"id"`
	Names        []string  `json:"names"`
	Direction    string    `json:"direction"`
	Scaling      string    `json:"scaling"`
	Rounds       int       `json:"rounds"`
	BestValue    *float64  `json:"bestValue"`
	BestSolution []float64 `json:"bestSolution"`
}

func listSessions(out io.Writer, url string) error {
	var sessions []sessionView
	if _, err := getJSON(url, &sessions); err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Fprintln(out, "No sessions found")
		return nil
	}
	for _, s := range sessions {
		printSession(out, s)
		fmt.Fprintln(out)
	}
	return nil
}

func getSession(out io.Writer, url, id string) error {
	var s sessionView
	if code, err := getJSON(url, &s); err != nil {
		if code == http.StatusNotFound {
			return fmt.Errorf("session not found: %s", id)
		}
		return err
	}
	printSession(out, s)
	return nil
}

func printSession(out io.Writer, s sessionView) {
	fmt.Fprintf(out, "Session: %s\n", s.ID)
	fmt.Fprintf(out, "  Dimensions: %v\n", s.Names)
	fmt.Fprintf(out, "  Direction: %s, scaling: %s\n", s.Direction, s.Scaling)
	fmt.Fprintf(out, "  Rounds: %d\n", s.Rounds)
	if s.BestValue != nil {
		fmt.Fprintf(out, "  Best: %.6g at %v\n", *s.BestValue, s.BestSolution)
	}
}
