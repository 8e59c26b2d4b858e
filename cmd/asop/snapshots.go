package main

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/bgbg/asop/internal/store"
	"github.com/spf13/cobra"
)

var (
	snapshotDataDir string
	keepLast        int
	olderThanDays   int
	forceClean      bool
	exportOut       string
	traceAll        bool
)

var snapshotsCmd = &cobra.Command{
	Use:   "snapshots",
	Short: "Manage stored optimizer snapshots",
	Long: `Lists, cleans and exports the snapshots written by "run --data-dir" and by
the server. A snapshot holds every dimension's support and PMF, so a run can
be resumed or its distributions plotted elsewhere.`,
}

var listSnapshotsCmd = &cobra.Command{
	Use:   "list",
	Short: "List all stored snapshots",
	RunE:  runListSnapshots,
}

var cleanSnapshotsCmd = &cobra.Command{
	Use:   "clean",
	Short: "Delete old snapshots",
	Long: `Deletes runs based on a retention policy: keep only the newest N runs,
delete runs older than N days, or both.`,
	RunE: runCleanSnapshots,
}

var exportSnapshotCmd = &cobra.Command{
	Use:   "export <run-id>",
	Short: "Export a snapshot's distributions as .npy files",
	Args:  cobra.ExactArgs(1),
	RunE:  runExportSnapshot,
}

var traceSnapshotCmd = &cobra.Command{
	Use:   "trace <run-id>",
	Short: "Show the round history of a run",
	Long: `Prints the rounds in which the best value improved, or every round with
--all, from the run's trace.jsonl.`,
	Args: cobra.ExactArgs(1),
	RunE: runTraceSnapshot,
}

func init() {
	rootCmd.AddCommand(snapshotsCmd)
	snapshotsCmd.AddCommand(listSnapshotsCmd, cleanSnapshotsCmd, exportSnapshotCmd, traceSnapshotCmd)

	snapshotsCmd.PersistentFlags().StringVar(&snapshotDataDir, "data-dir", "./data", "Base directory for snapshot storage")

	cleanSnapshotsCmd.Flags().IntVar(&keepLast, "keep-last", 0, "Keep only the newest N runs (0 = keep all)")
	cleanSnapshotsCmd.Flags().IntVar(&olderThanDays, "older-than", 0, "Delete runs older than N days (0 = no age limit)")
	cleanSnapshotsCmd.Flags().BoolVarP(&forceClean, "force", "f", false, "Skip confirmation prompt")

	exportSnapshotCmd.Flags().StringVar(&exportOut, "out", "", "Output directory (default: the run directory)")
	traceSnapshotCmd.Flags().BoolVar(&traceAll, "all", false, "Show every round, not only improvements")
}

func runListSnapshots(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	st, err := store.NewFSStore(snapshotDataDir)
	if err != nil {
		return fmt.Errorf("failed to create snapshot store: %w", err)
	}

	infos, err := st.ListSnapshots()
	if err != nil {
		return fmt.Errorf("failed to list snapshots: %w", err)
	}

	if len(infos) == 0 {
		fmt.Fprintln(out, "No snapshots found.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RUN ID\tTIMESTAMP\tROUND\tDIMS\tBEST VALUE\tSIZE")
	fmt.Fprintln(w, "------\t---------\t-----\t----\t----------\t----")

	for _, info := range infos {
		sizeStr := "unknown"
		if size, err := getDirSize(st.RunDir(info.RunID)); err == nil {
			sizeStr = formatBytes(size)
		}

		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%.6g\t%s\n",
			shortID(info.RunID),
			info.Timestamp.Format("2006-01-02 15:04:05"),
			info.Round,
			info.Dimensions,
			info.BestValue,
			sizeStr,
		)
	}
	w.Flush()

	fmt.Fprintf(out, "\nTotal snapshots: %d\n", len(infos))
	return nil
}

func runCleanSnapshots(cmd *cobra.Command, args []string) error {
	if keepLast == 0 && olderThanDays == 0 {
		return fmt.Errorf("must specify either --keep-last or --older-than")
	}
	out := cmd.OutOrStdout()

	st, err := store.NewFSStore(snapshotDataDir)
	if err != nil {
		return fmt.Errorf("failed to create snapshot store: %w", err)
	}

	infos, err := st.ListSnapshots()
	if err != nil {
		return fmt.Errorf("failed to list snapshots: %w", err)
	}

	toDelete := selectSnapshotsForDeletion(infos, keepLast, olderThanDays)
	if len(toDelete) == 0 {
		fmt.Fprintln(out, "No snapshots match deletion criteria.")
		return nil
	}

	fmt.Fprintf(out, "Found %d snapshot(s) to delete:\n", len(toDelete))
	for _, info := range toDelete {
		fmt.Fprintf(out, "  - %s (round %d, %s)\n",
			shortID(info.RunID),
			info.Round,
			info.Timestamp.Format("2006-01-02 15:04:05"),
		)
	}

	if !forceClean {
		fmt.Fprint(out, "\nProceed with deletion? [y/N]: ")
		response, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if r := strings.TrimSpace(response); r != "y" && r != "Y" {
			fmt.Fprintln(out, "Aborted.")
			return nil
		}
	}

	deleted, failed := 0, 0
	for _, info := range toDelete {
		if err := st.DeleteSnapshot(info.RunID); err != nil {
			slog.Error("Failed to delete snapshot", "run_id", info.RunID, "error", err)
			failed++
			continue
		}
		slog.Info("Deleted snapshot", "run_id", info.RunID)
		deleted++
	}

	fmt.Fprintf(out, "\nDeleted %d snapshot(s), %d failed.\n", deleted, failed)
	return nil
}

func runExportSnapshot(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st, err := store.NewFSStore(snapshotDataDir)
	if err != nil {
		return fmt.Errorf("failed to create snapshot store: %w", err)
	}
	snap, err := st.LoadSnapshot(runID)
	if err != nil {
		return err
	}

	dir := exportOut
	if dir == "" {
		dir = st.RunDir(runID)
	}
	paths, err := store.ExportNPY(dir, snap)
	if err != nil {
		return err
	}
	for _, p := range paths {
		fmt.Fprintln(cmd.OutOrStdout(), p)
	}
	return nil
}

func runTraceSnapshot(cmd *cobra.Command, args []string) error {
	entries, err := store.ReadTrace(snapshotDataDir, args[0])
	if err != nil {
		return err
	}
	if !traceAll {
		entries = store.Improvements(entries)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ROUND\tROUND BEST\tBEST VALUE\tEVALUATIONS\tTIMESTAMP")
	for _, e := range entries {
		fmt.Fprintf(w, "%d\t%.6g\t%.6g\t%d\t%s\n",
			e.Round, e.Value, e.BestValue, e.Evaluations, e.Timestamp.Format("15:04:05.000"))
	}
	return w.Flush()
}

// selectSnapshotsForDeletion returns the runs older than olderThanDays plus
// the oldest runs beyond the newest keepLast. A zero argument disables that rule.
func selectSnapshotsForDeletion(infos []store.SnapshotInfo, keepLast int, olderThanDays int) []store.SnapshotInfo {
	var toDelete []store.SnapshotInfo
	selected := make(map[string]bool)

	if olderThanDays > 0 {
		cutoff := time.Now().AddDate(0, 0, -olderThanDays)
		for _, info := range infos {
			if info.Timestamp.Before(cutoff) {
				toDelete = append(toDelete, info)
				selected[info.RunID] = true
			}
		}
	}

	if keepLast > 0 && len(infos) > keepLast {
		sorted := make([]store.SnapshotInfo, len(infos))
		copy(sorted, infos)
		sort.Slice(sorted, func(i, j int) bool {
			return sorted[i].Timestamp.Before(sorted[j].Timestamp)
		})

		for _, info := range sorted[:len(sorted)-keepLast] {
			if !selected[info.RunID] {
				toDelete = append(toDelete, info)
				selected[info.RunID] = true
			}
		}
	}

	return toDelete
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12] + "..."
	}
	return id
}

// getDirSize calculates the total size of a directory
func getDirSize(path string) (int64, error) {
	var size int64
	err := filepath.Walk(path, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			size += info.Size()
		}
		return nil
	})
	return size, err
}

// formatBytes formats bytes as human-readable string
func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
