package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/goodtune/runtracker/internal/config"
	"github.com/goodtune/runtracker/internal/history"
	"github.com/goodtune/runtracker/internal/storage"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	historyLimit int
	historyPrune bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded session results",
	Long: `List finished sessions from the configured result store, newest first.
The memory store lives inside a running process, so history is only useful
with the bolt or redis storage types.`,
	Example: `  runtracker history -c config.yaml --limit 5
  runtracker history -c config.yaml --prune`,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum number of sessions to list (0 lists all)")
	historyCmd.Flags().BoolVar(&historyPrune, "prune", false, "Delete sessions older than storage.retention_days before listing")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Quiet logger so output is just the results
	logger := zerolog.Nop()

	store, err := openStorage(cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	out := cmd.OutOrStdout()

	if historyPrune {
		pruner, err := history.NewPruneScheduler(store.Results(), cfg.Storage.PruneTime, cfg.Storage.RetentionDays, logger)
		if err != nil {
			return err
		}
		n, err := pruner.Prune(ctx)
		if err != nil {
			return fmt.Errorf("failed to prune history: %w", err)
		}
		_, _ = fmt.Fprintf(out, "Deleted %d session(s) older than %d day(s)\n\n", n, cfg.Storage.RetentionDays)
	}

	records, err := store.Results().List(ctx, historyLimit)
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}

	printHistory(out, records)
	return nil
}

func printHistory(out io.Writer, records []storage.SessionRecord) {
	if len(records) == 0 {
		_, _ = color.New(color.FgYellow).Fprintln(out, "No sessions recorded")
		return
	}

	cyan := color.New(color.FgCyan, color.Bold)
	green := color.New(color.FgGreen)

	_, _ = cyan.Fprintf(out, "%-36s  %-19s  %10s  %-12s  %6s\n", "SESSION", "STOPPED", "DISTANCE", "TIME", "POINTS")
	for _, r := range records {
		_, _ = fmt.Fprintf(out, "%-36s  %-19s  %s  %-12s  %6d\n",
			r.ID,
			r.StoppedAt.Local().Format("2006-01-02 15:04:05"),
			green.Sprintf("%10s", r.Distance+"km"),
			r.Time,
			r.Points,
		)
	}
}
