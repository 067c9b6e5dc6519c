package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"cleancut/internal/history"
)

var errHistoryDisabled = errors.New("run history is disabled (set [history] enabled = true)")

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded render runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHistory(ctx, func(store *history.Store) error {
				runs, err := store.List(cmd.Context(), limit)
				if err != nil {
					return err
				}
				summary, err := store.Summarize(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(runs) == 0 {
					fmt.Fprintln(out, "No runs recorded")
					return nil
				}
				fmt.Fprintln(out, renderTable(
					[]column{
						right("ID"), left("Started"), left("Status"), left("Source"), left("Quality"),
						right("Cuts"), right("Edits"), right("Output"), right("Elapsed"),
					},
					historyRows(runs, time.Now()),
				))
				fmt.Fprintf(out, "%d run(s): %d succeeded, %d failed, %d invalid, %d canceled, %d running\n",
					summary.Total, summary.Succeeded, summary.Failed, summary.Invalid, summary.Canceled, summary.Running)
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum runs to show (0 for all)")

	cmd.AddCommand(newHistoryShowCommand(ctx))
	cmd.AddCommand(newHistoryPruneCommand(ctx))
	return cmd
}

func newHistoryShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one recorded run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(strings.TrimSpace(args[0]), 10, 64)
			if err != nil {
				return fmt.Errorf("invalid run id %q", args[0])
			}
			return withHistory(ctx, func(store *history.Store) error {
				run, err := store.GetByID(cmd.Context(), id)
				if err != nil {
					return err
				}
				if run == nil {
					return fmt.Errorf("run %d not found", id)
				}
				if asJSON {
					return writeJSON(cmd, run)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Run %d (%s)\n", run.ID, run.RunID)
				fmt.Fprintf(out, "  Command:     %s\n", run.Command)
				fmt.Fprintf(out, "  Status:      %s\n", run.Status)
				fmt.Fprintf(out, "  Source:      %s\n", run.SourcePath)
				fmt.Fprintf(out, "  Destination: %s\n", run.DestinationPath)
				fmt.Fprintf(out, "  Quality:     %s\n", run.Quality)
				fmt.Fprintf(out, "  Started:     %s\n", run.StartedAt.Local().Format(time.RFC3339))
				if run.FinishedAt != nil {
					fmt.Fprintf(out, "  Elapsed:     %s\n", run.Elapsed().Round(time.Millisecond))
				}
				fmt.Fprintf(out, "  Duration:    %s -> %s\n", formatSeconds(run.OriginalDuration), formatSeconds(run.OutputDuration))
				fmt.Fprintf(out, "  Cuts/edits:  %d/%d\n", run.CutCount, run.EditCount)
				if run.Strategies != "" {
					fmt.Fprintf(out, "  Strategies:  %s\n", run.Strategies)
				}
				if run.ErrorMessage != "" {
					fmt.Fprintf(out, "  Error:       %s\n", run.ErrorMessage)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the run as JSON")
	return cmd
}

func newHistoryPruneCommand(ctx *commandContext) *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete finished runs older than a cutoff",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if olderThan < 0 {
				return errors.New("--older-than must not be negative")
			}
			return withHistory(ctx, func(store *history.Store) error {
				removed, err := store.Prune(cmd.Context(), time.Now().Add(-olderThan))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d run(s)\n", removed)
				return nil
			})
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 30*24*time.Hour, "Age of runs to delete")
	return cmd
}

func withHistory(ctx *commandContext, fn func(*history.Store) error) error {
	store, err := ctx.openHistory()
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	if store == nil {
		return errHistoryDisabled
	}
	defer store.Close()
	return fn(store)
}

func historyRows(runs []*history.Run, now time.Time) [][]string {
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		elapsed := "-"
		if run.FinishedAt != nil {
			elapsed = run.Elapsed().Round(time.Millisecond).String()
		}
		output := "-"
		if run.OriginalDuration > 0 {
			output = fmt.Sprintf("%s / %s", formatTimestamp(run.OutputDuration), formatTimestamp(run.OriginalDuration))
		}
		rows = append(rows, []string{
			strconv.FormatInt(run.ID, 10),
			humanize.RelTime(run.StartedAt, now, "ago", "from now"),
			string(run.Status),
			filepath.Base(run.SourcePath),
			run.Quality,
			strconv.Itoa(run.CutCount),
			strconv.Itoa(run.EditCount),
			output,
			elapsed,
		})
	}
	return rows
}
