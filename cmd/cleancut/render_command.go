package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"cleancut/internal/config"
	"cleancut/internal/history"
	"cleancut/internal/logging"
	"cleancut/internal/render"
	"cleancut/internal/services"
)

func newRenderCommand(ctx *commandContext) *cobra.Command {
	var detectionsPath string
	var duration float64
	var flags renderFlags

	cmd := &cobra.Command{
		Use:   "render <source> <destination>",
		Short: "Plan and render an edited copy of a video",
		Long: `Build the edit plan from a detections file and render it: cut segments are
removed, profanity is muted, and the kept segments are stream copied when no
re-encode is needed. The destination is written only after every step
succeeded. Each run is recorded in the history database.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			opts, err := renderOptions(cmd, cfg, flags)
			if err != nil {
				return err
			}

			source, destination := args[0], args[1]
			runID := services.NewRunID()
			runCtx := services.WithRunID(cmd.Context(), runID)
			logger = logging.WithContext(runCtx, logger)

			store, err := ctx.openHistory()
			if err != nil {
				return services.Wrap(services.ErrResource, "history", "open", cfg.HistoryPath(), err)
			}
			var run *history.Run
			if store != nil {
				defer store.Close()
				run, err = store.Begin(runCtx, runID, "render", source, destination, opts.Preset.Name)
				if err != nil {
					return services.Wrap(services.ErrResource, "history", "begin", runID, err)
				}
			}

			job := renderJob{
				source:      source,
				destination: destination,
				plan: planRequest{
					detectionsPath: detectionsPath,
					duration:       duration,
					source:         source,
				},
			}
			outcome, runErr := executeRender(runCtx, cfg, logger, opts, job)
			if run != nil {
				// Record the outcome even when the run was interrupted.
				if finishErr := store.Finish(context.WithoutCancel(runCtx), run.ID, outcome.record(runErr)); finishErr != nil {
					logging.WarnWithContext(logger, "failed to record run outcome", "history_finish_failed",
						logging.Int("history_id", int(run.ID)),
						logging.Error(finishErr),
					)
				}
			}
			if runErr != nil {
				return runErr
			}
			printRenderResult(cmd.OutOrStdout(), outcome)
			return nil
		},
	}

	cmd.Flags().StringVar(&detectionsPath, "detections", "", "Detections file (JSON or YAML)")
	cmd.Flags().Float64VarP(&duration, "duration", "d", 0, "Override the probed asset duration in seconds")
	flags.register(cmd)
	_ = cmd.MarkFlagRequired("detections")
	return cmd
}

type renderJob struct {
	source      string
	destination string
	plan        planRequest
}

type renderOutcome struct {
	planned bool
	plan    planResult
	result  render.Result
}

func executeRender(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts render.Options, job renderJob) (renderOutcome, error) {
	var outcome renderOutcome
	planned, err := buildPlan(ctx, cfg, logger, job.plan)
	if err != nil {
		return outcome, err
	}
	outcome.planned = true
	outcome.plan = planned

	renderer := render.New(opts, nil, logger)
	result, err := renderer.Render(ctx, planned.plan, job.source, job.destination)
	if err != nil {
		return outcome, err
	}
	outcome.result = result
	return outcome, nil
}

// record converts the outcome into the history row written at the end of a run.
func (o renderOutcome) record(err error) history.Outcome {
	rec := history.Outcome{Status: history.StatusFor(err)}
	if err != nil {
		rec.ErrorMessage = err.Error()
	}
	if o.planned {
		summary := o.plan.plan.Summary()
		rec.OriginalDuration = summary.OriginalDuration
		rec.OutputDuration = summary.OutputDuration
		rec.CutCount = summary.CutCount
		rec.EditCount = summary.EditCount
		if data, marshalErr := json.Marshal(o.plan.plan); marshalErr == nil {
			rec.PlanJSON = string(data)
		}
	}
	strategies := make([]string, 0, len(o.result.Segments))
	for _, seg := range o.result.Segments {
		strategies = append(strategies, seg.Strategy.String())
	}
	rec.Strategies = strings.Join(strategies, ",")
	return rec
}

func printRenderResult(out io.Writer, o renderOutcome) {
	fmt.Fprintln(out, o.plan.plan.Summary().String())

	rows := make([][]string, 0, len(o.result.Segments))
	for i, seg := range o.result.Segments {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			formatTimestamp(seg.Start),
			formatTimestamp(seg.End),
			seg.Strategy.String(),
			strconv.Itoa(seg.Edits),
			yesNo(seg.Aligned),
		})
	}
	fmt.Fprintln(out, renderTable(
		[]column{right("#"), right("Start"), right("End"), left("Strategy"), right("Audio edits"), left("Aligned")},
		rows,
	))

	size := "unknown size"
	if info, err := os.Stat(o.result.Destination); err == nil {
		size = humanize.IBytes(uint64(info.Size()))
	}
	encoder := ""
	if o.result.Encoder != "" {
		encoder = ", encoder " + o.result.Encoder
	}
	fmt.Fprintf(out, "Wrote %s (%s) using %s%s in %s\n",
		o.result.Destination, size, o.result.Strategy, encoder, o.result.Elapsed.Round(time.Millisecond))
}
