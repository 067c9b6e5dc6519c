package main

import (
	"github.com/spf13/cobra"
)

func newPlanCommand(ctx *commandContext) *cobra.Command {
	var duration float64
	var source string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "plan <detections-file>",
		Short: "Fuse detections and print the resulting edit plan",
		Long: `Fuse the detector signals in a JSON or YAML detections file, apply any
reviewer overrides, and print the edit plan that render would execute.

The asset duration comes from --duration, then from probing --source with
ffprobe, then from the detections file itself.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			result, err := buildPlan(cmd.Context(), cfg, logger, planRequest{
				detectionsPath: args[0],
				duration:       duration,
				source:         source,
			})
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, newPlanReport(result.plan))
			}
			printPlan(cmd.OutOrStdout(), result.plan)
			return nil
		},
	}

	cmd.Flags().Float64VarP(&duration, "duration", "d", 0, "Asset duration in seconds")
	cmd.Flags().StringVarP(&source, "source", "s", "", "Media file to probe for the duration")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the plan as JSON")
	return cmd
}
