package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"cleancut/internal/keyframe"
)

type snapResult struct {
	Time      float64 `json:"time"`
	Mode      string  `json:"mode"`
	Tolerance float64 `json:"tolerance"`
	Snapped   float64 `json:"snapped"`
	Found     bool    `json:"found"`
}

func newKeyframesCommand(ctx *commandContext) *cobra.Command {
	var snapAt float64
	var mode string
	var tolerance float64
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "keyframes <source>",
		Short: "List keyframes or snap a timestamp onto one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			keyframes, err := keyframe.Probe(cmd.Context(), cfg.Render.FFprobeBinary, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if !cmd.Flags().Changed("snap") {
				if asJSON {
					return writeJSON(cmd, keyframes)
				}
				rows := make([][]string, 0, len(keyframes))
				for i, kf := range keyframes {
					rows = append(rows, []string{strconv.Itoa(i + 1), formatTimestamp(kf), strconv.FormatFloat(kf, 'f', 3, 64)})
				}
				fmt.Fprintln(out, renderTable([]column{right("#"), right("Timestamp"), right("Seconds")}, rows))
				fmt.Fprintf(out, "%d keyframe(s)\n", len(keyframes))
				return nil
			}

			m, err := keyframe.ParseMode(mode)
			if err != nil {
				return err
			}
			snapped, found := keyframe.Snap(snapAt, keyframes, m, tolerance)
			if asJSON {
				return writeJSON(cmd, snapResult{Time: snapAt, Mode: string(m), Tolerance: tolerance, Snapped: snapped, Found: found})
			}
			if !found {
				fmt.Fprintf(out, "No %s keyframe within tolerance of %s\n", m, formatSeconds(snapAt))
				return nil
			}
			fmt.Fprintf(out, "%s -> %s (%s)\n", formatSeconds(snapAt), formatSeconds(snapped), m)
			return nil
		},
	}

	cmd.Flags().Float64Var(&snapAt, "snap", 0, "Timestamp in seconds to snap onto a keyframe")
	cmd.Flags().StringVar(&mode, "mode", string(keyframe.Nearest), "Snap direction: nearest, before or after")
	cmd.Flags().Float64Var(&tolerance, "tolerance", -1, "Maximum snap distance in seconds (negative for unbounded)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}
