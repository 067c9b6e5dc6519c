package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"cleancut/internal/deps"
	"cleancut/internal/preflight"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check external tools and working directories",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			lines := renderSectionHeader("Configuration", colorize)
			configDetail := ctx.configPath
			if !ctx.configExists {
				configDetail += " (defaults)"
			}
			lines = append(lines,
				renderStatusLine("Config", statusInfo, configDetail, colorize),
				renderStatusLine("History", statusInfo, historyDetail(cfg.History.Enabled, cfg.HistoryPath()), colorize),
				"",
			)

			lines = append(lines, renderSectionHeader("Dependencies", colorize)...)
			depStatuses := preflight.CheckSystemDeps(cmd.Context(), cfg)
			lines = append(lines, dependencyLines(depStatuses, colorize)...)
			lines = append(lines, "")

			lines = append(lines, renderSectionHeader("Directories", colorize)...)
			lines = append(lines, preflightLines(preflight.RunAll(cmd.Context(), cfg), colorize)...)

			for _, line := range lines {
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}
}

func historyDetail(enabled bool, path string) string {
	if !enabled {
		return "disabled"
	}
	return path
}

func dependencyLines(statuses []deps.Status, colorize bool) []string {
	lines := make([]string, 0, len(statuses)+1)
	missing := make([]string, 0)
	for _, dep := range statuses {
		if dep.Available {
			message := "Ready"
			if dep.Version != "" {
				message = fmt.Sprintf("Ready (%s)", dep.Version)
			} else if dep.Command != "" {
				message = fmt.Sprintf("Ready (command: %s)", dep.Command)
			}
			kind := statusOK
			if strings.TrimSpace(dep.Detail) != "" {
				kind = statusWarn
				message += "; " + dep.Detail
			}
			lines = append(lines, renderStatusLine(dep.Name, kind, message, colorize))
			continue
		}

		detail := strings.TrimSpace(dep.Detail)
		if detail == "" {
			detail = "not available"
		}
		kind := statusError
		if dep.Optional {
			kind = statusWarn
		}
		lines = append(lines, renderStatusLine(dep.Name, kind, detail, colorize))
		missing = append(missing, dep.Name)
	}
	if len(missing) > 0 {
		lines = append(lines, renderStatusLine("Missing dependencies", statusWarn, strings.Join(missing, ", "), colorize))
	}
	return lines
}

func preflightLines(results []preflight.Result, colorize bool) []string {
	lines := make([]string, 0, len(results))
	for _, r := range results {
		kind := statusOK
		if !r.Passed {
			kind = statusError
		}
		lines = append(lines, renderStatusLine(r.Name, kind, r.Detail, colorize))
	}
	return lines
}
