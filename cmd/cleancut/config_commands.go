package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"cleancut/internal/config"
	"cleancut/internal/render"
)

var skipConfigAnnotation = map[string]string{"skipConfigLoad": "true"}

func newConfigCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}
	cmd.AddCommand(newConfigInitCommand(), newConfigValidateCommand(ctx))
	return cmd
}

func newConfigInitCommand() *cobra.Command {
	var (
		targetPath string
		overwrite  bool
	)
	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Create a sample configuration file",
		Annotations: skipConfigAnnotation,
		RunE: func(cmd *cobra.Command, _ []string) error {
			target, err := initTarget(targetPath, overwrite)
			if err != nil {
				return err
			}
			if err := config.CreateSample(target); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote sample configuration to %s\n", target)
			return nil
		},
	}
	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing configuration if present")
	return cmd
}

// initTarget resolves where config init writes, refusing to clobber an
// existing file unless overwrite is set.
func initTarget(flagValue string, overwrite bool) (string, error) {
	var (
		target string
		err    error
	)
	if flagValue = strings.TrimSpace(flagValue); flagValue == "" {
		target, err = config.DefaultConfigPath()
	} else {
		target, err = config.ExpandPath(flagValue)
	}
	if err != nil {
		return "", fmt.Errorf("resolve config path: %w", err)
	}
	if overwrite {
		return target, nil
	}
	switch _, statErr := os.Stat(target); {
	case statErr == nil:
		return "", fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
	case !errors.Is(statErr, fs.ErrNotExist):
		return "", fmt.Errorf("check config path: %w", statErr)
	}
	return target, nil
}

func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:         "validate",
		Short:       "Validate configuration file and show effective settings",
		Annotations: skipConfigAnnotation,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, path, exists, err := config.Load(ctx.configFlagValue())
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return fmt.Errorf("ensure directories: %w", err)
			}
			if _, err := render.LookupPreset(cfg.Render.Quality); err != nil {
				return fmt.Errorf("render.quality: %w", err)
			}

			source := path
			if !exists {
				source += " (not found, defaults were used)"
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(
				[]column{left("Setting"), left("Value")},
				[][]string{
					{"config", source},
					{"work dir", cfg.Paths.WorkDir},
					{"censor mode", cfg.Planner.CensorMode},
					{"aggregation", cfg.Confidence.Aggregation},
					{"quality", cfg.Render.Quality},
					{"workers", strconv.Itoa(cfg.Render.Workers)},
					{"align keyframes", yesNo(cfg.Render.AlignKeyframes)},
					{"history", yesNo(cfg.History.Enabled)},
				},
			))
			fmt.Fprintln(out, "Configuration valid")
			return nil
		},
	}
}
