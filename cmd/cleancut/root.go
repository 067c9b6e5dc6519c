package main

import (
	"github.com/spf13/cobra"
)

const (
	groupEditing     = "editing"
	groupMaintenance = "maintenance"
)

func newRootCommand() *cobra.Command {
	var configFlag string
	ctx := newCommandContext(&configFlag)

	root := &cobra.Command{
		Use:           "cleancut",
		Short:         "Plan and render family-friendly edits of video files",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	root.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")

	root.AddGroup(
		&cobra.Group{ID: groupEditing, Title: "Editing:"},
		&cobra.Group{ID: groupMaintenance, Title: "Maintenance:"},
	)
	addToGroup(root, groupEditing,
		newPlanCommand(ctx),
		newRenderCommand(ctx),
		newKeyframesCommand(ctx),
	)
	addToGroup(root, groupMaintenance,
		newHistoryCommand(ctx),
		newConfigCommand(ctx),
		newStatusCommand(ctx),
	)
	return root
}

func addToGroup(parent *cobra.Command, group string, cmds ...*cobra.Command) {
	for _, cmd := range cmds {
		cmd.GroupID = group
		parent.AddCommand(cmd)
	}
}
