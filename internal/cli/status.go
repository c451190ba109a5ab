package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "status <project-id>",
		Short:         "Show a project's workflow position and progress",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runStatus(opts *RootOptions, projectID string, cmd *cobra.Command) error {
	env, err := newCommandEnv(opts, cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	status, err := env.engine.GetStatus(cmd.Context(), projectID)
	if err != nil {
		return engineExitError(env.formatter, err)
	}

	if env.formatter.Format == "json" {
		return env.formatter.JSON(status)
	}

	w := env.formatter.Writer
	fmt.Fprintf(w, "Project:  %s (%s)\n", status.ProjectName, status.ProjectID)
	if status.Complete {
		fmt.Fprintln(w, "Status:   workflow complete")
	} else if status.CurrentItem != nil {
		fmt.Fprintf(w, "Current:  %s (%s / %s)\n",
			status.CurrentItem.Name, status.CurrentItem.PhaseName, status.CurrentItem.SectionName)
		if status.CurrentItem.ResponsibleRole != "" {
			fmt.Fprintf(w, "Role:     %s\n", status.CurrentItem.ResponsibleRole)
		}
	}
	fmt.Fprintf(w, "Progress: %d/%d (%.1f%%)\n",
		status.Progress.Completed, status.Progress.Total, status.Progress.Percentage)
	return nil
}
