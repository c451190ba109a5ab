package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fieldline/fieldline/internal/engine"
)

// CompleteOptions holds flags for the complete command.
type CompleteOptions struct {
	*RootOptions
	User     string
	Notes    string
	Degraded bool
}

// NewCompleteCommand creates the complete command.
func NewCompleteCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompleteOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "complete <project-id> <line-item-id>",
		Short: "Complete a line item and advance the tracker",
		Long: `Record a line item completion: append it to the ledger, advance the
tracker to the next incomplete item, retire the completed item's alert,
and raise one for the new position.

Completing an already-completed item is a no-op that reports the
existing state. Example:

  fieldline complete proj-42 item-order --user user-7 --notes "ordered from supplier"`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runComplete(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.User, "user", "", "user recording the completion")
	cmd.Flags().StringVar(&opts.Notes, "notes", "", "notes to attach to the completion")
	cmd.Flags().BoolVar(&opts.Degraded, "degraded", false, "skip alert and notification bookkeeping")

	return cmd
}

func runComplete(opts *CompleteOptions, projectID, lineItemID string, cmd *cobra.Command) error {
	var engineOpts []engine.Option
	if opts.Degraded {
		engineOpts = append(engineOpts, engine.WithDegraded())
	}

	env, err := newCommandEnv(opts.RootOptions, cmd, engineOpts...)
	if err != nil {
		return err
	}
	defer env.Close()

	res, err := env.engine.Complete(cmd.Context(), engine.CompleteRequest{
		ProjectID:  projectID,
		LineItemID: lineItemID,
		UserID:     opts.User,
		Notes:      opts.Notes,
	})
	if err != nil {
		return engineExitError(env.formatter, err)
	}

	env.formatter.Warnings(res.Warnings)
	if env.formatter.Format == "json" {
		return env.formatter.JSON(res)
	}

	w := env.formatter.Writer
	if res.AlreadyCompleted {
		fmt.Fprintf(w, "%s was already completed\n", res.CompletedItem.Name)
	} else {
		fmt.Fprintf(w, "Completed: %s\n", res.CompletedItem.Name)
	}
	if res.OutOfBand {
		fmt.Fprintln(w, "  (completed out of order)")
	}

	switch {
	case res.WorkflowComplete:
		fmt.Fprintln(w, "Workflow complete.")
	case res.NextItem != nil:
		fmt.Fprintf(w, "Next:      %s (%s / %s)\n", res.NextItem.Name, res.NextItem.PhaseName, res.NextItem.SectionName)
		if res.PhaseChanged {
			fmt.Fprintf(w, "  Entered phase %s\n", res.NextItem.PhaseName)
		} else if res.SectionChanged {
			fmt.Fprintf(w, "  Entered section %s\n", res.NextItem.SectionName)
		}
	}
	fmt.Fprintf(w, "Progress:  %d/%d (%.1f%%)\n", res.Progress.Completed, res.Progress.Total, res.Progress.Percentage)
	return nil
}
