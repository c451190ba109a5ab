package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fieldline/fieldline/internal/template"
)

// InitOptions holds flags for the init command.
type InitOptions struct {
	*RootOptions
	Name     string
	Template string
}

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InitOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "init <project-id>",
		Short: "Initialize a project workflow",
		Long: `Initialize a project workflow: seed the phase hierarchy from a
template (when given), create the project's main tracker pointing at the
first line item, and raise the initial alert.

Example:
  fieldline init proj-42 --name "14 Oak St" --template templates/roofing.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Name, "name", "", "project display name (defaults to the project ID)")
	cmd.Flags().StringVar(&opts.Template, "template", "", "workflow template file to seed the hierarchy from")

	return cmd
}

func runInit(opts *InitOptions, projectID string, cmd *cobra.Command) error {
	env, err := newCommandEnv(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	ctx := cmd.Context()

	if opts.Template != "" {
		tpl, err := template.Load(opts.Template)
		if err != nil {
			var verr *template.ValidationError
			if errors.As(err, &verr) {
				_ = env.formatter.Error("TEMPLATE_INVALID", verr.Error(), nil)
				return &ExitError{Code: ExitCommandError, Message: verr.Error(), Err: err}
			}
			_ = env.formatter.Error("TEMPLATE_LOAD", err.Error(), nil)
			return &ExitError{Code: ExitCommandError, Message: err.Error(), Err: err}
		}
		env.formatter.VerboseLog("seeding hierarchy from template %q", tpl.Name)
		if err := env.store.SeedHierarchy(ctx, tpl.Hierarchy()); err != nil {
			_ = env.formatter.Error("SEED_FAILED", err.Error(), nil)
			return &ExitError{Code: ExitCommandError, Message: err.Error(), Err: err}
		}
	}

	name := opts.Name
	if name == "" {
		name = projectID
	}

	res, err := env.engine.InitializeWorkflow(ctx, projectID, name)
	if err != nil {
		return engineExitError(env.formatter, err)
	}

	env.formatter.Warnings(res.Warnings)
	if env.formatter.Format == "json" {
		return env.formatter.JSON(res)
	}

	w := env.formatter.Writer
	fmt.Fprintf(w, "Workflow initialized for %s\n", projectID)
	fmt.Fprintf(w, "  First item: %s (%s / %s)\n", res.FirstItem.Name, res.FirstItem.PhaseName, res.FirstItem.SectionName)
	fmt.Fprintf(w, "  Progress:   %d/%d (%.1f%%)\n", res.Progress.Completed, res.Progress.Total, res.Progress.Percentage)
	return nil
}
