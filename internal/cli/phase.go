package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewPhaseCommand creates the phase command group.
func NewPhaseCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "phase",
		Short: "Inspect phase-level completion state",
	}
	cmd.AddCommand(newPhaseIncompleteCommand(rootOpts))
	cmd.AddCommand(newPhaseBlockingCommand(rootOpts))
	cmd.AddCommand(newPhaseReadyCommand(rootOpts))
	return cmd
}

func newPhaseIncompleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "incomplete <project-id> <phase-name>",
		Short:         "List a phase's incomplete line items in traversal order",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newCommandEnv(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer env.Close()

			items, err := env.engine.GetIncompleteItemsInPhase(cmd.Context(), args[0], args[1])
			if err != nil {
				return engineExitError(env.formatter, err)
			}

			if env.formatter.Format == "json" {
				return env.formatter.JSON(items)
			}

			w := env.formatter.Writer
			if len(items) == 0 {
				fmt.Fprintf(w, "Phase %s is complete\n", args[1])
				return nil
			}
			fmt.Fprintf(w, "Incomplete in %s:\n", args[1])
			for _, it := range items {
				fmt.Fprintf(w, "  %s  %s (%s)\n", it.ID, it.Name, it.SectionName)
			}
			return nil
		},
	}
}

func newPhaseBlockingCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "blocking <project-id> <phase-name>",
		Short:         "Show the first incomplete item holding a phase open",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newCommandEnv(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer env.Close()

			blocker, err := env.engine.FindBlockingItem(cmd.Context(), args[0], args[1])
			if err != nil {
				return engineExitError(env.formatter, err)
			}

			if env.formatter.Format == "json" {
				return env.formatter.JSON(blocker)
			}

			w := env.formatter.Writer
			if blocker == nil {
				fmt.Fprintf(w, "Nothing blocking: phase %s is complete\n", args[1])
				return nil
			}
			fmt.Fprintf(w, "Blocking: %s (%s)\n", blocker.Name, blocker.SectionName)
			return nil
		},
	}
}

func newPhaseReadyCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ready <project-id> <phase-name>",
		Short: "Check whether a phase's items are all complete",
		Long: `Check whether every line item in the phase is complete.

Exits 0 when the phase is ready and 1 when an item still blocks it,
so the check can gate scripts directly.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newCommandEnv(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer env.Close()

			readiness, err := env.engine.CanAdvancePhase(cmd.Context(), args[0], args[1])
			if err != nil {
				return engineExitError(env.formatter, err)
			}

			if env.formatter.Format == "json" {
				if err := env.formatter.JSON(readiness); err != nil {
					return err
				}
			} else if readiness.Ready {
				fmt.Fprintf(env.formatter.Writer, "Phase %s is ready\n", args[1])
			} else {
				fmt.Fprintf(env.formatter.Writer, "Phase %s is blocked by %s\n", args[1], readiness.BlockerName)
			}

			if !readiness.Ready {
				return NewExitError(ExitFailure, fmt.Sprintf("phase %s blocked by %s", args[1], readiness.BlockerName))
			}
			return nil
		},
	}
}
