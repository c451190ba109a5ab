package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewAlertsCommand creates the alerts command.
func NewAlertsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "alerts <project-id>",
		Short:         "List a project's active alerts",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newCommandEnv(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer env.Close()

			alerts, err := env.engine.ListActiveAlerts(cmd.Context(), args[0])
			if err != nil {
				return engineExitError(env.formatter, err)
			}

			if env.formatter.Format == "json" {
				return env.formatter.JSON(alerts)
			}

			w := env.formatter.Writer
			if len(alerts) == 0 {
				fmt.Fprintln(w, "No active alerts")
				return nil
			}
			for _, a := range alerts {
				fmt.Fprintf(w, "[%s] %s (%s)  assigned to %s", a.Priority, a.ItemName, a.PhaseName, a.AssignedTo)
				if a.DueDate != "" {
					fmt.Fprintf(w, "  due %s", a.DueDate)
				}
				fmt.Fprintln(w)
			}
			return nil
		},
	}
}
