package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fieldline/fieldline/internal/engine"
	"github.com/fieldline/fieldline/internal/store"
)

// commandEnv bundles the per-invocation wiring every subcommand needs:
// the opened store, the engine over it, and the output formatter.
type commandEnv struct {
	store     *store.Store
	engine    *engine.Engine
	formatter *OutputFormatter
}

// newCommandEnv opens the database and builds the engine. The caller
// must Close() when done.
func newCommandEnv(opts *RootOptions, cmd *cobra.Command, engineOpts ...engine.Option) (*commandEnv, error) {
	st, err := store.Open(opts.DBPath)
	if err != nil {
		return nil, NewExitError(ExitCommandError, fmt.Sprintf("open database %s: %v", opts.DBPath, err))
	}

	return &commandEnv{
		store:  st,
		engine: engine.New(st, engineOpts...),
		formatter: &OutputFormatter{
			Format:    opts.Format,
			Writer:    cmd.OutOrStdout(),
			ErrWriter: cmd.ErrOrStderr(),
			Verbose:   opts.Verbose,
		},
	}, nil
}

func (env *commandEnv) Close() {
	if err := env.store.Close(); err != nil {
		env.formatter.VerboseLog("close database: %v", err)
	}
}
