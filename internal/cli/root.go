// Package cli implements healthctl, a command line front end to the session
// and data services.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"healthmate/internal/app"
	"healthmate/internal/config"
	"healthmate/internal/pkg/logger"

	"github.com/spf13/cobra"
)

// AppFactory builds the application a command runs against
type AppFactory func(ctx context.Context) (*app.App, error)

// DefaultFactory loads configuration from the environment
func DefaultFactory(verbose *bool) AppFactory {
	return func(ctx context.Context) (*app.App, error) {
		cfg, err := config.Load()
		if err != nil {
			return nil, err
		}
		level := "warn"
		if *verbose {
			level = "debug"
		}
		return app.New(ctx, cfg, logger.New("dev", level))
	}
}

// NewRootCmd returns the healthctl command tree
func NewRootCmd(factory AppFactory) *cobra.Command {
	root := &cobra.Command{
		Use:   "healthctl",
		Short: "Sign in to the health backend and inspect your records",
		Long: `healthctl shares its credential store with the companion server.
Sign in once and every later command reuses the stored session.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newLoginCmd(factory),
		newRegisterCmd(factory),
		newLogoutCmd(factory),
		newWhoamiCmd(factory),
		newValidateCmd(factory),
		newListCmd(factory),
		newGetCmd(factory),
	)
	return root
}

// Execute runs healthctl
func Execute(ctx context.Context) error {
	var verbose bool
	root := NewRootCmd(DefaultFactory(&verbose))
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug output to stderr")
	return root.ExecuteContext(ctx)
}

// withApp builds and starts the application for one command
func withApp(cmd *cobra.Command, factory AppFactory, run func(ctx context.Context, a *app.App) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := factory(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.Start(ctx, false); err != nil {
		return err
	}
	return run(ctx, a)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return nil
}
