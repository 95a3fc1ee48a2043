// Package cmd holds the console's command line.
package cmd

import (
	"context"
	"fmt"

	"github.com/jrsteele09/spares-console/internal/config"
	"github.com/jrsteele09/spares-console/internal/logging"
	"github.com/jrsteele09/spares-console/notify"
	"github.com/jrsteele09/spares-console/server"
	"github.com/jrsteele09/spares-console/server/loginsession"
	"github.com/spf13/cobra"
)

var rootCmd = NewRootCmd()

// NewRootCmd builds the command tree. Each call returns a fresh tree so tests can run
// commands in isolation.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "console",
		Short: "Spares marketplace admin console",
		Long: `console serves the parts marketplace admin console and drives its session
from the terminal.

The serve command runs the web console. login, logout, whoami, check and
switch-org work on the same session storage under the "cli" session.`,
		SilenceUsage: true,
	}

	root.AddCommand(newServeCmd())
	root.AddCommand(newLoginCmd())
	root.AddCommand(newLogoutCmd())
	root.AddCommand(newWhoamiCmd())
	root.AddCommand(newCheckCmd())
	root.AddCommand(newSwitchOrgCmd())
	return root
}

func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// loadConfig reads the environment and sets up logging for a command.
func loadConfig() (config.Config, error) {
	c, err := config.New()
	if err != nil {
		return nil, err
	}
	logging.Setup(c.GetLogLevel(), c.GetEnv())
	return c, nil
}

// withConsole opens the CLI session, runs fn and releases the storage backend.
func withConsole(cmd *cobra.Command, fn func(cs *loginsession.Session) error) error {
	ctx := cmd.Context()

	c, err := loadConfig()
	if err != nil {
		return err
	}
	table, err := server.LoadRouteTable(c)
	if err != nil {
		return err
	}
	repos, closeRepos, err := server.NewStorageFactory(ctx, c)
	if err != nil {
		return err
	}
	defer func() {
		_ = closeRepos()
	}()

	cs, err := server.OpenConsole(ctx, c, repos, server.CLISessionID,
		server.WithConsoleNotifier(notify.NewTerminalNotifier(cmd.ErrOrStderr())),
		server.WithConsoleTable(table),
	)
	if err != nil {
		return fmt.Errorf("open console session: %w", err)
	}
	return fn(cs)
}
