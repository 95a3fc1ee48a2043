package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/spares-console/internal/config"
	"github.com/jrsteele09/spares-console/server"
	"github.com/jrsteele09/spares-console/storage"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const (
	shutdownTimeout    = 5 * time.Second
	sessionSweepPeriod = 10 * time.Minute
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the web console",
		Long: `Run the web console on PORT. Browser sessions are persisted in the
backend named by STORAGE_BACKEND and idle sessions are swept periodically.`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("[serve] recovered from panic")
			returnError = errors.New("panic recovered")
		}
	}()

	ctx := cmd.Context()

	c, err := loadConfig()
	if err != nil {
		return err
	}
	displayAppname(cmd.OutOrStdout(), c.GetAppName())

	repos, closeRepos, err := server.NewStorageFactory(ctx, c)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeRepos(); err != nil {
			log.Err(err).Msg("[serve] failed to close storage")
		}
	}()

	srv, err := newHTTPServer(c, repos)
	if err != nil {
		return err
	}

	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go srv.console.ExpireSessions(sweepCtx, sessionSweepPeriod)

	listenErr := make(chan error, 1)
	go func() {
		listenErr <- listenAndServe(srv.http)
	}()

	if err := waitForStopSignal(ctx, listenErr); err != nil {
		return err
	}
	return shutdown(srv.http)
}

type httpServer struct {
	console *server.Server
	http    *http.Server
}

func newHTTPServer(c config.Config, repos storage.Factory) (httpServer, error) {
	console, err := server.New(c, repos)
	if err != nil {
		return httpServer{}, err
	}
	return httpServer{
		console: console,
		http:    &http.Server{Addr: c.GetPort(), Handler: console, ReadHeaderTimeout: 10 * time.Second},
	}, nil
}

func listenAndServe(server *http.Server) error {
	log.Info().Str("addr", server.Addr).Msg("Server listening")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

// waitForStopSignal blocks until ctx is cancelled or the listener fails.
func waitForStopSignal(ctx context.Context, listenErr <-chan error) error {
	select {
	case <-ctx.Done():
		log.Info().Msg("Stop signal received")
		return nil
	case err := <-listenErr:
		return err
	}
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	log.Info().Msg("Server stopped")
	return nil
}

func displayAppname(out io.Writer, appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	fmt.Fprintln(out, myFigure.String())
}
