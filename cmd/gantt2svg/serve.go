package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"gantt2svg/internal/render"
	"gantt2svg/internal/source"
	"gantt2svg/internal/store"
	"gantt2svg/internal/web"
	"gantt2svg/pkg/plan"
)

func newServeCmd(a *app) *cobra.Command {
	var in inputFlags
	var addr string
	var watch bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the chart and the editing API over HTTP",
		Long: `Serve the chart and the editing API over HTTP.

The input seeds the project store. With a persistent store (store.driver
sqlite or yaml) it is only used when the store is empty. Without any input
the built-in sample projects are used.

Examples:
  gantt2svg serve --sample --addr :8080
  gantt2svg serve --projects plan.yaml --watch
  GANTT_STORE=sqlite GANTT_STORE_PATH=plans.db gantt2svg serve`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if watch && (in.sample || in.empty()) {
				return errors.New("--watch needs --projects or --csv")
			}
			if addr == "" {
				addr = a.cfg.Server.Addr
			}

			seed := source.Sample()
			if !in.empty() {
				var err error
				if seed, err = in.load(); err != nil {
					return err
				}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			st, err := a.openStore(ctx, seed)
			if err != nil {
				return err
			}
			defer st.Close()

			if watch {
				go a.reloadOnChange(ctx, st, &in)
			}
			return a.serveHTTP(ctx, addr, st)
		},
	}

	in.register(cmd)
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config, :8080)")
	cmd.Flags().BoolVar(&watch, "watch", false, "Reload the input file into the store when it changes")
	return cmd
}

// openStore builds the configured persister and opens a store over it,
// seeding it from seed when nothing is stored yet.
func (a *app) openStore(ctx context.Context, seed []plan.Project) (*store.Store, error) {
	p, err := store.NewPersister(a.cfg.Store)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return store.New(seed, a.logger), nil
	}

	st, err := store.Open(ctx, p, seed, a.logger)
	if err != nil {
		p.Close()
		return nil, fmt.Errorf("error opening %s store: %w", a.cfg.Store.Driver, err)
	}
	return st, nil
}

func (a *app) reloadOnChange(ctx context.Context, st *store.Store, in *inputFlags) {
	err := watchFile(ctx, in.path(), a.logger, func() {
		projects, err := in.load()
		if err != nil {
			a.logger.Error("Reload failed", zap.String("file", in.path()), zap.Error(err))
			return
		}
		if _, err := st.Dispatch(ctx, store.ReplaceAll{Projects: projects}); err != nil {
			a.logger.Error("Reload rejected", zap.String("file", in.path()), zap.Error(err))
		}
	})
	if err != nil {
		a.logger.Error("File watcher stopped", zap.Error(err))
	}
}

func (a *app) serveHTTP(ctx context.Context, addr string, st *store.Store) error {
	srv := &http.Server{
		Addr:    addr,
		Handler: web.NewServer(st, render.New(a.cfg, a.logger), a.cfg, a.logger),
		// Request contexts end with ctx so that event streams let Shutdown finish
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("HTTP server failed: %w", err)
	case <-ctx.Done():
	}

	a.logger.Info("Shutting down HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("HTTP server shutdown error", zap.Error(err))
		return err
	}
	a.logger.Info("HTTP server stopped")
	return nil
}
