package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/GoCodeAlone/mfe"
	"github.com/GoCodeAlone/mfe/httpapi"
	"github.com/GoCodeAlone/mfe/manifest"
)

type serveOptions struct {
	manifestPath string
	addr         string
	watch        bool
	snapshot     string
}

// NewServeCommand creates the serve command
func NewServeCommand(root *rootOptions) *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a read-only HTTP view of a unit manifest",
		Long: `Serve loads a unit manifest into a runtime and exposes unit statuses,
navigation changes and the error catalog over HTTP. With --watch the
manifest is reloaded when the file changes; with --snapshot unit statuses
are logged on a cron schedule.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			logger := root.logger(cmd, cfg)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return serve(ctx, cfg, logger, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.manifestPath, "manifest", "f", "", "unit manifest (YAML or TOML)")
	cmd.Flags().StringVar(&opts.addr, "addr", ":8080", "listen address")
	cmd.Flags().BoolVar(&opts.watch, "watch", false, "reload the manifest when it changes")
	cmd.Flags().StringVar(&opts.snapshot, "snapshot", "", "cron schedule for logging unit statuses, e.g. \"@every 1m\"")
	_ = cmd.MarkFlagRequired("manifest")
	return cmd
}

func serve(ctx context.Context, cfg *mfe.Config, logger mfe.Logger, opts *serveOptions) error {
	m, err := manifest.Load(opts.manifestPath)
	if err != nil {
		return err
	}

	rt := mfe.NewRuntime(cfg, logger)
	defer rt.Close()
	if err := m.Populate(rt); err != nil {
		return err
	}

	if opts.snapshot != "" {
		c := cron.New()
		if _, err := c.AddFunc(opts.snapshot, func() { logSnapshot(rt, logger) }); err != nil {
			return fmt.Errorf("invalid snapshot schedule %q: %w", opts.snapshot, err)
		}
		c.Start()
		defer c.Stop()
	}

	if opts.watch {
		go func() {
			err := manifest.Watch(ctx, opts.manifestPath, func(m *manifest.Manifest, err error) {
				if err != nil {
					logger.Error("Manifest reload failed", "path", opts.manifestPath, "error", err)
					return
				}
				if err := manifest.Sync(rt, m); err != nil {
					logger.Error("Manifest reload failed", "path", opts.manifestPath, "error", err)
					return
				}
				logger.Info("Manifest reloaded", "path", opts.manifestPath, "units", len(m.Units))
			})
			if err != nil {
				logger.Error("Manifest watch stopped", "error", err)
			}
		}()
	}

	server := &http.Server{
		Addr:              opts.addr,
		Handler:           httpapi.NewRouter(rt, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Serving runtime view", "addr", opts.addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func logSnapshot(rt *mfe.Runtime, logger mfe.Logger) {
	for _, s := range rt.Snapshot() {
		logger.Info("Unit status", "unit", s.Name, "kind", s.Kind, "status", s.Status)
	}
}
