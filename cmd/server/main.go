package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/yourusername/txpolicies/api"
	"github.com/yourusername/txpolicies/logging"
	"github.com/yourusername/txpolicies/metrics"
	"github.com/yourusername/txpolicies/pkg/txpolicies"
	"github.com/yourusername/txpolicies/store"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "txpolicyd",
		Short:         "Per-station transmission policy service",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(newServeCmd(), newCheckCmd())
	return root
}

func newServeCmd() *cobra.Command {
	var listen, policyFile string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the admin API over the policy table",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig()
			if err != nil {
				return err
			}
			if listen != "" {
				cfg.ListenAddr = listen
			}
			if policyFile != "" {
				cfg.PolicyFile = policyFile
			}
			return serve(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "admin API listen address (overrides LISTEN_ADDR)")
	cmd.Flags().StringVar(&policyFile, "config", "", "policy YAML file (overrides POLICY_FILE)")
	return cmd
}

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <policy-file>",
		Short: "Validate a policy file and print the resulting table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ps, err := txpolicies.NewPolicyStore(
				txpolicies.WithLogger(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), nil))),
				txpolicies.WithConfigFile(args[0]),
			)
			if err != nil {
				return err
			}
			return ps.Dump(cmd.OutOrStdout())
		},
	}
}

func serve(ctx context.Context, cfg *Config) error {
	logger, closer, err := logging.New(logging.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		File:   cfg.LogFile,
		App:    "txpolicyd",
	}, os.Stdout)
	if err != nil {
		return err
	}
	defer closer.Close()
	slog.SetDefault(logger)

	svc, cleanup, err := buildStore(ctx, cfg, logger, metrics.NewMetrics())
	if err != nil {
		logger.Error("policy store setup failed", logging.FieldError, err)
		return err
	}
	defer cleanup()

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: api.NewRouter(svc.store, svc.metrics, logger),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("admin API listening",
			"addr", cfg.ListenAddr,
			"entries", svc.store.Len(),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		logger.Info("signal received, shutting down", "signal", sig.String())
	case err, ok := <-errCh:
		if ok {
			logger.Error("server error", logging.FieldError, err)
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown error", logging.FieldError, err)
		return err
	}

	logger.Info("txpolicyd stopped")
	return nil
}

// service bundles the store with the metrics it reports to
type service struct {
	store   *txpolicies.PolicyStore
	metrics *metrics.Metrics
}

// buildStore creates the policy store from cfg, attaching Redis persistence
// when configured. The returned cleanup closes backend connections.
func buildStore(ctx context.Context, cfg *Config, logger *slog.Logger, m *metrics.Metrics) (*service, func(), error) {
	if ctx == nil {
		ctx = context.Background()
	}

	opts := []txpolicies.Option{
		txpolicies.WithName(cfg.StoreName),
		txpolicies.WithLogger(logger),
		txpolicies.WithRecorder(m),
	}
	if cfg.PolicyFile != "" {
		opts = append(opts, txpolicies.WithConfigFile(cfg.PolicyFile))
	}

	var closers []io.Closer
	if cfg.RedisAddr != "" {
		rs := store.NewRedisStore(store.RedisConfig{
			Addr:      cfg.RedisAddr,
			Password:  cfg.RedisPassword,
			DB:        cfg.RedisDB,
			KeyPrefix: cfg.RedisKeyPrefix,
		})
		if err := rs.Ping(ctx); err != nil {
			rs.Close()
			return nil, nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.RedisAddr, err)
		}
		logger.Info("connected to Redis", "addr", cfg.RedisAddr)
		opts = append(opts, txpolicies.WithPersistence(rs))
		closers = append(closers, rs)
	} else {
		logger.Warn("no REDIS_ADDR set, admin changes will not survive a restart")
	}

	cleanup := func() {
		for _, c := range closers {
			c.Close()
		}
	}

	ps, err := txpolicies.NewPolicyStore(opts...)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	if err := ps.Restore(ctx); err != nil {
		cleanup()
		return nil, nil, err
	}

	return &service{store: ps, metrics: m}, cleanup, nil
}
