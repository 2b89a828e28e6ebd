package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/solrq/internal/config"
	dbRedis "github.com/kailas-cloud/solrq/internal/db/redis"
	"github.com/kailas-cloud/solrq/internal/domain/schema"
	logpkg "github.com/kailas-cloud/solrq/internal/logger"
	"github.com/kailas-cloud/solrq/internal/metrics"
	"github.com/kailas-cloud/solrq/internal/repository/respcache"
	chiTransport "github.com/kailas-cloud/solrq/internal/transport/chi"
	"github.com/kailas-cloud/solrq/internal/transport/solr"
	healthuc "github.com/kailas-cloud/solrq/internal/usecase/health"
	searchuc "github.com/kailas-cloud/solrq/internal/usecase/search"
	"github.com/kailas-cloud/solrq/internal/version"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	ConfigPath string
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the HTTP API configured by config/<env>.yaml (or --config).
--schema, --solr-url and --core override the file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return WrapExitError(ExitCommandError, "load config", err)
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, opts.Env, &cfg)
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", "", "config file (default config/<env>.yaml)")

	return cmd
}

func (o *ServeOptions) loadConfig() (config.Config, error) {
	var (
		cfg config.Config
		err error
	)
	if o.ConfigPath != "" {
		cfg, err = config.LoadFile(o.ConfigPath)
	} else {
		cfg, err = config.Load(o.Env)
	}
	if err != nil {
		return config.Config{}, err
	}
	if o.SchemaPath != "" {
		cfg.Schema.Path = o.SchemaPath
	}
	if o.SolrURL != "" {
		cfg.Solr.BaseURL = o.SolrURL
	}
	if o.Core != "" {
		cfg.Solr.Core = o.Core
	}
	return cfg, cfg.Validate()
}

// serve is the composition root of the HTTP service. It blocks until ctx is done.
func serve(ctx context.Context, env string, cfg *config.Config) error {
	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting solrq API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("solr_url", cfg.Solr.BaseURL),
		zap.String("solr_core", cfg.Solr.Core),
		zap.Bool("cache", cfg.Cache.Enabled),
	)

	s, err := schema.LoadFile(cfg.Schema.Path)
	if err != nil {
		return fmt.Errorf("load schema: %w", err)
	}
	logger.Info("Schema loaded",
		zap.String("path", cfg.Schema.Path),
		zap.Int("fields", len(s.Fields())),
		zap.Int("dynamic_fields", len(s.DynamicFields())),
	)

	// Register metrics explicitly (no init())
	metrics.RegisterSolrMetrics()

	client, err := solr.NewClient(&solr.Config{
		BaseURL:         cfg.Solr.BaseURL,
		Core:            cfg.Solr.Core,
		Timeout:         cfg.Solr.Timeout(),
		MaxGetURLLength: cfg.Solr.MaxGetURLLength,
		Logger:          logger,
	})
	if err != nil {
		return fmt.Errorf("create solr client: %w", err)
	}

	// Optional response cache; pass nil interfaces, not typed nil pointers.
	var (
		selecter    searchuc.Selecter = client
		invalidator searchuc.Invalidator
		cachePinger healthuc.Pinger
	)
	if cfg.Cache.Enabled {
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Cache.Addrs,
			Password: cfg.Cache.Password,
		})
		if err != nil {
			return fmt.Errorf("create cache store: %w", err)
		}
		defer store.Close()

		readyTimeout := time.Duration(cfg.Cache.ReadinessTimeout) * time.Second
		if err := store.WaitForReady(ctx, readyTimeout); err != nil {
			return fmt.Errorf("cache not ready: %w", err)
		}
		logger.Info("Connected to cache", zap.Strings("addrs", cfg.Cache.Addrs))

		cached := respcache.New(client, store, respcache.Config{
			TTL:        cfg.Cache.TTL(),
			KeyPrefix:  cfg.Cache.KeyPrefix,
			CacheTotal: metrics.ResponseCacheTotal,
			Logger:     logger,
		})
		selecter, invalidator, cachePinger = cached, cached, store
	}

	searchSvc := searchuc.New(s, selecter, client, invalidator)
	healthSvc := healthuc.New(client, cachePinger)

	server := chiTransport.NewServer(searchSvc, healthSvc, logger).
		WithMaxBodyBytes(int64(cfg.HTTP.MaxBodyBytes))
	handler := chiTransport.NewRouter(server, chiTransport.RouterConfig{APIKeys: cfg.Auth.APIKeys}, logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
		return fmt.Errorf("shutdown: %w", err)
	}

	logger.Info("Server stopped gracefully")
	return nil
}
