package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/Sternrassler/spidy-listings/internal/config"
	"github.com/Sternrassler/spidy-listings/internal/export"
	"github.com/Sternrassler/spidy-listings/internal/runner"
	"github.com/Sternrassler/spidy-listings/pkg/client"
	"github.com/Sternrassler/spidy-listings/pkg/logging"
	"github.com/Sternrassler/spidy-listings/pkg/metrics"
	"github.com/Sternrassler/spidy-listings/pkg/ratelimit"
	"github.com/Sternrassler/spidy-listings/pkg/resolve"
	"github.com/Sternrassler/spidy-listings/pkg/spidy"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Exit codes.
const (
	exitOK    = 0
	exitFatal = 1
	exitUsage = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stderr io.Writer) int {
	opts, err := parseArgs(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		fmt.Fprintf(stderr, "spidy-listings: %v\n", err)
		return exitUsage
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		fmt.Fprintf(stderr, "spidy-listings: %v\n", err)
		return exitFatal
	}

	logging.Setup(logging.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty, Output: stderr})
	logger := logging.NewLogger("main")

	if err := execute(ctx, cfg, logger); err != nil {
		logger.Error().Err(err).Str("error_class", string(client.ClassOf(err))).Msg("Run aborted")
		return exitFatal
	}
	return exitOK
}

// loadConfig layers YAML, .env, environment and flags, then validates.
func loadConfig(opts *options) (*config.Config, error) {
	cfg, err := config.LoadEnv(opts.configPath, opts.envFile)
	if err != nil {
		return nil, err
	}
	opts.apply(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func execute(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	store, closeStore, err := newCooldownStore(ctx, cfg.RateLimit)
	if err != nil {
		return err
	}
	defer closeStore()

	tracker := ratelimit.NewTracker(store, cfg.RateLimit.Cooldown, logging.NewLogger("ratelimit"))

	clientCfg := client.DefaultConfig(cfg.API.UserAgent)
	clientCfg.Timeout = cfg.API.Timeout
	clientCfg.Observer = tracker

	httpClient, err := client.New(clientCfg)
	if err != nil {
		return fmt.Errorf("create client: %w", err)
	}

	api, err := spidy.New(httpClient, spidy.Config{
		BaseURL:  cfg.API.BaseURL,
		Version:  cfg.API.Version,
		Format:   spidy.Format(cfg.API.Format),
		Pacing:   cfg.Pacing.Policy(),
		Cooldown: tracker,
	})
	if err != nil {
		return fmt.Errorf("create api: %w", err)
	}

	sink, err := export.NewCSVDir(cfg.Output.Dir)
	if err != nil {
		return err
	}

	if cfg.Metrics.Addr != "" {
		metricsCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		go func() {
			if err := metrics.Serve(metricsCtx, cfg.Metrics.Addr); err != nil {
				logger.Warn().Err(err).Msg("Metrics listener stopped")
			}
		}()
	}

	r := runner.New(api, sink)
	logger.Info().
		Str("run_id", r.RunID()).
		Str("output", sink.Dir()).
		Dur("max_backoff", cfg.Pacing.MaxInterval).
		Bool("all", cfg.Selection.All).
		Int("item_ids", len(cfg.Selection.ItemIDs)).
		Int("item_names", len(cfg.Selection.ItemNames)).
		Msg("Starting run")

	summary, err := r.RunSelection(ctx, resolve.New(api), resolve.Selection{
		IDs:   cfg.Selection.ItemIDs,
		Names: cfg.Selection.ItemNames,
		All:   cfg.Selection.All,
	})
	summary.Log(logger)
	return err
}

// newCooldownStore returns the Redis store when configured, else memory.
func newCooldownStore(ctx context.Context, cfg config.RateLimitConfig) (ratelimit.Store, func(), error) {
	if cfg.RedisAddr == "" {
		return ratelimit.NewMemoryStore(), func() {}, nil
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
		DB:   cfg.RedisDB,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		redisClient.Close()
		return nil, nil, fmt.Errorf("connect to redis at %s: %w", cfg.RedisAddr, err)
	}
	return ratelimit.NewRedisStore(redisClient), func() { redisClient.Close() }, nil
}
