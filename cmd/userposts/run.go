package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Sternrassler/userposts/internal/config"
	"github.com/Sternrassler/userposts/pkg/client"
	"github.com/Sternrassler/userposts/pkg/logging"
	"github.com/Sternrassler/userposts/pkg/metrics"
	"github.com/Sternrassler/userposts/pkg/service"
	"github.com/Sternrassler/userposts/pkg/sink"
)

// RunOptions holds the flags of the run command.
type RunOptions struct {
	ConfigPath string
	Pretty     bool
}

func newRunCommand() *cobra.Command {
	opts := &RunOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Fetch, join and print users with their posts",
		Example: `  # Fetch from the public API with defaults
  userposts run

  # Use a config file and indent the output
  userposts run --config userposts.yaml --pretty

  # Publish to Redis as well
  USERPOSTS_REDIS_ADDR=localhost:6379 userposts run`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runOnce(cmd.Context(), opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", "", "Path to a YAML config file")
	cmd.Flags().BoolVar(&opts.Pretty, "pretty", false, "Indent the JSON output")

	return cmd
}

// runOnce performs one enrichment run and publishes it to every configured
// sink. The metrics textfile is written whether or not the run succeeded.
func runOnce(ctx context.Context, opts *RunOptions, stdout, stderr io.Writer) (err error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}
	if opts.Pretty {
		cfg.Output.Format = "pretty"
	}

	logger := logging.Setup(logging.Config{
		Level:  cfg.Log.Level,
		Pretty: cfg.Log.Pretty,
		Output: stderr,
	})

	defer func() {
		if werr := metrics.WriteTextfile(cfg.Metrics.Textfile); werr != nil {
			logger.Error().Err(werr).Str("path", cfg.Metrics.Textfile).Msg("Failed to write metrics")
			err = errors.Join(err, werr)
		}
	}()

	c, err := client.New(client.Config{
		UserAgent: cfg.API.UserAgent,
		Timeout:   cfg.API.Timeout,
		Retry: client.RetryConfig{
			MaxAttempts:    cfg.Retry.MaxAttempts,
			InitialBackoff: cfg.Retry.InitialBackoff,
			MaxBackoff:     cfg.Retry.MaxBackoff,
		},
	})
	if err != nil {
		return fmt.Errorf("create client: %w", err)
	}
	defer c.Close()

	svc, err := service.NewWithClient(c, service.Config{
		BaseURL:     cfg.API.BaseURL,
		MaxAttempts: cfg.Retry.MaxAttempts,
	})
	if err != nil {
		return fmt.Errorf("create service: %w", err)
	}

	out, closeSinks, err := buildSinks(ctx, cfg, stdout)
	if err != nil {
		return err
	}
	defer closeSinks()

	runID := uuid.NewString()
	ctx = client.WithRequestID(ctx, runID)

	users, err := svc.GetUsersAndTheirPosts(ctx)
	if err != nil {
		return err
	}

	if err := out.Write(ctx, runID, users); err != nil {
		logger.Error().Err(err).Str("run_id", runID).Msg("Failed to publish snapshot")
		return fmt.Errorf("publish snapshot: %w", err)
	}

	return nil
}

// buildSinks assembles the stdout writer and, when redis.addr is set, the
// Redis sink. The returned func releases the Redis connection.
func buildSinks(ctx context.Context, cfg *config.Config, stdout io.Writer) (sink.Multi, func(), error) {
	var sinks sink.Multi

	switch cfg.Output.Format {
	case "json":
		sinks = append(sinks, sink.NewWriter(stdout, false))
	case "pretty":
		sinks = append(sinks, sink.NewWriter(stdout, true))
	}

	if cfg.Redis.Addr == "" {
		return sinks, func() {}, nil
	}

	redisClient, err := connectRedis(ctx, cfg.Redis)
	if err != nil {
		return nil, nil, err
	}

	sinks = append(sinks, sink.NewRedis(redisClient, cfg.Redis.Prefix, cfg.Redis.TTL))

	return sinks, func() { redisClient.Close() }, nil
}

func connectRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		redisClient.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", cfg.Addr, err)
	}
	log.Debug().Str("addr", cfg.Addr).Msg("Connected to Redis")
	return redisClient, nil
}
