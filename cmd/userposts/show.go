package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Sternrassler/userposts/internal/config"
	"github.com/Sternrassler/userposts/pkg/logging"
	"github.com/Sternrassler/userposts/pkg/sink"
)

// ShowOptions holds the flags of the show command.
type ShowOptions struct {
	ConfigPath string
	RunID      string
	Pretty     bool
}

func newShowCommand() *cobra.Command {
	opts := &ShowOptions{}

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print a snapshot published to Redis by an earlier run",
		Example: `  # Latest snapshot
  USERPOSTS_REDIS_ADDR=localhost:6379 userposts show

  # A specific run
  userposts show --config userposts.yaml --run 3f1c9a0e-...`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return showSnapshot(cmd.Context(), opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", "", "Path to a YAML config file")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "Run ID to show (default: latest)")
	cmd.Flags().BoolVar(&opts.Pretty, "pretty", false, "Indent the JSON output")

	return cmd
}

func showSnapshot(ctx context.Context, opts *ShowOptions, stdout, stderr io.Writer) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}
	if cfg.Redis.Addr == "" {
		return errors.New("redis.addr is required to read snapshots")
	}

	logging.Setup(logging.Config{
		Level:  cfg.Log.Level,
		Pretty: cfg.Log.Pretty,
		Output: stderr,
	})

	redisClient, err := connectRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	store := sink.NewRedis(redisClient, cfg.Redis.Prefix, cfg.Redis.TTL)
	key := sink.SnapshotKey{Prefix: cfg.Redis.Prefix, RunID: opts.RunID}

	users, err := store.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("read snapshot %s: %w", key, err)
	}

	indent := opts.Pretty || cfg.Output.Format == "pretty"
	return sink.NewWriter(stdout, indent).Write(ctx, opts.RunID, users)
}
