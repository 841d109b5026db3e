// cmd/preflight/main.go
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/hamed0406/uptimeprobe/internal/config"
	chsink "github.com/hamed0406/uptimeprobe/internal/repo/clickhouse"
	"github.com/hamed0406/uptimeprobe/internal/repo/postgres"
	rds "github.com/hamed0406/uptimeprobe/internal/repo/redis"
)

func main() {
	if err := newCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newCmd() *cobra.Command {
	var connect bool
	cmd := &cobra.Command{
		Use:          "preflight",
		Short:        "Validate the environment before starting the API",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return preflight(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), connect)
		},
	}
	cmd.Flags().BoolVar(&connect, "connect", false, "also dial every configured backend")
	return cmd
}

func preflight(ctx context.Context, stdout, stderr io.Writer, connect bool) error {
	warn := func(msg string) { fmt.Fprintln(stderr, "⚠", msg) }
	ok := func(msg string) { fmt.Fprintln(stdout, "✔", msg) }

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(stderr, "✖", err)
		return err
	}
	ok("API_ADDR=" + cfg.Addr)
	ok(fmt.Sprintf("retries default=%d max=%d delay=%s..%s", cfg.RetryDefault, cfg.RetryMax, cfg.RetryDelay, cfg.RetryMaxDelay))

	seeds, _ := cfg.Seeds()
	switch {
	case cfg.DatabaseURL != "":
		ok("DATABASE_URL present (websites from Postgres)")
	case len(seeds) == 0:
		warn("DATABASE_URL and SEED_WEBSITES empty; every check will answer 'Website not found'.")
	default:
		ok(fmt.Sprintf("SEED_WEBSITES has %d in-memory websites", len(seeds)))
	}
	if cfg.RedisURL == "" && cfg.DatabaseURL == "" {
		warn("failure streaks live in process memory and reset on restart.")
	}
	if len(cfg.ClickHouseAddrs) == 0 && len(cfg.KafkaBrokers) == 0 {
		warn("no CLICKHOUSE_ADDRS or KAFKA_BROKERS; results are only logged.")
	} else {
		ok("result sinks: " + strings.Join(sinkNames(cfg), ","))
	}
	if !cfg.ProbeTLSStrict {
		ok("TLS handshakes are lenient; certificate validity is reported in ssl_valid")
	}

	if connect {
		if err := dial(ctx, cfg, ok); err != nil {
			fmt.Fprintln(stderr, "✖", err)
			return err
		}
	}

	ok("preflight passed")
	return nil
}

func sinkNames(cfg config.Config) []string {
	var names []string
	if len(cfg.ClickHouseAddrs) > 0 {
		names = append(names, "clickhouse")
	}
	if len(cfg.KafkaBrokers) > 0 {
		names = append(names, "kafka")
	}
	return names
}

func dial(ctx context.Context, cfg config.Config, ok func(string)) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if cfg.DatabaseURL != "" {
		pool, err := postgres.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
		pool.Close()
		ok("postgres reachable")
	}
	if cfg.RedisURL != "" {
		client, err := rds.NewClientFromURL(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		_ = client.Close()
		ok("redis reachable")
	}
	if len(cfg.ClickHouseAddrs) > 0 {
		conn, err := chsink.Connect(ctx, chsink.Config{
			Addrs:    cfg.ClickHouseAddrs,
			Database: cfg.ClickHouseDatabase,
			Username: cfg.ClickHouseUsername,
			Password: cfg.ClickHousePassword,
		})
		if err != nil {
			return err
		}
		_ = conn.Close()
		ok("clickhouse reachable")
	}
	return nil
}
