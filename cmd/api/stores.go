package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hamed0406/uptimeprobe/internal/config"
	"github.com/hamed0406/uptimeprobe/internal/repo"
	chsink "github.com/hamed0406/uptimeprobe/internal/repo/clickhouse"
	kafkasink "github.com/hamed0406/uptimeprobe/internal/repo/kafka"
	"github.com/hamed0406/uptimeprobe/internal/repo/memory"
	"github.com/hamed0406/uptimeprobe/internal/repo/postgres"
	rds "github.com/hamed0406/uptimeprobe/internal/repo/redis"
)

type stores struct {
	sites   repo.WebsiteStore
	streaks repo.StreakStore
	sink    repo.ResultSink
	closers []func()
}

func (s *stores) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// buildStores picks a backend per port: Postgres for websites when
// DATABASE_URL is set, Redis (then Postgres) for streaks, and every configured
// sink for results. Anything unset falls back to the in-memory store.
func buildStores(ctx context.Context, cfg config.Config, log *zap.Logger) (*stores, error) {
	st := &stores{}
	fail := func(err error) (*stores, error) {
		st.Close()
		return nil, err
	}

	mem := memory.New()
	seeds, err := cfg.Seeds()
	if err != nil {
		return fail(err)
	}
	for _, s := range seeds {
		mem.AddSite(s)
	}
	st.sites, st.streaks = mem, mem

	if cfg.DatabaseURL != "" {
		pool, err := postgres.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return fail(fmt.Errorf("postgres: %w", err))
		}
		st.closers = append(st.closers, pool.Close)
		if err := postgres.Migrate(ctx, pool); err != nil {
			return fail(err)
		}
		st.sites = postgres.NewWebsiteStore(pool)
		st.streaks = postgres.NewStreakStore(pool)
		log.Info("store_selected", zap.String("port", "websites"), zap.String("backend", "postgres"))
	}

	if cfg.RedisURL != "" {
		client, err := rds.NewClientFromURL(ctx, cfg.RedisURL)
		if err != nil {
			return fail(err)
		}
		st.closers = append(st.closers, func() { _ = client.Close() })
		st.streaks = rds.NewStreakStore(client, cfg.StreakTTL)
		log.Info("store_selected", zap.String("port", "streaks"), zap.String("backend", "redis"))
	}

	var sinks repo.MultiSink
	if len(cfg.ClickHouseAddrs) > 0 {
		conn, err := chsink.Connect(ctx, chsink.Config{
			Addrs:    cfg.ClickHouseAddrs,
			Database: cfg.ClickHouseDatabase,
			Username: cfg.ClickHouseUsername,
			Password: cfg.ClickHousePassword,
		})
		if err != nil {
			return fail(err)
		}
		st.closers = append(st.closers, func() { _ = conn.Close() })
		if err := conn.Exec(ctx, chsink.DDL); err != nil {
			// the table is usually provisioned separately
			log.Warn("clickhouse_ddl_failed", zap.Error(err))
		}
		sinks = append(sinks, chsink.NewSink(conn))
		log.Info("sink_enabled", zap.String("backend", "clickhouse"), zap.Strings("addrs", cfg.ClickHouseAddrs))
	}
	if len(cfg.KafkaBrokers) > 0 {
		k := kafkasink.NewSink(log, cfg.KafkaBrokers, cfg.KafkaTopic)
		st.closers = append(st.closers, func() { _ = k.Close() })
		sinks = append(sinks, k)
		log.Info("sink_enabled", zap.String("backend", "kafka"), zap.String("topic", cfg.KafkaTopic))
	}
	if len(sinks) == 0 {
		sinks = append(sinks, repo.LogSink{Log: log})
	}
	st.sink = sinks
	return st, nil
}
