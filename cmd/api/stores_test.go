package main

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hamed0406/uptimeprobe/internal/config"
	"github.com/hamed0406/uptimeprobe/internal/repo"
	"github.com/hamed0406/uptimeprobe/internal/repo/memory"
	rds "github.com/hamed0406/uptimeprobe/internal/repo/redis"
)

func TestBuildStores_MemoryDefaults(t *testing.T) {
	cfg := config.Config{SeedWebsites: []string{"a=example.com"}}
	st, err := buildStores(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer st.Close()

	assert.IsType(t, &memory.Store{}, st.sites)
	assert.IsType(t, &memory.Store{}, st.streaks)

	site, err := st.sites.Lookup(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, "example.com", site.Domain)

	sinks, ok := st.sink.(repo.MultiSink)
	require.True(t, ok)
	require.Len(t, sinks, 1)
	assert.IsType(t, repo.LogSink{}, sinks[0])
}

func TestBuildStores_RedisStreaks(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := config.Config{RedisURL: "redis://" + mr.Addr()}

	st, err := buildStores(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer st.Close()

	assert.IsType(t, &rds.StreakStore{}, st.streaks)
	n, err := st.streaks.Increment(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestBuildStores_KafkaSink(t *testing.T) {
	cfg := config.Config{KafkaBrokers: []string{"127.0.0.1:1"}, KafkaTopic: "t"}
	st, err := buildStores(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer st.Close()

	sinks := st.sink.(repo.MultiSink)
	require.Len(t, sinks, 1)
}

func TestBuildStores_BadSeed(t *testing.T) {
	_, err := buildStores(context.Background(), config.Config{SeedWebsites: []string{"nope"}}, zap.NewNop())
	assert.Error(t, err)
}
