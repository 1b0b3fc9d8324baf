package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/effectsync/internal/config"
	"github.com/udisondev/effectsync/internal/effect"
	"github.com/udisondev/effectsync/internal/entity"
	"github.com/udisondev/effectsync/internal/protocol"
	"github.com/udisondev/effectsync/internal/replication"
	"github.com/udisondev/effectsync/internal/world"
)

func TestBench_Run(t *testing.T) {
	cfg := config.Bench{Entities: 40, Observers: 5, EffectsPerTick: 10, Seed: 7}

	store := entity.NewStore()
	broadcaster := world.NewChunkBroadcaster(64)
	sched, err := replication.NewScheduler(store, broadcaster, replication.DefaultConfig())
	require.NoError(t, err)

	b := newBench(cfg, protocol.NewFramer(64), store, broadcaster, sched, effect.DefaultRegistry())
	require.NoError(t, b.populate())
	assert.Equal(t, 45, store.Len())
	assert.Equal(t, 5, broadcaster.Len())

	ctx := context.Background()
	for now := int64(1); now <= 400; now++ {
		require.NoError(t, b.step(ctx, now))
		require.NoError(t, sched.Tick(ctx, now))
	}

	stats := sched.Stats()
	assert.Equal(t, int64(400), stats.Ticks)
	assert.Positive(t, stats.Packets)
	assert.Zero(t, stats.Errors)
	assert.Positive(t, b.bytesDelivered())
	assert.Equal(t, int64(4000), b.granted.Load())
	assert.Equal(t, int64(2), b.despawned.Load())
	assert.Equal(t, 45, store.Len())
}

func TestParseLogLevel(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "DEBUG", parseLogLevel("debug").String())
	assert.Equal(t, "WARN", parseLogLevel("warn").String())
	assert.Equal(t, "INFO", parseLogLevel("").String())
	assert.Equal(t, "INFO", parseLogLevel("verbose").String())
}
