package audit_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/nexiatray/internal/audit"
)

func newSink(t *testing.T, opts ...audit.Option) (*audit.RedisSink, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	sink := audit.NewRedisSink(client, "test:audit", opts...)
	t.Cleanup(func() { _ = sink.Close() })
	return sink, mr
}

func TestRedisSinkWriteAndRecent(t *testing.T) {
	sink, _ := newSink(t)
	ctx := context.Background()

	require.NoError(t, sink.Write(ctx, audit.NewEvent("ipc", "startSession", time.Millisecond, nil)))
	require.NoError(t, sink.Write(ctx, audit.NewEvent("http", "queryBackend", 2*time.Millisecond, errors.New("API request failed: refused"))))

	events, err := sink.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 2)

	assert.Equal(t, "queryBackend", events[0].Command)
	assert.Equal(t, "error", events[0].Status)
	assert.Equal(t, "API request failed: refused", events[0].Error)
	assert.Equal(t, "startSession", events[1].Command)
	assert.Equal(t, "ok", events[1].Status)
	assert.NotEmpty(t, events[1].ID)
}

func TestRedisSinkTrimsToMaxLen(t *testing.T) {
	sink, mr := newSink(t, audit.WithMaxLen(3))
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, sink.Write(ctx, audit.NewEvent("cli", "getEcosystemStatus", 0, nil)))
	}

	items, err := mr.List("test:audit")
	require.NoError(t, err)
	assert.Len(t, items, 3)
}

func TestDialRedis(t *testing.T) {
	mr := miniredis.RunT(t)

	sink, err := audit.DialRedis(context.Background(), mr.Addr(), "k")
	require.NoError(t, err)
	require.NoError(t, sink.Close())

	_, err = audit.DialRedis(context.Background(), "", "k")
	assert.Error(t, err)
}

func TestNopSink(t *testing.T) {
	var sink audit.Sink = audit.Nop{}
	assert.NoError(t, sink.Write(context.Background(), audit.Event{}))
}
