package lock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestAcquireAndRelease(t *testing.T) {
	mr, client := newClient(t)
	l := NewRedis(client, "servicereports:c1:lifecycle:lock", time.Minute, WithWait(0))

	release, err := l.Acquire(context.Background())
	require.NoError(t, err)
	require.True(t, mr.Exists("servicereports:c1:lifecycle:lock"))
	require.Equal(t, time.Minute, mr.TTL("servicereports:c1:lifecycle:lock"))

	_, err = l.Acquire(context.Background())
	require.ErrorIs(t, err, ErrLocked)

	release()
	require.False(t, mr.Exists("servicereports:c1:lifecycle:lock"))

	release2, err := l.Acquire(context.Background())
	require.NoError(t, err)
	release2()
}

func TestReleaseKeepsForeignToken(t *testing.T) {
	mr, client := newClient(t)
	l := NewRedis(client, "k", time.Minute, WithWait(0))

	release, err := l.Acquire(context.Background())
	require.NoError(t, err)
	mr.FastForward(2 * time.Minute)
	require.NoError(t, mr.Set("k", "someone-else"))

	release()
	value, err := mr.Get("k")
	require.NoError(t, err)
	require.Equal(t, "someone-else", value)
}

func TestAcquireWaitsForHolder(t *testing.T) {
	_, client := newClient(t)
	l := NewRedis(client, "k", time.Minute, WithWait(2*time.Second))

	release, err := l.Acquire(context.Background())
	require.NoError(t, err)
	go func() {
		time.Sleep(150 * time.Millisecond)
		release()
	}()

	release2, err := l.Acquire(context.Background())
	require.NoError(t, err)
	release2()
}

func TestAcquireHonoursContext(t *testing.T) {
	_, client := newClient(t)
	l := NewRedis(client, "k", time.Minute)

	_, err := l.Acquire(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = l.Acquire(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
