package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettleDisabled(t *testing.T) {
	assert.NoError(t, Settle(context.Background(), "/does/not/matter", 0))
}

func TestSettleQuietFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	start := time.Now()
	require.NoError(t, Settle(context.Background(), path, 50*time.Millisecond))
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestSettleWaitsForWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	go func() {
		for i := 0; i < 3; i++ {
			time.Sleep(30 * time.Millisecond)
			_ = os.WriteFile(path, []byte("more"), 0o644)
		}
	}()

	start := time.Now()
	require.NoError(t, Settle(context.Background(), path, 80*time.Millisecond))
	assert.GreaterOrEqual(t, time.Since(start), 150*time.Millisecond)
}

func TestSettleMissingPath(t *testing.T) {
	assert.Error(t, Settle(context.Background(), filepath.Join(t.TempDir(), "nope"), time.Second))
}

func TestSettleContext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, Settle(ctx, path, time.Hour), context.DeadlineExceeded)
}
