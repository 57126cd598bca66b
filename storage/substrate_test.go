package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BaSui01/gtmflow/internal/cache"
)

// =============================================================================
// 🧪 Substrate 一致性测试
// =============================================================================

func newRedisSubstrate(t *testing.T) (*RedisSubstrate, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	manager, err := cache.NewManager(cache.Config{Addr: mr.Addr(), KeyPrefix: "test:"}, zap.NewNop())
	require.NoError(t, err)
	return NewRedisSubstrate(manager), mr
}

func substrates(t *testing.T) map[string]Substrate {
	t.Helper()
	file, err := NewFileSubstrate(t.TempDir())
	require.NoError(t, err)
	redisSub, _ := newRedisSubstrate(t)
	return map[string]Substrate{
		"memory":   NewMemorySubstrate(0),
		"file":     file,
		"redis":    redisSub,
		"database": newSQLiteSubstrate(t),
	}
}

func TestSubstrates_RoundTrip(t *testing.T) {
	for name, sub := range substrates(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			defer sub.Close()

			require.NoError(t, sub.Ping(ctx))

			_, ok, err := sub.GetItem(ctx, "k")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, sub.SetItem(ctx, "k", `{"a":1}`))
			require.NoError(t, sub.SetItem(ctx, "k", `{"a":2}`))

			v, ok, err := sub.GetItem(ctx, "k")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, `{"a":2}`, v)

			require.NoError(t, sub.RemoveItem(ctx, "k"))
			require.NoError(t, sub.RemoveItem(ctx, "k"))
			_, ok, err = sub.GetItem(ctx, "k")
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestMemorySubstrate_Quota(t *testing.T) {
	ctx := context.Background()
	sub := NewMemorySubstrate(10)

	require.NoError(t, sub.SetItem(ctx, "a", "12345"))
	// 覆盖同一键时不重复计算旧值
	require.NoError(t, sub.SetItem(ctx, "a", "1234567890"))

	err := sub.SetItem(ctx, "b", "x")
	assert.ErrorIs(t, err, ErrQuotaExceeded)

	v, _, _ := sub.GetItem(ctx, "a")
	assert.Equal(t, "1234567890", v)
}

func TestMemorySubstrate_Closed(t *testing.T) {
	ctx := context.Background()
	sub := NewMemorySubstrate(0)
	require.NoError(t, sub.Close())

	_, _, err := sub.GetItem(ctx, "k")
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, sub.SetItem(ctx, "k", "v"), ErrClosed)
	assert.ErrorIs(t, sub.Ping(ctx), ErrClosed)
}

func TestFileSubstrate_EscapesKeys(t *testing.T) {
	dir := t.TempDir()
	sub, err := NewFileSubstrate(dir)
	require.NoError(t, err)

	require.NoError(t, sub.SetItem(context.Background(), "a/b c", "v"))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "a%2Fb%20c.json", entries[0].Name())

	data, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	require.NoError(t, err)
	assert.Equal(t, "v", string(data))

	_, err = NewFileSubstrate("")
	assert.Error(t, err)
}

func TestRedisSubstrate_UsesPrefix(t *testing.T) {
	sub, mr := newRedisSubstrate(t)
	defer sub.Close()

	require.NoError(t, sub.SetItem(context.Background(), DefaultKey, "payload"))

	got, err := mr.Get("test:" + DefaultKey)
	require.NoError(t, err)
	assert.Equal(t, "payload", got)
	assert.Zero(t, mr.TTL("test:"+DefaultKey))
}

func TestNewSubstrate(t *testing.T) {
	sub, err := NewSubstrate(Config{}, nil)
	require.NoError(t, err)
	assert.IsType(t, &MemorySubstrate{}, sub)

	sub, err = NewSubstrate(Config{Driver: "FILE", BaseDir: t.TempDir()}, nil)
	require.NoError(t, err)
	assert.IsType(t, &FileSubstrate{}, sub)

	_, err = NewSubstrate(Config{Driver: DriverRedis}, nil)
	assert.Error(t, err)

	_, err = NewSubstrate(Config{Driver: DriverDatabase}, nil)
	assert.Error(t, err)

	_, err = NewSubstrate(Config{Driver: "s3"}, nil)
	assert.EqualError(t, err, "unsupported storage driver: s3")
}
