package storage

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/BaSui01/gtmflow/testutil/fixtures"
	"github.com/BaSui01/gtmflow/types"
	"github.com/BaSui01/gtmflow/workflow"
)

var storeNow = time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)

func newTestStore(t *testing.T) (*Store, *MemorySubstrate) {
	t.Helper()
	sub := NewMemorySubstrate(0)
	return NewStore(sub, zap.NewNop(), WithClock(func() time.Time { return storeNow })), sub
}

func readEnvelope(t *testing.T, sub Substrate) map[string]any {
	t.Helper()
	raw, ok, err := sub.GetItem(context.Background(), DefaultKey)
	require.NoError(t, err)
	require.True(t, ok)
	var env map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &env))
	return env
}

type opRecorder struct {
	ops []string
}

func (r *opRecorder) RecordStorageOperation(op, status string, _ time.Duration) {
	r.ops = append(r.ops, op+":"+status)
}

// =============================================================================
// 🧪 Store 测试
// =============================================================================

func TestStore_LazyInitialization(t *testing.T) {
	store, sub := newTestStore(t)

	all, err := store.LoadAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)

	env := readEnvelope(t, sub)
	assert.Equal(t, "1.0", env["version"])
	assert.Equal(t, map[string]any{}, env["workflows"])
	assert.Equal(t, map[string]any{}, env["lastModified"])
}

func TestStore_SaveLoad(t *testing.T) {
	ctx := context.Background()
	store, sub := newTestStore(t)
	wf := workflow.SampleWorkflow()

	require.NoError(t, store.Save(ctx, wf))

	loaded, err := store.Load(ctx, wf.ID)
	require.NoError(t, err)
	assert.Equal(t, wf, loaded)

	// 返回值与存储相互独立
	loaded.Name = "changed"
	again, _ := store.Load(ctx, wf.ID)
	assert.Equal(t, wf.Name, again.Name)

	env := readEnvelope(t, sub)
	assert.Equal(t, "2024-05-01T12:30:00.000Z", env["lastModified"].(map[string]any)[wf.ID])
}

func TestStore_LastWriterWins(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	first := fixtures.MinimalWorkflow("wf-1")
	second := fixtures.MinimalWorkflow("wf-1")
	second.Name = "second"

	require.NoError(t, store.Save(ctx, first))
	require.NoError(t, store.Save(ctx, second))

	loaded, err := store.Load(ctx, "wf-1")
	require.NoError(t, err)
	assert.Equal(t, "second", loaded.Name)
}

func TestStore_LoadMissing(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.Load(context.Background(), "ghost")
	require.Error(t, err)
	assert.True(t, types.IsErrorCode(err, types.ErrNotFound))
	assert.Contains(t, err.Error(), "Workflow ghost not found")
}

func TestStore_LoadAllAndDelete(t *testing.T) {
	ctx := context.Background()
	store, sub := newTestStore(t)

	require.NoError(t, store.Save(ctx, fixtures.MinimalWorkflow("b")))
	require.NoError(t, store.Save(ctx, fixtures.MinimalWorkflow("a")))

	all, err := store.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "a", all[0].ID)
	assert.Equal(t, "2024-05-01T12:30:00.000Z", all[0].LastModified)

	require.NoError(t, store.Delete(ctx, "a"))
	require.NoError(t, store.Delete(ctx, "missing"))

	all, err = store.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "b", all[0].ID)

	env := readEnvelope(t, sub)
	assert.NotContains(t, env["lastModified"], "a")
}

func TestStore_SaveRequiresID(t *testing.T) {
	store, _ := newTestStore(t)

	err := store.Save(context.Background(), &types.Workflow{Name: "no id"})
	assert.True(t, types.IsErrorCode(err, types.ErrValidation))
	assert.Error(t, store.Save(context.Background(), nil))
}

func TestStore_Export(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	wf := fixtures.MinimalWorkflow("wf-1")
	require.NoError(t, store.Save(ctx, wf))

	data, err := store.Export(ctx, "wf-1")
	require.NoError(t, err)

	want, _ := json.MarshalIndent(wf, "", "  ")
	assert.Equal(t, string(want), string(data))
	assert.Contains(t, string(data), "\n  \"id\": \"wf-1\"")

	_, err = store.Export(ctx, "nope")
	assert.True(t, types.IsErrorCode(err, types.ErrNotFound))
	assert.Contains(t, err.Error(), "Workflow nope not found")
}

func TestStore_Import(t *testing.T) {
	ctx := context.Background()

	t.Run("valid", func(t *testing.T) {
		store, _ := newTestStore(t)
		wf, err := store.Import(ctx, []byte(fixtures.ImportJSON))
		require.NoError(t, err)
		assert.Equal(t, "imported-1", wf.ID)

		loaded, err := store.Load(ctx, "imported-1")
		require.NoError(t, err)
		assert.Equal(t, wf, loaded)
	})

	t.Run("empty nodes accepted", func(t *testing.T) {
		store, _ := newTestStore(t)
		wf, err := store.Import(ctx, []byte(`{"id":"x","name":"y","nodes":[]}`))
		require.NoError(t, err)
		assert.NotNil(t, wf.Nodes)
	})

	invalid := map[string]string{
		"malformed":     `{"id": "x",`,
		"missing name":  fixtures.InvalidStructureJSON,
		"missing nodes": `{"id":"x","name":"y"}`,
		"null nodes":    `{"id":"x","name":"y","nodes":null}`,
		"not an object": `[1,2,3]`,
	}
	for name, input := range invalid {
		t.Run(name, func(t *testing.T) {
			store, sub := newTestStore(t)
			_, err := store.Import(ctx, []byte(input))
			require.Error(t, err)
			assert.True(t, types.IsErrorCode(err, types.ErrValidation))
			assert.Contains(t, err.Error(), "Invalid workflow JSON")

			// 失败时不写入任何内容
			_, ok, _ := sub.GetItem(ctx, DefaultKey)
			assert.False(t, ok)
		})
	}
}

func TestStore_Clear(t *testing.T) {
	ctx := context.Background()
	store, sub := newTestStore(t)
	require.NoError(t, store.Save(ctx, fixtures.MinimalWorkflow("wf-1")))

	require.NoError(t, store.Clear(ctx))
	_, ok, err := sub.GetItem(ctx, DefaultKey)
	require.NoError(t, err)
	assert.False(t, ok)

	all, err := store.LoadAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestStore_VersionMismatchReinitializes(t *testing.T) {
	ctx := context.Background()
	core, logs := observer.New(zap.WarnLevel)
	sub := NewMemorySubstrate(0)
	require.NoError(t, sub.SetItem(ctx, DefaultKey,
		`{"version":"0.9","workflows":{"old":{"id":"old","name":"Old","nodes":[]}},"lastModified":{}}`))

	store := NewStore(sub, zap.New(core))
	all, err := store.LoadAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	assert.Equal(t, "1.0", readEnvelope(t, sub)["version"])
	require.Equal(t, 1, logs.FilterMessage("storage version mismatch, reinitializing").Len())
}

func TestStore_CorruptEnvelope(t *testing.T) {
	ctx := context.Background()
	sub := NewMemorySubstrate(0)
	require.NoError(t, sub.SetItem(ctx, DefaultKey, "{not json"))

	_, err := NewStore(sub, nil).LoadAll(ctx)
	require.Error(t, err)
	assert.True(t, types.IsErrorCode(err, types.ErrStorage))

	// 损坏的数据保持原样
	raw, _, _ := sub.GetItem(ctx, DefaultKey)
	assert.Equal(t, "{not json", raw)
}

func TestStore_QuotaExceeded(t *testing.T) {
	store := NewStore(NewMemorySubstrate(64), nil)

	err := store.Save(context.Background(), workflow.SampleWorkflow())
	require.Error(t, err)
	assert.True(t, types.IsErrorCode(err, types.ErrStorage))
	assert.True(t, errors.Is(err, ErrQuotaExceeded))
}

func TestStore_CustomKeyAndRecorder(t *testing.T) {
	ctx := context.Background()
	rec := &opRecorder{}
	sub := NewMemorySubstrate(0)
	store := NewStore(sub, nil, WithKey("custom"), WithStoreRecorder(rec))
	assert.Equal(t, "custom", store.Key())

	require.NoError(t, store.Save(ctx, fixtures.MinimalWorkflow("wf-1")))
	_, _ = store.Load(ctx, "missing")

	_, ok, _ := sub.GetItem(ctx, "custom")
	assert.True(t, ok)
	assert.Equal(t, []string{"save:success", "load:NOT_FOUND"}, rec.ops)
}
