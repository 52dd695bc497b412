package memory

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hirelens-labs/hirelens/internal/core/ports/driven"
)

func TestConfigStore_SetAndGet(t *testing.T) {
	store := NewConfigStore()

	require.NoError(t, store.Set("sources.fundingdb.api_key", "fk-123"))

	val, ok := store.Get("sources.fundingdb.api_key")
	require.True(t, ok)
	assert.Equal(t, "fk-123", val)

	_, ok = store.Get("sources.fundingdb.missing")
	assert.False(t, ok)
}

func TestConfigStore_Set_Update(t *testing.T) {
	store := NewConfigStore()

	require.NoError(t, store.Set("server.addr", ":8080"))
	require.NoError(t, store.Set("server.addr", ":9090"))

	assert.Equal(t, ":9090", store.GetString("server.addr"))
}

func TestConfigStore_TypedGetters(t *testing.T) {
	store := NewConfigStore()

	require.NoError(t, store.Set("server.addr", ":8080"))
	require.NoError(t, store.Set("probe.concurrency", 5))
	require.NoError(t, store.Set("scheduler.enabled", true))
	require.NoError(t, store.Set("probe.rate_per_second", 2.5))
	require.NoError(t, store.Set("sources.order", []string{"seedfile", "fundingdb"}))

	assert.Equal(t, ":8080", store.GetString("server.addr"))
	assert.Equal(t, 5, store.GetInt("probe.concurrency"))
	assert.True(t, store.GetBool("scheduler.enabled"))
	assert.Equal(t, 2.5, store.GetFloat("probe.rate_per_second"))
	assert.Equal(t, []string{"seedfile", "fundingdb"}, store.GetStringSlice("sources.order"))
}

func TestConfigStore_TypedGetters_MissingOrWrongType(t *testing.T) {
	store := NewConfigStore()

	require.NoError(t, store.Set("probe.concurrency", "five"))

	assert.Equal(t, "", store.GetString("missing"))
	assert.Equal(t, 0, store.GetInt("probe.concurrency"))
	assert.False(t, store.GetBool("missing"))
	assert.Equal(t, 0.0, store.GetFloat("missing"))
	assert.Nil(t, store.GetStringSlice("missing"))
}

func TestConfigStore_NumericCoercion(t *testing.T) {
	store := NewConfigStore()

	// TOML decoders hand back int64 and float64; getters must coerce.
	require.NoError(t, store.Set("a", int64(42)))
	require.NoError(t, store.Set("b", float64(42)))
	require.NoError(t, store.Set("c", 42))

	assert.Equal(t, 42, store.GetInt("a"))
	assert.Equal(t, 42, store.GetInt("b"))
	assert.Equal(t, 42.0, store.GetFloat("c"))
}

func TestConfigStore_StringSliceFromAnySlice(t *testing.T) {
	store := NewConfigStore()

	require.NoError(t, store.Set("mixed", []any{"a", 1, "b"}))

	assert.Equal(t, []string{"a", "b"}, store.GetStringSlice("mixed"))
}

func TestConfigStore_SaveLoadWatch_NoOps(t *testing.T) {
	store := NewConfigStore()
	require.NoError(t, store.Set("key", "value"))

	assert.NoError(t, store.Save())
	assert.NoError(t, store.Load())
	assert.NoError(t, store.Watch(func() { t.Fatal("memory store must never notify") }))

	// Nothing is lost by the no-ops.
	assert.Equal(t, "value", store.GetString("key"))
	assert.Equal(t, ":memory:", store.Path())
}

func TestConfigStore_ConcurrentAccess(t *testing.T) {
	store := NewConfigStore()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = store.Set("shared", "x")
		}()
		go func() {
			defer wg.Done()
			_ = store.GetString("shared")
		}()
	}
	wg.Wait()

	assert.Equal(t, "x", store.GetString("shared"))
}

func TestConfigStore_InterfaceCompliance(t *testing.T) {
	var _ driven.ConfigStore = NewConfigStore()
}
