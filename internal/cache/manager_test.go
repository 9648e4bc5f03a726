package cache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func setupManager(t *testing.T) (*Manager, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)

	cfg := DefaultConfig()
	cfg.Addr = mr.Addr()
	m, err := NewManager(cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { m.Close() })

	return m, mr
}

func TestManager_SaveAndLoad(t *testing.T) {
	m, _ := setupManager(t)
	ctx := context.Background()

	key := "luma:sk-1:default"
	m.Save(ctx, key, []string{"photon-1", "photon-flash-1"})

	models, ok := m.Load(ctx, key)
	require.True(t, ok)
	assert.Equal(t, []string{"photon-1", "photon-flash-1"}, models)

	// 整键覆盖，不合并
	m.Save(ctx, key, []string{"photon-1"})
	models, ok = m.Load(ctx, key)
	require.True(t, ok)
	assert.Equal(t, []string{"photon-1"}, models)
}

func TestManager_LoadMissingKey(t *testing.T) {
	m, _ := setupManager(t)

	_, ok := m.Load(context.Background(), "nothing:here:default")
	assert.False(t, ok)
}

// nil 模型列表删除该键。
func TestManager_SaveNilDeletes(t *testing.T) {
	m, _ := setupManager(t)
	ctx := context.Background()

	key := "runway:sk-1:default"
	m.Save(ctx, key, []string{"gen4_image"})
	_, ok := m.Load(ctx, key)
	require.True(t, ok)

	m.Save(ctx, key, nil)
	_, ok = m.Load(ctx, key)
	assert.False(t, ok)
}

// 损坏的存量值按未命中处理，不 panic 不报错。
func TestManager_CorruptedEntry(t *testing.T) {
	m, mr := setupManager(t)

	require.NoError(t, mr.Set("imageflow:models:bad:key:default", "{not json"))
	_, ok := m.Load(context.Background(), "bad:key:default")
	assert.False(t, ok)
}

func TestManager_KeyPrefix(t *testing.T) {
	m, mr := setupManager(t)
	ctx := context.Background()

	m.Save(ctx, "openai:sk:default", []string{"dall-e-3"})
	assert.True(t, mr.Exists("imageflow:models:openai:sk:default"))
}

// 关闭后读写都静默失败。
func TestManager_ClosedIsNoop(t *testing.T) {
	m, _ := setupManager(t)
	ctx := context.Background()

	m.Save(ctx, "a:b:c", []string{"x"})
	require.NoError(t, m.Close())
	require.NoError(t, m.Close()) // 幂等

	_, ok := m.Load(ctx, "a:b:c")
	assert.False(t, ok)
	m.Save(ctx, "a:b:c", []string{"y"}) // 不 panic
}

func TestManager_ConnectFailure(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Addr = "127.0.0.1:1" // 没有服务监听
	_, err := NewManager(cfg, zaptest.NewLogger(t))
	assert.Error(t, err)
}
