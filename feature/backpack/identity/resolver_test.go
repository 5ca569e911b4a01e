package identity

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backpack-manager/feature/backpack/models"
)

func TestLookupKey(t *testing.T) {
	id := uuid.MustParse("a1b2c3d4-a1b2-c3d4-a1b2-c3d4a1b2c3d4")
	player := models.Player{Name: "Steve", UUID: id}

	t.Run("UUID Mode Hyphenated", func(t *testing.T) {
		r := NewResolver(ModeUUID, true, 0, time.Minute)
		assert.Equal(t, "a1b2c3d4-a1b2-c3d4-a1b2-c3d4a1b2c3d4", r.LookupKey(player))
	})

	t.Run("UUID Mode Compact", func(t *testing.T) {
		r := NewResolver(ModeUUID, false, 0, time.Minute)
		assert.Equal(t, "a1b2c3d4a1b2c3d4a1b2c3d4a1b2c3d4", r.LookupKey(player))
	})

	t.Run("Name Mode", func(t *testing.T) {
		r := NewResolver(ModeName, true, 0, time.Minute)
		assert.Equal(t, "Steve", r.LookupKey(player))
	})
}

func TestNormalize(t *testing.T) {
	t.Run("Compact To Hyphenated", func(t *testing.T) {
		r := NewResolver(ModeUUID, true, 0, time.Minute)
		normalized, ok := r.Normalize("a1b2c3d4a1b2c3d4a1b2c3d4a1b2c3d4")
		require.True(t, ok)
		assert.Equal(t, "a1b2c3d4-a1b2-c3d4-a1b2-c3d4a1b2c3d4", normalized)
	})

	t.Run("Hyphenated To Compact", func(t *testing.T) {
		r := NewResolver(ModeUUID, false, 0, time.Minute)
		normalized, ok := r.Normalize("a1b2c3d4-a1b2-c3d4-a1b2-c3d4a1b2c3d4")
		require.True(t, ok)
		assert.Equal(t, "a1b2c3d4a1b2c3d4a1b2c3d4a1b2c3d4", normalized)
	})

	t.Run("Already Canonical", func(t *testing.T) {
		r := NewResolver(ModeUUID, true, 0, time.Minute)
		normalized, ok := r.Normalize("a1b2c3d4-a1b2-c3d4-a1b2-c3d4a1b2c3d4")
		require.True(t, ok)
		assert.Equal(t, "a1b2c3d4-a1b2-c3d4-a1b2-c3d4a1b2c3d4", normalized)
	})

	t.Run("Garbage", func(t *testing.T) {
		r := NewResolver(ModeUUID, true, 0, time.Minute)
		_, ok := r.Normalize("not-a-unique-id")
		assert.False(t, ok)
	})
}

func TestIDCache(t *testing.T) {
	r := NewResolver(ModeUUID, true, 8, time.Minute)

	_, ok := r.CachedID("key")
	assert.False(t, ok)

	r.StoreID("key", 42)
	id, ok := r.CachedID("key")
	require.True(t, ok)
	assert.Equal(t, int64(42), id)

	// Unassigned ids are never cached.
	r.StoreID("other", -1)
	_, ok = r.CachedID("other")
	assert.False(t, ok)

	r.Invalidate("key")
	_, ok = r.CachedID("key")
	assert.False(t, ok)
}
