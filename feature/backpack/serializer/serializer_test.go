package serializer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backpack-manager/feature/backpack/models"
)

func sampleInventory() models.Inventory {
	return models.Inventory{
		{Item: []byte("iron_sword|dmg:12")},
		{}, // empty slot
		{Item: []byte{0x00, 0xff, 0x10}},
		{},
		{Item: []byte("apple")},
	}
}

func TestSerializeRoundTrip(t *testing.T) {
	s, err := New(0)
	require.NoError(t, err)
	assert.Equal(t, VersionCurrent, s.Used())

	t.Run("Sample Inventory", func(t *testing.T) {
		inv := sampleInventory()
		data := s.Serialize(inv)

		decoded, err := s.Deserialize(data, s.Used())
		require.NoError(t, err)
		assert.True(t, inv.Equal(decoded))
	})

	t.Run("Empty Inventory", func(t *testing.T) {
		data := s.Serialize(models.Inventory{})
		assert.NotEmpty(t, data)

		decoded, err := s.Deserialize(data, s.Used())
		require.NoError(t, err)
		assert.Len(t, decoded, 0)
	})

	t.Run("All Empty Slots", func(t *testing.T) {
		inv := models.Inventory{{}, {}, {}}
		decoded, err := s.Deserialize(s.Serialize(inv), s.Used())
		require.NoError(t, err)
		require.Len(t, decoded, 3)
		for _, slot := range decoded {
			assert.True(t, slot.IsEmpty())
		}
	})
}

func TestLegacyVersionStaysReadable(t *testing.T) {
	legacy, err := New(VersionLegacy)
	require.NoError(t, err)
	current, err := New(0)
	require.NoError(t, err)

	inv := sampleInventory()
	blob := legacy.Serialize(inv)

	// A blob written by an old deployment decodes identically under the
	// newest build.
	decoded, err := current.Deserialize(blob, VersionLegacy)
	require.NoError(t, err)
	assert.True(t, inv.Equal(decoded))

	// Byte-level layout is frozen: count and first slot length are
	// big-endian int32.
	require.True(t, len(blob) >= 8)
	assert.Equal(t, []byte{0, 0, 0, 5}, blob[:4])
}

func TestDeserializeFailures(t *testing.T) {
	s, err := New(0)
	require.NoError(t, err)

	t.Run("Unknown Future Version", func(t *testing.T) {
		data := s.Serialize(sampleInventory())
		_, err := s.Deserialize(data, VersionCurrent+1)
		assert.ErrorIs(t, err, ErrUnsupportedVersion)
	})

	t.Run("Truncated Blob", func(t *testing.T) {
		data := s.Serialize(sampleInventory())
		_, err := s.Deserialize(data[:len(data)-3], VersionCurrent)
		assert.ErrorIs(t, err, ErrCorrupt)
	})

	t.Run("Trailing Garbage", func(t *testing.T) {
		data := append(s.Serialize(sampleInventory()), 0xde, 0xad)
		_, err := s.Deserialize(data, VersionCurrent)
		assert.ErrorIs(t, err, ErrCorrupt)
	})

	t.Run("Empty Blob", func(t *testing.T) {
		_, err := s.Deserialize(nil, VersionCurrent)
		assert.ErrorIs(t, err, ErrCorrupt)
	})

	t.Run("Implausible Count", func(t *testing.T) {
		// uvarint claiming millions of slots with no payload behind it.
		_, err := s.Deserialize([]byte{0xff, 0xff, 0xff, 0x7f}, VersionCurrent)
		assert.ErrorIs(t, err, ErrCorrupt)
	})
}

func TestNeedsRewrite(t *testing.T) {
	s, err := New(0)
	require.NoError(t, err)

	assert.True(t, s.NeedsRewrite(VersionLegacy))
	assert.False(t, s.NeedsRewrite(s.Used()))

	// A deployment pinned to the legacy format considers current-format
	// rows outdated instead.
	pinned, err := New(VersionLegacy)
	require.NoError(t, err)
	assert.True(t, pinned.NeedsRewrite(VersionCurrent))
	assert.False(t, pinned.NeedsRewrite(VersionLegacy))
}

func TestNewRejectsUnknownVersion(t *testing.T) {
	_, err := New(99)
	assert.ErrorIs(t, err, ErrUnsupportedVersion)

	_, err = New(-1)
	assert.Error(t, err)
}

func TestPinnedSerializerWritesLegacy(t *testing.T) {
	pinned, err := New(VersionLegacy)
	require.NoError(t, err)

	inv := sampleInventory()
	blob := pinned.Serialize(inv)

	decoded, err := pinned.Deserialize(blob, VersionLegacy)
	require.NoError(t, err)
	assert.True(t, inv.Equal(decoded))
}
