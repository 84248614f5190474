package bimap

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInsertAndGet(t *testing.T) {
	b := NewBiMap()
	require.Equal(t, 0, b.Size())

	b.Insert("Heat", "heat")
	b.Insert("Fan", "fan_only")
	require.Equal(t, 2, b.Size())

	value, ok := b.Get("Fan")
	require.True(t, ok)
	require.Equal(t, "fan_only", value)

	key, ok := b.GetInverse("fan_only")
	require.True(t, ok)
	require.Equal(t, "Fan", key)

	_, ok = b.Get("fan_only") // values are not keys
	require.False(t, ok)
	_, ok = b.GetInverse("Fan")
	require.False(t, ok)

	require.True(t, b.Exists("Heat"))
	require.False(t, b.Exists("Cool"))
	require.True(t, b.ExistsInverse("heat"))
	require.False(t, b.ExistsInverse("cool"))
}

func TestInsertReplacesBothSides(t *testing.T) {
	b := NewBiMap()
	b.Insert("Fan", "fan")
	b.Insert("Fan", "fan_only")

	require.Equal(t, 1, b.Size())
	require.False(t, b.ExistsInverse("fan"))

	// re-pairing a value drops its old key too
	b.Insert("Blow", "fan_only")
	require.Equal(t, 1, b.Size())
	require.False(t, b.Exists("Fan"))
}

func TestDelete(t *testing.T) {
	b := NewBiMap()
	b.Insert("Heat", "heat")
	b.Insert("Cool", "cool")

	b.Delete("Heat")
	require.Equal(t, 1, b.Size())
	require.False(t, b.ExistsInverse("heat"))
	b.Delete("Heat") // deleting twice is a no-op
	require.Equal(t, 1, b.Size())

	b.DeleteInverse("cool")
	require.Equal(t, 0, b.Size())
	b.DeleteInverse("cool")
	require.Equal(t, 0, b.Size())
}

func TestForwardAndInverseMaps(t *testing.T) {
	b := NewBiMap()
	b.Insert("Med", "medium")

	require.Equal(t, map[interface{}]interface{}{"Med": "medium"}, b.GetForwardMap())
	require.Equal(t, map[interface{}]interface{}{"medium": "Med"}, b.GetInverseMap())
}

func TestMakeImmutable(t *testing.T) {
	b := NewBiMap()
	b.Insert("Heat", "heat")
	b.MakeImmutable()

	require.Panics(t, func() { b.Insert("Cool", "cool") })
	require.Panics(t, func() { b.Delete("Heat") })
	require.Panics(t, func() { b.DeleteInverse("heat") })

	// lookups still work on a frozen map
	value, ok := b.Get("Heat")
	require.True(t, ok)
	require.Equal(t, "heat", value)
	require.Equal(t, 1, b.Size())
}
