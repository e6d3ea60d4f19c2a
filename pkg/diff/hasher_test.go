package diff

import (
	"hash"
	"hash/fnv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStableHasher_Deterministic(t *testing.T) {
	h1 := NewStableHasher()
	h2 := StableHasherBuilder()

	_, err := h1.Write([]byte("users"))
	require.NoError(t, err)
	_, err = h2.Write([]byte("users"))
	require.NoError(t, err)

	assert.Equal(t, h1.Sum64(), h2.Sum64())
	assert.Equal(t, h1.Sum64(), h1.Sum64(), "Sum64 must not consume input")
}

func TestStableHasher_Reset(t *testing.T) {
	h := NewStableHasher()
	empty := h.Sum64()

	_, _ = h.WriteString("something")
	assert.NotEqual(t, empty, h.Sum64())

	h.Reset()
	assert.Equal(t, empty, h.Sum64())
}

func TestStableHasher_Sum(t *testing.T) {
	h := NewStableHasher()
	_, _ = h.WriteString("orders")

	sum := h.Sum([]byte{0x01})
	require.Len(t, sum, 1+h.Size())
	assert.Equal(t, byte(0x01), sum[0])
	assert.Equal(t, 8, h.Size())
	assert.Equal(t, 64, h.BlockSize())
}

func TestHashFields_Boundaries(t *testing.T) {
	assert.NotEqual(t, hashFields("ab", "c"), hashFields("a", "bc"))
	assert.NotEqual(t, hashFields("ab"), hashFields("a", "b"))
	assert.Equal(t, hashFields("a", "b"), hashFields("a", "b"))
}

func TestStableHasherBuilder_DrivesKeys(t *testing.T) {
	ent := NewEntity("users", "table", "table")
	stable := ent.IdentityKey()

	orig := StableHasherBuilder
	t.Cleanup(func() { StableHasherBuilder = orig })
	StableHasherBuilder = func() hash.Hash64 { return fnv.New64a() }

	want := fnv.New64a()
	_, _ = want.Write([]byte("users\xfftable\xff"))
	assert.Equal(t, want.Sum64(), NameKey("users", "table"))
	assert.NotEqual(t, stable, ent.IdentityKey())

	StableHasherBuilder = orig
	assert.Equal(t, stable, ent.IdentityKey())
}
