package diff

import (
	"encoding/binary"
	"hash"
	"io"

	"github.com/zeebo/xxh3"
)

// StableSeed is the seed for every key derived by this package.
const StableSeed uint64 = 27

// fieldTerminator follows every string field written by writeField.
const fieldTerminator = 0xff

// StableHasher is a hash.Hash64 whose digest depends only on the bytes written
// to it. It is never reseeded, so equal input yields equal output across
// process restarts.
type StableHasher struct {
	buf []byte
}

var _ hash.Hash64 = (*StableHasher)(nil)

// NewStableHasher returns an empty hasher.
func NewStableHasher() *StableHasher {
	return &StableHasher{}
}

// Write appends p to the hashed input. It never fails.
func (h *StableHasher) Write(p []byte) (int, error) {
	h.buf = append(h.buf, p...)
	return len(p), nil
}

// WriteString appends s to the hashed input. It never fails.
func (h *StableHasher) WriteString(s string) (int, error) {
	h.buf = append(h.buf, s...)
	return len(s), nil
}

// Sum64 returns the seeded XXH3 digest of everything written so far.
func (h *StableHasher) Sum64() uint64 {
	return xxh3.HashSeed(h.buf, StableSeed)
}

// Sum appends the big-endian digest to b.
func (h *StableHasher) Sum(b []byte) []byte {
	return binary.BigEndian.AppendUint64(b, h.Sum64())
}

// Reset discards all written input.
func (h *StableHasher) Reset() {
	h.buf = h.buf[:0]
}

// Size returns the digest length in bytes.
func (h *StableHasher) Size() int { return 8 }

// BlockSize returns the XXH3 stripe length.
func (h *StableHasher) BlockSize() int { return 64 }

// HasherBuilder creates fresh 64-bit hashers. Code that needs reproducible
// keys takes a builder instead of reaching for a process-seeded hash.
type HasherBuilder func() hash.Hash64

// StableHasherBuilder builds fixed-seed StableHasher values.
var StableHasherBuilder HasherBuilder = func() hash.Hash64 {
	return NewStableHasher()
}

// fieldHasher writes terminated fields into a hash from StableHasherBuilder.
type fieldHasher struct {
	hash.Hash64
}

func newFieldHasher() fieldHasher {
	return fieldHasher{StableHasherBuilder()}
}

// writeField writes s followed by a terminator byte so that adjacent fields
// never run together ("ab"+"c" and "a"+"bc" hash differently).
func (h fieldHasher) writeField(s string) {
	_, _ = io.WriteString(h, s)
	_, _ = h.Write([]byte{fieldTerminator})
}

// hashFields hashes each field with a terminator after it.
func hashFields(fields ...string) uint64 {
	h := newFieldHasher()
	for _, f := range fields {
		h.writeField(f)
	}
	return h.Sum64()
}
