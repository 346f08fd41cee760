package timecode

import (
	"math/bits"

	"github.com/edorfaus/dvs-timecode/bits128"
)

// lut is a reverse lookup from LFSR state to its ordinal position in a
// format's sequence. It is a linear-probing open-addressed hash table,
// sized to at least twice the number of entries it will hold, since
// timecode sequences are dense pseudo-random sequences with no natural
// ordering to exploit. Construction (see buildLUT) asserts there are
// no semantic collisions (the same state appearing twice); hash
// collisions within the table are handled by probing as usual.
type lut struct {
	entries []lutEntry
	mask    uint64
}

type lutEntry struct {
	key  bits128.Uint128
	pos  int32
	used bool
}

func newLUT(length int) *lut {
	size := nextPow2(uint64(length) * 2)
	if size < 16 {
		size = 16
	}
	return &lut{
		entries: make([]lutEntry, size),
		mask:    size - 1,
	}
}

func nextPow2(v uint64) uint64 {
	if v <= 1 {
		return 1
	}
	return uint64(1) << bits.Len64(v-1)
}

// hashKey mixes the two halves of a 128-bit key into a single 64-bit
// hash. It has no correctness requirement beyond decent distribution;
// probing handles any collisions.
func hashKey(k bits128.Uint128) uint64 {
	const (
		m1 = 0x9E3779B97F4A7C15
		m2 = 0xC2B2AE3D27D4EB4F
	)
	h := (k.Lo * m1) ^ bits.RotateLeft64(k.Hi, 32)*m2
	h ^= h >> 33
	h *= m1
	h ^= h >> 29
	return h
}

// insert adds key->pos to the table. The caller (buildLUT) is
// responsible for checking there is no existing entry for key first;
// insert itself does not check for duplicate keys, only hash slots.
func (l *lut) insert(key bits128.Uint128, pos int32) {
	idx := hashKey(key) & l.mask
	for l.entries[idx].used {
		idx = (idx + 1) & l.mask
	}
	l.entries[idx] = lutEntry{key: key, pos: pos, used: true}
}

// lookup returns the ordinal position of key, or ok=false if absent.
func (l *lut) lookup(key bits128.Uint128) (pos int32, ok bool) {
	idx := hashKey(key) & l.mask
	for l.entries[idx].used {
		if l.entries[idx].key.Eq(key) {
			return l.entries[idx].pos, true
		}
		idx = (idx + 1) & l.mask
	}
	return 0, false
}
