// Package bloomfilter implements a standalone Bloom filter: a probabilistic
// set-membership index. Per spec.md §1 it is explicitly out of scope for
// the engine — no read or write path consults it — and is kept here only
// as an independently testable collaborator, adapted from
// mrsladoje-HundDB's structures/bloom_filter/bloom_filter.go (m/k bit-array
// layout, per-hash seeded MD5, little-endian Serialize/Deserialize).
//
// The teacher's CalculateM/CalculateK sizing helpers were referenced by
// its own bloom_filter.go but their definitions were not present anywhere
// in the retrieved pack; this package supplies the standard closed-form
// sizing (m = -n·ln(p)/ln(2)², k = (m/n)·ln(2)) in their place — see
// DESIGN.md.
package bloomfilter

import (
	"crypto/md5"
	"encoding/binary"
	"errors"
	"math"
)

// ErrInvalidSize is returned by Deserialize when the encoded bit-array
// length does not match the encoded m, per spec.md §7's InvalidSize.
var ErrInvalidSize = errors.New("bloomfilter: invalid size")

// seededHash is one of the k independent hash functions, each an MD5
// digest of (item ‖ seed) folded to 64 bits.
type seededHash struct {
	seed []byte
}

func (h seededHash) hash(item []byte) uint64 {
	sum := md5.Sum(append(append([]byte(nil), item...), h.seed...))
	return binary.BigEndian.Uint64(sum[:8])
}

func createHashFunctions(k uint32, seed uint64) []seededHash {
	h := make([]seededHash, k)
	for i := uint32(0); i < k; i++ {
		buf := make([]byte, 8)
		binary.BigEndian.PutUint64(buf, seed+uint64(i))
		h[i] = seededHash{seed: buf}
	}
	return h
}

// CalculateM returns the bit-array size for expectedElements items at the
// given falsePositiveRate, via the standard optimal-size formula.
func CalculateM(expectedElements int, falsePositiveRate float64) uint32 {
	n := float64(expectedElements)
	m := math.Ceil(-n * math.Log(falsePositiveRate) / (math.Ln2 * math.Ln2))
	if m < 1 {
		m = 1
	}
	return uint32(m)
}

// CalculateK returns the optimal number of hash functions for m bits and
// expectedElements items.
func CalculateK(expectedElements int, m uint32) uint32 {
	n := float64(expectedElements)
	if n <= 0 {
		return 1
	}
	k := math.Round(float64(m) / n * math.Ln2)
	if k < 1 {
		k = 1
	}
	return uint32(k)
}

// Filter is a fixed-size Bloom filter over byte-string items.
type Filter struct {
	m uint32
	k uint32
	h []seededHash
	b []byte
}

// New builds a Filter sized for expectedElements items at falsePositiveRate,
// with its hash-function seeds derived from seed (inject a fixed value for
// reproducible tests; spec.md §9 generalizes the teacher's wall-clock seed
// the same way the SkipList's randomLevel seed is generalized).
func New(expectedElements int, falsePositiveRate float64, seed uint64) *Filter {
	m := CalculateM(expectedElements, falsePositiveRate)
	k := CalculateK(expectedElements, m)
	return &Filter{
		m: m,
		k: k,
		h: createHashFunctions(k, seed),
		b: make([]byte, int(math.Ceil(float64(m)/8))),
	}
}

// Add inserts item into the filter.
func (f *Filter) Add(item []byte) {
	for i := uint32(0); i < f.k; i++ {
		bit := f.h[i].hash(item) % uint64(f.m)
		f.b[bit/8] |= 1 << (bit % 8)
	}
}

// Contains reports whether item may be in the set. False positives are
// possible; false negatives are not.
func (f *Filter) Contains(item []byte) bool {
	for i := uint32(0); i < f.k; i++ {
		bit := f.h[i].hash(item) % uint64(f.m)
		if f.b[bit/8]&(1<<(bit%8)) == 0 {
			return false
		}
	}
	return true
}

// Serialize encodes the filter as: u32 m ‖ u32 k ‖ k × (u32 seed_len ‖ seed)
// ‖ bit array, little-endian — matching the teacher's wire layout exactly.
func (f *Filter) Serialize() []byte {
	total := 8 + len(f.b)
	for _, h := range f.h {
		total += 4 + len(h.seed)
	}

	buf := make([]byte, total)
	off := 0
	binary.LittleEndian.PutUint32(buf[off:], f.m)
	off += 4
	binary.LittleEndian.PutUint32(buf[off:], f.k)
	off += 4
	for _, h := range f.h {
		binary.LittleEndian.PutUint32(buf[off:], uint32(len(h.seed)))
		off += 4
		copy(buf[off:], h.seed)
		off += len(h.seed)
	}
	copy(buf[off:], f.b)
	return buf
}

// Deserialize decodes a Filter previously produced by Serialize.
func Deserialize(data []byte) (*Filter, error) {
	if len(data) < 8 {
		return nil, ErrInvalidSize
	}
	off := 0
	m := binary.LittleEndian.Uint32(data[off:])
	off += 4
	k := binary.LittleEndian.Uint32(data[off:])
	off += 4

	h := make([]seededHash, k)
	for i := uint32(0); i < k; i++ {
		if off+4 > len(data) {
			return nil, ErrInvalidSize
		}
		seedLen := binary.LittleEndian.Uint32(data[off:])
		off += 4
		if off+int(seedLen) > len(data) {
			return nil, ErrInvalidSize
		}
		seed := append([]byte(nil), data[off:off+int(seedLen)]...)
		off += int(seedLen)
		h[i] = seededHash{seed: seed}
	}
	if off > len(data) {
		return nil, ErrInvalidSize
	}
	b := append([]byte(nil), data[off:]...)
	wantBytes := int(math.Ceil(float64(m) / 8))
	if len(b) != wantBytes {
		return nil, ErrInvalidSize
	}

	return &Filter{m: m, k: k, h: h, b: b}, nil
}
