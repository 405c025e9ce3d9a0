package engine

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// ErrShortRead is returned when the random source cannot supply a full seed.
var ErrShortRead = errors.New("random source returned fewer bytes than requested")

// Commit draws a fresh seed from src and returns it with its commitment.
// A nil src falls back to crypto/rand.
func Commit(src io.Reader) (Seed, Commitment, error) {
	if src == nil {
		src = rand.Reader
	}

	var seed Seed
	n, err := io.ReadFull(src, seed[:])
	if err != nil {
		return Seed{}, Commitment{}, fmt.Errorf("%w: %d of %d: %v", ErrShortRead, n, SeedSize, err)
	}

	return seed, HashSeed(seed), nil
}

// HashSeed returns SHA256(seed).
func HashSeed(seed Seed) Commitment {
	return Commitment(sha256.Sum256(seed[:]))
}

// Verify recomputes the commitment for seed and compares it in constant time.
func Verify(seed Seed, commitment Commitment) bool {
	got := HashSeed(seed)
	return subtle.ConstantTimeCompare(got[:], commitment[:]) == 1
}

// Uint32 reads the first four seed bytes as a big-endian integer.
func (s Seed) Uint32() uint32 {
	return binary.BigEndian.Uint32(s[:4])
}

// SubSeed derives the i-th sub-seed as SHA256(seed || uint32be(i)).
func SubSeed(seed Seed, i uint32) Seed {
	var msg [SeedSize + 4]byte
	copy(msg[:], seed[:])
	binary.BigEndian.PutUint32(msg[SeedSize:], i)
	return Seed(sha256.Sum256(msg[:]))
}

// BitStream yields the seed's bits MSB-first. The first 256 bits are the seed
// itself; each further block of 256 bits is SubSeed(seed, block).
type BitStream struct {
	seed         Seed
	currentBlock uint32
	currentPos   int
	buffer       [SeedSize]byte
}

// NewBitStream returns a stream positioned at bit zero.
func NewBitStream(seed Seed) *BitStream {
	bs := &BitStream{seed: seed}
	bs.buffer = seed
	return bs
}

// Next returns the next bit as 0 or 1.
func (bs *BitStream) Next() uint8 {
	if bs.currentPos >= SeedSize*8 {
		bs.currentBlock++
		bs.currentPos = 0
		bs.buffer = SubSeed(bs.seed, bs.currentBlock)
	}

	b := bs.buffer[bs.currentPos/8]
	bit := (b >> (7 - uint(bs.currentPos%8))) & 1
	bs.currentPos++
	return bit
}

// Bits returns the first n bits of the seed bitstream.
func Bits(seed Seed, n int) []uint8 {
	bs := NewBitStream(seed)
	out := make([]uint8, n)
	for i := range out {
		out[i] = bs.Next()
	}
	return out
}

// DeriveSeed is used by simulations that need many seeds from one base: it is
// SubSeed with a 64-bit counter folded into two words.
func DeriveSeed(base Seed, index uint64) Seed {
	hi := SubSeed(base, uint32(index>>32))
	return SubSeed(hi, uint32(index))
}
