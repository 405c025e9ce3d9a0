package engine

import (
	"encoding/hex"
	"fmt"
)

// SeedSize is the length in bytes of a round seed and of its commitment.
const SeedSize = 32

// Seed is the secret drawn once per round. It must never be reused.
type Seed [SeedSize]byte

// Commitment is SHA256(seed), published before wagers are locked.
type Commitment [SeedSize]byte

func (s Seed) String() string { return hex.EncodeToString(s[:]) }

func (c Commitment) String() string { return hex.EncodeToString(c[:]) }

// MarshalText encodes the seed as lowercase hex.
func (s Seed) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a 64-character hex seed.
func (s *Seed) UnmarshalText(text []byte) error {
	parsed, err := ParseSeed(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// MarshalText encodes the commitment as lowercase hex.
func (c Commitment) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText decodes a 64-character hex commitment.
func (c *Commitment) UnmarshalText(text []byte) error {
	parsed, err := ParseCommitment(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// IsZero reports whether the seed is all zero bytes, i.e. never minted.
func (s Seed) IsZero() bool { return s == Seed{} }

// IsZero reports whether the commitment is unset.
func (c Commitment) IsZero() bool { return c == Commitment{} }

// ParseSeed decodes a hex-encoded seed.
func ParseSeed(value string) (Seed, error) {
	var s Seed
	if err := decodeHex32(value, s[:]); err != nil {
		return Seed{}, fmt.Errorf("invalid seed: %w", err)
	}
	return s, nil
}

// ParseCommitment decodes a hex-encoded commitment.
func ParseCommitment(value string) (Commitment, error) {
	var c Commitment
	if err := decodeHex32(value, c[:]); err != nil {
		return Commitment{}, fmt.Errorf("invalid commitment: %w", err)
	}
	return c, nil
}

func decodeHex32(value string, dst []byte) error {
	if len(value) != SeedSize*2 {
		return fmt.Errorf("expected %d hex characters, got %d", SeedSize*2, len(value))
	}
	if _, err := hex.Decode(dst, []byte(value)); err != nil {
		return err
	}
	return nil
}
