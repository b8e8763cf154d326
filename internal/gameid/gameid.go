// Package gameid generates the identifiers used across the server: game,
// room, move and event IDs. An ID is a UUIDv7 rendered in Crockford base32,
// 26 lowercase characters, time-ordered and free of ambiguous letters.
package gameid

import (
	"crypto/rand"
	"fmt"
	mathrand "math/rand/v2"
	"time"
)

// Crockford's base32 alphabet: no i, l, o, u.
const alphabet = "0123456789abcdefghjkmnpqrstvwxyz"

// Length of every generated ID in characters.
const Length = 26

// RandSource supplies the random tail of an ID. Tests inject one to make
// IDs reproducible.
type RandSource interface {
	Intn(n int) int
}

// FromRand adapts a seeded math/rand/v2 generator to a RandSource, so a
// game's IDs derive from the same seed as its shuffles.
func FromRand(r *mathrand.Rand) RandSource {
	return randAdapter{r}
}

type randAdapter struct {
	r *mathrand.Rand
}

func (a randAdapter) Intn(n int) int {
	return a.r.IntN(n)
}

// Generator produces IDs from a time source and a RandSource.
type Generator struct {
	randSource RandSource
	now        func() time.Time
}

// NewGenerator returns a generator using the given RandSource, or
// crypto/rand when nil.
func NewGenerator(randSource RandSource) *Generator {
	return &Generator{randSource: randSource, now: time.Now}
}

// WithNow overrides the generator's time source and returns the generator.
func (g *Generator) WithNow(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate returns a fresh ID from the default generator.
func Generate() string {
	return NewGenerator(nil).Generate()
}

// GenerateWithRandSource returns a fresh ID with its random tail drawn from
// the provided source.
func GenerateWithRandSource(randSource RandSource) string {
	return NewGenerator(randSource).Generate()
}

// Generate returns a fresh ID.
func (g *Generator) Generate() string {
	return encodeBase32(g.uuidV7())
}

// uuidV7 builds a 128-bit UUIDv7: a 48-bit millisecond timestamp followed
// by random bits, with the version and variant fields forced.
func (g *Generator) uuidV7() [16]byte {
	var uuid [16]byte

	now := g.now().UnixMilli()
	uuid[0] = byte(now >> 40)
	uuid[1] = byte(now >> 32)
	uuid[2] = byte(now >> 24)
	uuid[3] = byte(now >> 16)
	uuid[4] = byte(now >> 8)
	uuid[5] = byte(now)

	if g.randSource != nil {
		for i := 6; i < 16; i++ {
			uuid[i] = byte(g.randSource.Intn(256))
		}
	} else {
		if _, err := rand.Read(uuid[6:]); err != nil {
			panic("gameid: reading random bytes: " + err.Error())
		}
	}

	// Version 7, variant 10.
	uuid[6] = (uuid[6] & 0x0f) | 0x70
	uuid[8] = (uuid[8] & 0x3f) | 0x80

	return uuid
}

// encodeBase32 renders 128 bits as 26 base32 characters, five bits per
// character, most significant first. The final character carries two zero
// padding bits.
func encodeBase32(data [16]byte) string {
	result := make([]byte, Length)

	for i := 0; i < Length; i++ {
		bitOffset := i * 5
		byteIndex := bitOffset / 8
		bitIndex := bitOffset % 8

		var value uint8
		if byteIndex < 16 {
			if bitIndex <= 3 {
				value = (data[byteIndex] >> (3 - bitIndex)) & 0x1f
			} else {
				value = (data[byteIndex] << (bitIndex - 3)) & 0x1f
				if byteIndex+1 < 16 {
					value |= data[byteIndex+1] >> (11 - bitIndex)
				}
			}
		}

		result[i] = alphabet[value]
	}

	return string(result)
}

// Validate checks that an ID is 26 canonical base32 characters. The first
// character is capped at '7' so the value fits 128 bits.
func Validate(id string) error {
	if len(id) != Length {
		return fmt.Errorf("id must be exactly %d characters, got %d", Length, len(id))
	}

	if id[0] > '7' {
		return fmt.Errorf("id first character must be 0-7, got %c", id[0])
	}

	for i, char := range id {
		valid := false
		for _, validChar := range alphabet {
			if char == validChar {
				valid = true
				break
			}
		}
		if !valid {
			return fmt.Errorf("invalid character %c at position %d", char, i)
		}
	}

	return nil
}
