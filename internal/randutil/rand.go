// Package randutil centralises how random number generators are seeded, so
// a single logged seed reproduces a whole run: shuffles, bot delays and
// generated IDs alike.
package randutil

import rand "math/rand/v2"

const goldenRatio64 = 0x9e3779b97f4a7c15

// New returns a *rand.Rand seeded deterministically from one int64.
// rand/v2's PCG takes two 64-bit words; both derive from the seed here so
// every call site seeds the same way.
func New(seed int64) *rand.Rand {
	u := uint64(seed)
	return rand.New(rand.NewPCG(mix(u), mix(u+goldenRatio64)))
}

// Derive draws a child generator from parent. Each game runs on its own
// derived stream, so one game's draws never shift another game's shuffles.
// The caller serialises access to parent.
func Derive(parent *rand.Rand) *rand.Rand {
	return New(int64(parent.Uint64()))
}

// mix is the splitmix64 finaliser; it spreads nearby seeds, which are the
// common case, across the whole state space.
func mix(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}
