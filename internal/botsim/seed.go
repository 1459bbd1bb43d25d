// Package botsim is the deterministic viewer-side simulation: every client
// watching the same game derives the same synthetic clicks from (game id,
// coarse time bucket) without any server coordination.
package botsim

import "fmt"

// HashSeed is the contract hash shared by every viewer: character codes
// combined by shift-and-subtract, folded into a 32-bit signed integer,
// absolute value. Changing it would desynchronize clients, so it stays
// hand-rolled rather than delegating to a platform hash.
func HashSeed(s string) int64 {
	var h int32
	for _, r := range s {
		h = (h << 5) - h + int32(r)
	}
	v := int64(h)
	if v < 0 {
		v = -v
	}
	return v
}

// SeedAt buckets a millisecond timestamp and hashes it together with a name,
// so decisions agree across viewers within the same bucket.
func SeedAt(name string, timeMS, bucketMS int64) int64 {
	return HashSeed(fmt.Sprintf("%s-%d", name, timeMS/bucketMS))
}

// Personality biases how aggressively one game's bots behave, in [0.7, 1.3).
// Derived once per game so different games feel different without per-game
// configuration.
func Personality(gameID string) float64 {
	return 0.7 + float64(HashSeed(gameID+"-0")%60)/100
}

// Rand is the seeded linear congruential generator of the contract; two
// instances with the same seed produce identical streams.
type Rand struct {
	state int64
}

func NewRand(seed int64) *Rand {
	return &Rand{state: seed}
}

// Float64 draws the next value in [0, 1).
func (r *Rand) Float64() float64 {
	r.state = (r.state*1103515245 + 12345) & 0x7fffffff
	return float64(r.state) / float64(0x7fffffff)
}
