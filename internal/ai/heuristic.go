// internal/ai/heuristic.go
package ai

import (
	"math/rand"
	"sync"

	"github.com/tavernlabs/liarsbar/internal/game"
)

// Heuristic is the deterministic fallback decision maker. It never fails
// and never consults anything outside the supplied view. Decisions for
// different rooms run concurrently, so the shared rng is guarded.
type Heuristic struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewHeuristic builds a heuristic around the given randomness source.
func NewHeuristic(rng *rand.Rand) *Heuristic {
	return &Heuristic{rng: rng}
}

// DecideWire picks uniformly among the offered wire colors.
func (h *Heuristic) DecideWire(v View) Decision {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(v.WireOptions) == 0 {
		return Decision{Kind: KindCutWire}
	}
	return Decision{
		Kind: KindCutWire,
		Wire: v.WireOptions[h.rng.Intn(len(v.WireOptions))],
	}
}

// DecideTurn decides between challenging and playing. The first mover of a
// round always plays.
func (h *Heuristic) DecideTurn(v View) Decision {
	h.mu.Lock()
	defer h.mu.Unlock()
	if v.ClaimPending && h.rng.Float64() < h.challengeProbability(v) {
		return Decision{Kind: KindChallenge}
	}
	return h.playDecision(v)
}

// challengeProbability grows with the size of the pending claim, grows
// further when the hand holds nothing truthful, and grows as the table
// thins out.
func (h *Heuristic) challengeProbability(v View) float64 {
	p := 0.10 + 0.15*float64(v.ClaimSize)
	if countTruthful(v.Hand, v.Target) == 0 {
		p += 0.25
	}
	if v.AliveCount < 5 {
		p += 0.05 * float64(5-v.AliveCount)
	}
	if p < 0.05 {
		p = 0.05
	}
	if p > 0.90 {
		p = 0.90
	}
	return p
}

// playDecision assembles a claim: size uniform in [1, maxClaim] bounded by
// hand size, filled with truthful cards first and padded with others only
// as needed.
func (h *Heuristic) playDecision(v View) Decision {
	if len(v.Hand) == 0 {
		// Nothing to play; the caller treats this as a forced challenge.
		if v.ClaimPending {
			return Decision{Kind: KindChallenge}
		}
		return Decision{Kind: KindPlay}
	}
	max := v.MaxClaim
	if max < 1 {
		max = 1
	}
	if max > len(v.Hand) {
		max = len(v.Hand)
	}
	size := 1 + h.rng.Intn(max)

	var truthful, rest []int
	for i, c := range v.Hand {
		if game.Truthful(c, v.Target) {
			truthful = append(truthful, i)
		} else {
			rest = append(rest, i)
		}
	}
	h.rng.Shuffle(len(truthful), func(i, j int) { truthful[i], truthful[j] = truthful[j], truthful[i] })
	h.rng.Shuffle(len(rest), func(i, j int) { rest[i], rest[j] = rest[j], rest[i] })

	indices := make([]int, 0, size)
	for _, i := range truthful {
		if len(indices) == size {
			break
		}
		indices = append(indices, i)
	}
	for _, i := range rest {
		if len(indices) == size {
			break
		}
		indices = append(indices, i)
	}
	return Decision{Kind: KindPlay, Indices: indices}
}

func countTruthful(hand []game.Face, target game.Face) int {
	n := 0
	for _, c := range hand {
		if game.Truthful(c, target) {
			n++
		}
	}
	return n
}
