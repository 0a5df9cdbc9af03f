// internal/ai/taunts.go
package ai

import "math/rand"

var taunts = []string{
	"Careful now. I never bluff. Usually.",
	"That twitch in your eye tells me everything.",
	"I'd cut the red one. But what do I know.",
	"Keep doubting me. It worked so well for the last one.",
	"Cards don't lie. People do.",
	"I can hear your heartbeat from here.",
}

// Taunt returns a random flavor line for AI plays.
func Taunt(rng *rand.Rand) string {
	return taunts[rng.Intn(len(taunts))]
}
