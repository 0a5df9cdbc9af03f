// internal/game/cards.go
package game

import (
	"fmt"
	"math/rand"
	"sort"
)

// Face is one of the four card faces in the deck.
type Face string

// The three target faces plus the wild face. Magic counts as truthful
// against any declared target.
const (
	FaceSun   Face = "sun"
	FaceMoon  Face = "moon"
	FaceStar  Face = "star"
	FaceMagic Face = "magic"
)

// FaceOrder is the canonical face ordering used for composition building
// and remainder tie-breaks.
var FaceOrder = []Face{FaceSun, FaceMoon, FaceStar, FaceMagic}

// TargetFaces are the faces a round's target may be drawn from.
var TargetFaces = []Face{FaceSun, FaceMoon, FaceStar}

// deckWeights is the fixed 3:3:3:1 distribution across the four faces.
var deckWeights = map[Face]int{
	FaceSun:   3,
	FaceMoon:  3,
	FaceStar:  3,
	FaceMagic: 1,
}

// FixedHandSize is the default number of cards dealt to each alive player
// per round.
const FixedHandSize = 5

// Composition is the locked face->count mapping for a match. It is computed
// once at match start and never changes across rounds.
type Composition map[Face]int

// Total returns the number of cards in the composition.
func (c Composition) Total() int {
	total := 0
	for _, n := range c {
		total += n
	}
	return total
}

// LockComposition computes the deck composition for a match starting with
// the given player count. The count is clamped to [3,5] and the total card
// count is players*handSize, split proportionally by the 3:3:3:1 weights.
// Truncation remainders are handed out one card at a time to the faces with
// the largest fractional shortfall; ties keep the canonical face order.
func LockComposition(startPlayerCount, handSize int) Composition {
	players := startPlayerCount
	if players < 3 {
		players = 3
	}
	if players > 5 {
		players = 5
	}
	if handSize <= 0 {
		handSize = FixedHandSize
	}
	total := players * handSize

	weightSum := 0
	for _, w := range deckWeights {
		weightSum += w
	}

	counts := make(Composition, len(FaceOrder))
	frac := make(map[Face]float64, len(FaceOrder))
	assigned := 0
	for _, f := range FaceOrder {
		raw := float64(total) * float64(deckWeights[f]) / float64(weightSum)
		n := int(raw)
		counts[f] = n
		frac[f] = raw - float64(n)
		assigned += n
	}

	order := make([]Face, len(FaceOrder))
	copy(order, FaceOrder)
	sort.SliceStable(order, func(i, j int) bool {
		return frac[order[i]] > frac[order[j]]
	})

	for i := 0; assigned < total; i++ {
		counts[order[i%len(order)]]++
		assigned++
	}
	return counts
}

// ExpandDeck flattens a composition into a card sequence in canonical face
// order. Returns an error if the composition is empty, which callers treat
// as fatal room corruption.
func ExpandDeck(c Composition) ([]Face, error) {
	if c.Total() == 0 {
		return nil, fmt.Errorf("deck composition is empty: %w", ErrDeckExhausted)
	}
	deck := make([]Face, 0, c.Total())
	for _, f := range FaceOrder {
		for i := 0; i < c[f]; i++ {
			deck = append(deck, f)
		}
	}
	return deck, nil
}

// DealRound produces a fresh uniformly shuffled deck from the locked
// composition. Callers slice fixed-size hands off the front.
func DealRound(c Composition, rng *rand.Rand) ([]Face, error) {
	deck, err := ExpandDeck(c)
	if err != nil {
		return nil, err
	}
	rng.Shuffle(len(deck), func(i, j int) {
		deck[i], deck[j] = deck[j], deck[i]
	})
	return deck, nil
}

// Truthful reports whether a card face satisfies the declared target.
// The wild face is always truthful.
func Truthful(card, target Face) bool {
	return card == target || card == FaceMagic
}
