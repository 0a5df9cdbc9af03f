// internal/game/room.go
package game

import (
	"math/rand"
	"time"
)

var timeZero time.Time

// Phase describes where a room is in its lifecycle.
type Phase string

const (
	PhaseWaiting         Phase = "waiting"           // Room open, gathering players.
	PhasePlaying         Phase = "playing"           // A round is in progress.
	PhaseAwaitingWireCut Phase = "awaiting_wire_cut" // A punished player must cut a wire.
)

// WireColor identifies one of the three wires every player starts with.
type WireColor string

const (
	WireRed    WireColor = "red"
	WireBlue   WireColor = "blue"
	WireYellow WireColor = "yellow"
)

// AllWires is the full wire set assigned to each player at match start.
var AllWires = []WireColor{WireRed, WireBlue, WireYellow}

// Player is a seat in a room. Hands are reassigned every round; the bomb
// color and wire set reset only at match start.
type Player struct {
	ID        string
	Name      string
	IsAI      bool
	Alive     bool
	Hand      []Face
	BombColor WireColor
	Wires     []WireColor
}

// HasWire reports whether the given color is still uncut.
func (p *Player) HasWire(color WireColor) bool {
	for _, w := range p.Wires {
		if w == color {
			return true
		}
	}
	return false
}

// CountTruthful returns how many cards in hand satisfy the target.
func (p *Player) CountTruthful(target Face) int {
	n := 0
	for _, c := range p.Hand {
		if Truthful(c, target) {
			n++
		}
	}
	return n
}

// Claim is the pending face-down play awaiting either the next play or a
// challenge. Cleared on resolution.
type Claim struct {
	PlayerID string    `json:"player_id"`
	Cards    []Face    `json:"cards"`
	Target   Face      `json:"target"`
	PlayedAt time.Time `json:"played_at"`
}

// Rules holds the per-room configuration fixed at creation time.
type Rules struct {
	HandSize    int
	PlayTimeout time.Duration
	WireTimeout time.Duration
	AIMaxClaim  int
}

// Room is a single game session. All fields are guarded by the session
// lock; the game package itself performs no locking.
type Room struct {
	ID      string
	OwnerID string

	Phase       Phase
	Round       int
	DealerIndex int

	Players map[string]*Player
	Order   []string // Join order; defines turn rotation.

	Target     Face
	TurnHolder string
	LastClaim  *Claim

	WireHolder  string
	WireOptions []WireColor

	InitialPlayerCount int
	Composition        Composition

	PlayDeadline time.Time
	WireDeadline time.Time

	// ActionToken strictly increases on every transition that changes who
	// must act or what deadline applies. Scheduled work captures it and
	// becomes a no-op when it no longer matches.
	ActionToken int64

	Rules     Rules
	CreatedAt time.Time

	rng *rand.Rand
	now func() time.Time
}

// NewRoom creates an empty Waiting room owned by the given player. The
// owner still joins like any other member.
func NewRoom(id, ownerID string, rules Rules, seed int64) *Room {
	if rules.HandSize <= 0 {
		rules.HandSize = FixedHandSize
	}
	return &Room{
		ID:        id,
		OwnerID:   ownerID,
		Phase:     PhaseWaiting,
		Players:   make(map[string]*Player),
		Rules:     rules,
		CreatedAt: time.Now(),
		rng:       rand.New(rand.NewSource(seed)),
		now:       time.Now,
	}
}

// Player returns the seat for id, or nil.
func (r *Room) Player(id string) *Player {
	return r.Players[id]
}

// AliveIDs returns the alive members in turn-rotation order.
func (r *Room) AliveIDs() []string {
	out := make([]string, 0, len(r.Order))
	for _, id := range r.Order {
		if p := r.Players[id]; p != nil && p.Alive {
			out = append(out, id)
		}
	}
	return out
}

// HumanCount returns the number of human seats, alive or not.
func (r *Room) HumanCount() int {
	n := 0
	for _, p := range r.Players {
		if !p.IsAI {
			n++
		}
	}
	return n
}

// NextAlive returns the first alive member strictly after id in rotation
// order, wrapping around. Returns "" if no other alive member exists.
func (r *Room) NextAlive(id string) string {
	alive := r.AliveIDs()
	if len(alive) == 0 {
		return ""
	}
	at := -1
	for i, a := range alive {
		if a == id {
			at = i
			break
		}
	}
	if at == -1 {
		// Actor already eliminated or gone; fall back to the rotation head.
		return alive[0]
	}
	next := alive[(at+1)%len(alive)]
	if next == id {
		return ""
	}
	return next
}

// bumpToken invalidates all scheduled timers and AI tasks captured before
// this transition.
func (r *Room) bumpToken() int64 {
	r.ActionToken++
	return r.ActionToken
}

// SetClock overrides the room's time source. Test hook.
func (r *Room) SetClock(now func() time.Time) {
	r.now = now
}
