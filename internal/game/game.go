// internal/game/game.go
package game

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
)

// MaxSeats is the hard cap on room membership.
const MaxSeats = 5

// MinSeats is the minimum membership required to start a match.
const MinSeats = 3

// Membership errors returned by the join/seat operations.
var (
	ErrRoomFull      = fmt.Errorf("room already has %d members", MaxSeats)
	ErrAlreadyJoined = fmt.Errorf("player already joined this room")
)

// Join adds a human member to a Waiting room.
func (r *Room) Join(id, name string) (TransitionResult, error) {
	var res TransitionResult
	if r.Phase != PhaseWaiting {
		return res, ErrWrongPhase
	}
	if len(r.Order) >= MaxSeats {
		return res, ErrRoomFull
	}
	if _, ok := r.Players[id]; ok {
		return res, ErrAlreadyJoined
	}
	r.Players[id] = &Player{ID: id, Name: name}
	r.Order = append(r.Order, id)
	res.Broadcast(r.ID, fmt.Sprintf("%s joined the table (%d/%d seats).", name, len(r.Order), MaxSeats))
	return res, nil
}

// AddAISeats appends computer-controlled seats to a Waiting room. The seat
// function supplies an id and display name per seat. Returns how many were
// actually added, capped by the seat limit.
func (r *Room) AddAISeats(count int, seat func(n int) (id, name string)) (TransitionResult, int, error) {
	var res TransitionResult
	if r.Phase != PhaseWaiting {
		return res, 0, ErrWrongPhase
	}
	added := 0
	for added < count && len(r.Order) < MaxSeats {
		id, name := seat(added)
		if _, ok := r.Players[id]; ok {
			continue
		}
		r.Players[id] = &Player{ID: id, Name: name, IsAI: true}
		r.Order = append(r.Order, id)
		added++
	}
	if added > 0 {
		res.Broadcast(r.ID, fmt.Sprintf("%d bartender bot(s) sat down (%d/%d seats).", added, len(r.Order), MaxSeats))
	}
	return res, added, nil
}

// RemoveAISeats removes up to count AI seats, most recently added first.
// Returns the removed seat ids so the registry can drop its index entries.
func (r *Room) RemoveAISeats(count int) (TransitionResult, []string, error) {
	var res TransitionResult
	if r.Phase != PhaseWaiting {
		return res, nil, ErrWrongPhase
	}
	removed := make([]string, 0, count)
	for i := len(r.Order) - 1; i >= 0 && len(removed) < count; i-- {
		id := r.Order[i]
		p := r.Players[id]
		if p == nil || !p.IsAI {
			continue
		}
		r.Order = append(r.Order[:i], r.Order[i+1:]...)
		delete(r.Players, id)
		removed = append(removed, id)
	}
	if len(removed) > 0 {
		res.Broadcast(r.ID, fmt.Sprintf("%d bot seat(s) cleared (%d/%d seats).", len(removed), len(r.Order), MaxSeats))
	}
	return res, removed, nil
}

// StartMatch locks the deck composition, resets every seat, and deals the
// first round. Requires a Waiting room with 3-5 members including at least
// minHumans humans.
func (r *Room) StartMatch(minHumans int) (TransitionResult, error) {
	var res TransitionResult
	if r.Phase != PhaseWaiting {
		return res, ErrMatchRunning
	}
	n := len(r.Order)
	if n < MinSeats || n > MaxSeats {
		return res, ErrNotEnoughSeats
	}
	if r.HumanCount() < minHumans {
		return res, ErrNeedHuman
	}

	r.InitialPlayerCount = n
	r.Composition = LockComposition(n, r.Rules.HandSize)
	for _, p := range r.Players {
		p.Alive = true
		p.Hand = nil
		p.BombColor = AllWires[r.rng.Intn(len(AllWires))]
		p.Wires = append([]WireColor(nil), AllWires...)
	}
	r.DealerIndex = r.rng.Intn(n)
	r.Round = 0

	res.Broadcast(r.ID, fmt.Sprintf(
		"Match on. Deck locked at %d cards (sun x%d, moon x%d, star x%d, magic x%d).",
		r.Composition.Total(), r.Composition[FaceSun], r.Composition[FaceMoon],
		r.Composition[FaceStar], r.Composition[FaceMagic]))
	res.Merge(r.StartRound("match start"))
	return res, nil
}

// StartRound deals the next round, or finalizes the match when at most one
// player remains alive. Also used as the corruption-recovery entry point.
func (r *Room) StartRound(reason string) TransitionResult {
	var res TransitionResult
	alive := r.AliveIDs()
	if len(alive) <= 1 {
		r.finalize(&res, reason)
		return res
	}

	r.Round++
	for _, p := range r.Players {
		p.Hand = nil
	}

	deck, err := DealRound(r.Composition, r.rng)
	need := len(alive) * r.Rules.HandSize
	if err != nil || len(deck) < need {
		logrus.WithFields(logrus.Fields{
			"room": r.ID, "round": r.Round, "need": need, "have": len(deck),
		}).Error("locked deck cannot cover the round; aborting match")
		res.Broadcast(r.ID, "The deck is corrupted; the match has been aborted.")
		res.Closed = true
		r.bumpToken()
		return res
	}
	for i, id := range alive {
		hand := make([]Face, r.Rules.HandSize)
		copy(hand, deck[i*r.Rules.HandSize:(i+1)*r.Rules.HandSize])
		r.Players[id].Hand = hand
	}

	r.Target = TargetFaces[r.rng.Intn(len(TargetFaces))]
	starter := alive[r.DealerIndex%len(alive)]
	r.DealerIndex++

	r.LastClaim = nil
	r.WireHolder = ""
	r.WireOptions = nil
	r.WireDeadline = timeZero
	r.Phase = PhasePlaying
	r.TurnHolder = starter
	r.PlayDeadline = r.now().Add(r.Rules.PlayTimeout)
	r.bumpToken()

	res.Broadcast(r.ID, fmt.Sprintf(
		"Round %d (%s). Table card: %s. %s opens within %s.",
		r.Round, reason, r.Target, r.Players[starter].Name, r.Rules.PlayTimeout))
	for _, id := range alive {
		if !r.Players[id].IsAI {
			res.whisper(r.ID, id, "Your hand: "+joinFaces(r.Players[id].Hand))
			res.refresh(id)
		}
	}
	return res
}

// Play removes the selected cards from the actor's hand and records them as
// the pending claim against the current table card. Indices are zero-based
// hand positions; they must be unique and in bounds. AI actors are capped
// at the configured maximum claim size. An actor emptying their hand forces
// an immediate showdown by the next player.
func (r *Room) Play(actorID string, indices []int) (TransitionResult, error) {
	var res TransitionResult
	if r.Phase != PhasePlaying {
		return res, ErrWrongPhase
	}
	p := r.Players[actorID]
	if p == nil || !p.Alive {
		return res, ErrNotInRoom
	}
	if actorID != r.TurnHolder {
		return res, ErrNotYourTurn
	}
	if len(indices) == 0 {
		return res, ErrBadIndices
	}
	if p.IsAI && len(indices) > r.Rules.AIMaxClaim {
		return res, ErrBadIndices
	}
	seen := make(map[int]bool, len(indices))
	for _, idx := range indices {
		if idx < 0 || idx >= len(p.Hand) || seen[idx] {
			return res, ErrBadIndices
		}
		seen[idx] = true
	}

	cards := make([]Face, 0, len(indices))
	for _, idx := range indices {
		cards = append(cards, p.Hand[idx])
	}
	// Remove from the highest index down so earlier positions stay valid.
	drop := append([]int(nil), indices...)
	sort.Sort(sort.Reverse(sort.IntSlice(drop)))
	for _, idx := range drop {
		p.Hand = append(p.Hand[:idx], p.Hand[idx+1:]...)
	}

	r.LastClaim = &Claim{
		PlayerID: actorID,
		Cards:    cards,
		Target:   r.Target,
		PlayedAt: r.now(),
	}
	next := r.NextAlive(actorID)
	r.TurnHolder = next
	r.PlayDeadline = r.now().Add(r.Rules.PlayTimeout)
	r.bumpToken()

	nextName := next
	if np := r.Players[next]; np != nil {
		nextName = np.Name
	}
	res.Broadcast(r.ID, fmt.Sprintf(
		"%s plays %d card(s) face down, claiming %s. %s is next (%d left in hand).",
		p.Name, len(cards), r.Target, nextName, len(p.Hand)))
	if !p.IsAI {
		res.refresh(actorID)
	}

	if len(p.Hand) == 0 && next != "" {
		// Empty hand forces the showdown instead of waiting on a decision.
		res.Broadcast(r.ID, fmt.Sprintf("%s is out of cards; %s must call the bluff.",
			p.Name, r.Players[next].Name))
		forced, err := r.Challenge(next, true)
		if err != nil {
			logrus.WithFields(logrus.Fields{"room": r.ID, "player": next}).
				WithError(err).Warn("forced showdown failed; repairing with a fresh round")
			res.Merge(r.StartRound("state repaired"))
			return res, nil
		}
		res.Merge(forced)
	}
	return res, nil
}

// Challenge reveals the pending claim and punishes the liar or the doubter.
// A claim is a lie if any revealed card is neither the declared target nor
// the wild face. Only the current turn holder may challenge, except for the
// forced empty-hand showdown.
func (r *Room) Challenge(challengerID string, auto bool) (TransitionResult, error) {
	var res TransitionResult
	if r.Phase != PhasePlaying {
		return res, ErrWrongPhase
	}
	if r.LastClaim == nil {
		return res, ErrNoClaim
	}
	ch := r.Players[challengerID]
	if ch == nil || !ch.Alive {
		return res, ErrNotInRoom
	}
	if !auto && challengerID != r.TurnHolder {
		return res, ErrNotYourTurn
	}

	claim := r.LastClaim
	r.LastClaim = nil
	lie := false
	for _, c := range claim.Cards {
		if !Truthful(c, claim.Target) {
			lie = true
			break
		}
	}

	punishedID := challengerID
	if lie {
		punishedID = claim.PlayerID
	}
	claimantName := punishedID
	if cp := r.Players[claim.PlayerID]; cp != nil {
		claimantName = cp.Name
	}
	verdict := "the claim was honest"
	if lie {
		verdict = "a bluff"
	}
	res.Broadcast(r.ID, fmt.Sprintf("%s calls the bluff on %s: cards were [%s] against %s, %s.",
		ch.Name, claimantName, joinFaces(claim.Cards), claim.Target, verdict))

	punished := r.Players[punishedID]
	if punished == nil || !punished.Alive {
		logrus.WithFields(logrus.Fields{"room": r.ID, "player": punishedID}).
			Warn("punished player missing or already out; repairing with a fresh round")
		res.Broadcast(r.ID, "Table state repaired, continuing.")
		res.Merge(r.StartRound("state repaired"))
		return res, nil
	}

	options := append([]WireColor(nil), punished.Wires...)
	if len(options) == 0 {
		// No wires left to offer; the bomb goes off on its own.
		res.Merge(r.eliminate(punished, "had no wires left to cut"))
		return res, nil
	}

	r.Phase = PhaseAwaitingWireCut
	r.WireHolder = punishedID
	r.WireOptions = options
	r.TurnHolder = ""
	r.PlayDeadline = timeZero
	r.WireDeadline = r.now().Add(r.Rules.WireTimeout)
	r.bumpToken()

	res.Broadcast(r.ID, fmt.Sprintf("%s must cut a wire within %s. Options: %s.",
		punished.Name, r.Rules.WireTimeout, joinWires(options)))
	return res, nil
}

// CutWire applies the punished player's wire choice. The actor explodes if
// the chosen color matches their secret bomb color, or if only one option
// was offered. Either way the round ends and the next one begins.
func (r *Room) CutWire(actorID string, color WireColor, byTimeout bool) (TransitionResult, error) {
	var res TransitionResult
	if r.Phase != PhaseAwaitingWireCut {
		return res, ErrWrongPhase
	}
	if actorID != r.WireHolder {
		return res, ErrNotWireHolder
	}
	offered := false
	for _, w := range r.WireOptions {
		if w == color {
			offered = true
			break
		}
	}
	if !offered {
		return res, ErrBadWire
	}
	p := r.Players[actorID]
	if p == nil {
		logrus.WithFields(logrus.Fields{"room": r.ID, "player": actorID}).
			Warn("wire holder vanished; repairing with a fresh round")
		r.clearWirePhase()
		res.Broadcast(r.ID, "Table state repaired, continuing.")
		res.Merge(r.StartRound("state repaired"))
		return res, nil
	}

	lastWire := len(r.WireOptions) == 1
	exploded := color == p.BombColor || lastWire
	for i, w := range p.Wires {
		if w == color {
			p.Wires = append(p.Wires[:i], p.Wires[i+1:]...)
			break
		}
	}
	r.clearWirePhase()

	how := ""
	if byTimeout {
		how = " (picked by the clock)"
	}
	if exploded {
		res.Broadcast(r.ID, fmt.Sprintf("%s cuts the %s wire%s... BOOM. %s is out.",
			p.Name, color, how, p.Name))
		p.Hand = nil
		p.Alive = false
	} else {
		res.Broadcast(r.ID, fmt.Sprintf("%s cuts the %s wire%s... silence. Still in the game.",
			p.Name, color, how))
	}

	res.Merge(r.StartRound("next round"))
	return res, nil
}

// EliminateForTimeout removes a player who let their play window lapse.
// A missed play deadline is an outright loss, not a wire cut.
func (r *Room) EliminateForTimeout(playerID string) (TransitionResult, error) {
	var res TransitionResult
	if r.Phase != PhasePlaying || r.TurnHolder != playerID {
		return res, ErrWrongPhase
	}
	p := r.Players[playerID]
	if p == nil || !p.Alive {
		logrus.WithFields(logrus.Fields{"room": r.ID, "player": playerID}).
			Warn("timed-out player missing; repairing with a fresh round")
		res.Broadcast(r.ID, "Table state repaired, continuing.")
		res.Merge(r.StartRound("state repaired"))
		return res, nil
	}
	r.LastClaim = nil
	r.TurnHolder = ""
	r.PlayDeadline = timeZero
	res.Merge(r.eliminate(p, "sat silent past the deadline"))
	return res, nil
}

// eliminate flips a player dead, then finalizes or deals the next round.
func (r *Room) eliminate(p *Player, why string) TransitionResult {
	var res TransitionResult
	p.Hand = nil
	p.Alive = false
	res.Broadcast(r.ID, fmt.Sprintf("%s %s and is out of the game.", p.Name, why))
	res.Merge(r.StartRound("next round"))
	return res
}

// finalize announces the survivor (or no-survivor) outcome and flags the
// room for removal.
func (r *Room) finalize(res *TransitionResult, reason string) {
	alive := r.AliveIDs()
	switch len(alive) {
	case 1:
		res.Broadcast(r.ID, fmt.Sprintf("%s walks out of the bar alive. Match over (%s).",
			r.Players[alive[0]].Name, reason))
	default:
		res.Broadcast(r.ID, fmt.Sprintf("Nobody walks out. Match over (%s).", reason))
	}
	r.TurnHolder = ""
	r.WireHolder = ""
	r.WireOptions = nil
	r.LastClaim = nil
	r.PlayDeadline = timeZero
	r.WireDeadline = timeZero
	r.bumpToken()
	res.Closed = true
}

func (r *Room) clearWirePhase() {
	r.WireHolder = ""
	r.WireOptions = nil
	r.WireDeadline = timeZero
}

func joinFaces(cards []Face) string {
	parts := make([]string, len(cards))
	for i, c := range cards {
		parts[i] = string(c)
	}
	return strings.Join(parts, ", ")
}

func joinWires(wires []WireColor) string {
	parts := make([]string, len(wires))
	for i, w := range wires {
		parts[i] = string(w)
	}
	return strings.Join(parts, ", ")
}
