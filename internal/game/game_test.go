package game

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func testRules() Rules {
	return Rules{
		HandSize:    FixedHandSize,
		PlayTimeout: 2 * time.Minute,
		WireTimeout: 2 * time.Minute,
		AIMaxClaim:  3,
	}
}

// newStartedRoom builds a room with n human members and a started match.
func newStartedRoom(t *testing.T, n int, seed int64) *Room {
	t.Helper()
	r := NewRoom("bar-1", "p0", testRules(), seed)
	names := []string{"p0", "p1", "p2", "p3", "p4"}
	for i := 0; i < n; i++ {
		if _, err := r.Join(names[i], names[i]); err != nil {
			t.Fatalf("Join %s: %v", names[i], err)
		}
	}
	if _, err := r.StartMatch(1); err != nil {
		t.Fatalf("StartMatch: %v", err)
	}
	return r
}

// TestStartMatchSetsUpRound verifies composition lock, dealing, wires and
// the opening turn state.
func TestStartMatchSetsUpRound(t *testing.T) {
	r := newStartedRoom(t, 3, 42)

	if r.Phase != PhasePlaying {
		t.Fatalf("phase = %s, want playing", r.Phase)
	}
	if got := r.Composition.Total(); got != 15 {
		t.Fatalf("composition total = %d, want 15", got)
	}
	for _, id := range r.Order {
		p := r.Players[id]
		if !p.Alive {
			t.Errorf("player %s not alive after match start", id)
		}
		if len(p.Hand) != FixedHandSize {
			t.Errorf("player %s hand = %d cards, want %d", id, len(p.Hand), FixedHandSize)
		}
		if len(p.Wires) != len(AllWires) {
			t.Errorf("player %s wires = %d, want %d", id, len(p.Wires), len(AllWires))
		}
		if p.BombColor == "" {
			t.Errorf("player %s has no bomb color", id)
		}
	}
	found := false
	for _, f := range TargetFaces {
		if r.Target == f {
			found = true
		}
	}
	if !found {
		t.Errorf("target %s is not one of the non-wild faces", r.Target)
	}
	if r.TurnHolder == "" {
		t.Error("no turn holder after match start")
	}
	if r.ActionToken == 0 {
		t.Error("action token not bumped by match start")
	}
	if r.PlayDeadline.IsZero() {
		t.Error("play deadline not armed")
	}
}

// TestRoundStartAnnouncesStarterOnce: the round broadcast names the opening
// player exactly once.
func TestRoundStartAnnouncesStarterOnce(t *testing.T) {
	r := NewRoom("bar-5", "p0", testRules(), 7)
	for _, id := range []string{"p0", "p1", "p2"} {
		if _, err := r.Join(id, id); err != nil {
			t.Fatalf("Join %s: %v", id, err)
		}
	}
	res, err := r.StartMatch(1)
	if err != nil {
		t.Fatalf("StartMatch: %v", err)
	}
	starter := r.Players[r.TurnHolder].Name
	found := false
	for _, m := range res.Outbox {
		if !strings.Contains(m.Text, "Round 1") {
			continue
		}
		found = true
		if got := strings.Count(m.Text, starter); got != 1 {
			t.Errorf("round message names %s %d times, want 1: %q", starter, got, m.Text)
		}
	}
	if !found {
		t.Fatal("no round announcement in outbox")
	}
}

// TestDealtHandsMatchComposition verifies a full deal is drawn without
// replacement from the locked composition.
func TestDealtHandsMatchComposition(t *testing.T) {
	r := newStartedRoom(t, 3, 9)
	counts := make(map[Face]int)
	for _, p := range r.Players {
		for _, c := range p.Hand {
			counts[c]++
		}
	}
	for _, f := range FaceOrder {
		if counts[f] != r.Composition[f] {
			t.Errorf("face %s: dealt %d, composition has %d", f, counts[f], r.Composition[f])
		}
	}
}

// TestPlayRecordsClaimAndAdvancesTurn covers the main play path.
func TestPlayRecordsClaimAndAdvancesTurn(t *testing.T) {
	r := newStartedRoom(t, 3, 42)
	actor := r.TurnHolder
	wantNext := r.NextAlive(actor)
	tokenBefore := r.ActionToken

	res, err := r.Play(actor, []int{0, 2})
	if err != nil {
		t.Fatalf("Play: %v", err)
	}
	if len(r.Players[actor].Hand) != FixedHandSize-2 {
		t.Errorf("hand = %d cards, want %d", len(r.Players[actor].Hand), FixedHandSize-2)
	}
	if r.LastClaim == nil || len(r.LastClaim.Cards) != 2 || r.LastClaim.PlayerID != actor {
		t.Fatalf("claim not recorded: %+v", r.LastClaim)
	}
	if r.TurnHolder != wantNext {
		t.Errorf("turn holder = %s, want %s", r.TurnHolder, wantNext)
	}
	if r.ActionToken <= tokenBefore {
		t.Error("action token did not increase on play")
	}
	if len(res.Outbox) == 0 {
		t.Error("play produced no outbox messages")
	}
}

// TestPlayRejections verifies the precondition failures change nothing.
func TestPlayRejections(t *testing.T) {
	r := newStartedRoom(t, 3, 42)
	actor := r.TurnHolder
	other := r.NextAlive(actor)

	if _, err := r.Play(other, []int{0}); !errors.Is(err, ErrNotYourTurn) {
		t.Errorf("out-of-turn play: err = %v, want ErrNotYourTurn", err)
	}
	if _, err := r.Play(actor, nil); !errors.Is(err, ErrBadIndices) {
		t.Errorf("empty play: err = %v, want ErrBadIndices", err)
	}
	if _, err := r.Play(actor, []int{0, 0}); !errors.Is(err, ErrBadIndices) {
		t.Errorf("duplicate indices: err = %v, want ErrBadIndices", err)
	}
	if _, err := r.Play(actor, []int{99}); !errors.Is(err, ErrBadIndices) {
		t.Errorf("out-of-bounds index: err = %v, want ErrBadIndices", err)
	}
	if len(r.Players[actor].Hand) != FixedHandSize {
		t.Error("rejected play mutated the hand")
	}
}

// TestChallengeHonestClaimPunishesChallenger: a claim made only of target
// and wild faces punishes the doubter.
func TestChallengeHonestClaimPunishesChallenger(t *testing.T) {
	r := newStartedRoom(t, 3, 42)
	claimant := r.TurnHolder
	challenger := r.NextAlive(claimant)

	r.Players[claimant].Hand = []Face{r.Target, FaceMagic, FaceMoon, FaceMoon, FaceMoon}
	if r.Target == FaceMoon {
		r.Players[claimant].Hand = []Face{r.Target, FaceMagic, FaceStar, FaceStar, FaceStar}
	}
	if _, err := r.Play(claimant, []int{0, 1}); err != nil {
		t.Fatalf("Play: %v", err)
	}
	if _, err := r.Challenge(challenger, false); err != nil {
		t.Fatalf("Challenge: %v", err)
	}
	if r.Phase != PhaseAwaitingWireCut {
		t.Fatalf("phase = %s, want awaiting_wire_cut", r.Phase)
	}
	if r.WireHolder != challenger {
		t.Errorf("wire holder = %s, want challenger %s", r.WireHolder, challenger)
	}
	if len(r.WireOptions) != 3 {
		t.Errorf("wire options = %d, want 3", len(r.WireOptions))
	}
	if !r.WireDeadline.After(time.Now().Add(-time.Second)) {
		t.Error("wire deadline not armed")
	}
}

// TestChallengeBluffPunishesClaimant: any off-target non-wild card makes
// the claim a lie.
func TestChallengeBluffPunishesClaimant(t *testing.T) {
	r := newStartedRoom(t, 3, 42)
	claimant := r.TurnHolder
	challenger := r.NextAlive(claimant)

	offTarget := FaceMoon
	if r.Target == FaceMoon {
		offTarget = FaceStar
	}
	r.Players[claimant].Hand = []Face{r.Target, offTarget, r.Target, r.Target, r.Target}

	if _, err := r.Play(claimant, []int{0, 1}); err != nil {
		t.Fatalf("Play: %v", err)
	}
	if _, err := r.Challenge(challenger, false); err != nil {
		t.Fatalf("Challenge: %v", err)
	}
	if r.WireHolder != claimant {
		t.Errorf("wire holder = %s, want claimant %s", r.WireHolder, claimant)
	}
}

// TestChallengeWithoutClaim verifies the rejection path.
func TestChallengeWithoutClaim(t *testing.T) {
	r := newStartedRoom(t, 3, 42)
	if _, err := r.Challenge(r.TurnHolder, false); !errors.Is(err, ErrNoClaim) {
		t.Fatalf("err = %v, want ErrNoClaim", err)
	}
}

// enterWireCut puts the room into AwaitingWireCut with the given holder,
// options and bomb color.
func enterWireCut(r *Room, holder string, options []WireColor, bomb WireColor) {
	p := r.Players[holder]
	p.Wires = append([]WireColor(nil), options...)
	p.BombColor = bomb
	r.Phase = PhaseAwaitingWireCut
	r.WireHolder = holder
	r.WireOptions = append([]WireColor(nil), options...)
	r.TurnHolder = ""
	r.LastClaim = nil
}

// TestCutWireBombColorEliminates: cutting the secret bomb wire is always
// fatal.
func TestCutWireBombColorEliminates(t *testing.T) {
	r := newStartedRoom(t, 3, 42)
	holder := r.Order[0]
	enterWireCut(r, holder, []WireColor{WireRed, WireBlue, WireYellow}, WireRed)

	if _, err := r.CutWire(holder, WireRed, false); err != nil {
		t.Fatalf("CutWire: %v", err)
	}
	if r.Players[holder].Alive {
		t.Error("holder survived cutting the bomb wire")
	}
	if len(r.Players[holder].Hand) != 0 {
		t.Error("eliminated player kept a hand")
	}
	if r.Phase != PhasePlaying || r.Round != 2 {
		t.Errorf("phase=%s round=%d, want playing round 2", r.Phase, r.Round)
	}
}

// TestCutWireLastOptionEliminates: a single offered wire is fatal no
// matter its color.
func TestCutWireLastOptionEliminates(t *testing.T) {
	r := newStartedRoom(t, 3, 42)
	holder := r.Order[1]
	enterWireCut(r, holder, []WireColor{WireBlue}, WireRed)

	if _, err := r.CutWire(holder, WireBlue, false); err != nil {
		t.Fatalf("CutWire: %v", err)
	}
	if r.Players[holder].Alive {
		t.Error("holder survived the last wire")
	}
}

// TestCutWireSafe: a non-bomb wire among several options survives and the
// next round starts.
func TestCutWireSafe(t *testing.T) {
	r := newStartedRoom(t, 3, 42)
	holder := r.Order[2]
	enterWireCut(r, holder, []WireColor{WireRed, WireBlue, WireYellow}, WireRed)

	if _, err := r.CutWire(holder, WireBlue, false); err != nil {
		t.Fatalf("CutWire: %v", err)
	}
	p := r.Players[holder]
	if !p.Alive {
		t.Fatal("holder eliminated on a safe wire")
	}
	if len(p.Wires) != 2 || p.HasWire(WireBlue) {
		t.Errorf("wires = %v, blue should be gone", p.Wires)
	}
	if r.Phase != PhasePlaying || r.Round != 2 {
		t.Errorf("phase=%s round=%d, want playing round 2", r.Phase, r.Round)
	}
}

// TestCutWireRejections verifies holder and color preconditions.
func TestCutWireRejections(t *testing.T) {
	r := newStartedRoom(t, 3, 42)
	holder := r.Order[0]
	other := r.Order[1]
	enterWireCut(r, holder, []WireColor{WireRed, WireBlue}, WireYellow)

	if _, err := r.CutWire(other, WireRed, false); !errors.Is(err, ErrNotWireHolder) {
		t.Errorf("wrong actor: err = %v, want ErrNotWireHolder", err)
	}
	if _, err := r.CutWire(holder, WireYellow, false); !errors.Is(err, ErrBadWire) {
		t.Errorf("unoffered color: err = %v, want ErrBadWire", err)
	}
}

// TestEmptyHandForcesShowdown: playing one's whole hand triggers an
// automatic challenge by the next player.
func TestEmptyHandForcesShowdown(t *testing.T) {
	r := newStartedRoom(t, 3, 42)
	actor := r.TurnHolder
	next := r.NextAlive(actor)

	// All truthful, so the forced challenger gets punished.
	r.Players[actor].Hand = []Face{r.Target, r.Target}
	if _, err := r.Play(actor, []int{0, 1}); err != nil {
		t.Fatalf("Play: %v", err)
	}
	if r.Phase != PhaseAwaitingWireCut {
		t.Fatalf("phase = %s, want awaiting_wire_cut after forced showdown", r.Phase)
	}
	if r.WireHolder != next {
		t.Errorf("wire holder = %s, want forced challenger %s", r.WireHolder, next)
	}
}

// TestEliminateForTimeout: a lapsed play window is an outright loss and the
// next round starts automatically while two players remain.
func TestEliminateForTimeout(t *testing.T) {
	r := newStartedRoom(t, 3, 42)
	idle := r.TurnHolder

	if _, err := r.EliminateForTimeout(idle); err != nil {
		t.Fatalf("EliminateForTimeout: %v", err)
	}
	if r.Players[idle].Alive {
		t.Error("timed-out player still alive")
	}
	if r.Phase != PhasePlaying || r.Round != 2 {
		t.Errorf("phase=%s round=%d, want playing round 2", r.Phase, r.Round)
	}
	if len(r.AliveIDs()) != 2 {
		t.Errorf("alive = %d, want 2", len(r.AliveIDs()))
	}
}

// TestFinalizeOnSoleSurvivor: dropping to one alive player ends the match
// and closes the room.
func TestFinalizeOnSoleSurvivor(t *testing.T) {
	r := newStartedRoom(t, 3, 42)
	ids := r.Order
	r.Players[ids[1]].Alive = false
	r.Players[ids[2]].Alive = false

	res := r.StartRound("test")
	if !res.Closed {
		t.Fatal("room not closed with a sole survivor")
	}
	if len(res.Outbox) == 0 {
		t.Fatal("no winner announcement")
	}
}

// TestActionTokenStrictlyIncreases across a play, a challenge and a cut.
func TestActionTokenStrictlyIncreases(t *testing.T) {
	r := newStartedRoom(t, 3, 42)
	last := r.ActionToken

	check := func(step string) {
		t.Helper()
		if r.ActionToken <= last {
			t.Fatalf("%s: token %d did not increase past %d", step, r.ActionToken, last)
		}
		last = r.ActionToken
	}

	actor := r.TurnHolder
	if _, err := r.Play(actor, []int{0}); err != nil {
		t.Fatalf("Play: %v", err)
	}
	check("play")
	if _, err := r.Challenge(r.TurnHolder, false); err != nil {
		t.Fatalf("Challenge: %v", err)
	}
	check("challenge")
	holder := r.WireHolder
	if _, err := r.CutWire(holder, r.WireOptions[0], false); err != nil {
		t.Fatalf("CutWire: %v", err)
	}
	check("cut")
}

// TestJoinLimits verifies seat caps and duplicate joins.
func TestJoinLimits(t *testing.T) {
	r := NewRoom("bar-2", "p0", testRules(), 1)
	for i, id := range []string{"p0", "p1", "p2", "p3", "p4"} {
		if _, err := r.Join(id, id); err != nil {
			t.Fatalf("join %d: %v", i, err)
		}
	}
	if _, err := r.Join("p5", "p5"); !errors.Is(err, ErrRoomFull) {
		t.Errorf("sixth join: err = %v, want ErrRoomFull", err)
	}
	if _, err := r.Join("p0", "p0"); !errors.Is(err, ErrAlreadyJoined) {
		t.Errorf("duplicate join: err = %v, want ErrAlreadyJoined", err)
	}
}

// TestAISeatManagement covers add caps and most-recent-first removal.
func TestAISeatManagement(t *testing.T) {
	r := NewRoom("bar-3", "p0", testRules(), 1)
	r.Join("p0", "p0")
	r.Join("p1", "p1")

	n := 0
	seat := func(int) (string, string) {
		n++
		return "ai-" + string(rune('a'+n)), "bot"
	}
	_, added, err := r.AddAISeats(5, seat)
	if err != nil {
		t.Fatalf("AddAISeats: %v", err)
	}
	if added != 3 {
		t.Fatalf("added = %d, want 3 (seat cap)", added)
	}
	lastAI := r.Order[len(r.Order)-1]

	_, removed, err := r.RemoveAISeats(1)
	if err != nil {
		t.Fatalf("RemoveAISeats: %v", err)
	}
	if len(removed) != 1 || removed[0] != lastAI {
		t.Errorf("removed = %v, want most recent %s", removed, lastAI)
	}

	if _, err := r.StartMatch(1); err != nil {
		t.Fatalf("StartMatch with 2 humans + 2 bots: %v", err)
	}
}

// TestStartMatchPreconditions: seat count, human minimum and phase.
func TestStartMatchPreconditions(t *testing.T) {
	r := NewRoom("bar-4", "p0", testRules(), 1)
	r.Join("p0", "p0")
	r.Join("p1", "p1")
	if _, err := r.StartMatch(1); !errors.Is(err, ErrNotEnoughSeats) {
		t.Errorf("two seats: err = %v, want ErrNotEnoughSeats", err)
	}
	r.Join("p2", "p2")
	if _, err := r.StartMatch(4); !errors.Is(err, ErrNeedHuman) {
		t.Errorf("min humans: err = %v, want ErrNeedHuman", err)
	}
	if _, err := r.StartMatch(1); err != nil {
		t.Fatalf("StartMatch: %v", err)
	}
	if _, err := r.StartMatch(1); !errors.Is(err, ErrMatchRunning) {
		t.Errorf("restart: err = %v, want ErrMatchRunning", err)
	}
}
