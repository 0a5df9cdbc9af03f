// internal/session/ai_dispatch.go
package session

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tavernlabs/liarsbar/internal/ai"
	"github.com/tavernlabs/liarsbar/internal/game"
)

// maybeDispatchAILocked schedules a decision task when the seat due to act
// is computer-controlled. The view is copied under the lock; the decision
// itself (including any slow backend call) runs outside it and is
// re-validated on application. Caller holds s.mu.
func (s *Session) maybeDispatchAILocked(r *game.Room) {
	if !s.cfg.AIEnabled {
		return
	}
	var actor *game.Player
	switch r.Phase {
	case game.PhasePlaying:
		actor = r.Player(r.TurnHolder)
	case game.PhaseAwaitingWireCut:
		actor = r.Player(r.WireHolder)
	default:
		return
	}
	if actor == nil || !actor.IsAI {
		return
	}

	view := s.buildViewLocked(r, actor)
	roomID, actorID, token := r.ID, actor.ID, r.ActionToken
	delay := s.AIDelay
	go func() {
		if delay > 0 {
			time.Sleep(delay)
		}
		var d ai.Decision
		if len(view.WireOptions) > 0 {
			d = s.ai.DecideWire(view)
		} else {
			d = s.ai.DecideTurn(context.Background(), view)
		}
		s.applyAIDecision(roomID, actorID, token, d)
	}()
}

func (s *Session) buildViewLocked(r *game.Room, p *game.Player) ai.View {
	v := ai.View{
		Target:     r.Target,
		Hand:       r.HandOf(p.ID),
		AliveCount: len(r.AliveIDs()),
		MaxClaim:   s.cfg.AIMaxClaim,
	}
	if r.LastClaim != nil {
		v.ClaimPending = true
		v.ClaimSize = len(r.LastClaim.Cards)
	}
	if r.Phase == game.PhaseAwaitingWireCut {
		v.WireOptions = append([]game.WireColor(nil), r.WireOptions...)
	}
	return v
}

// applyAIDecision re-acquires the lock, discards the task if a newer
// transition superseded it, re-normalizes the decision against live state,
// and applies it. An irreparable decision forces a round restart as
// corruption recovery.
func (s *Session) applyAIDecision(roomID, actorID string, token int64, d ai.Decision) {
	s.mu.Lock()
	r, ok := s.rooms[roomID]
	if !ok || r.ActionToken != token {
		s.mu.Unlock()
		return
	}

	var (
		res game.TransitionResult
		err error
	)
	switch r.Phase {
	case game.PhaseAwaitingWireCut:
		if r.WireHolder != actorID {
			s.mu.Unlock()
			return
		}
		color := d.Wire
		if !wireOffered(r.WireOptions, color) {
			// Stale or invalid pick; substitute a live option.
			if len(r.WireOptions) == 0 {
				res = r.StartRound("state repaired")
				break
			}
			color = r.WireOptions[s.rng.Intn(len(r.WireOptions))]
		}
		res, err = r.CutWire(actorID, color, false)
	case game.PhasePlaying:
		if r.TurnHolder != actorID {
			s.mu.Unlock()
			return
		}
		res, err = s.applyTurnDecisionLocked(r, actorID, d)
	default:
		s.mu.Unlock()
		return
	}
	if err != nil {
		s.log.WithFields(logrus.Fields{"room": roomID, "player": actorID}).
			WithError(err).Warn("AI decision rejected; repairing with a fresh round")
		res = r.StartRound("state repaired")
	}

	del := s.afterTransitionLocked(r, &res)
	s.mu.Unlock()
	s.dispatch(del)
}

// applyTurnDecisionLocked plays or challenges on behalf of an AI seat,
// downgrading an invalid decision to a safe default before giving up.
func (s *Session) applyTurnDecisionLocked(r *game.Room, actorID string, d ai.Decision) (game.TransitionResult, error) {
	p := r.Player(actorID)
	if p == nil {
		return r.StartRound("state repaired"), nil
	}

	if d.Kind == ai.KindChallenge && r.LastClaim == nil {
		d = ai.Decision{Kind: ai.KindPlay}
	}
	if d.Kind == ai.KindPlay && !indicesValid(d.Indices, len(p.Hand), s.cfg.AIMaxClaim) {
		// Safe default: challenge when possible, otherwise a minimal play.
		if r.LastClaim != nil {
			d = ai.Decision{Kind: ai.KindChallenge}
		} else if len(p.Hand) > 0 {
			d = ai.Decision{Kind: ai.KindPlay, Indices: []int{0}}
		} else {
			return r.StartRound("state repaired"), nil
		}
	}

	switch d.Kind {
	case ai.KindChallenge:
		return r.Challenge(actorID, false)
	default:
		res, err := r.Play(actorID, d.Indices)
		if err == nil && s.rng.Float64() < s.cfg.AITauntProb {
			res.Broadcast(r.ID, p.Name+": "+ai.Taunt(s.rng))
		}
		return res, err
	}
}

func wireOffered(options []game.WireColor, c game.WireColor) bool {
	for _, w := range options {
		if w == c {
			return true
		}
	}
	return false
}

func indicesValid(indices []int, handSize, maxClaim int) bool {
	if len(indices) == 0 || len(indices) > maxClaim || len(indices) > handSize {
		return false
	}
	seen := make(map[int]bool, len(indices))
	for _, idx := range indices {
		if idx < 0 || idx >= handSize || seen[idx] {
			return false
		}
		seen[idx] = true
	}
	return true
}
