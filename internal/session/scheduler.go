// internal/session/scheduler.go
package session

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tavernlabs/liarsbar/internal/game"
)

// roomTimers is the per-room job table: at most one outstanding timer per
// deadline class. Arming always replaces the previous timer.
type roomTimers struct {
	play *time.Timer
	wire *time.Timer
}

func (s *Session) timersFor(roomID string) *roomTimers {
	t, ok := s.timers[roomID]
	if !ok {
		t = &roomTimers{}
		s.timers[roomID] = t
	}
	return t
}

// armTimersLocked (re)arms whichever deadline the room's current phase
// requires and cancels the other. Caller holds s.mu.
func (s *Session) armTimersLocked(r *game.Room) {
	t := s.timersFor(r.ID)
	switch r.Phase {
	case game.PhasePlaying:
		if t.wire != nil {
			t.wire.Stop()
			t.wire = nil
		}
		if r.TurnHolder == "" || r.PlayDeadline.IsZero() {
			break
		}
		if t.play != nil {
			t.play.Stop()
		}
		roomID, token, target := r.ID, r.ActionToken, r.TurnHolder
		t.play = time.AfterFunc(time.Until(r.PlayDeadline), func() {
			s.firePlayDeadline(roomID, token, target)
		})
	case game.PhaseAwaitingWireCut:
		if t.play != nil {
			t.play.Stop()
			t.play = nil
		}
		if r.WireHolder == "" || r.WireDeadline.IsZero() {
			break
		}
		if t.wire != nil {
			t.wire.Stop()
		}
		roomID, token, target := r.ID, r.ActionToken, r.WireHolder
		t.wire = time.AfterFunc(time.Until(r.WireDeadline), func() {
			s.fireWireDeadline(roomID, token, target)
		})
	default:
		s.cancelTimersLocked(r.ID)
	}
}

// cancelTimersLocked stops and drops both timers for a room. Caller holds
// s.mu.
func (s *Session) cancelTimersLocked(roomID string) {
	t, ok := s.timers[roomID]
	if !ok {
		return
	}
	if t.play != nil {
		t.play.Stop()
	}
	if t.wire != nil {
		t.wire.Stop()
	}
	delete(s.timers, roomID)
}

// firePlayDeadline eliminates a player who let their play window lapse.
// The captured token and target are re-validated under the lock; any
// mismatch means a newer transition superseded this timer and the firing
// is a silent no-op.
func (s *Session) firePlayDeadline(roomID string, token int64, target string) {
	s.mu.Lock()
	r, ok := s.rooms[roomID]
	if !ok || r.Phase != game.PhasePlaying || r.ActionToken != token || r.TurnHolder != target {
		s.mu.Unlock()
		return
	}
	s.log.WithFields(logrus.Fields{"room": roomID, "player": target}).
		Info("play deadline fired")
	res, err := r.EliminateForTimeout(target)
	if err != nil {
		s.mu.Unlock()
		return
	}
	del := s.afterTransitionLocked(r, &res)
	s.mu.Unlock()
	s.dispatch(del)
}

// fireWireDeadline cuts a uniformly random offered wire for a player who
// let their wire window lapse. Same staleness checks as the play deadline.
func (s *Session) fireWireDeadline(roomID string, token int64, target string) {
	s.mu.Lock()
	r, ok := s.rooms[roomID]
	if !ok || r.Phase != game.PhaseAwaitingWireCut || r.ActionToken != token ||
		r.WireHolder != target || len(r.WireOptions) == 0 {
		s.mu.Unlock()
		return
	}
	color := r.WireOptions[s.rng.Intn(len(r.WireOptions))]
	s.log.WithFields(logrus.Fields{"room": roomID, "player": target, "wire": color}).
		Info("wire deadline fired")
	res, err := r.CutWire(target, color, true)
	if err != nil {
		s.mu.Unlock()
		return
	}
	del := s.afterTransitionLocked(r, &res)
	s.mu.Unlock()
	s.dispatch(del)
}
