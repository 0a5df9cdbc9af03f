// internal/session/sweep.go
package session

import (
	"context"
	"time"

	"github.com/tavernlabs/liarsbar/internal/game"
)

const sweepInterval = time.Minute

// StartSweeper runs the idle-room sweep until ctx is cancelled. Rooms
// still in Waiting past the configured TTL are closed automatically;
// in-progress matches are never swept.
func (s *Session) StartSweeper(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.sweepIdleRooms()
			}
		}
	}()
}

func (s *Session) sweepIdleRooms() {
	ttl := s.cfg.RoomTTL()
	if ttl <= 0 {
		return
	}
	cutoff := s.now().Add(-ttl)

	s.mu.Lock()
	var dels []delivery
	for _, r := range s.rooms {
		if r.Phase != game.PhaseWaiting || r.CreatedAt.After(cutoff) {
			continue
		}
		var res game.TransitionResult
		res.Broadcast(r.ID, "Table closed: nobody started a match in time.")
		res.Closed = true
		dels = append(dels, s.afterTransitionLocked(r, &res))
	}
	s.mu.Unlock()

	for _, del := range dels {
		s.dispatch(del)
	}
}
