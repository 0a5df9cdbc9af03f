// internal/session/session.go
package session

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tavernlabs/liarsbar/internal/ai"
	"github.com/tavernlabs/liarsbar/internal/config"
	"github.com/tavernlabs/liarsbar/internal/game"
	"github.com/tavernlabs/liarsbar/internal/store"
)

// Registry-level errors. Rejections only; no state is changed.
var (
	ErrAlreadyInRoom = errors.New("player is already in an active room")
	ErrRoomExists    = errors.New("a room with that id already exists")
	ErrRoomNotFound  = errors.New("no such room")
	ErrNotOwner      = errors.New("only the room owner may do that")
	ErrAIDisabled    = errors.New("AI seats are disabled")
)

// Session owns every live room, the player->room index, the deadline
// scheduler and the AI dispatch loop. One mutex serializes all room
// mutations; slow external calls (the reasoning backend) never run under
// it.
type Session struct {
	cfg *config.Config
	st  store.Store
	ai  *ai.Engine
	log *logrus.Entry

	mu         sync.Mutex
	rooms      map[string]*game.Room
	playerRoom map[string]string
	timers     map[string]*roomTimers
	closed     bool

	// AIDelay is the artificial thinking pause before an AI decision is
	// dispatched. Tests set it to zero.
	AIDelay time.Duration

	// Deliver hands one outbound message to the surrounding application.
	Deliver func(msg game.Message)
	// RefreshHand tells the surrounding application to re-send a player's
	// private hand view.
	RefreshHand func(roomID, playerID string, hand []game.Face)

	rng *rand.Rand
	now func() time.Time
}

// New builds a session around a store and an optional reasoning backend.
func New(cfg *config.Config, st store.Store, backend ai.Decider) *Session {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	return &Session{
		cfg:        cfg,
		st:         st,
		ai:         ai.NewEngine(backend, cfg.AITimeout(), cfg.AIRetries, rand.New(rand.NewSource(rng.Int63()))),
		log:        logrus.WithField("component", "session"),
		rooms:      make(map[string]*game.Room),
		playerRoom: make(map[string]string),
		timers:     make(map[string]*roomTimers),
		AIDelay:    time.Second,
		rng:        rng,
		now:        time.Now,
	}
}

func (s *Session) rules() game.Rules {
	return game.Rules{
		HandSize:    s.cfg.HandSize,
		PlayTimeout: s.cfg.PlayTimeout(),
		WireTimeout: s.cfg.WireTimeout(),
		AIMaxClaim:  s.cfg.AIMaxClaim,
	}
}

// handRefresh pairs a player with the hand copy to re-send.
type handRefresh struct {
	roomID   string
	playerID string
	hand     []game.Face
}

// delivery is everything to hand to the outside world after the lock is
// released.
type delivery struct {
	msgs  []game.Message
	hands []handRefresh
}

// dispatch forwards a delivery through the configured callbacks. Called
// without the lock held.
func (s *Session) dispatch(del delivery) {
	if s.Deliver != nil {
		for _, m := range del.msgs {
			s.Deliver(m)
		}
	}
	if s.RefreshHand != nil {
		for _, h := range del.hands {
			s.RefreshHand(h.roomID, h.playerID, h.hand)
		}
	}
}

// afterTransitionLocked re-arms timers, dispatches AI work, persists the
// snapshot, and converts the transition result into a delivery. Caller
// holds s.mu.
func (s *Session) afterTransitionLocked(r *game.Room, res *game.TransitionResult) delivery {
	del := delivery{msgs: res.Outbox}
	if res.Closed {
		// Membership is unresolvable once the room is dropped; expand
		// room-wide messages into per-player entries first.
		del.msgs = expandRoomWide(r, res.Outbox)
		s.closeRoomLocked(r, "")
	} else {
		for _, id := range res.RefreshHands {
			del.hands = append(del.hands, handRefresh{
				roomID:   r.ID,
				playerID: id,
				hand:     r.HandOf(id),
			})
		}
		s.armTimersLocked(r)
		s.maybeDispatchAILocked(r)
	}
	s.persistLocked()
	return del
}

// expandRoomWide turns room-wide outbox entries into per-player entries
// addressed to the room's human members, in seat order. Private entries
// pass through unchanged.
func expandRoomWide(r *game.Room, msgs []game.Message) []game.Message {
	out := make([]game.Message, 0, len(msgs))
	for _, m := range msgs {
		if m.PlayerID != "" {
			out = append(out, m)
			continue
		}
		for _, id := range r.Order {
			if p := r.Player(id); p != nil && !p.IsAI {
				out = append(out, game.Message{RoomID: m.RoomID, PlayerID: id, Text: m.Text})
			}
		}
	}
	return out
}

// closeRoomLocked drops a room, its membership entries and timers. An
// optional farewell is appended by the caller beforehand.
func (s *Session) closeRoomLocked(r *game.Room, _ string) {
	s.cancelTimersLocked(r.ID)
	for id := range r.Players {
		if s.playerRoom[id] == r.ID {
			delete(s.playerRoom, id)
		}
	}
	delete(s.rooms, r.ID)
	s.log.WithFields(logrus.Fields{"room": r.ID, "round": r.Round}).Info("room closed")
}

// persistLocked snapshots every room and writes it through the store.
// Failures are logged; gameplay is never blocked on a bad disk.
func (s *Session) persistLocked() {
	snap := &game.Snapshot{
		Version:     game.SnapshotVersion,
		SavedAt:     s.now(),
		Rooms:       make(map[string]game.RoomSnapshot, len(s.rooms)),
		PlayerIndex: make(map[string]string, len(s.playerRoom)),
	}
	for id, r := range s.rooms {
		snap.Rooms[id] = game.SnapshotRoom(r)
	}
	for pid, rid := range s.playerRoom {
		snap.PlayerIndex[pid] = rid
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.st.Save(ctx, snap); err != nil {
		s.log.WithError(err).Error("snapshot save failed")
	}
}

// Load restores state from the store, repairing structural inconsistencies,
// then re-arms deadlines and AI work for every live room.
func (s *Session) Load(ctx context.Context) error {
	snap, err := s.st.Load(ctx)
	if err != nil {
		return err
	}
	if snap == nil {
		return nil
	}
	notes := game.Normalize(snap)
	for _, n := range notes {
		s.log.WithField("repair", n).Warn("snapshot repaired on load")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, rs := range snap.Rooms {
		r := game.RestoreRoom(rs, s.rules(), s.rng.Int63())
		s.rooms[id] = r
		for pid := range r.Players {
			s.playerRoom[pid] = id
		}
		s.armTimersLocked(r)
		s.maybeDispatchAILocked(r)
	}
	s.log.WithField("rooms", len(s.rooms)).Info("state restored")
	return nil
}

// Close cancels all outstanding timers and writes a final snapshot.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for id := range s.timers {
		s.cancelTimersLocked(id)
	}
	s.persistLocked()
}

// Status returns the read-only summary of a room.
func (s *Session) Status(roomID string) (game.StatusView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[roomID]
	if !ok {
		return game.StatusView{}, ErrRoomNotFound
	}
	return r.Status(s.now()), nil
}

// HandView returns a copy of a player's private hand.
func (s *Session) HandView(roomID, playerID string) ([]game.Face, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[roomID]
	if !ok {
		return nil, ErrRoomNotFound
	}
	if r.Player(playerID) == nil {
		return nil, game.ErrNotInRoom
	}
	return r.HandOf(playerID), nil
}

// MembersOf returns the human member ids of a room, in seat order.
func (s *Session) MembersOf(roomID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[roomID]
	if !ok {
		return nil
	}
	var out []string
	for _, id := range r.Order {
		if p := r.Player(id); p != nil && !p.IsAI {
			out = append(out, id)
		}
	}
	return out
}

// RoomOf returns the room a player is currently in, if any.
func (s *Session) RoomOf(playerID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.playerRoom[playerID]
	return id, ok
}
