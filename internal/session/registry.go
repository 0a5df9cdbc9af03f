// internal/session/registry.go
package session

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/tavernlabs/liarsbar/internal/game"
)

// OpenRoom creates a Waiting room with the given id and seats the owner.
// The owner must not be in any other room and the id must be free.
func (s *Session) OpenRoom(roomID, ownerID, ownerName string) error {
	s.mu.Lock()
	r, err := s.openRoomLocked(roomID, ownerID, ownerName)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	var res game.TransitionResult
	res.Broadcast(roomID, fmt.Sprintf("%s opened a table. Waiting for players (3-5).", ownerName))
	del := s.afterTransitionLocked(r, &res)
	s.mu.Unlock()
	s.dispatch(del)
	return nil
}

func (s *Session) openRoomLocked(roomID, ownerID, ownerName string) (*game.Room, error) {
	if _, ok := s.playerRoom[ownerID]; ok {
		return nil, ErrAlreadyInRoom
	}
	if _, ok := s.rooms[roomID]; ok {
		return nil, ErrRoomExists
	}
	r := game.NewRoom(roomID, ownerID, s.rules(), s.rng.Int63())
	if _, err := r.Join(ownerID, ownerName); err != nil {
		return nil, err
	}
	s.rooms[roomID] = r
	s.playerRoom[ownerID] = roomID
	return r, nil
}

// Join seats a human player in a Waiting room.
func (s *Session) Join(roomID, playerID, name string) error {
	s.mu.Lock()
	if _, ok := s.playerRoom[playerID]; ok {
		s.mu.Unlock()
		return ErrAlreadyInRoom
	}
	r, ok := s.rooms[roomID]
	if !ok {
		s.mu.Unlock()
		return ErrRoomNotFound
	}
	res, err := r.Join(playerID, name)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.playerRoom[playerID] = roomID
	del := s.afterTransitionLocked(r, &res)
	s.mu.Unlock()
	s.dispatch(del)
	return nil
}

// AddAI seats up to count computer-controlled players. Waiting phase only.
func (s *Session) AddAI(roomID string, count int) (int, error) {
	if !s.cfg.AIEnabled {
		return 0, ErrAIDisabled
	}
	s.mu.Lock()
	r, ok := s.rooms[roomID]
	if !ok {
		s.mu.Unlock()
		return 0, ErrRoomNotFound
	}
	res, added, err := r.AddAISeats(count, func(n int) (string, string) {
		id := "ai-" + uuid.NewString()
		return id, fmt.Sprintf("Bartender %s", id[3:11])
	})
	if err != nil {
		s.mu.Unlock()
		return 0, err
	}
	for _, pid := range r.Order {
		if p := r.Player(pid); p != nil && p.IsAI {
			s.playerRoom[pid] = roomID
		}
	}
	del := s.afterTransitionLocked(r, &res)
	s.mu.Unlock()
	s.dispatch(del)
	return added, nil
}

// RemoveAI removes up to count AI seats, most recently added first.
func (s *Session) RemoveAI(roomID string, count int) (int, error) {
	s.mu.Lock()
	r, ok := s.rooms[roomID]
	if !ok {
		s.mu.Unlock()
		return 0, ErrRoomNotFound
	}
	res, removed, err := r.RemoveAISeats(count)
	if err != nil {
		s.mu.Unlock()
		return 0, err
	}
	for _, pid := range removed {
		delete(s.playerRoom, pid)
	}
	del := s.afterTransitionLocked(r, &res)
	s.mu.Unlock()
	s.dispatch(del)
	return len(removed), nil
}

// StartMatch begins the match. Owner only.
func (s *Session) StartMatch(roomID, callerID string) error {
	s.mu.Lock()
	r, ok := s.rooms[roomID]
	if !ok {
		s.mu.Unlock()
		return ErrRoomNotFound
	}
	if callerID != r.OwnerID {
		s.mu.Unlock()
		return ErrNotOwner
	}
	res, err := r.StartMatch(s.cfg.MinHumans)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	del := s.afterTransitionLocked(r, &res)
	s.mu.Unlock()
	s.dispatch(del)
	return nil
}

// Play submits a claim for the current turn holder.
func (s *Session) Play(roomID, playerID string, indices []int) error {
	s.mu.Lock()
	r, ok := s.rooms[roomID]
	if !ok {
		s.mu.Unlock()
		return ErrRoomNotFound
	}
	res, err := r.Play(playerID, indices)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	del := s.afterTransitionLocked(r, &res)
	s.mu.Unlock()
	s.dispatch(del)
	return nil
}

// Challenge calls the pending bluff.
func (s *Session) Challenge(roomID, playerID string) error {
	s.mu.Lock()
	r, ok := s.rooms[roomID]
	if !ok {
		s.mu.Unlock()
		return ErrRoomNotFound
	}
	res, err := r.Challenge(playerID, false)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	del := s.afterTransitionLocked(r, &res)
	s.mu.Unlock()
	s.dispatch(del)
	return nil
}

// CutWire applies the punished player's wire choice.
func (s *Session) CutWire(roomID, playerID string, color game.WireColor) error {
	s.mu.Lock()
	r, ok := s.rooms[roomID]
	if !ok {
		s.mu.Unlock()
		return ErrRoomNotFound
	}
	res, err := r.CutWire(playerID, color, false)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	del := s.afterTransitionLocked(r, &res)
	s.mu.Unlock()
	s.dispatch(del)
	return nil
}

// EndRoom closes a room administratively. Owner only.
func (s *Session) EndRoom(roomID, callerID string) error {
	s.mu.Lock()
	r, ok := s.rooms[roomID]
	if !ok {
		s.mu.Unlock()
		return ErrRoomNotFound
	}
	if callerID != r.OwnerID {
		s.mu.Unlock()
		return ErrNotOwner
	}
	var res game.TransitionResult
	res.Broadcast(roomID, "The owner closed the table. Game over.")
	res.Closed = true
	del := s.afterTransitionLocked(r, &res)
	s.mu.Unlock()
	s.dispatch(del)
	return nil
}
