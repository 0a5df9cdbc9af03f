// internal/game/status.go
package game

import "time"

// SeatStatus is the public view of one seat.
type SeatStatus struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	IsAI     bool   `json:"is_ai"`
	Alive    bool   `json:"alive"`
	HandSize int    `json:"hand_size"`
	WireLeft int    `json:"wires_left"`
}

// StatusView is a read-only summary of a room for status queries. It never
// exposes hidden information (hands, bomb colors).
type StatusView struct {
	RoomID        string       `json:"room_id"`
	OwnerID       string       `json:"owner_id"`
	Phase         Phase        `json:"phase"`
	Round         int          `json:"round"`
	Target        Face         `json:"target,omitempty"`
	TurnHolder    string       `json:"turn_holder,omitempty"`
	WireHolder    string       `json:"wire_holder,omitempty"`
	WireOptions   []WireColor  `json:"wire_options,omitempty"`
	Seats         []SeatStatus `json:"seats"`
	ClaimPending  bool         `json:"claim_pending"`
	ClaimSize     int          `json:"claim_size,omitempty"`
	PlayRemaining int          `json:"play_remaining_sec,omitempty"`
	WireRemaining int          `json:"wire_remaining_sec,omitempty"`
}

// Status builds the public summary of the room as of now.
func (r *Room) Status(now time.Time) StatusView {
	v := StatusView{
		RoomID:      r.ID,
		OwnerID:     r.OwnerID,
		Phase:       r.Phase,
		Round:       r.Round,
		Target:      r.Target,
		TurnHolder:  r.TurnHolder,
		WireHolder:  r.WireHolder,
		WireOptions: append([]WireColor(nil), r.WireOptions...),
	}
	for _, id := range r.Order {
		p := r.Players[id]
		if p == nil {
			continue
		}
		v.Seats = append(v.Seats, SeatStatus{
			ID:       p.ID,
			Name:     p.Name,
			IsAI:     p.IsAI,
			Alive:    p.Alive,
			HandSize: len(p.Hand),
			WireLeft: len(p.Wires),
		})
	}
	if r.LastClaim != nil {
		v.ClaimPending = true
		v.ClaimSize = len(r.LastClaim.Cards)
	}
	if !r.PlayDeadline.IsZero() && r.PlayDeadline.After(now) {
		v.PlayRemaining = int(r.PlayDeadline.Sub(now).Seconds())
	}
	if !r.WireDeadline.IsZero() && r.WireDeadline.After(now) {
		v.WireRemaining = int(r.WireDeadline.Sub(now).Seconds())
	}
	return v
}

// HandOf returns a copy of a player's private hand, or nil if absent.
func (r *Room) HandOf(playerID string) []Face {
	p := r.Players[playerID]
	if p == nil {
		return nil
	}
	return append([]Face(nil), p.Hand...)
}
