// internal/game/snapshot.go
package game

import (
	"fmt"
	"time"
)

// SnapshotVersion tags the persisted document schema.
const SnapshotVersion = 1

// PlayerSnapshot is the persisted form of a seat.
type PlayerSnapshot struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	IsAI      bool        `json:"is_ai"`
	Alive     bool        `json:"alive"`
	Hand      []Face      `json:"hand"`
	BombColor WireColor   `json:"bomb_color"`
	Wires     []WireColor `json:"wires"`
}

// RoomSnapshot is the persisted form of a room.
type RoomSnapshot struct {
	ID                 string                    `json:"id"`
	OwnerID            string                    `json:"owner_id"`
	Phase              Phase                     `json:"phase"`
	Round              int                       `json:"round"`
	DealerIndex        int                       `json:"dealer_index"`
	Players            map[string]PlayerSnapshot `json:"players"`
	Order              []string                  `json:"order"`
	Target             Face                      `json:"target,omitempty"`
	TurnHolder         string                    `json:"turn_holder,omitempty"`
	LastClaim          *Claim                    `json:"last_claim,omitempty"`
	WireHolder         string                    `json:"wire_holder,omitempty"`
	WireOptions        []WireColor               `json:"wire_options,omitempty"`
	InitialPlayerCount int                       `json:"initial_player_count"`
	Composition        map[Face]int              `json:"composition,omitempty"`
	PlayDeadline       time.Time                 `json:"play_deadline,omitempty"`
	WireDeadline       time.Time                 `json:"wire_deadline,omitempty"`
	ActionToken        int64                     `json:"action_token"`
	CreatedAt          time.Time                 `json:"created_at"`
}

// Snapshot is the full persisted document: every live room plus the
// player->room membership index.
type Snapshot struct {
	Version     int                     `json:"version"`
	SavedAt     time.Time               `json:"saved_at"`
	Rooms       map[string]RoomSnapshot `json:"rooms"`
	PlayerIndex map[string]string       `json:"player_index"`
}

// SnapshotRoom captures a room's full state for persistence.
func SnapshotRoom(r *Room) RoomSnapshot {
	players := make(map[string]PlayerSnapshot, len(r.Players))
	for id, p := range r.Players {
		players[id] = PlayerSnapshot{
			ID:        p.ID,
			Name:      p.Name,
			IsAI:      p.IsAI,
			Alive:     p.Alive,
			Hand:      append([]Face(nil), p.Hand...),
			BombColor: p.BombColor,
			Wires:     append([]WireColor(nil), p.Wires...),
		}
	}
	comp := make(map[Face]int, len(r.Composition))
	for f, n := range r.Composition {
		comp[f] = n
	}
	var claim *Claim
	if r.LastClaim != nil {
		c := *r.LastClaim
		c.Cards = append([]Face(nil), r.LastClaim.Cards...)
		claim = &c
	}
	return RoomSnapshot{
		ID:                 r.ID,
		OwnerID:            r.OwnerID,
		Phase:              r.Phase,
		Round:              r.Round,
		DealerIndex:        r.DealerIndex,
		Players:            players,
		Order:              append([]string(nil), r.Order...),
		Target:             r.Target,
		TurnHolder:         r.TurnHolder,
		LastClaim:          claim,
		WireHolder:         r.WireHolder,
		WireOptions:        append([]WireColor(nil), r.WireOptions...),
		InitialPlayerCount: r.InitialPlayerCount,
		Composition:        comp,
		PlayDeadline:       r.PlayDeadline,
		WireDeadline:       r.WireDeadline,
		ActionToken:        r.ActionToken,
		CreatedAt:          r.CreatedAt,
	}
}

// RestoreRoom rebuilds a live room from its snapshot. The snapshot should
// be normalized first.
func RestoreRoom(rs RoomSnapshot, rules Rules, seed int64) *Room {
	r := NewRoom(rs.ID, rs.OwnerID, rules, seed)
	r.Phase = rs.Phase
	r.Round = rs.Round
	r.DealerIndex = rs.DealerIndex
	r.Order = append([]string(nil), rs.Order...)
	r.Target = rs.Target
	r.TurnHolder = rs.TurnHolder
	r.WireHolder = rs.WireHolder
	r.WireOptions = append([]WireColor(nil), rs.WireOptions...)
	r.InitialPlayerCount = rs.InitialPlayerCount
	r.PlayDeadline = rs.PlayDeadline
	r.WireDeadline = rs.WireDeadline
	r.ActionToken = rs.ActionToken
	if !rs.CreatedAt.IsZero() {
		r.CreatedAt = rs.CreatedAt
	}
	if rs.LastClaim != nil {
		c := *rs.LastClaim
		c.Cards = append([]Face(nil), rs.LastClaim.Cards...)
		r.LastClaim = &c
	}
	r.Composition = make(Composition, len(rs.Composition))
	for f, n := range rs.Composition {
		r.Composition[f] = n
	}
	for id, ps := range rs.Players {
		r.Players[id] = &Player{
			ID:        ps.ID,
			Name:      ps.Name,
			IsAI:      ps.IsAI,
			Alive:     ps.Alive,
			Hand:      append([]Face(nil), ps.Hand...),
			BombColor: ps.BombColor,
			Wires:     append([]WireColor(nil), ps.Wires...),
		}
	}
	return r
}

// Normalize repairs a loaded snapshot in place and returns a note per
// repair made. It tolerates membership lists referencing unknown players,
// dangling turn or wire holders, a missing deck composition mid-match, and
// an index inconsistent with room contents. The player index is always
// rebuilt from room contents.
func Normalize(s *Snapshot) []string {
	var notes []string
	if s.Rooms == nil {
		s.Rooms = map[string]RoomSnapshot{}
	}

	for id, rs := range s.Rooms {
		if rs.Players == nil {
			rs.Players = map[string]PlayerSnapshot{}
		}

		// Keep order and player set consistent with each other.
		order := rs.Order[:0]
		for _, pid := range rs.Order {
			if _, ok := rs.Players[pid]; ok {
				order = append(order, pid)
			} else {
				notes = append(notes, fmt.Sprintf("room %s: dropped unknown member %s", id, pid))
			}
		}
		rs.Order = order
		for pid := range rs.Players {
			if !contains(rs.Order, pid) {
				delete(rs.Players, pid)
				notes = append(notes, fmt.Sprintf("room %s: dropped unordered player %s", id, pid))
			}
		}

		alive := aliveInOrder(rs)

		if rs.Phase == PhasePlaying {
			if p, ok := rs.Players[rs.TurnHolder]; rs.TurnHolder == "" || !ok || !p.Alive {
				old := rs.TurnHolder
				if len(alive) > 0 {
					rs.TurnHolder = alive[0]
				} else {
					rs.TurnHolder = ""
				}
				notes = append(notes, fmt.Sprintf("room %s: turn holder %q reset to %q", id, old, rs.TurnHolder))
			}
		} else {
			rs.TurnHolder = ""
		}

		if rs.Phase == PhaseAwaitingWireCut {
			if p, ok := rs.Players[rs.WireHolder]; rs.WireHolder == "" || !ok || !p.Alive {
				notes = append(notes, fmt.Sprintf("room %s: cleared dangling wire holder %q", id, rs.WireHolder))
				rs.Phase = PhasePlaying
				rs.WireHolder = ""
				rs.WireOptions = nil
				rs.WireDeadline = timeZero
				if rs.TurnHolder == "" && len(alive) > 0 {
					rs.TurnHolder = alive[0]
				}
			} else {
				// Options must match the holder's remaining wires.
				holder := rs.Players[rs.WireHolder]
				valid := rs.WireOptions[:0]
				for _, w := range rs.WireOptions {
					if containsWire(holder.Wires, w) {
						valid = append(valid, w)
					}
				}
				if len(valid) == 0 {
					valid = append([]WireColor(nil), holder.Wires...)
					notes = append(notes, fmt.Sprintf("room %s: rebuilt wire options for %s", id, rs.WireHolder))
				}
				rs.WireOptions = valid
			}
		} else {
			rs.WireHolder = ""
			rs.WireOptions = nil
		}

		if rs.Phase != PhaseWaiting && compositionTotal(rs.Composition) == 0 {
			n := rs.InitialPlayerCount
			if n == 0 {
				n = len(rs.Order)
			}
			rebuilt := LockComposition(n, FixedHandSize)
			rs.Composition = map[Face]int(rebuilt)
			rs.InitialPlayerCount = n
			notes = append(notes, fmt.Sprintf("room %s: recomputed deck composition for %d players", id, n))
		}

		s.Rooms[id] = rs
	}

	// Never trust the stored index; rebuild it from room contents.
	s.PlayerIndex = make(map[string]string)
	for id, rs := range s.Rooms {
		for pid := range rs.Players {
			s.PlayerIndex[pid] = id
		}
	}
	return notes
}

func aliveInOrder(rs RoomSnapshot) []string {
	var alive []string
	for _, pid := range rs.Order {
		if p, ok := rs.Players[pid]; ok && p.Alive {
			alive = append(alive, pid)
		}
	}
	return alive
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func containsWire(list []WireColor, v WireColor) bool {
	for _, w := range list {
		if w == v {
			return true
		}
	}
	return false
}

func compositionTotal(c map[Face]int) int {
	total := 0
	for _, n := range c {
		total += n
	}
	return total
}
