// internal/game/transition.go
package game

// Message is one outbound notification. PlayerID empty means the message
// goes to the whole room; otherwise it is private to that player.
type Message struct {
	RoomID   string
	PlayerID string
	Text     string
}

// TransitionResult is the read-only outcome of a state-mutating operation:
// an ordered outbox plus the players whose private hand view must be
// refreshed. Delivery is the caller's concern.
type TransitionResult struct {
	Outbox       []Message
	RefreshHands []string
	Closed       bool // Room finished; the registry must drop it.
}

// Broadcast appends a room-wide message to the outbox.
func (t *TransitionResult) Broadcast(roomID, text string) {
	t.Outbox = append(t.Outbox, Message{RoomID: roomID, Text: text})
}

func (t *TransitionResult) whisper(roomID, playerID, text string) {
	t.Outbox = append(t.Outbox, Message{RoomID: roomID, PlayerID: playerID, Text: text})
}

func (t *TransitionResult) refresh(playerID string) {
	for _, id := range t.RefreshHands {
		if id == playerID {
			return
		}
	}
	t.RefreshHands = append(t.RefreshHands, playerID)
}

// Merge appends another result's outbox and refresh list onto t.
func (t *TransitionResult) Merge(other TransitionResult) {
	t.Outbox = append(t.Outbox, other.Outbox...)
	for _, id := range other.RefreshHands {
		t.refresh(id)
	}
	t.Closed = t.Closed || other.Closed
}
