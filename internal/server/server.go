// internal/server/server.go
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/sirupsen/logrus"

	"github.com/tavernlabs/liarsbar/internal/game"
	"github.com/tavernlabs/liarsbar/internal/session"
)

// Server is the websocket boundary of the engine. It translates inbound
// commands into session operations and delivers the session's outbox to
// connected players. It owns no game state.
type Server struct {
	sess *session.Session
	log  *logrus.Entry

	mu    sync.Mutex
	conns map[string]*websocket.Conn // player id -> connection
}

// New wires a server to a session and installs the delivery callbacks.
func New(sess *session.Session) *Server {
	s := &Server{
		sess:  sess,
		log:   logrus.WithField("component", "server"),
		conns: make(map[string]*websocket.Conn),
	}
	sess.Deliver = s.deliver
	sess.RefreshHand = s.refreshHand
	return s
}

// Handler returns the HTTP handler accepting websocket clients. Clients
// identify with ?player=<id>&name=<display name>.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	return mux
}

var errRoomRequired = errors.New("a room id is required")

// command is one inbound frame. Positions are 1-based as typed at the
// table; they are converted before reaching the engine.
type command struct {
	Op        string   `json:"op"`
	Room      string   `json:"room,omitempty"`
	Count     int      `json:"count,omitempty"`
	Positions []int    `json:"positions,omitempty"`
	Color     string   `json:"color,omitempty"`
}

// frame is one outbound message.
type frame struct {
	Type   string           `json:"type"`
	Room   string           `json:"room,omitempty"`
	Text   string           `json:"text,omitempty"`
	Cards  []game.Face      `json:"cards,omitempty"`
	Status *game.StatusView `json:"status,omitempty"`
	Error  string           `json:"error,omitempty"`
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	playerID := r.URL.Query().Get("player")
	name := r.URL.Query().Get("name")
	if playerID == "" {
		http.Error(w, "player query parameter required", http.StatusBadRequest)
		return
	}
	if name == "" {
		name = playerID
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		s.log.WithError(err).Warn("websocket accept failed")
		return
	}

	s.mu.Lock()
	if old, ok := s.conns[playerID]; ok {
		old.Close(websocket.StatusPolicyViolation, "replaced by a newer connection")
	}
	s.conns[playerID] = conn
	s.mu.Unlock()
	s.log.WithField("player", playerID).Info("player connected")

	defer func() {
		s.mu.Lock()
		if s.conns[playerID] == conn {
			delete(s.conns, playerID)
		}
		s.mu.Unlock()
		conn.Close(websocket.StatusNormalClosure, "")
		s.log.WithField("player", playerID).Info("player disconnected")
	}()

	ctx := r.Context()
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return
		}
		var cmd command
		if err := json.Unmarshal(data, &cmd); err != nil {
			s.sendTo(playerID, frame{Type: "error", Error: "malformed command"})
			continue
		}
		s.handleCommand(playerID, name, cmd)
	}
}

func (s *Server) handleCommand(playerID, name string, cmd command) {
	roomID := cmd.Room
	if roomID == "" {
		roomID, _ = s.sess.RoomOf(playerID)
	}

	var err error
	switch cmd.Op {
	case "open":
		if cmd.Room == "" {
			err = errRoomRequired
		} else {
			err = s.sess.OpenRoom(cmd.Room, playerID, name)
		}
	case "join":
		err = s.sess.Join(cmd.Room, playerID, name)
	case "add_ai":
		_, err = s.sess.AddAI(roomID, max(cmd.Count, 1))
	case "remove_ai":
		_, err = s.sess.RemoveAI(roomID, max(cmd.Count, 1))
	case "start":
		err = s.sess.StartMatch(roomID, playerID)
	case "status":
		var view game.StatusView
		view, err = s.sess.Status(roomID)
		if err == nil {
			s.sendTo(playerID, frame{Type: "status", Room: roomID, Status: &view})
			return
		}
	case "hand":
		var hand []game.Face
		hand, err = s.sess.HandView(roomID, playerID)
		if err == nil {
			s.sendTo(playerID, frame{Type: "hand", Room: roomID, Cards: hand})
			return
		}
	case "play":
		indices := make([]int, len(cmd.Positions))
		for i, pos := range cmd.Positions {
			indices[i] = pos - 1
		}
		err = s.sess.Play(roomID, playerID, indices)
	case "challenge":
		err = s.sess.Challenge(roomID, playerID)
	case "cut":
		err = s.sess.CutWire(roomID, playerID, game.WireColor(cmd.Color))
	case "end":
		err = s.sess.EndRoom(roomID, playerID)
	default:
		s.sendTo(playerID, frame{Type: "error", Error: "unknown op"})
		return
	}
	if err != nil {
		s.sendTo(playerID, frame{Type: "error", Room: roomID, Error: err.Error()})
	}
}

// deliver routes one outbox message: private when addressed, otherwise to
// every connected human member of the room.
func (s *Server) deliver(msg game.Message) {
	if msg.PlayerID != "" {
		s.sendTo(msg.PlayerID, frame{Type: "message", Room: msg.RoomID, Text: msg.Text})
		return
	}
	for _, id := range s.sess.MembersOf(msg.RoomID) {
		s.sendTo(id, frame{Type: "message", Room: msg.RoomID, Text: msg.Text})
	}
}

func (s *Server) refreshHand(roomID, playerID string, hand []game.Face) {
	s.sendTo(playerID, frame{Type: "hand", Room: roomID, Cards: hand})
}

func (s *Server) sendTo(playerID string, f frame) {
	s.mu.Lock()
	conn, ok := s.conns[playerID]
	s.mu.Unlock()
	if !ok {
		return
	}
	data, err := json.Marshal(f)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
		s.log.WithField("player", playerID).WithError(err).Debug("write failed")
	}
}
