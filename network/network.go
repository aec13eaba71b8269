package network

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/devloic/kurve/game"
	"github.com/devloic/kurve/protocol"
	"github.com/devloic/kurve/room"
)

const (
	readLimit    = 1 << 20 // 1MB
	readTimeout  = 60 * time.Second
	writeTimeout = 10 * time.Second
	pingEvery    = 25 * time.Second
)

var upgrader = websocket.Upgrader{
	// For dev, allow all origins. Lock this down in prod.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Server exposes the room manager over HTTP: the websocket endpoint plus
// a small JSON API for the room list.
type Server struct {
	manager *room.Manager
}

func NewServer(m *room.Manager) *Server {
	return &Server{manager: m}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/rooms", s.handleRooms)
	mux.HandleFunc("/rooms/create", s.handleCreateRoom)
	return mux
}

func (s *Server) handleRooms(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.manager.ListRooms())
}

func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	code := s.manager.CreateRoom()
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"code": code})
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("upgrade:", err)
		return
	}

	conn.SetReadLimit(readLimit)
	_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
		return nil
	})

	wc := newWSConn(conn)

	// Hello handshake: the first frame decides which seat this
	// connection gets, or resumes.
	hello, ok := readHello(conn)
	if !ok {
		_ = wc.Close()
		return
	}

	rm := s.roomFor(r)
	if rm == nil {
		_ = wc.Close()
		return
	}

	reply := make(chan room.JoinResult, 1)
	rm.Inbox <- room.Join{Conn: wc, Nickname: hello.Nickname, Token: hello.ReconnectToken, Reply: reply}
	res := <-reply
	if res.Err != nil {
		if errors.Is(res.Err, game.ErrRoomFull) {
			wc.closeWith(protocol.CloseRoomFull, "Room is full")
		}
		_ = wc.Close()
		return
	}

	s.readPump(conn, wc, rm, res.SessionID)
}

// roomFor picks the room a connection lands in: an explicit ?room=CODE,
// or whichever room has a free seat.
func (s *Server) roomFor(r *http.Request) *room.Room {
	if code := r.URL.Query().Get("room"); code != "" {
		return s.manager.GetOrCreateRoom(code)
	}
	return s.manager.JoinOrCreate()
}

func readHello(conn *websocket.Conn) (protocol.Hello, bool) {
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return protocol.Hello{}, false
	}
	env, err := protocol.DecodeEnvelope(msg)
	if err != nil || env.T != protocol.MsgHello {
		return protocol.Hello{}, false
	}
	hello, err := protocol.DecodePayload[protocol.Hello](env)
	if err != nil {
		return protocol.Hello{}, false
	}
	return hello, true
}

// readPump routes inbound envelopes into the room actor. Messages from
// one session stay FIFO because this is the only reader.
func (s *Server) readPump(conn *websocket.Conn, wc *wsConn, rm *room.Room, sessionID string) {
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				rm.Inbox <- room.Leave{SessionID: sessionID}
			} else {
				rm.Inbox <- room.Disconnect{SessionID: sessionID}
			}
			_ = wc.Close()
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(readTimeout))

		env, err := protocol.DecodeEnvelope(msg)
		if err != nil {
			continue // malformed frames never affect other clients
		}
		switch env.T {
		case protocol.MsgKeyDown:
			if p, err := protocol.DecodePayload[protocol.KeyInput](env); err == nil {
				rm.Inbox <- room.KeyDown{SessionID: sessionID, KeyCode: p.KeyCode}
			}
		case protocol.MsgKeyUp:
			if p, err := protocol.DecodePayload[protocol.KeyInput](env); err == nil {
				rm.Inbox <- room.KeyUp{SessionID: sessionID, KeyCode: p.KeyCode}
			}
		case protocol.MsgUpdatePosition:
			if p, err := protocol.DecodePayload[protocol.PositionUpdate](env); err == nil {
				rm.Inbox <- room.Position{SessionID: sessionID, Update: p}
			}
		case protocol.MsgPlayerDied:
			rm.Inbox <- room.Died{SessionID: sessionID}
		case protocol.MsgStartRound:
			rm.Inbox <- room.StartRound{SessionID: sessionID}
		case protocol.MsgPauseGame:
			rm.Inbox <- room.TogglePause{SessionID: sessionID}
		case protocol.MsgLeave:
			rm.Inbox <- room.Leave{SessionID: sessionID}
			_ = wc.Close()
			return
		}
	}
}
