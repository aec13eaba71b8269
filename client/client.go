package client

import (
	"fmt"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/devloic/kurve/protocol"
)

// Client is the network half of the reconciliation layer: it dials the
// room, performs the hello handshake (resuming with a stored credential
// when one exists), and feeds every inbound message to the reconciler.
type Client struct {
	conn  *websocket.Conn
	rec   *Reconciler
	creds CredentialStore

	writeMu   sync.Mutex
	sessionID string
	resumed   bool
}

// Dial connects to a room endpoint (ws://host/ws) and completes the
// handshake. A stale credential is cleared transparently: the server
// falls back to a fresh seat and the new token replaces the old one.
func Dial(url, nickname string, creds CredentialStore, rec *Reconciler) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, err
	}

	hello := protocol.Hello{V: 1, Nickname: nickname, ReconnectToken: creds.Load()}
	b, err := protocol.Encode(protocol.MsgHello, hello)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
		_ = conn.Close()
		return nil, err
	}

	// The room answers the hello with a welcome before anything else.
	_, msg, err := conn.ReadMessage()
	if err != nil {
		_ = conn.Close()
		if websocket.IsCloseError(err, protocol.CloseRoomFull) {
			return nil, fmt.Errorf("join rejected: %w", err)
		}
		return nil, err
	}
	env, err := protocol.DecodeEnvelope(msg)
	if err != nil || env.T != protocol.MsgWelcome {
		_ = conn.Close()
		return nil, fmt.Errorf("expected welcome, got %q", env.T)
	}
	welcome, err := protocol.DecodePayload[protocol.Welcome](env)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	rec.ApplyWelcome(welcome)
	creds.Save(welcome.ReconnectToken)

	return &Client{
		conn:      conn,
		rec:       rec,
		creds:     creds,
		sessionID: welcome.SessionID,
		resumed:   welcome.Resumed,
	}, nil
}

func (c *Client) SessionID() string { return c.sessionID }

// Resumed reports whether the handshake restored a prior seat.
func (c *Client) Resumed() bool { return c.resumed }

// Listen pumps room messages into the reconciler until the connection
// drops. The credential is kept, so a later Dial can resume.
func (c *Client) Listen() error {
	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			return err
		}
		env, err := protocol.DecodeEnvelope(msg)
		if err != nil {
			continue
		}
		if err := c.rec.Apply(env); err != nil {
			continue
		}
	}
}

func (c *Client) send(t string, payload any) error {
	b, err := protocol.Encode(t, payload)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, b)
}

func (c *Client) SendKeyDown(keyCode int) error {
	return c.send(protocol.MsgKeyDown, protocol.KeyInput{KeyCode: keyCode})
}

func (c *Client) SendKeyUp(keyCode int) error {
	return c.send(protocol.MsgKeyUp, protocol.KeyInput{KeyCode: keyCode})
}

// SendPosition reports the local curve's movement. The local shadow is
// updated in the same step so rendering never waits on the echo.
func (c *Client) SendPosition(u protocol.PositionUpdate) error {
	c.rec.UpdateLocalPosition(u)
	return c.send(protocol.MsgUpdatePosition, u)
}

func (c *Client) SendPlayerDied() error {
	return c.send(protocol.MsgPlayerDied, struct{}{})
}

func (c *Client) SendStartRound() error {
	return c.send(protocol.MsgStartRound, struct{}{})
}

func (c *Client) SendPauseGame() error {
	return c.send(protocol.MsgPauseGame, struct{}{})
}

// Leave departs voluntarily: the seat is released immediately and the
// persisted credential is cleared.
func (c *Client) Leave() error {
	_ = c.send(protocol.MsgLeave, struct{}{})
	c.creds.Clear()
	return c.conn.Close()
}

// Close drops the connection without giving up the seat; the credential
// stays valid for the server's grace window.
func (c *Client) Close() error {
	return c.conn.Close()
}
