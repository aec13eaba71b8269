package room

import "github.com/devloic/kurve/protocol"

// Conn is the transport-facing half of a session. Implementations must
// not block the caller; the network layer buffers writes.
type Conn interface {
	Send([]byte) error
	Close() error
}

// Join: issued once after the hello handshake is parsed. Token, when
// non-empty, asks for a resume of the seat the credential was issued for.
type Join struct {
	Conn     Conn
	Nickname string
	Token    string
	Reply    chan<- JoinResult
}

type JoinResult struct {
	SessionID string
	Token     string
	Resumed   bool
	Player    protocol.PlayerSnapshot
	Room      protocol.RoomSnapshot
	Err       error
}

// KeyDown/KeyUp: relayed verbatim to every other session while running.
type KeyDown struct {
	SessionID string
	KeyCode   int
}

type KeyUp struct {
	SessionID string
	KeyCode   int
}

// Position: client-reported movement, overwrites the seat's fields.
type Position struct {
	SessionID string
	Update    protocol.PositionUpdate
}

// Died: the sender reports its own elimination.
type Died struct {
	SessionID string
}

// StartRound: requester-gated round start.
type StartRound struct {
	SessionID string
}

// TogglePause: any connected session may pause or resume.
type TogglePause struct {
	SessionID string
}

// Leave: voluntary departure. The seat is reclaimed immediately and the
// session's credential stops being honored.
type Leave struct {
	SessionID string
}

// Disconnect: unclean drop. The seat is reserved for the grace window so
// the session can resume with its credential.
type Disconnect struct {
	SessionID string
}

// Internal commands posted by timers back into the actor. Each carries
// the round generation it was armed under; stale generations are dropped.

type countdownStep struct {
	gen   int
	count int // 0 means the countdown elapsed and the round begins
}

// graceExpired needs no generation: resuming stops the timer and clears
// the pending entry, so a stale fire finds nothing to reclaim.
type graceExpired struct {
	sessionID string
}
