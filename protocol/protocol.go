package protocol

import (
	"encoding/json"
)

// Client -> room message types.
const (
	MsgHello          = "hello"
	MsgKeyDown        = "keyDown"
	MsgKeyUp          = "keyUp"
	MsgUpdatePosition = "updatePosition"
	MsgPlayerDied     = "playerDied"
	MsgStartRound     = "startRound"
	MsgPauseGame      = "pauseGame"
	MsgLeave          = "leave"
)

// Room -> client message types.
const (
	MsgWelcome       = "welcome"
	MsgPlayerKeyDown = "playerKeyDown"
	MsgPlayerKeyUp   = "playerKeyUp"
	MsgCountdown     = "countdown"
	MsgRoundStarted  = "roundStarted"
	MsgRoundEnded    = "roundEnded"
	MsgGameOver      = "gameOver"
	MsgStartError    = "startError"
)

// Replication delta types. The room publishes one of these after every
// committed state mutation; clients rebuild their shadow entities from
// them and never poll.
const (
	MsgPlayerAdded   = "playerAdded"
	MsgPlayerUpdated = "playerUpdated"
	MsgPlayerRemoved = "playerRemoved"
	MsgRoomState     = "roomState"
	MsgSync          = "sync"
)

const (
	SimTickHz     = 60
	BroadcastHz   = 20
	CountdownFrom = 3
)

// Close code sent when a join is rejected because every seat is taken.
const CloseRoomFull = 4001

type Envelope struct {
	T string          `json:"t"`
	P json.RawMessage `json:"p"` // raw payload bytes
}
