package game

import "errors"

var (
	// ErrRoomFull rejects a join when all seats are taken.
	ErrRoomFull = errors.New("room is full")

	// ErrInsufficientPlayers rejects a round start with fewer than two
	// connected sessions. Reported to the requester only.
	ErrInsufficientPlayers = errors.New("need at least 2 players to start")

	// ErrReconnectFailed rejects a resume with an unknown, expired or
	// already-used credential.
	ErrReconnectFailed = errors.New("reconnection failed")
)
