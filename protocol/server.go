package protocol

// Payloads the room sends to clients.

// Welcome answers a successful hello. The token replaces whatever
// credential the client presented; tokens are single-use.
type Welcome struct {
	SessionID      string         `json:"sessionId"`
	ReconnectToken string         `json:"reconnectToken"`
	Resumed        bool           `json:"resumed"`
	Player         PlayerSnapshot `json:"player"`
	Room           RoomSnapshot   `json:"room"`
}

// PlayerSnapshot is the full replicated view of one seat.
type PlayerSnapshot struct {
	ID              string  `json:"id"` // slot id, "player1".."player6"
	Nickname        string  `json:"nickname"`
	Color           string  `json:"color"`
	PositionX       float64 `json:"positionX"`
	PositionY       float64 `json:"positionY"`
	NextPositionX   float64 `json:"nextPositionX"`
	NextPositionY   float64 `json:"nextPositionY"`
	Angle           float64 `json:"angle"`
	Points          int     `json:"points"`
	IsAlive         bool    `json:"isAlive"`
	IsInvisible     bool    `json:"isInvisible"`
	KeyLeft         int     `json:"keyLeft"`
	KeyRight        int     `json:"keyRight"`
	KeySuperpower   int     `json:"keySuperpower"`
	SuperpowerType  string  `json:"superpowerType"`
	SuperpowerCount int     `json:"superpowerCount"`
}

// RoomSnapshot is the replicated view of the room-level flags.
type RoomSnapshot struct {
	IsRunning      bool   `json:"isRunning"`
	IsRoundStarted bool   `json:"isRoundStarted"`
	IsPaused       bool   `json:"isPaused"`
	IsGameOver     bool   `json:"isGameOver"`
	DeathMatch     bool   `json:"deathMatch"`
	CurrentFrameID int    `json:"currentFrameId"`
	MaxPoints      int    `json:"maxPoints"`
	WinnerID       string `json:"winnerId"`
}

// Replication deltas, one per committed mutation.

type PlayerAdded struct {
	SessionID string         `json:"sessionId"`
	Player    PlayerSnapshot `json:"player"`
}

type PlayerUpdated struct {
	SessionID string         `json:"sessionId"`
	Player    PlayerSnapshot `json:"player"`
}

type PlayerRemoved struct {
	SessionID string `json:"sessionId"`
}

type RoomState struct {
	Room RoomSnapshot `json:"room"`
}

// Sync carries the frame counter at the broadcast cadence; the counter
// advances every simulation tick and does not get a delta per tick.
type Sync struct {
	CurrentFrameID int `json:"currentFrameId"`
}

// Event messages.

type PlayerKey struct {
	PlayerID string `json:"playerId"` // session id of the key's owner
	KeyCode  int    `json:"keyCode"`
}

type Countdown struct {
	Count int `json:"count"`
}

type RoundStarted struct{}

type RoundEnded struct {
	RoundWinnerID *string `json:"roundWinnerId"` // slot id, null when nobody survived
}

type GameOver struct {
	WinnerID string `json:"winnerId"` // slot id
}

type StartError struct {
	Message string `json:"message"`
}
