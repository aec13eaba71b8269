package protocol

// Payloads coming in from the client.

// Hello opens a session. ReconnectToken, when present, asks the room to
// resume the seat it was issued for instead of allocating a fresh one.
type Hello struct {
	V              int    `json:"v"`
	Nickname       string `json:"nickname,omitempty"`
	ReconnectToken string `json:"reconnectToken,omitempty"`
}

type KeyInput struct {
	KeyCode int `json:"keyCode"`
}

type PositionUpdate struct {
	PositionX     float64 `json:"positionX"`
	PositionY     float64 `json:"positionY"`
	NextPositionX float64 `json:"nextPositionX"`
	NextPositionY float64 `json:"nextPositionY"`
	Angle         float64 `json:"angle"`
	IsInvisible   bool    `json:"isInvisible"`
}
