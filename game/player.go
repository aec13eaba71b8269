package game

// NoSuperpower is the default power tag for a fresh seat.
const NoSuperpower = "NO_SUPERPOWER"

// Player is the authoritative record for one seated session. Position
// fields are client-reported; the server stores and replicates them
// without simulating movement.
type Player struct {
	ID       string // slot id, "player1".."player6"
	Nickname string
	Color    string

	PositionX     float64
	PositionY     float64
	NextPositionX float64
	NextPositionY float64
	Angle         float64
	IsInvisible   bool

	IsAlive bool
	Points  int

	KeyLeft       int
	KeyRight      int
	KeySuperpower int

	SuperpowerType  string
	SuperpowerCount int
}
