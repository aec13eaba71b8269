package game

// SlotConfig fixes the identity every seat carries: the slot id shown to
// other clients, the keyboard bindings the client should map, and the
// palette color. Assignment is by join order.
type SlotConfig struct {
	ID            string
	KeyLeft       int
	KeyRight      int
	KeySuperpower int
	Color         string
}

var Slots = [MaxPlayers]SlotConfig{
	{ID: "player1", KeyLeft: 65, KeyRight: 68, KeySuperpower: 83, Color: "#1abc9c"},   // A, D, S
	{ID: "player2", KeyLeft: 74, KeyRight: 76, KeySuperpower: 75, Color: "#3498db"},   // J, L, K
	{ID: "player3", KeyLeft: 37, KeyRight: 39, KeySuperpower: 38, Color: "#9b59b6"},   // Left, Right, Up
	{ID: "player4", KeyLeft: 89, KeyRight: 67, KeySuperpower: 88, Color: "#e74c3c"},   // Y, C, X
	{ID: "player5", KeyLeft: 78, KeyRight: 188, KeySuperpower: 77, Color: "#f39c12"},  // N, Comma, M
	{ID: "player6", KeyLeft: 103, KeyRight: 105, KeySuperpower: 104, Color: "#2ecc71"}, // Numpad 7, 9, 8
}

// NewPlayer builds the record for a seat, defaulting the nickname to the
// slot id when the client supplied none.
func NewPlayer(slot SlotConfig, nickname string) *Player {
	if nickname == "" {
		nickname = slot.ID
	}
	return &Player{
		ID:             slot.ID,
		Nickname:       nickname,
		Color:          slot.Color,
		KeyLeft:        slot.KeyLeft,
		KeyRight:       slot.KeyRight,
		KeySuperpower:  slot.KeySuperpower,
		IsAlive:        true,
		SuperpowerType: NoSuperpower,
	}
}
