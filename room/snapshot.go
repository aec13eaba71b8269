package room

import (
	"github.com/devloic/kurve/game"
	"github.com/devloic/kurve/protocol"
)

func playerSnapshot(p *game.Player) protocol.PlayerSnapshot {
	return protocol.PlayerSnapshot{
		ID:              p.ID,
		Nickname:        p.Nickname,
		Color:           p.Color,
		PositionX:       p.PositionX,
		PositionY:       p.PositionY,
		NextPositionX:   p.NextPositionX,
		NextPositionY:   p.NextPositionY,
		Angle:           p.Angle,
		Points:          p.Points,
		IsAlive:         p.IsAlive,
		IsInvisible:     p.IsInvisible,
		KeyLeft:         p.KeyLeft,
		KeyRight:        p.KeyRight,
		KeySuperpower:   p.KeySuperpower,
		SuperpowerType:  p.SuperpowerType,
		SuperpowerCount: p.SuperpowerCount,
	}
}

func roomSnapshot(f game.Flags) protocol.RoomSnapshot {
	return protocol.RoomSnapshot{
		IsRunning:      f.IsRunning,
		IsRoundStarted: f.IsRoundStarted,
		IsPaused:       f.IsPaused,
		IsGameOver:     f.IsGameOver,
		DeathMatch:     f.DeathMatch,
		CurrentFrameID: f.CurrentFrameID,
		MaxPoints:      f.MaxPoints,
		WinnerID:       f.WinnerID,
	}
}
