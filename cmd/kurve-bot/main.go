package main

import (
	"flag"
	"log"
	"math"
	"math/rand"
	"time"

	"github.com/devloic/kurve/client"
	"github.com/devloic/kurve/game"
	"github.com/devloic/kurve/protocol"
)

// kurve-bot joins a room as a headless player: it starts rounds, steers a
// curve along its reported heading, and dies when it hits the field
// border. Useful for filling seats during development.

var (
	serverURL = flag.String("url", "ws://localhost:2568/ws", "room websocket endpoint")
	nickname  = flag.String("nickname", "bot", "player nickname")
	start     = flag.Bool("start", false, "request a round start once connected")
	speed     = flag.Float64("speed", 2.0, "units moved per update")
)

type logRenderer struct{}

func (logRenderer) DrawSegment(kind string, fromX, fromY, toX, toY float64, color string) {}

func (logRenderer) RenderScores(players []protocol.PlayerSnapshot) {
	for _, p := range players {
		log.Printf("score %s (%s): %d", p.Nickname, p.ID, p.Points)
	}
}

func main() {
	flag.Parse()

	creds := &client.MemoryCredentialStore{}
	roundRunning := make(chan struct{}, 1)

	rec := client.NewReconciler(logRenderer{}, client.Events{
		OnCountdown: func(count int) { log.Printf("countdown: %d", count) },
		OnRoundStarted: func() {
			select {
			case roundRunning <- struct{}{}:
			default:
			}
		},
		OnRoundEnded: func(roundWinnerID *string) {
			if roundWinnerID != nil {
				log.Printf("round over, winner: %s", *roundWinnerID)
			} else {
				log.Printf("round over, no survivor")
			}
		},
		OnGameOver:   func(winnerID string) { log.Printf("game over, winner: %s", winnerID) },
		OnStartError: func(message string) { log.Printf("start rejected: %s", message) },
	})

	c, err := client.Dial(*serverURL, *nickname, creds, rec)
	if err != nil {
		log.Fatalf("dial: %v", err)
	}
	log.Printf("joined as session %s (resumed=%v)", c.SessionID(), c.Resumed())

	go func() {
		if err := c.Listen(); err != nil {
			log.Fatalf("connection lost: %v", err)
		}
	}()

	if *start {
		time.Sleep(500 * time.Millisecond)
		if err := c.SendStartRound(); err != nil {
			log.Fatalf("startRound: %v", err)
		}
	}

	for {
		<-roundRunning
		runRound(c, rec)
	}
}

// runRound steers until the curve leaves the field, then reports death.
func runRound(c *client.Client, rec *client.Reconciler) {
	shadow, ok := rec.Shadow(c.SessionID())
	if !ok {
		return
	}
	x, y := shadow.Player.PositionX, shadow.Player.PositionY
	angle := shadow.Player.Angle

	ticker := time.NewTicker(time.Second / protocol.SimTickHz)
	defer ticker.Stop()

	for range ticker.C {
		if !rec.Room().IsRunning {
			return
		}
		angle += (rand.Float64() - 0.5) * 0.2
		x += math.Cos(angle) * *speed
		y += math.Sin(angle) * *speed

		if x < 0 || x > game.FieldWidth || y < 0 || y > game.FieldHeight {
			log.Printf("hit the border at (%.0f, %.0f)", x, y)
			_ = c.SendPlayerDied()
			return
		}

		err := c.SendPosition(protocol.PositionUpdate{
			PositionX:     x,
			PositionY:     y,
			NextPositionX: x + math.Cos(angle)**speed,
			NextPositionY: y + math.Sin(angle)**speed,
			Angle:         angle,
		})
		if err != nil {
			return
		}
	}
}
