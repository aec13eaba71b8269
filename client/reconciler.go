package client

import (
	"sync"

	"github.com/devloic/kurve/protocol"
)

// Segment kinds passed to the renderer. A visible trail is drawn in the
// player's color; an invisible gap is still tracked for power-up logic.
const (
	SegmentCurve   = "curve"
	SegmentPowerUp = "powerUp"
)

// Renderer receives drawing work synthesized from replicated snapshots.
// The actual canvas lives outside this package.
type Renderer interface {
	DrawSegment(kind string, fromX, fromY, toX, toY float64, color string)
	RenderScores(players []protocol.PlayerSnapshot)
}

// Events are optional hooks for the room's event messages.
type Events struct {
	OnCountdown    func(count int)
	OnRoundStarted func()
	OnRoundEnded   func(roundWinnerID *string)
	OnGameOver     func(winnerID string)
	OnStartError   func(message string)
}

// Shadow mirrors one remote session's replicated state. Remote shadows
// are never simulated locally; their position moves only when a snapshot
// arrives.
type Shadow struct {
	SessionID string
	Player    protocol.PlayerSnapshot
	KeysDown  map[int]bool

	prevX, prevY float64
	hasPrev      bool
}

// Reconciler maps replicated deltas onto local shadow entities. It owns
// no authoritative data; everything it holds is rebuilt from the stream.
type Reconciler struct {
	mu       sync.RWMutex
	localID  string
	room     protocol.RoomSnapshot
	shadows  map[string]*Shadow
	renderer Renderer
	events   Events
}

func NewReconciler(renderer Renderer, events Events) *Reconciler {
	return &Reconciler{
		shadows:  make(map[string]*Shadow),
		renderer: renderer,
		events:   events,
	}
}

// ApplyWelcome seeds the local identity and the local shadow.
func (rc *Reconciler) ApplyWelcome(w protocol.Welcome) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.localID = w.SessionID
	rc.room = w.Room
	rc.shadows[w.SessionID] = &Shadow{
		SessionID: w.SessionID,
		Player:    w.Player,
		KeysDown:  make(map[int]bool),
	}
}

// Apply folds one room message into the shadow set.
func (rc *Reconciler) Apply(env protocol.Envelope) error {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	switch env.T {
	case protocol.MsgPlayerAdded:
		p, err := protocol.DecodePayload[protocol.PlayerAdded](env)
		if err != nil {
			return err
		}
		rc.shadows[p.SessionID] = &Shadow{
			SessionID: p.SessionID,
			Player:    p.Player,
			KeysDown:  make(map[int]bool),
		}
		rc.renderScoresLocked()

	case protocol.MsgPlayerUpdated:
		p, err := protocol.DecodePayload[protocol.PlayerUpdated](env)
		if err != nil {
			return err
		}
		rc.applyPlayerUpdateLocked(p.SessionID, p.Player)

	case protocol.MsgPlayerRemoved:
		p, err := protocol.DecodePayload[protocol.PlayerRemoved](env)
		if err != nil {
			return err
		}
		delete(rc.shadows, p.SessionID)
		rc.renderScoresLocked()

	case protocol.MsgRoomState:
		p, err := protocol.DecodePayload[protocol.RoomState](env)
		if err != nil {
			return err
		}
		rc.room = p.Room

	case protocol.MsgSync:
		p, err := protocol.DecodePayload[protocol.Sync](env)
		if err != nil {
			return err
		}
		rc.room.CurrentFrameID = p.CurrentFrameID

	case protocol.MsgPlayerKeyDown:
		p, err := protocol.DecodePayload[protocol.PlayerKey](env)
		if err != nil {
			return err
		}
		if s, ok := rc.shadows[p.PlayerID]; ok {
			s.KeysDown[p.KeyCode] = true
		}

	case protocol.MsgPlayerKeyUp:
		p, err := protocol.DecodePayload[protocol.PlayerKey](env)
		if err != nil {
			return err
		}
		if s, ok := rc.shadows[p.PlayerID]; ok {
			delete(s.KeysDown, p.KeyCode)
		}

	case protocol.MsgCountdown:
		p, err := protocol.DecodePayload[protocol.Countdown](env)
		if err != nil {
			return err
		}
		if rc.events.OnCountdown != nil {
			rc.events.OnCountdown(p.Count)
		}

	case protocol.MsgRoundStarted:
		// Fresh round: forget stale trail anchors.
		for _, s := range rc.shadows {
			s.hasPrev = false
		}
		if rc.events.OnRoundStarted != nil {
			rc.events.OnRoundStarted()
		}

	case protocol.MsgRoundEnded:
		p, err := protocol.DecodePayload[protocol.RoundEnded](env)
		if err != nil {
			return err
		}
		if rc.events.OnRoundEnded != nil {
			rc.events.OnRoundEnded(p.RoundWinnerID)
		}

	case protocol.MsgGameOver:
		p, err := protocol.DecodePayload[protocol.GameOver](env)
		if err != nil {
			return err
		}
		if rc.events.OnGameOver != nil {
			rc.events.OnGameOver(p.WinnerID)
		}

	case protocol.MsgStartError:
		p, err := protocol.DecodePayload[protocol.StartError](env)
		if err != nil {
			return err
		}
		if rc.events.OnStartError != nil {
			rc.events.OnStartError(p.Message)
		}
	}
	return nil
}

func (rc *Reconciler) applyPlayerUpdateLocked(sessionID string, p protocol.PlayerSnapshot) {
	s, ok := rc.shadows[sessionID]
	if !ok {
		return
	}
	prevPoints := s.Player.Points
	oldX, oldY, hadPrev := s.prevX, s.prevY, s.hasPrev

	// Remote shadows synthesize a trail between consecutive snapshots.
	// The local session draws its own curve from input, not from echoes.
	if sessionID != rc.localID && rc.room.IsRunning && p.IsAlive && rc.renderer != nil && hadPrev {
		if p.IsInvisible {
			rc.renderer.DrawSegment(SegmentPowerUp, oldX, oldY, p.PositionX, p.PositionY, "")
		} else {
			rc.renderer.DrawSegment(SegmentCurve, oldX, oldY, p.PositionX, p.PositionY, p.Color)
		}
	}

	s.Player = p
	s.prevX, s.prevY = p.PositionX, p.PositionY
	s.hasPrev = true

	if p.Points != prevPoints {
		rc.renderScoresLocked()
	}
}

func (rc *Reconciler) renderScoresLocked() {
	if rc.renderer == nil {
		return
	}
	players := make([]protocol.PlayerSnapshot, 0, len(rc.shadows))
	for _, s := range rc.shadows {
		players = append(players, s.Player)
	}
	rc.renderer.RenderScores(players)
}

// UpdateLocalPosition moves the local shadow from input. Remote shadows
// move only on snapshots; the local one never waits for its own echo.
func (rc *Reconciler) UpdateLocalPosition(u protocol.PositionUpdate) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	s, ok := rc.shadows[rc.localID]
	if !ok {
		return
	}
	s.Player.PositionX = u.PositionX
	s.Player.PositionY = u.PositionY
	s.Player.NextPositionX = u.NextPositionX
	s.Player.NextPositionY = u.NextPositionY
	s.Player.Angle = u.Angle
	s.Player.IsInvisible = u.IsInvisible
	s.prevX, s.prevY = u.PositionX, u.PositionY
	s.hasPrev = true
}

// LocalID returns the session id assigned by the welcome.
func (rc *Reconciler) LocalID() string {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	return rc.localID
}

// Room returns the latest replicated room flags.
func (rc *Reconciler) Room() protocol.RoomSnapshot {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	return rc.room
}

// Shadow returns a copy of a session's shadow, if present.
func (rc *Reconciler) Shadow(sessionID string) (Shadow, bool) {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	s, ok := rc.shadows[sessionID]
	if !ok {
		return Shadow{}, false
	}
	cp := *s
	return cp, true
}

// NumShadows reports how many sessions are mirrored, local included.
func (rc *Reconciler) NumShadows() int {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	return len(rc.shadows)
}
