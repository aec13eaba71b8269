package game

import (
	"math"
	"math/rand"
)

// EventKind tags a change notification from the store.
type EventKind int

const (
	EventPlayerAdded EventKind = iota
	EventPlayerUpdated
	EventPlayerRemoved
	EventRoomChanged
)

// Event is published after a mutation has been committed. Player carries a
// copy of the record for added/updated events; Room carries a copy of the
// flags for room-level events.
type Event struct {
	Kind      EventKind
	SessionID string
	Player    *Player
	Room      Flags
}

// Flags are the room-wide replicated fields.
type Flags struct {
	IsRunning      bool
	IsRoundStarted bool
	IsPaused       bool
	IsGameOver     bool
	DeathMatch     bool
	CurrentFrameID int
	MaxPoints      int
	WinnerID       string
}

// State is the canonical replicated store: session -> player record plus
// the room flags. It is not safe for concurrent use; the owning room
// mutates it from a single goroutine. Observers registered with Subscribe
// are invoked synchronously after each committed mutation.
type State struct {
	players map[string]*Player
	flags   Flags
	subs    []func(Event)
}

func NewState() *State {
	return &State{players: make(map[string]*Player)}
}

func (s *State) Subscribe(fn func(Event)) {
	s.subs = append(s.subs, fn)
}

func (s *State) publish(ev Event) {
	for _, fn := range s.subs {
		fn(ev)
	}
}

func (s *State) publishPlayer(kind EventKind, sessionID string) {
	cp := *s.players[sessionID]
	s.publish(Event{Kind: kind, SessionID: sessionID, Player: &cp})
}

func (s *State) publishRoom() {
	s.publish(Event{Kind: EventRoomChanged, Room: s.flags})
}

func (s *State) PlayerCount() int { return len(s.players) }

// Player returns the record for a session, or nil for an absent session.
// The returned pointer is the live record; callers must not retain it.
func (s *State) Player(sessionID string) *Player { return s.players[sessionID] }

// SessionIDs returns the currently seated sessions in no particular order.
func (s *State) SessionIDs() []string {
	ids := make([]string, 0, len(s.players))
	for id := range s.players {
		ids = append(ids, id)
	}
	return ids
}

func (s *State) Flags() Flags { return s.flags }

// AddPlayer seats a session. The slot index is the current population;
// if a mid-list departure left that slot held, the first unheld slot is
// used instead so slot assignment stays injective.
func (s *State) AddPlayer(sessionID, nickname string) (*Player, error) {
	if len(s.players) >= MaxPlayers {
		return nil, ErrRoomFull
	}
	slot := Slots[len(s.players)]
	if s.slotHeld(slot.ID) {
		for _, cand := range Slots {
			if !s.slotHeld(cand.ID) {
				slot = cand
				break
			}
		}
	}
	p := NewPlayer(slot, nickname)
	s.players[sessionID] = p
	s.flags.MaxPoints = MaxPointsFor(len(s.players))
	s.publishPlayer(EventPlayerAdded, sessionID)
	s.publishRoom()
	return p, nil
}

func (s *State) slotHeld(slotID string) bool {
	for _, p := range s.players {
		if p.ID == slotID {
			return true
		}
	}
	return false
}

// RemovePlayer deletes a session's record and recomputes maxPoints.
func (s *State) RemovePlayer(sessionID string) bool {
	if _, ok := s.players[sessionID]; !ok {
		return false
	}
	delete(s.players, sessionID)
	s.flags.MaxPoints = MaxPointsFor(len(s.players))
	s.publish(Event{Kind: EventPlayerRemoved, SessionID: sessionID})
	s.publishRoom()
	return true
}

// UpdatePosition overwrites a player's client-reported movement fields.
// The report is trusted as-is; there is no plausibility check.
func (s *State) UpdatePosition(sessionID string, x, y, nextX, nextY, angle float64, invisible bool) bool {
	p, ok := s.players[sessionID]
	if !ok {
		return false
	}
	p.PositionX = x
	p.PositionY = y
	p.NextPositionX = nextX
	p.NextPositionY = nextY
	p.Angle = angle
	p.IsInvisible = invisible
	s.publishPlayer(EventPlayerUpdated, sessionID)
	return true
}

func (s *State) SetAlive(sessionID string, alive bool) bool {
	p, ok := s.players[sessionID]
	if !ok {
		return false
	}
	p.IsAlive = alive
	s.publishPlayer(EventPlayerUpdated, sessionID)
	return true
}

func (s *State) AwardPoint(sessionID string) {
	if p, ok := s.players[sessionID]; ok {
		p.Points++
		s.publishPlayer(EventPlayerUpdated, sessionID)
	}
}

// ResetForRound puts every seated player back into round-start shape:
// alive, visible, and at a fresh random spawn inset from the field border
// with a uniformly random heading.
func (s *State) ResetForRound() {
	for id, p := range s.players {
		p.IsAlive = true
		p.IsInvisible = false
		p.PositionX = SpawnInset + rand.Float64()*(FieldWidth-2*SpawnInset)
		p.PositionY = SpawnInset + rand.Float64()*(FieldHeight-2*SpawnInset)
		p.NextPositionX = p.PositionX
		p.NextPositionY = p.PositionY
		p.Angle = 2 * math.Pi * rand.Float64()
		s.publishPlayer(EventPlayerUpdated, id)
	}
}

func (s *State) AliveCount() int {
	n := 0
	for _, p := range s.players {
		if p.IsAlive {
			n++
		}
	}
	return n
}

// Survivors returns the session ids of players still alive.
func (s *State) Survivors() []string {
	var out []string
	for id, p := range s.players {
		if p.IsAlive {
			out = append(out, id)
		}
	}
	return out
}

// Flag mutators. Each commits and publishes a room-level change.

func (s *State) SetRunning(v bool) {
	s.flags.IsRunning = v
	s.publishRoom()
}

func (s *State) SetRoundStarted(v bool) {
	s.flags.IsRoundStarted = v
	s.publishRoom()
}

func (s *State) SetPaused(v bool) {
	s.flags.IsPaused = v
	s.publishRoom()
}

func (s *State) SetDeathMatch() {
	s.flags.DeathMatch = true
	s.publishRoom()
}

// SetGameOver marks the terminal state. WinnerID is set exactly once.
func (s *State) SetGameOver(winnerID string) {
	s.flags.IsGameOver = true
	s.flags.WinnerID = winnerID
	s.publishRoom()
}

func (s *State) ResetFrame() {
	s.flags.CurrentFrameID = 0
	s.publishRoom()
}

// AdvanceFrame increments the frame counter without publishing: the
// counter moves every simulation tick and is replicated on the periodic
// sync cadence instead of per mutation.
func (s *State) AdvanceFrame() { s.flags.CurrentFrameID++ }
