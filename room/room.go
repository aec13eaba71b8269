package room

import (
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/devloic/kurve/game"
	"github.com/devloic/kurve/protocol"
)

const (
	DefaultCountdownStep = time.Second
	DefaultGraceWindow   = 30 * time.Second
)

// Room is the authoritative coordinator for one game session. All state
// mutation happens on the single goroutine draining Inbox; timers re-enter
// through Inbox instead of touching state from their own goroutines.
type Room struct {
	Inbox chan any

	Code    string           // room code (e.g. "ABC123")
	OnEmpty func(code string) // called when the last seat is reclaimed

	tickHz         int
	countdownStep  time.Duration
	grace          time.Duration
	broadcastEvery int

	state   *game.State
	clients map[string]Conn

	pending      map[string]*time.Timer // sessionID -> seat reservation timer
	credentials  map[string]string      // token -> sessionID
	sessionToken map[string]string      // sessionID -> currently honored token

	roundGen        int
	countdownTimers []*time.Timer

	seats    atomic.Int32
	stopOnce sync.Once
	quit     chan struct{}
}

type Option func(*Room)

// WithTickHz overrides the simulation tick rate. Tests use high rates to
// keep timing-sensitive assertions fast.
func WithTickHz(hz int) Option {
	return func(r *Room) { r.tickHz = hz }
}

// WithCountdownStep overrides the interval between countdown broadcasts.
func WithCountdownStep(d time.Duration) Option {
	return func(r *Room) { r.countdownStep = d }
}

// WithGraceWindow overrides the seat reservation window for reconnects.
func WithGraceWindow(d time.Duration) Option {
	return func(r *Room) { r.grace = d }
}

func New(opts ...Option) *Room {
	r := &Room{
		Inbox:         make(chan any, 256),
		tickHz:        protocol.SimTickHz,
		countdownStep: DefaultCountdownStep,
		grace:         DefaultGraceWindow,
		state:         game.NewState(),
		clients:       make(map[string]Conn),
		pending:       make(map[string]*time.Timer),
		credentials:   make(map[string]string),
		sessionToken:  make(map[string]string),
		quit:          make(chan struct{}),
	}
	for _, o := range opts {
		o(r)
	}
	r.broadcastEvery = r.tickHz / protocol.BroadcastHz
	if r.broadcastEvery <= 0 {
		r.broadcastEvery = 1
	}
	r.state.Subscribe(r.replicate)
	return r
}

func (r *Room) Stop() {
	r.stopOnce.Do(func() { close(r.quit) })
}

// NumPlayers returns the number of held seats, including seats reserved
// for a reconnecting session. Safe to call from any goroutine.
func (r *Room) NumPlayers() int {
	return int(r.seats.Load())
}

func (r *Room) Run() {
	ticker := time.NewTicker(time.Second / time.Duration(r.tickHz))
	defer ticker.Stop()
	defer r.shutdown()

	for {
		select {
		case <-r.quit:
			return
		case cmd := <-r.Inbox:
			r.handleCommand(cmd)
		case <-ticker.C:
			r.tick()
		}
	}
}

// post delivers a timer callback into the actor without blocking past
// disposal.
func (r *Room) post(cmd any) {
	select {
	case r.Inbox <- cmd:
	case <-r.quit:
	}
}

func (r *Room) handleCommand(cmd any) {
	switch c := cmd.(type) {
	case Join:
		r.handleJoin(c)
	case KeyDown:
		r.relayKey(c.SessionID, protocol.MsgPlayerKeyDown, c.KeyCode)
	case KeyUp:
		r.relayKey(c.SessionID, protocol.MsgPlayerKeyUp, c.KeyCode)
	case Position:
		u := c.Update
		r.state.UpdatePosition(c.SessionID, u.PositionX, u.PositionY, u.NextPositionX, u.NextPositionY, u.Angle, u.IsInvisible)
	case Died:
		if r.state.SetAlive(c.SessionID, false) {
			r.checkRoundEnd()
		}
	case StartRound:
		r.handleStartRound(c.SessionID)
	case TogglePause:
		r.handleTogglePause(c.SessionID)
	case Leave:
		r.removeSeat(c.SessionID)
	case Disconnect:
		r.handleDisconnect(c.SessionID)
	case countdownStep:
		r.handleCountdownStep(c)
	case graceExpired:
		r.handleGraceExpired(c.sessionID)
	}
}

func (r *Room) tick() {
	f := r.state.Flags()
	if !f.IsRunning || f.IsPaused {
		return
	}
	r.state.AdvanceFrame()
	if r.state.Flags().CurrentFrameID%r.broadcastEvery == 0 {
		r.broadcast(protocol.MsgSync, protocol.Sync{CurrentFrameID: r.state.Flags().CurrentFrameID})
	}
}

// --- admission and departure ---

func (r *Room) handleJoin(c Join) {
	if c.Token != "" {
		if res, ok := r.tryResume(c); ok {
			c.Reply <- res
			return
		}
		// Stale or used credential: fall through to a fresh join. The
		// client clears its token on seeing Resumed=false.
	}
	if r.state.PlayerCount() >= game.MaxPlayers {
		c.Reply <- JoinResult{Err: game.ErrRoomFull}
		return
	}

	sessionID := uuid.NewString()
	// Seat first so the add delta reaches existing clients; the joiner's
	// conn is registered afterwards and learns its own record from the
	// welcome instead.
	p, err := r.state.AddPlayer(sessionID, c.Nickname)
	if err != nil {
		c.Reply <- JoinResult{Err: err}
		return
	}
	token := r.issueToken(sessionID)
	r.seats.Store(int32(r.state.PlayerCount()))

	welcome := protocol.Welcome{
		SessionID:      sessionID,
		ReconnectToken: token,
		Player:         playerSnapshot(p),
		Room:           roomSnapshot(r.state.Flags()),
	}
	r.sendToConn(c.Conn, protocol.MsgWelcome, welcome)
	r.sendRoster(c.Conn, sessionID)
	r.clients[sessionID] = c.Conn

	log.Printf("room %s: %s joined as %s (%d/%d)", r.Code, sessionID, p.ID, r.state.PlayerCount(), game.MaxPlayers)
	c.Reply <- JoinResult{
		SessionID: sessionID,
		Token:     token,
		Player:    welcome.Player,
		Room:      welcome.Room,
	}
}

func (r *Room) tryResume(c Join) (JoinResult, bool) {
	sessionID, ok := r.credentials[c.Token]
	if !ok {
		return JoinResult{}, false
	}
	timer, reserved := r.pending[sessionID]
	if !reserved {
		// Credential exists but the seat is not waiting: either the old
		// connection is still live or the seat was already reclaimed.
		return JoinResult{}, false
	}
	p := r.state.Player(sessionID)
	if p == nil {
		return JoinResult{}, false
	}

	timer.Stop()
	delete(r.pending, sessionID)
	delete(r.credentials, c.Token) // single use
	token := r.issueToken(sessionID)

	welcome := protocol.Welcome{
		SessionID:      sessionID,
		ReconnectToken: token,
		Resumed:        true,
		Player:         playerSnapshot(p),
		Room:           roomSnapshot(r.state.Flags()),
	}
	r.sendToConn(c.Conn, protocol.MsgWelcome, welcome)
	r.sendRoster(c.Conn, sessionID)
	r.clients[sessionID] = c.Conn

	log.Printf("room %s: %s resumed seat %s", r.Code, sessionID, p.ID)
	return JoinResult{
		SessionID: sessionID,
		Token:     token,
		Resumed:   true,
		Player:    welcome.Player,
		Room:      welcome.Room,
	}, true
}

// sendRoster replays every other seated player to a fresh connection.
func (r *Room) sendRoster(conn Conn, except string) {
	for _, id := range r.state.SessionIDs() {
		if id == except {
			continue
		}
		r.sendToConn(conn, protocol.MsgPlayerAdded, protocol.PlayerAdded{
			SessionID: id,
			Player:    playerSnapshot(r.state.Player(id)),
		})
	}
}

func (r *Room) issueToken(sessionID string) string {
	if old, ok := r.sessionToken[sessionID]; ok {
		delete(r.credentials, old)
	}
	token := uuid.NewString()
	r.credentials[token] = sessionID
	r.sessionToken[sessionID] = token
	return token
}

func (r *Room) invalidateToken(sessionID string) {
	if token, ok := r.sessionToken[sessionID]; ok {
		delete(r.credentials, token)
		delete(r.sessionToken, sessionID)
	}
}

func (r *Room) handleDisconnect(sessionID string) {
	if r.state.Player(sessionID) == nil {
		return
	}
	if _, alreadyPending := r.pending[sessionID]; alreadyPending {
		return
	}
	if conn, ok := r.clients[sessionID]; ok {
		_ = conn.Close()
		delete(r.clients, sessionID)
	}
	log.Printf("room %s: %s dropped, seat reserved for %s", r.Code, sessionID, r.grace)
	r.pending[sessionID] = time.AfterFunc(r.grace, func() {
		r.post(graceExpired{sessionID: sessionID})
	})
}

func (r *Room) handleGraceExpired(sessionID string) {
	if _, ok := r.pending[sessionID]; !ok {
		return // resumed in the meantime
	}
	delete(r.pending, sessionID)
	log.Printf("room %s: %s never resumed, reclaiming seat", r.Code, sessionID)
	r.removeSeat(sessionID)
}

// removeSeat is the one path that deletes a player record: voluntary
// leave, grace expiry, and send failure cleanup all end here.
func (r *Room) removeSeat(sessionID string) {
	r.invalidateToken(sessionID)
	if conn, ok := r.clients[sessionID]; ok {
		_ = conn.Close()
		delete(r.clients, sessionID)
	}
	if t, ok := r.pending[sessionID]; ok {
		t.Stop()
		delete(r.pending, sessionID)
	}
	if !r.state.RemovePlayer(sessionID) {
		return
	}
	r.seats.Store(int32(r.state.PlayerCount()))
	log.Printf("room %s: %s left (%d/%d)", r.Code, sessionID, r.state.PlayerCount(), game.MaxPlayers)

	f := r.state.Flags()
	if f.IsRoundStarted && !f.IsRunning && !f.IsGameOver && r.state.PlayerCount() < 2 {
		// Leave invalidated a countdown in progress.
		r.abortCountdown()
	}
	r.checkRoundEnd()

	if len(r.clients) == 0 && len(r.pending) == 0 && r.OnEmpty != nil && r.Code != "" {
		r.OnEmpty(r.Code)
	}
}

// --- relay ---

func (r *Room) relayKey(sessionID, msgType string, keyCode int) {
	if r.state.Player(sessionID) == nil || !r.state.Flags().IsRunning {
		return // late or stale input, expected and harmless
	}
	r.broadcastExcept(sessionID, msgType, protocol.PlayerKey{PlayerID: sessionID, KeyCode: keyCode})
}

// --- round state machine ---

func (r *Room) handleStartRound(sessionID string) {
	if _, ok := r.clients[sessionID]; !ok {
		return
	}
	f := r.state.Flags()
	if f.IsGameOver {
		r.sendTo(sessionID, protocol.MsgStartError, protocol.StartError{Message: "game is over"})
		return
	}
	if r.state.PlayerCount() < 2 {
		r.sendTo(sessionID, protocol.MsgStartError, protocol.StartError{Message: "Need at least 2 players to start"})
		return
	}
	if f.IsRoundStarted {
		return
	}
	r.beginCountdown()
}

func (r *Room) beginCountdown() {
	r.roundGen++
	gen := r.roundGen

	r.state.SetRoundStarted(true)
	r.state.ResetFrame()
	r.state.ResetForRound()

	r.broadcast(protocol.MsgCountdown, protocol.Countdown{Count: protocol.CountdownFrom})
	for i := 1; i <= protocol.CountdownFrom; i++ {
		count := protocol.CountdownFrom - i // 0 on the last step starts the round
		delay := time.Duration(i) * r.countdownStep
		r.countdownTimers = append(r.countdownTimers, time.AfterFunc(delay, func() {
			r.post(countdownStep{gen: gen, count: count})
		}))
	}
}

func (r *Room) handleCountdownStep(c countdownStep) {
	if c.gen != r.roundGen {
		return // armed for a round that no longer exists
	}
	f := r.state.Flags()
	if !f.IsRoundStarted || f.IsRunning || f.IsGameOver {
		return
	}
	if r.state.PlayerCount() < 2 {
		r.abortCountdown()
		return
	}
	if c.count > 0 {
		r.broadcast(protocol.MsgCountdown, protocol.Countdown{Count: c.count})
		return
	}
	r.broadcast(protocol.MsgRoundStarted, protocol.RoundStarted{})
	r.state.SetRunning(true)
}

func (r *Room) abortCountdown() {
	r.roundGen++
	for _, t := range r.countdownTimers {
		t.Stop()
	}
	r.countdownTimers = r.countdownTimers[:0]
	r.state.SetRoundStarted(false)
	log.Printf("room %s: countdown aborted, not enough players", r.Code)
}

func (r *Room) handleTogglePause(sessionID string) {
	if r.state.Player(sessionID) == nil {
		return
	}
	r.state.SetPaused(!r.state.Flags().IsPaused)
}

// checkRoundEnd runs whenever an alive flag flips or a seat is reclaimed.
// Survivors score first, then the game-winner scan runs on the updated
// points.
func (r *Room) checkRoundEnd() {
	f := r.state.Flags()
	if !f.IsRunning || r.state.AliveCount() > 1 {
		return
	}

	r.roundGen++
	r.countdownTimers = r.countdownTimers[:0]
	r.state.SetRunning(false)
	r.state.SetRoundStarted(false)

	survivors := r.state.Survivors()
	for _, id := range survivors {
		r.state.AwardPoint(id)
	}
	var roundWinner *string
	if len(survivors) == 1 {
		slotID := r.state.Player(survivors[0]).ID
		roundWinner = &slotID
	}

	if f.DeathMatch {
		// Sudden death: the sole survivor wins outright, points do not
		// matter anymore.
		if roundWinner != nil {
			r.state.SetGameOver(*roundWinner)
			r.broadcast(protocol.MsgGameOver, protocol.GameOver{WinnerID: *roundWinner})
			return
		}
		r.broadcast(protocol.MsgRoundEnded, protocol.RoundEnded{RoundWinnerID: nil})
		return
	}

	winners := r.state.GameWinners()
	switch {
	case len(winners) == 1:
		slotID := r.state.Player(winners[0]).ID
		r.state.SetGameOver(slotID)
		r.broadcast(protocol.MsgGameOver, protocol.GameOver{WinnerID: slotID})
	case len(winners) > 1:
		// Simultaneous threshold: nobody wins yet, the tie goes to
		// sudden death.
		r.state.SetDeathMatch()
		r.broadcast(protocol.MsgRoundEnded, protocol.RoundEnded{RoundWinnerID: roundWinner})
	default:
		r.broadcast(protocol.MsgRoundEnded, protocol.RoundEnded{RoundWinnerID: roundWinner})
	}
}

// --- replication and delivery ---

// replicate is the store observer: every committed mutation becomes a
// delta broadcast to all connected sessions.
func (r *Room) replicate(ev game.Event) {
	switch ev.Kind {
	case game.EventPlayerAdded:
		r.broadcast(protocol.MsgPlayerAdded, protocol.PlayerAdded{SessionID: ev.SessionID, Player: playerSnapshot(ev.Player)})
	case game.EventPlayerUpdated:
		r.broadcast(protocol.MsgPlayerUpdated, protocol.PlayerUpdated{SessionID: ev.SessionID, Player: playerSnapshot(ev.Player)})
	case game.EventPlayerRemoved:
		r.broadcast(protocol.MsgPlayerRemoved, protocol.PlayerRemoved{SessionID: ev.SessionID})
	case game.EventRoomChanged:
		r.broadcast(protocol.MsgRoomState, protocol.RoomState{Room: roomSnapshot(ev.Room)})
	}
}

func (r *Room) broadcast(t string, payload any) {
	b, err := protocol.Encode(t, payload)
	if err != nil {
		return
	}
	var failed []string
	for id, c := range r.clients {
		if err := c.Send(b); err != nil {
			failed = append(failed, id)
		}
	}
	for _, id := range failed {
		r.handleDisconnect(id)
	}
}

func (r *Room) broadcastExcept(except, t string, payload any) {
	b, err := protocol.Encode(t, payload)
	if err != nil {
		return
	}
	var failed []string
	for id, c := range r.clients {
		if id == except {
			continue
		}
		if err := c.Send(b); err != nil {
			failed = append(failed, id)
		}
	}
	for _, id := range failed {
		r.handleDisconnect(id)
	}
}

func (r *Room) sendTo(sessionID, t string, payload any) {
	c, ok := r.clients[sessionID]
	if !ok {
		return
	}
	r.sendToConn(c, t, payload)
}

func (r *Room) sendToConn(c Conn, t string, payload any) {
	b, err := protocol.Encode(t, payload)
	if err != nil {
		return
	}
	_ = c.Send(b)
}

// shutdown releases every resource the room holds. Stopping an already
// fired timer is a no-op, so disposal is safe to race with them.
func (r *Room) shutdown() {
	for _, t := range r.countdownTimers {
		t.Stop()
	}
	r.countdownTimers = nil
	for id, t := range r.pending {
		t.Stop()
		delete(r.pending, id)
	}
	for id, c := range r.clients {
		_ = c.Close()
		delete(r.clients, id)
	}
	log.Printf("room %s: disposed", r.Code)
}
