package client

import (
	"testing"

	"github.com/devloic/kurve/protocol"
)

type recordedSegment struct {
	kind                   string
	fromX, fromY, toX, toY float64
	color                  string
}

type fakeRenderer struct {
	segments    []recordedSegment
	scoreRedraw int
}

func (f *fakeRenderer) DrawSegment(kind string, fromX, fromY, toX, toY float64, color string) {
	f.segments = append(f.segments, recordedSegment{kind, fromX, fromY, toX, toY, color})
}

func (f *fakeRenderer) RenderScores(players []protocol.PlayerSnapshot) {
	f.scoreRedraw++
}

func mustEnvelope(t *testing.T, msgType string, payload any) protocol.Envelope {
	t.Helper()
	b, err := protocol.Encode(msgType, payload)
	if err != nil {
		t.Fatalf("encode %s: %v", msgType, err)
	}
	env, err := protocol.DecodeEnvelope(b)
	if err != nil {
		t.Fatalf("decode %s: %v", msgType, err)
	}
	return env
}

func runningRoom() protocol.RoomSnapshot {
	return protocol.RoomSnapshot{IsRunning: true, IsRoundStarted: true, MaxPoints: 10}
}

func seedLocal(t *testing.T, rc *Reconciler) {
	t.Helper()
	rc.ApplyWelcome(protocol.Welcome{
		SessionID: "local-sess",
		Player:    protocol.PlayerSnapshot{ID: "player1", Color: "#1abc9c", IsAlive: true},
		Room:      runningRoom(),
	})
}

func addRemote(t *testing.T, rc *Reconciler, sessionID, slot, color string) {
	t.Helper()
	err := rc.Apply(mustEnvelope(t, protocol.MsgPlayerAdded, protocol.PlayerAdded{
		SessionID: sessionID,
		Player:    protocol.PlayerSnapshot{ID: slot, Color: color, IsAlive: true},
	}))
	if err != nil {
		t.Fatalf("apply playerAdded: %v", err)
	}
}

func update(t *testing.T, rc *Reconciler, sessionID string, p protocol.PlayerSnapshot) {
	t.Helper()
	err := rc.Apply(mustEnvelope(t, protocol.MsgPlayerUpdated, protocol.PlayerUpdated{
		SessionID: sessionID,
		Player:    p,
	}))
	if err != nil {
		t.Fatalf("apply playerUpdated: %v", err)
	}
}

func TestWelcomeSeedsLocalShadow(t *testing.T) {
	rc := NewReconciler(&fakeRenderer{}, Events{})
	seedLocal(t, rc)

	if rc.LocalID() != "local-sess" {
		t.Fatalf("local id = %q", rc.LocalID())
	}
	s, ok := rc.Shadow("local-sess")
	if !ok || s.Player.ID != "player1" {
		t.Fatalf("local shadow missing or wrong: %+v", s)
	}
}

func TestRemoteUpdateDrawsTrailSegment(t *testing.T) {
	fr := &fakeRenderer{}
	rc := NewReconciler(fr, Events{})
	seedLocal(t, rc)
	addRemote(t, rc, "remote-sess", "player2", "#3498db")

	// First snapshot establishes the anchor; no segment yet.
	update(t, rc, "remote-sess", protocol.PlayerSnapshot{
		ID: "player2", Color: "#3498db", IsAlive: true, PositionX: 100, PositionY: 100,
	})
	if len(fr.segments) != 0 {
		t.Fatalf("segment drawn with no prior position: %+v", fr.segments)
	}

	update(t, rc, "remote-sess", protocol.PlayerSnapshot{
		ID: "player2", Color: "#3498db", IsAlive: true, PositionX: 110, PositionY: 105,
	})
	if len(fr.segments) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(fr.segments))
	}
	seg := fr.segments[0]
	if seg.kind != SegmentCurve || seg.color != "#3498db" {
		t.Fatalf("segment = %+v", seg)
	}
	if seg.fromX != 100 || seg.fromY != 100 || seg.toX != 110 || seg.toY != 105 {
		t.Fatalf("segment coords = %+v", seg)
	}
}

func TestInvisibleUpdateDrawsGapSegment(t *testing.T) {
	fr := &fakeRenderer{}
	rc := NewReconciler(fr, Events{})
	seedLocal(t, rc)
	addRemote(t, rc, "remote-sess", "player2", "#3498db")

	update(t, rc, "remote-sess", protocol.PlayerSnapshot{
		ID: "player2", IsAlive: true, PositionX: 10, PositionY: 10,
	})
	update(t, rc, "remote-sess", protocol.PlayerSnapshot{
		ID: "player2", IsAlive: true, IsInvisible: true, PositionX: 20, PositionY: 20,
	})

	if len(fr.segments) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(fr.segments))
	}
	if fr.segments[0].kind != SegmentPowerUp {
		t.Fatalf("segment kind = %q, want %q", fr.segments[0].kind, SegmentPowerUp)
	}
}

func TestNoTrailWhileRoundNotRunning(t *testing.T) {
	fr := &fakeRenderer{}
	rc := NewReconciler(fr, Events{})
	seedLocal(t, rc)
	addRemote(t, rc, "remote-sess", "player2", "#3498db")

	if err := rc.Apply(mustEnvelope(t, protocol.MsgRoomState, protocol.RoomState{
		Room: protocol.RoomSnapshot{IsRunning: false},
	})); err != nil {
		t.Fatalf("apply roomState: %v", err)
	}

	update(t, rc, "remote-sess", protocol.PlayerSnapshot{ID: "player2", IsAlive: true, PositionX: 1, PositionY: 1})
	update(t, rc, "remote-sess", protocol.PlayerSnapshot{ID: "player2", IsAlive: true, PositionX: 2, PositionY: 2})

	if len(fr.segments) != 0 {
		t.Fatalf("trail drawn outside a running round: %+v", fr.segments)
	}
}

func TestLocalEchoDoesNotDraw(t *testing.T) {
	fr := &fakeRenderer{}
	rc := NewReconciler(fr, Events{})
	seedLocal(t, rc)

	update(t, rc, "local-sess", protocol.PlayerSnapshot{ID: "player1", IsAlive: true, PositionX: 1, PositionY: 1})
	update(t, rc, "local-sess", protocol.PlayerSnapshot{ID: "player1", IsAlive: true, PositionX: 2, PositionY: 2})

	if len(fr.segments) != 0 {
		t.Fatalf("local echoes must not synthesize trails: %+v", fr.segments)
	}
}

func TestPointsChangeRedrawsScoreboard(t *testing.T) {
	fr := &fakeRenderer{}
	rc := NewReconciler(fr, Events{})
	seedLocal(t, rc)
	addRemote(t, rc, "remote-sess", "player2", "#3498db")
	baseline := fr.scoreRedraw

	update(t, rc, "remote-sess", protocol.PlayerSnapshot{ID: "player2", IsAlive: true})
	if fr.scoreRedraw != baseline {
		t.Fatalf("scoreboard redrawn without a points change")
	}

	update(t, rc, "remote-sess", protocol.PlayerSnapshot{ID: "player2", IsAlive: true, Points: 1})
	if fr.scoreRedraw != baseline+1 {
		t.Fatalf("scoreboard not redrawn on points change")
	}
}

func TestPlayerRemovedExcisesShadow(t *testing.T) {
	rc := NewReconciler(&fakeRenderer{}, Events{})
	seedLocal(t, rc)
	addRemote(t, rc, "remote-sess", "player2", "#3498db")
	if rc.NumShadows() != 2 {
		t.Fatalf("shadows = %d, want 2", rc.NumShadows())
	}

	if err := rc.Apply(mustEnvelope(t, protocol.MsgPlayerRemoved, protocol.PlayerRemoved{
		SessionID: "remote-sess",
	})); err != nil {
		t.Fatalf("apply playerRemoved: %v", err)
	}
	if rc.NumShadows() != 1 {
		t.Fatalf("shadows = %d, want 1", rc.NumShadows())
	}
	if _, ok := rc.Shadow("remote-sess"); ok {
		t.Fatalf("removed shadow still present")
	}
}

func TestRemoteKeyEventsTracked(t *testing.T) {
	rc := NewReconciler(&fakeRenderer{}, Events{})
	seedLocal(t, rc)
	addRemote(t, rc, "remote-sess", "player2", "#3498db")

	if err := rc.Apply(mustEnvelope(t, protocol.MsgPlayerKeyDown, protocol.PlayerKey{
		PlayerID: "remote-sess", KeyCode: 74,
	})); err != nil {
		t.Fatalf("apply keyDown: %v", err)
	}
	s, _ := rc.Shadow("remote-sess")
	if !s.KeysDown[74] {
		t.Fatalf("key 74 not tracked as down")
	}

	if err := rc.Apply(mustEnvelope(t, protocol.MsgPlayerKeyUp, protocol.PlayerKey{
		PlayerID: "remote-sess", KeyCode: 74,
	})); err != nil {
		t.Fatalf("apply keyUp: %v", err)
	}
	s, _ = rc.Shadow("remote-sess")
	if s.KeysDown[74] {
		t.Fatalf("key 74 still down after keyUp")
	}
}

func TestEventHooksFire(t *testing.T) {
	var counts []int
	var winner string
	rc := NewReconciler(&fakeRenderer{}, Events{
		OnCountdown: func(c int) { counts = append(counts, c) },
		OnGameOver:  func(w string) { winner = w },
	})
	seedLocal(t, rc)

	for _, c := range []int{3, 2, 1} {
		if err := rc.Apply(mustEnvelope(t, protocol.MsgCountdown, protocol.Countdown{Count: c})); err != nil {
			t.Fatalf("apply countdown: %v", err)
		}
	}
	if len(counts) != 3 || counts[0] != 3 || counts[2] != 1 {
		t.Fatalf("countdown hook calls = %v", counts)
	}

	if err := rc.Apply(mustEnvelope(t, protocol.MsgGameOver, protocol.GameOver{WinnerID: "player1"})); err != nil {
		t.Fatalf("apply gameOver: %v", err)
	}
	if winner != "player1" {
		t.Fatalf("gameOver hook winner = %q", winner)
	}
}

func TestRoundStartedResetsTrailAnchors(t *testing.T) {
	fr := &fakeRenderer{}
	rc := NewReconciler(fr, Events{})
	seedLocal(t, rc)
	addRemote(t, rc, "remote-sess", "player2", "#3498db")

	update(t, rc, "remote-sess", protocol.PlayerSnapshot{ID: "player2", IsAlive: true, PositionX: 800, PositionY: 600})
	if err := rc.Apply(mustEnvelope(t, protocol.MsgRoundStarted, protocol.RoundStarted{})); err != nil {
		t.Fatalf("apply roundStarted: %v", err)
	}

	// First snapshot of the new round must not connect to the old spot.
	update(t, rc, "remote-sess", protocol.PlayerSnapshot{ID: "player2", IsAlive: true, PositionX: 100, PositionY: 100})
	if len(fr.segments) != 0 {
		t.Fatalf("trail connected across rounds: %+v", fr.segments)
	}
}
