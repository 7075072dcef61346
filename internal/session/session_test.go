package session

import (
	"context"
	"testing"
	"time"

	"github.com/hilink/ld2410/internal/protocol"
	"github.com/hilink/ld2410/internal/testemulator"
)

func newTestSession(t *testing.T) (*Session, *testemulator.Emulator) {
	t.Helper()
	conn, emu := testemulator.New()
	t.Cleanup(func() { _ = emu.Close() })

	s := New(conn, nil, 2*time.Second, 0)
	if err := s.Open(context.Background()); err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s, emu
}

func TestSessionIssueOutsideConfigModeFails(t *testing.T) {
	s, _ := newTestSession(t)
	_, err := s.Issue(context.Background(), protocol.ParametersRead, nil)
	if err != ErrNotConfiguring {
		t.Fatalf("err = %v, want ErrNotConfiguring", err)
	}
}

func TestSessionEnterLeaveConfig(t *testing.T) {
	s, _ := newTestSession(t)

	reply, err := s.EnterConfig(context.Background())
	if err != nil {
		t.Fatalf("EnterConfig() error: %v", err)
	}
	if reply.ProtocolVersion != 1 {
		t.Errorf("ProtocolVersion = %d, want 1", reply.ProtocolVersion)
	}
	if s.State() != StateConfiguring {
		t.Fatalf("State() = %v, want StateConfiguring", s.State())
	}

	if _, err := s.EnterConfig(context.Background()); err != ErrAlreadyConfiguring {
		t.Errorf("second EnterConfig() err = %v, want ErrAlreadyConfiguring", err)
	}

	if err := s.LeaveConfig(context.Background()); err != nil {
		t.Fatalf("LeaveConfig() error: %v", err)
	}
	if s.State() != StateConnected {
		t.Fatalf("State() after LeaveConfig = %v, want StateConnected", s.State())
	}
}

func TestSessionIssueInConfigMode(t *testing.T) {
	s, _ := newTestSession(t)
	if _, err := s.EnterConfig(context.Background()); err != nil {
		t.Fatalf("EnterConfig() error: %v", err)
	}

	reply, err := s.Issue(context.Background(), protocol.ParametersRead, nil)
	if err != nil {
		t.Fatalf("Issue(ParametersRead) error: %v", err)
	}
	parsed, err := protocol.ParseParametersReadReply(reply.Data)
	if err != nil {
		t.Fatalf("ParseParametersReadReply() error: %v", err)
	}
	if parsed.MaxDistanceGate != 8 {
		t.Errorf("MaxDistanceGate = %d, want 8", parsed.MaxDistanceGate)
	}
}

func TestSessionIssueContextCancelled(t *testing.T) {
	s, _ := newTestSession(t)
	if _, err := s.EnterConfig(context.Background()); err != nil {
		t.Fatalf("EnterConfig() error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := s.Issue(ctx, protocol.ParametersRead, nil); err == nil {
		t.Fatal("Issue() with cancelled context: expected error, got nil")
	}

	// The pending slot must have been released so a fresh command succeeds.
	if _, err := s.Issue(context.Background(), protocol.ParametersRead, nil); err != nil {
		t.Fatalf("Issue() after cancellation: unexpected error: %v", err)
	}
}

func TestSessionReportDelivery(t *testing.T) {
	s, emu := newTestSession(t)
	ch := s.Distributor().Subscribe(4)
	defer s.Distributor().Unsubscribe(ch)

	want := protocol.BasicReport{
		Status:             protocol.TargetMotion,
		MotionDistance:     120,
		MotionEnergy:       80,
		StandstillDistance: 0,
		StandstillEnergy:   0,
		DetectionDistance:  120,
	}
	if err := emu.SendReport(want); err != nil {
		t.Fatalf("SendReport() error: %v", err)
	}

	select {
	case got := <-ch:
		if got.Basic.MotionDistance != want.MotionDistance {
			t.Errorf("MotionDistance = %d, want %d", got.Basic.MotionDistance, want.MotionDistance)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("did not receive report")
	}
}

func TestSessionModuleRestartSurfacesOnce(t *testing.T) {
	s, _ := newTestSession(t)
	if _, err := s.EnterConfig(context.Background()); err != nil {
		t.Fatalf("EnterConfig() error: %v", err)
	}

	if _, err := s.Issue(context.Background(), protocol.ModuleRestart, nil); err != nil {
		t.Fatalf("Issue(ModuleRestart) error: %v", err)
	}
	s.NoteRestart()

	waitForState(t, s, StateDisconnected)

	if _, err := s.Issue(context.Background(), protocol.ParametersRead, nil); err != ErrModuleRestarted {
		t.Errorf("first Issue() after restart err = %v, want ErrModuleRestarted", err)
	}
	if _, err := s.Issue(context.Background(), protocol.ParametersRead, nil); err != ErrNotOpen {
		t.Errorf("second Issue() after restart err = %v, want ErrNotOpen", err)
	}
}

func waitForState(t *testing.T, s *Session, want State) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for s.State() != want {
		if time.Now().After(deadline) {
			t.Fatalf("State() = %v, want %v (timed out waiting)", s.State(), want)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestSessionCloseStopsReader(t *testing.T) {
	conn, emu := testemulator.New()
	defer func() { _ = emu.Close() }()

	s := New(conn, nil, time.Second, 0)
	if err := s.Open(context.Background()); err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
	if !s.IsClosed() {
		t.Error("IsClosed() = false after Close()")
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close() error: %v, want nil (idempotent)", err)
	}
}
