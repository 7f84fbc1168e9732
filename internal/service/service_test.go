package service_test

import (
	"context"
	"testing"
	"time"

	"pagebuilder/internal/service"
)

// ─────────────────────────────────────────────────────────────
// RunningJobsGuard tests
// ─────────────────────────────────────────────────────────────

func TestRunningGuard_TryLock(t *testing.T) {
	var g service.ExportedRunningGuard

	if !g.TryLock("warm-1") {
		t.Fatal("expected first TryLock to succeed")
	}
	if g.TryLock("warm-1") {
		t.Fatal("expected second TryLock for same job to fail")
	}
	if !g.TryLock("warm-2") {
		t.Fatal("expected TryLock for different job to succeed")
	}
	g.Unlock("warm-1")
	g.Unlock("warm-2")

	if !g.TryLock("warm-1") {
		t.Fatal("expected TryLock to succeed after unlock")
	}
	g.Unlock("warm-1")
}

func TestRunningGuard_WaitAll(t *testing.T) {
	var g service.ExportedRunningGuard

	if !g.TryLock("warm-a") {
		t.Fatal("expected lock to succeed")
	}

	done := make(chan struct{})
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		defer cancel()
		g.WaitAll(ctx)
		close(done)
	}()

	go func() {
		time.Sleep(20 * time.Millisecond)
		g.Unlock("warm-a")
	}()

	select {
	case <-done:
	case <-time.After(1 * time.Second):
		t.Fatal("WaitAll timed out")
	}
}

// ─────────────────────────────────────────────────────────────
// Emitter tests
// ─────────────────────────────────────────────────────────────

func TestMockEmitter_RecordsEvents(t *testing.T) {
	m := &service.MockEmitter{}
	ctx := context.Background()

	m.Emit(ctx, service.EventPagePublished, map[string]string{"pageId": "p1"})
	m.Emit(ctx, service.EventThemePublished, nil)

	if len(m.Events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(m.Events))
	}
	if m.Events[0].Event != service.EventPagePublished {
		t.Errorf("expected %q, got %q", service.EventPagePublished, m.Events[0].Event)
	}
}

func TestFanOut_ForwardsToEveryListener(t *testing.T) {
	a, b := &service.MockEmitter{}, &service.MockEmitter{}
	fan := service.FanOut{a, nil, b}

	fan.Emit(context.Background(), "x", 1)

	if len(a.Events) != 1 || len(b.Events) != 1 {
		t.Fatalf("expected one event per listener, got %d and %d", len(a.Events), len(b.Events))
	}
}
