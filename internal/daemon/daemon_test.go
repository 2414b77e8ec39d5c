package daemon

import (
	"context"
	"testing"

	"clipforge/internal/logging"
	"clipforge/internal/testsupport"
)

func TestDaemonStartStop(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	d, err := New(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx := context.Background()
	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	defer d.Stop()

	status := d.Status()
	if !status.Running {
		t.Fatal("status must report running after start")
	}
	if status.Workflow != nil {
		t.Fatal("no workflow run should exist yet")
	}

	if err := d.Start(ctx); err == nil {
		t.Fatal("second start on a running daemon must fail")
	}
}

func TestDaemonLockRejectsSecondInstance(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	first, err := New(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if err := first.Start(context.Background()); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	defer first.Stop()

	second, err := New(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if err := second.Start(context.Background()); err == nil {
		second.Stop()
		t.Fatal("second instance must fail to acquire the lock")
	}
}

func TestDaemonStopIsIdempotent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	d, err := New(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	d.Stop()
	d.Stop()
}
