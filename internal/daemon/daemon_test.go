package daemon

import (
	"context"
	"testing"

	"stagegate/internal/catalog"
	"stagegate/internal/logging"
	"stagegate/internal/testsupport"
)

func TestDaemonStartStop(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.API.Bind = "127.0.0.1:0"
	store := testsupport.MustOpenStore(t, cfg)

	d, err := New(cfg, store, catalog.BuiltIn(), logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer d.Stop()

	status := d.Status(ctx)
	if !status.Running {
		t.Fatal("status should report running")
	}
	if status.DatabasePath == "" || status.LockFilePath == "" {
		t.Fatalf("status missing paths: %+v", status)
	}

	if err := d.Start(ctx); err == nil {
		t.Fatal("second Start on a running daemon should fail")
	}

	d.Stop()
	if d.Status(ctx).Running {
		t.Fatal("status should report stopped")
	}
}

func TestDaemonWithoutAPIBind(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	d, err := New(cfg, store, catalog.BuiltIn(), logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	if d.apiSrv != nil {
		t.Fatal("no bind configured, api server should be nil")
	}

	ctx := context.Background()
	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start without api server failed: %v", err)
	}
	d.Stop()
}

func TestDaemonTestNotificationWithoutTopic(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	d, err := New(cfg, store, catalog.BuiltIn(), logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	sent, detail, err := d.TestNotification(context.Background())
	if err != nil {
		t.Fatalf("TestNotification failed: %v", err)
	}
	if sent {
		t.Fatal("no topic configured, nothing should be sent")
	}
	if detail == "" {
		t.Fatal("expected explanatory detail")
	}
}
