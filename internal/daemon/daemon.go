package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"stagegate/internal/api"
	"stagegate/internal/catalog"
	"stagegate/internal/config"
	"stagegate/internal/events"
	"stagegate/internal/identity"
	"stagegate/internal/loan"
	"stagegate/internal/logging"
	"stagegate/internal/notifications"
	"stagegate/internal/tracker"
)

// Daemon coordinates the loan services and enforces single-instance execution.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *loan.Store
	catalog  *catalog.Catalog
	tracker  *tracker.Tracker
	service  *api.LoanService
	notifier notifications.Service

	lockPath string
	lock     *flock.Flock

	apiSrv *apiServer

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	DatabasePath string
	LockFilePath string
	StageCounts  map[string]int
	Store        loan.HealthSummary
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *loan.Store, c *catalog.Catalog, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || store == nil || c == nil || logger == nil {
		return nil, errors.New("daemon requires config, store, catalog, and logger")
	}

	provider := identity.NewFromConfig(cfg)
	notifier := notifications.NewService(cfg)
	var publisher events.Publisher = events.NewFanout(logger, events.NewLogPublisher(logger), notifier)
	publisher = events.WithTimeout(publisher, time.Duration(cfg.Workflow.EventTimeoutSeconds)*time.Second)
	tr, err := tracker.New(c, store, provider, publisher, logger)
	if err != nil {
		return nil, err
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, "stagegated.lock")
	d := &Daemon{
		cfg:      cfg,
		logger:   logging.WithComponent(logger, "daemon"),
		store:    store,
		catalog:  c,
		tracker:  tr,
		service:  api.NewLoanService(c, store, tr, provider),
		notifier: notifier,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}
	d.apiSrv, err = newAPIServer(cfg, d, logger)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// Start acquires the daemon lock and brings up the API server.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another stagegate daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	if err := d.apiSrv.start(d.ctx); err != nil {
		_ = d.lock.Unlock()
		d.cancel()
		d.ctx = nil
		d.cancel = nil
		return err
	}

	d.running.Store(true)
	d.logger.Info("stagegate daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop shuts down the API server and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.apiSrv.stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("stagegate daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Tracker exposes the guarded advance operation.
func (d *Daemon) Tracker() *tracker.Tracker {
	return d.tracker
}

// Service exposes the DTO-level loan operations.
func (d *Daemon) Service() *api.LoanService {
	return d.service
}

// TestNotification triggers a test notification using the current configuration.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	if d.cfg == nil {
		return false, "configuration unavailable", errors.New("configuration unavailable")
	}
	if strings.TrimSpace(d.cfg.Notifications.NtfyTopic) == "" {
		return false, "ntfy topic not configured", nil
	}
	if err := d.notifier.TestNotification(ctx); err != nil {
		return false, "failed to send notification", err
	}
	return true, "test notification sent", nil
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	status := Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		DatabasePath: d.cfg.DatabasePath(),
		LockFilePath: d.lockPath,
	}
	if counts, err := d.store.Stats(ctx); err == nil {
		status.StageCounts = counts
	}
	if health, err := d.store.Health(ctx); err == nil {
		status.Store = health
	}
	return status
}
