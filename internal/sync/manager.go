// StorySpot - Location Story Music Recognition
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/storyspot

package sync

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/tomtom215/storyspot/internal/config"
	"github.com/tomtom215/storyspot/internal/events"
	"github.com/tomtom215/storyspot/internal/logging"
	"github.com/tomtom215/storyspot/internal/metrics"
)

// ErrSyncInProgress is returned by TryTriggerSync while a cycle runs.
var ErrSyncInProgress = errors.New("a sync cycle is already running")

// Manager runs MasterSync cycles forever, one at a time, with a cooldown
// between them.
type Manager struct {
	orch *Orchestrator
	cfg  config.SyncConfig
	loc  *time.Location

	mu               sync.RWMutex
	running          bool
	lastSync         time.Time
	lastReport       *CycleReport
	onCycleCompleted func(CycleReport)
	cancel           context.CancelFunc

	syncMu   sync.Mutex // one cycle at a time
	stopChan chan struct{}
	wg       sync.WaitGroup

	now func() time.Time
}

// NewManager builds a Manager. loc is the zone "today" is computed in; nil
// means UTC.
func NewManager(orch *Orchestrator, cfg config.SyncConfig, loc *time.Location) *Manager {
	if loc == nil {
		loc = time.UTC
	}
	logging.Info().
		Bool("enabled", cfg.Enabled).
		Bool("run_on_startup", cfg.RunOnStartup).
		Dur("cooldown", cfg.Cooldown).
		Dur("cycle_timeout", cfg.CycleTimeout).
		Str("time_zone", loc.String()).
		Msg("Sync manager config loaded")

	return &Manager{
		orch:     orch,
		cfg:      cfg,
		loc:      loc,
		stopChan: make(chan struct{}),
		now:      time.Now,
	}
}

// SetOnCycleCompleted sets a callback invoked after every cycle, failed or not.
func (m *Manager) SetOnCycleCompleted(callback func(CycleReport)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onCycleCompleted = callback
}

// Start launches the cycle loop. It returns immediately.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return fmt.Errorf("sync manager is already running")
	}
	if !m.cfg.Enabled {
		m.mu.Unlock()
		logging.Info().Msg("Sync loop disabled (SYNC_ENABLED=false), manual triggers only")
		return nil
	}
	loopCtx, cancel := context.WithCancel(ctx)
	m.running = true
	m.cancel = cancel
	m.mu.Unlock()

	logging.Info().Msg("Starting sync manager...")
	m.wg.Add(1)
	go m.loop(loopCtx)
	return nil
}

// Stop cancels any running cycle and waits for the loop to exit.
func (m *Manager) Stop() error {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return fmt.Errorf("sync manager is not running")
	}
	m.running = false
	cancel := m.cancel
	m.mu.Unlock()

	logging.Info().Msg("Stopping sync manager...")
	close(m.stopChan)
	cancel()
	m.wg.Wait()
	logging.Info().Msg("Sync manager stopped")
	return nil
}

// Running reports whether the loop is active.
func (m *Manager) Running() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.running
}

// LastSyncTime returns when the last cycle finished without error.
func (m *Manager) LastSyncTime() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastSync
}

// LastReport returns the report of the most recent cycle, or nil.
func (m *Manager) LastReport() *CycleReport {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.lastReport == nil {
		return nil
	}
	r := *m.lastReport
	return &r
}

// TriggerSync runs one cycle now, waiting for a running cycle to finish first.
func (m *Manager) TriggerSync(ctx context.Context) (CycleReport, error) {
	m.syncMu.Lock()
	defer m.syncMu.Unlock()
	return m.runCycle(ctx)
}

// TryTriggerSync starts one cycle in the background unless one is running.
// The cycle is detached from ctx's cancellation so it outlives the request.
func (m *Manager) TryTriggerSync(ctx context.Context) error {
	if !m.syncMu.TryLock() {
		return ErrSyncInProgress
	}
	detached := context.WithoutCancel(ctx)
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer m.syncMu.Unlock()
		if _, err := m.runCycle(detached); err != nil {
			logging.Warn().Err(err).Msg("Triggered sync finished with errors")
		}
	}()
	return nil
}

func (m *Manager) loop(ctx context.Context) {
	defer m.wg.Done()

	first := m.cfg.RunOnStartup
	for {
		if !first {
			select {
			case <-ctx.Done():
				return
			case <-m.stopChan:
				return
			case <-time.After(m.cfg.Cooldown):
			}
		}
		first = false

		m.syncMu.Lock()
		_, err := m.runCycle(ctx)
		m.syncMu.Unlock()
		if err != nil {
			logging.Error().Err(err).Msg("Sync cycle failed")
		}
		if ctx.Err() != nil {
			return
		}
	}
}

// runCycle runs one cycle. The caller holds syncMu. Panics are recovered
// and returned as errors. A correlation id already on parent, such as one
// from an API request, is kept.
func (m *Manager) runCycle(parent context.Context) (report CycleReport, err error) {
	ctx := parent
	if logging.CorrelationIDFromContext(parent) == "" {
		ctx = logging.ContextWithNewCorrelationID(parent)
	}
	if m.cfg.CycleTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.cfg.CycleTimeout)
		defer cancel()
	}
	start := time.Now()
	today := m.now().In(m.loc)

	defer func() {
		if r := recover(); r != nil {
			metrics.RecordSyncPanic()
			logging.Ctx(ctx).Error().
				Interface("panic", r).
				Str("stack", string(debug.Stack())).
				Msg("Recovered from panic in sync cycle")
			err = fmt.Errorf("sync cycle panicked: %v", r)
			report.Error = err.Error()
			report.Duration = time.Since(start)
		} else {
			metrics.RecordSyncCycle(time.Since(start), err)
		}
		m.finishCycle(ctx, report, err)
	}()

	if cerr := ClearScratch(m.orch.opts.ScratchDir); cerr != nil {
		logging.Ctx(ctx).Warn().Err(cerr).Msg("Failed to clear scratch directory")
	}
	report, err = m.orch.MasterSync(ctx, today)
	if cerr := ClearScratch(m.orch.opts.ScratchDir); cerr != nil {
		logging.Ctx(ctx).Warn().Err(cerr).Msg("Failed to clear scratch directory")
	}
	return report, err
}

func (m *Manager) finishCycle(ctx context.Context, report CycleReport, err error) {
	if report.CorrelationID == "" {
		report.CorrelationID = logging.CorrelationIDFromContext(ctx)
	}

	m.mu.Lock()
	if err == nil {
		m.lastSync = m.now()
	}
	m.lastReport = &report
	callback := m.onCycleCompleted
	m.mu.Unlock()

	m.orch.publish(context.WithoutCancel(ctx), events.TopicCycleCompleted, events.CycleCompleted{
		CorrelationID: report.CorrelationID,
		Today:         report.Today,
		StartedAt:     report.StartedAt,
		Duration:      report.Duration,
		Mirrored:      report.PhaseA.Mirrored,
		Registered:    report.PhaseB.Registered,
		Failed:        report.Failed(),
		Error:         report.Error,
	})

	if callback != nil {
		callback(report)
	}
}
