package monitor

import (
	"context"
	"fmt"
	"time"

	logger "github.com/sirupsen/logrus"

	"resolutionengine/src/intake"
	"resolutionengine/src/model"
	"resolutionengine/src/registry"
)

// Probe checks one external dependency. Check returns ok plus a detail
// string describing the failure.
type Probe struct {
	Name  string
	Type  model.ExceptionType
	Check func(ctx context.Context) (bool, string)
}

// Reporter feeds probe failures into exception intake.
type Reporter interface {
	Report(ctx context.Context, input intake.ReportInput) (string, error)
}

// Sweeper re-offers parked occurrences to the scheduler.
type Sweeper interface {
	SweepMonitoring()
}

// Monitor runs every registered probe on a fixed interval. One probe's
// failure or panic never prevents the others from running that tick. Each
// tick also re-sweeps MONITORING occurrences and archives old terminal ones.
type Monitor struct {
	interval   time.Duration
	archiveTTL time.Duration
	probes     []Probe
	reporter   Reporter
	sweeper    Sweeper
	registry   *registry.Registry
}

// New builds a monitor. sweeper and reg may be nil (probe-only mode).
func New(interval, archiveTTL time.Duration, probes []Probe, reporter Reporter, sweeper Sweeper, reg *registry.Registry) *Monitor {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if archiveTTL <= 0 {
		archiveTTL = 24 * time.Hour
	}

	return &Monitor{
		interval:   interval,
		archiveTTL: archiveTTL,
		probes:     probes,
		reporter:   reporter,
		sweeper:    sweeper,
		registry:   reg,
	}
}

// Run drives the tick loop until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	logger.WithFields(map[string]interface{}{
		"component": "HealthMonitor",
		"interval":  m.interval.String(),
		"probes":    len(m.probes),
	}).Info("health monitor started")

	for {
		select {
		case <-ctx.Done():
			logger.WithField("component", "HealthMonitor").Info("health monitor stopped")
			return nil

		case <-ticker.C:
			m.Tick(ctx)
		}
	}
}

// Tick runs one monitor pass. Exported so tests and the probe CLI can drive
// the monitor without the ticker.
func (m *Monitor) Tick(ctx context.Context) {
	for _, probe := range m.probes {
		m.runProbe(ctx, probe)
	}

	if m.sweeper != nil {
		m.sweeper.SweepMonitoring()
	}

	if m.registry != nil {
		if removed := m.registry.Archive(m.archiveTTL, time.Now()); removed > 0 {
			logger.WithFields(map[string]interface{}{
				"component": "HealthMonitor",
				"removed":   removed,
			}).Info("archived terminal occurrences")
		}
	}
}

// runProbe isolates a single probe: panics are recovered and treated as
// probe failures.
func (m *Monitor) runProbe(ctx context.Context, probe Probe) {
	ok, detail := m.checkSafely(ctx, probe)
	if ok {
		return
	}

	logger.WithFields(map[string]interface{}{
		"component": "HealthMonitor",
		"probe":     probe.Name,
		"detail":    detail,
	}).Warn("health probe failed")

	exceptionType := probe.Type
	if exceptionType == "" {
		exceptionType = model.TypeSystemError
	}

	_, err := m.reporter.Report(ctx, intake.ReportInput{
		Type:        exceptionType,
		Title:       fmt.Sprintf("Health probe %s failed", probe.Name),
		Description: detail,
		Component:   probe.Name,
		Context: map[string]any{
			"probe":  probe.Name,
			"detail": detail,
			"source": "health_monitor",
		},
	})
	if err != nil {
		logger.WithError(err).WithFields(map[string]interface{}{
			"component": "HealthMonitor",
			"probe":     probe.Name,
		}).Error("failed to report probe failure")
	}
}

func (m *Monitor) checkSafely(ctx context.Context, probe Probe) (ok bool, detail string) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
			detail = fmt.Sprintf("probe panicked: %v", r)
		}
	}()

	if probe.Check == nil {
		return false, "probe has no check function"
	}

	return probe.Check(ctx)
}
