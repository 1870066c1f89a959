package telemetry

import (
	"sort"
	"sync"
	"time"
)

// HealthCheck reports nil while a component is healthy.
type HealthCheck func() error

// HealthTracker aggregates named checks and gauges for /healthz.
type HealthTracker struct {
	mu     sync.RWMutex
	checks map[string]HealthCheck
	gauges map[string]func() int
	now    func() time.Time
}

// HealthReport is the /healthz response body.
type HealthReport struct {
	Status    string            `json:"status"`
	CheckedAt time.Time         `json:"checkedAt"`
	Checks    []CheckReport     `json:"checks,omitempty"`
	Gauges    map[string]int    `json:"gauges,omitempty"`
	Meta      map[string]string `json:"meta,omitempty"`
}

// CheckReport is the outcome of one named check.
type CheckReport struct {
	Name  string `json:"name"`
	Error string `json:"error,omitempty"`
}

func NewHealthTracker() *HealthTracker {
	return &HealthTracker{
		checks: make(map[string]HealthCheck),
		gauges: make(map[string]func() int),
		now:    time.Now,
	}
}

// AddCheck registers or replaces a named check.
func (h *HealthTracker) AddCheck(name string, check HealthCheck) {
	if h == nil || check == nil {
		return
	}
	h.mu.Lock()
	h.checks[name] = check
	h.mu.Unlock()
}

// AddGauge registers a value reported alongside the checks.
func (h *HealthTracker) AddGauge(name string, read func() int) {
	if h == nil || read == nil {
		return
	}
	h.mu.Lock()
	h.gauges[name] = read
	h.mu.Unlock()
}

// Report runs every check. Any failing check degrades the status.
func (h *HealthTracker) Report() HealthReport {
	report := HealthReport{Status: "ok"}
	if h == nil {
		return report
	}
	report.CheckedAt = h.now()

	h.mu.RLock()
	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	checks := make(map[string]HealthCheck, len(h.checks))
	for name, check := range h.checks {
		checks[name] = check
	}
	gauges := make(map[string]func() int, len(h.gauges))
	for name, read := range h.gauges {
		gauges[name] = read
	}
	h.mu.RUnlock()

	sort.Strings(names)
	for _, name := range names {
		entry := CheckReport{Name: name}
		if err := checks[name](); err != nil {
			entry.Error = err.Error()
			report.Status = "degraded"
		}
		report.Checks = append(report.Checks, entry)
	}
	if len(gauges) > 0 {
		report.Gauges = make(map[string]int, len(gauges))
		for name, read := range gauges {
			report.Gauges[name] = read()
		}
	}
	return report
}
