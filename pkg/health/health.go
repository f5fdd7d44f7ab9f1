// Package health tracks the reachability of the services the console depends on.
package health

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"
)

// Status represents the current health status.
type Status string

const (
	// StatusHealthy indicates the service is functioning normally.
	StatusHealthy Status = "healthy"
	// StatusUnhealthy indicates the service is experiencing issues.
	StatusUnhealthy Status = "unhealthy"
	// StatusUnknown indicates the health status hasn't been determined yet.
	StatusUnknown Status = "unknown"
)

// Checker is anything that can be pinged: the listing backend, the
// preference database.
type Checker interface {
	Ping(ctx context.Context) error
}

// CheckerFunc adapts a function to the Checker interface.
type CheckerFunc func(ctx context.Context) error

// Ping calls f(ctx).
func (f CheckerFunc) Ping(ctx context.Context) error { return f(ctx) }

// Info contains current health information for one component.
type Info struct {
	Name                string    `json:"name"`
	Status              Status    `json:"status"`
	LastCheck           time.Time `json:"last_check"`
	LastError           string    `json:"last_error,omitempty"`
	ConsecutiveFailures int       `json:"consecutive_failures"`
}

// Report is the aggregated health of all monitored components.
type Report struct {
	Status     Status `json:"status"`
	Components []Info `json:"components"`
}

type component struct {
	name                string
	checker             Checker
	status              Status
	lastCheck           time.Time
	lastError           error
	consecutiveFailures int
}

// Monitor periodically pings registered components.
type Monitor struct {
	mu            sync.RWMutex
	components    map[string]*component
	logger        *slog.Logger
	checkInterval time.Duration
	pingTimeout   time.Duration
	cancel        context.CancelFunc
}

// NewMonitor creates a monitor with no components.
func NewMonitor(logger *slog.Logger) *Monitor {
	const (
		defaultCheckInterval = 30 * time.Second
		defaultPingTimeout   = 5 * time.Second
	)
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Monitor{
		components:    make(map[string]*component),
		logger:        logger,
		checkInterval: defaultCheckInterval,
		pingTimeout:   defaultPingTimeout,
	}
}

// SetInterval changes the delay between two checks. Call before Start.
func (m *Monitor) SetInterval(d time.Duration) {
	if d > 0 {
		m.checkInterval = d
	}
}

// Register adds a component. Registering an existing name replaces its checker.
func (m *Monitor) Register(name string, c Checker) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.components[name] = &component{name: name, checker: c, status: StatusUnknown}
}

// Start performs a first check and begins monitoring in the background.
func (m *Monitor) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel

	m.CheckNow(ctx)
	go m.healthCheckLoop(ctx)
}

// Stop stops the health monitoring.
func (m *Monitor) Stop() {
	if m.cancel != nil {
		m.cancel()
	}
}

// Report returns the current health of all components, sorted by name.
// The overall status is unhealthy as soon as one component is.
func (m *Monitor) Report() Report {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r := Report{Status: StatusHealthy, Components: make([]Info, 0, len(m.components))}
	for _, c := range m.components {
		errorMsg := ""
		if c.lastError != nil {
			errorMsg = c.lastError.Error()
		}
		r.Components = append(r.Components, Info{
			Name:                c.name,
			Status:              c.status,
			LastCheck:           c.lastCheck,
			LastError:           errorMsg,
			ConsecutiveFailures: c.consecutiveFailures,
		})
		switch {
		case c.status == StatusUnhealthy:
			r.Status = StatusUnhealthy
		case c.status == StatusUnknown && r.Status == StatusHealthy:
			r.Status = StatusUnknown
		}
	}
	sort.Slice(r.Components, func(i, j int) bool { return r.Components[i].Name < r.Components[j].Name })
	return r
}

// IsHealthy returns true if every component is currently healthy.
func (m *Monitor) IsHealthy() bool {
	return m.Report().Status == StatusHealthy
}

// healthCheckLoop runs periodic health checks.
func (m *Monitor) healthCheckLoop(ctx context.Context) {
	ticker := time.NewTicker(m.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.CheckNow(ctx)
		}
	}
}

// CheckNow pings every component once.
func (m *Monitor) CheckNow(ctx context.Context) {
	m.mu.RLock()
	components := make([]*component, 0, len(m.components))
	for _, c := range m.components {
		components = append(components, c)
	}
	m.mu.RUnlock()

	for _, c := range components {
		m.check(ctx, c)
	}
}

func (m *Monitor) check(ctx context.Context, c *component) {
	pingCtx, cancel := context.WithTimeout(ctx, m.pingTimeout)
	defer cancel()
	err := c.checker.Ping(pingCtx)

	m.mu.Lock()
	defer m.mu.Unlock()

	c.lastCheck = time.Now()
	if err != nil {
		c.status = StatusUnhealthy
		c.lastError = err
		c.consecutiveFailures++

		m.logger.Debug("Health check failed",
			slog.String("component", c.name),
			slog.String("error", err.Error()),
			slog.Int("consecutive_failures", c.consecutiveFailures))
		return
	}

	wasUnhealthy := c.status == StatusUnhealthy
	c.status = StatusHealthy
	c.lastError = nil
	c.consecutiveFailures = 0
	if wasUnhealthy {
		m.logger.Info("Health restored", slog.String("component", c.name))
	}
}
