package health

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonitorUnknownBeforeCheck(t *testing.T) {
	m := NewMonitor(nil)
	m.Register("backend", CheckerFunc(func(context.Context) error { return nil }))

	r := m.Report()
	assert.Equal(t, StatusUnknown, r.Status)
	require.Len(t, r.Components, 1)
	assert.Equal(t, StatusUnknown, r.Components[0].Status)
}

func TestMonitorFailureAndRecovery(t *testing.T) {
	var pingErr error
	m := NewMonitor(nil)
	m.Register("preferences", CheckerFunc(func(context.Context) error { return pingErr }))
	m.Register("backend", CheckerFunc(func(context.Context) error { return nil }))

	pingErr = errors.New("connection refused")
	m.CheckNow(context.Background())
	m.CheckNow(context.Background())

	r := m.Report()
	assert.Equal(t, StatusUnhealthy, r.Status)
	assert.False(t, m.IsHealthy())
	require.Len(t, r.Components, 2)
	assert.Equal(t, "backend", r.Components[0].Name)
	assert.Equal(t, StatusHealthy, r.Components[0].Status)
	assert.Equal(t, "preferences", r.Components[1].Name)
	assert.Equal(t, 2, r.Components[1].ConsecutiveFailures)
	assert.Equal(t, "connection refused", r.Components[1].LastError)

	pingErr = nil
	m.CheckNow(context.Background())
	r = m.Report()
	assert.Equal(t, StatusHealthy, r.Status)
	assert.Equal(t, 0, r.Components[1].ConsecutiveFailures)
	assert.Empty(t, r.Components[1].LastError)
}

func TestMonitorStartStop(t *testing.T) {
	m := NewMonitor(nil)
	m.Register("backend", CheckerFunc(func(context.Context) error { return nil }))

	m.Start(context.Background())
	defer m.Stop()
	assert.True(t, m.IsHealthy())
}
