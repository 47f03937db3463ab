package component

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHealthMonitorHealthyResetsCounter(t *testing.T) {
	m := NewHealthMonitor(3, time.Nanosecond)
	m.Evaluate(StatusFail)
	time.Sleep(time.Millisecond)
	m.Evaluate(StatusFail)
	time.Sleep(time.Millisecond)

	decision := m.Evaluate(StatusOK)
	assert.Equal(t, Healthy, decision)
	assert.Equal(t, 0, m.ConsecutiveFailures())
}

func TestHealthMonitorTripsUnhealthyAtThreshold(t *testing.T) {
	m := NewHealthMonitor(3, time.Nanosecond)

	assert.Equal(t, Degraded, m.Evaluate(StatusFail))
	time.Sleep(time.Millisecond)
	assert.Equal(t, Degraded, m.Evaluate(StatusFail))
	time.Sleep(time.Millisecond)
	assert.Equal(t, Unhealthy, m.Evaluate(StatusFail))
}

func TestHealthMonitorWarnIsDegradedNeverUnhealthy(t *testing.T) {
	m := NewHealthMonitor(1, time.Nanosecond)
	decision := m.Evaluate(StatusWarn)
	assert.Equal(t, Degraded, decision)
}

func TestHealthMonitorGatesWithinCheckInterval(t *testing.T) {
	m := NewHealthMonitor(1, time.Hour)

	first := m.Evaluate(StatusFail)
	assert.Equal(t, Unhealthy, first)

	second := m.Evaluate(StatusOK)
	assert.Equal(t, Unhealthy, second)
	assert.Equal(t, 1, m.ConsecutiveFailures())
}

func TestHealthMonitorResetClearsStreak(t *testing.T) {
	m := NewHealthMonitor(3, time.Nanosecond)
	m.Evaluate(StatusFail)
	m.Reset()
	assert.Equal(t, 0, m.ConsecutiveFailures())
}

func TestHealthMonitorDefaultsAppliedForZeroValues(t *testing.T) {
	m := NewHealthMonitor(0, 0)
	assert.Equal(t, DefaultFailureThreshold, m.failureThreshold)
	assert.Equal(t, DefaultCheckInterval, m.checkInterval)
}
