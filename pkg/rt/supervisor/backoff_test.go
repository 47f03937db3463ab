package supervisor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRestartBackoffExponentialGrowth(t *testing.T) {
	b := NewRestartBackoff(BackoffConfig{
		MaxRestarts:   100,
		RestartWindow: time.Minute,
		BaseDelay:     100 * time.Millisecond,
		MaxDelay:      60 * time.Second,
	})

	require.Equal(t, 100*time.Millisecond, b.NextDelay())
	b.RecordRestart()
	require.Equal(t, 200*time.Millisecond, b.NextDelay())
	b.RecordRestart()
	require.Equal(t, 400*time.Millisecond, b.NextDelay())
}

func TestRestartBackoffCapsAtMaxDelay(t *testing.T) {
	b := NewRestartBackoff(BackoffConfig{
		MaxRestarts:   100,
		RestartWindow: time.Minute,
		BaseDelay:     100 * time.Millisecond,
		MaxDelay:      500 * time.Millisecond,
	})
	for i := 0; i < 5; i++ {
		b.RecordRestart()
	}
	assert.Equal(t, 500*time.Millisecond, b.NextDelay())
}

func TestRestartBackoffIsLimitExceeded(t *testing.T) {
	b := NewRestartBackoff(BackoffConfig{
		MaxRestarts:   3,
		RestartWindow: time.Minute,
	})
	for i := 0; i < 2; i++ {
		b.RecordRestart()
	}
	assert.False(t, b.IsLimitExceeded())
	b.RecordRestart()
	assert.True(t, b.IsLimitExceeded())
}

func TestRestartBackoffWindowExpiry(t *testing.T) {
	b := NewRestartBackoff(BackoffConfig{
		MaxRestarts:   2,
		RestartWindow: 20 * time.Millisecond,
	})
	b.RecordRestart()
	b.RecordRestart()
	assert.True(t, b.IsLimitExceeded())

	time.Sleep(30 * time.Millisecond)
	assert.False(t, b.IsLimitExceeded())
	assert.Equal(t, 0, b.RestartCount())
}

func TestRestartBackoffFullSequenceUpToCap(t *testing.T) {
	b := NewRestartBackoff(BackoffConfig{
		MaxRestarts:   100,
		RestartWindow: time.Hour,
		BaseDelay:     100 * time.Millisecond,
		MaxDelay:      5 * time.Second,
	})

	want := []time.Duration{
		100 * time.Millisecond,
		200 * time.Millisecond,
		400 * time.Millisecond,
		800 * time.Millisecond,
		1600 * time.Millisecond,
		3200 * time.Millisecond,
		5 * time.Second, // 6400ms capped
	}
	for i, expected := range want {
		assert.Equal(t, expected, b.NextDelay(), "attempt %d", i)
		b.RecordRestart()
	}
}

func TestRestartBackoffExponentCapMakesLateAttemptsEqual(t *testing.T) {
	b := NewRestartBackoff(BackoffConfig{
		MaxRestarts:   1000,
		RestartWindow: time.Hour,
		BaseDelay:     time.Millisecond,
		MaxDelay:      time.Hour,
	})
	for i := 0; i < 10; i++ {
		b.RecordRestart()
	}
	atTen := b.NextDelay()

	for i := 0; i < 90; i++ {
		b.RecordRestart()
	}
	assert.Equal(t, atTen, b.NextDelay(), "the exponent cap bounds every later attempt to the same delay")
	assert.Equal(t, time.Millisecond<<10, atTen)
}

func TestRestartBackoffDeterministicJitter(t *testing.T) {
	b := NewRestartBackoff(BackoffConfig{
		MaxRestarts:   100,
		RestartWindow: time.Minute,
		BaseDelay:     100 * time.Millisecond,
		MaxDelay:      60 * time.Second,
		JitterFactor:  0.1,
		Deterministic: true,
	})
	// attempt 0 (even) -> +10%
	assert.Equal(t, 110*time.Millisecond, b.NextDelay())
	b.RecordRestart()
	// attempt 1 (odd) -> -10%
	assert.Equal(t, 180*time.Millisecond, b.NextDelay())
}

func TestRestartBackoffReset(t *testing.T) {
	b := NewRestartBackoff(BackoffConfig{MaxRestarts: 1, RestartWindow: time.Minute})
	b.RecordRestart()
	assert.True(t, b.IsLimitExceeded())
	b.Reset()
	assert.False(t, b.IsLimitExceeded())
	assert.Equal(t, 0, b.RestartCount())
}
