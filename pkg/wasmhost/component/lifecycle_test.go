package component

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLifecycleHooksNilHookIsNoop(t *testing.T) {
	var h LifecycleHooks
	assert.NoError(t, h.RunPreStart())
	assert.NoError(t, h.RunPostStop())
}

func TestLifecycleHooksRunsProvidedHook(t *testing.T) {
	called := false
	h := LifecycleHooks{PreStart: func(ctx context.Context) error {
		called = true
		return nil
	}}
	require.NoError(t, h.RunPreStart())
	assert.True(t, called)
}

func TestLifecycleHooksPropagatesHookError(t *testing.T) {
	boom := errors.New("boom")
	h := LifecycleHooks{PostStart: func(ctx context.Context) error { return boom }}
	err := h.RunPostStart()
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestLifecycleHooksTimeoutBecomesHookError(t *testing.T) {
	h := LifecycleHooks{
		HookTimeout: 10 * time.Millisecond,
		PreStop: func(ctx context.Context) error {
			<-ctx.Done()
			time.Sleep(50 * time.Millisecond)
			return nil
		},
	}
	err := h.RunPreStop()
	require.Error(t, err)

	var hookErr *HookError
	require.ErrorAs(t, err, &hookErr)
	assert.Equal(t, "timeout", hookErr.Cause)
	assert.Equal(t, "pre_stop", hookErr.Hook)
}

func TestLifecycleHooksPanicIsRecovered(t *testing.T) {
	h := LifecycleHooks{OnRestart: func(ctx context.Context) error {
		panic("kaboom")
	}}
	err := h.RunOnRestart()
	require.Error(t, err)

	var hookErr *HookError
	require.ErrorAs(t, err, &hookErr)
	assert.Equal(t, "panic", hookErr.Cause)
	assert.Contains(t, hookErr.Err.Error(), "kaboom")
}
