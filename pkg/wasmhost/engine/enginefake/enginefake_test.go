package enginefake

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airsstack/airssys/pkg/wasmhost/engine"
)

func TestEngineNilHandlerEchoesArgs(t *testing.T) {
	e := New(nil)
	mod, err := e.LoadModule(context.Background(), []byte("wasm"), engine.Limits{MaxFuel: 10})
	require.NoError(t, err)

	out, err := e.Invoke(context.Background(), mod, "run", []byte("hello"), engine.Limits{MaxFuel: 10})
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), out)
}

func TestEngineHandlerInvokedWithOutput(t *testing.T) {
	e := New(func(fn string, args []byte) ([]byte, uint64, time.Duration, error) {
		return []byte(fn + ":" + string(args)), 1, 0, nil
	})
	mod, err := e.LoadModule(context.Background(), nil, engine.Limits{MaxFuel: 5})
	require.NoError(t, err)

	out, err := e.Invoke(context.Background(), mod, "add", []byte("1,2"), engine.Limits{MaxFuel: 5})
	require.NoError(t, err)
	assert.Equal(t, "add:1,2", string(out))
}

func TestEngineFuelExhaustionFailsInvoke(t *testing.T) {
	e := New(func(_ string, _ []byte) ([]byte, uint64, time.Duration, error) {
		return nil, 100, 0, nil
	})
	mod, err := e.LoadModule(context.Background(), nil, engine.Limits{MaxFuel: 10})
	require.NoError(t, err)

	_, err = e.Invoke(context.Background(), mod, "run", nil, engine.Limits{MaxFuel: 10})
	require.Error(t, err)

	var invokeErr *engine.InvokeError
	require.ErrorAs(t, err, &invokeErr)
	assert.Equal(t, engine.FailureFuel, invokeErr.Reason)
}

func TestEngineWallClockTimeoutExceeded(t *testing.T) {
	e := New(func(_ string, _ []byte) ([]byte, uint64, time.Duration, error) {
		return nil, 0, 50 * time.Millisecond, nil
	})
	mod, err := e.LoadModule(context.Background(), nil, engine.Limits{MaxFuel: 10, Timeout: 1})
	require.NoError(t, err)

	_, err = e.Invoke(context.Background(), mod, "slow", nil, engine.Limits{MaxFuel: 10, Timeout: 1})
	require.Error(t, err)

	var invokeErr *engine.InvokeError
	require.ErrorAs(t, err, &invokeErr)
	assert.Equal(t, engine.FailureTimeout, invokeErr.Reason)
}

func TestEngineContextCancelationFailsInvoke(t *testing.T) {
	e := New(func(_ string, _ []byte) ([]byte, uint64, time.Duration, error) {
		return nil, 0, time.Second, nil
	})
	mod, err := e.LoadModule(context.Background(), nil, engine.Limits{MaxFuel: 10})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = e.Invoke(ctx, mod, "slow", nil, engine.Limits{MaxFuel: 10})
	require.Error(t, err)

	var invokeErr *engine.InvokeError
	require.ErrorAs(t, err, &invokeErr)
	assert.Equal(t, engine.FailureTimeout, invokeErr.Reason)
}

func TestEngineUnknownModuleHandleTraps(t *testing.T) {
	e := New(nil)
	_, err := e.Invoke(context.Background(), nil, "run", nil, engine.Limits{})
	require.Error(t, err)

	var invokeErr *engine.InvokeError
	require.ErrorAs(t, err, &invokeErr)
	assert.Equal(t, engine.FailureTrap, invokeErr.Reason)
}

func TestEngineClosedModuleTrapsOnInvoke(t *testing.T) {
	e := New(func(_ string, _ []byte) ([]byte, uint64, time.Duration, error) {
		return nil, 1, 0, nil
	})
	mod, err := e.LoadModule(context.Background(), nil, engine.Limits{MaxFuel: 5})
	require.NoError(t, err)

	require.NoError(t, e.Close(mod))

	_, err = e.Invoke(context.Background(), mod, "run", nil, engine.Limits{MaxFuel: 5})
	require.Error(t, err)

	var invokeErr *engine.InvokeError
	require.ErrorAs(t, err, &invokeErr)
	assert.Equal(t, engine.FailureTrap, invokeErr.Reason)
}
