package component

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airsstack/airssys/pkg/rt"
	"github.com/airsstack/airssys/pkg/wasmhost"
	"github.com/airsstack/airssys/pkg/wasmhost/engine/enginefake"
	"github.com/airsstack/airssys/pkg/wasmhost/messaging"
)

// TestRequestResponseThroughRealComponentActor exercises the
// request/response happy path against the actual dispatch path: a
// messaging.Patterns.Request call, routed by the
// actor system's mailbox router to a real component.Actor spawned
// under rt.ActorSystem, whose HandleMessage echoes the correlation id
// it received on the invocation payload back on its response so
// messaging.Router can complete the caller's pending request.
func TestRequestResponseThroughRealComponentActor(t *testing.T) {
	broker := rt.NewBroker[wasmhost.Message](rt.DefaultBrokerConfig())
	system := rt.NewActorSystem(broker, rt.DefaultSystemConfig(), nil)
	defer system.ForceShutdown()

	eng := enginefake.New(func(fn string, args []byte) ([]byte, uint64, time.Duration, error) {
		return append([]byte("echo:"), args...), 1, 0, nil
	})
	actor := NewActor(newTestComponent(), []byte("wasm"), eng, LifecycleHooks{})

	addr, err := system.Spawn(actor, "comp-1", 8)
	require.NoError(t, err)

	patterns := messaging.NewPatterns(broker)
	router := messaging.NewRouter(patterns, nil)
	router.Start()
	defer router.Stop()

	self := rt.NewNamed("caller")
	resp, err := patterns.Request(self, addr, wasmhost.NewInvocation("add", []byte("1,2")), time.Second)
	require.NoError(t, err)
	assert.Equal(t, wasmhost.KindResponse, resp.Kind)
	assert.Equal(t, "echo:1,2", string(resp.Output))
	assert.Empty(t, resp.Err)
}
