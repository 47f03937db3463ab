package messaging

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airsstack/airssys/pkg/rt"
	"github.com/airsstack/airssys/pkg/wasmhost"
)

func TestPatternsSendPublishesFireAndForget(t *testing.T) {
	broker := rt.NewBroker[wasmhost.Message](rt.DefaultBrokerConfig())
	p := NewPatterns(broker)
	sub := broker.Subscribe()
	defer sub.Close()

	target := rt.NewNamed("comp-b")
	require.NoError(t, p.Send(target, wasmhost.NewInvocation("ping", nil)))

	select {
	case env := <-sub.C():
		require.NotNil(t, env.ReplyTo)
		assert.True(t, env.ReplyTo.Equal(target))
	case <-time.After(time.Second):
		t.Fatal("expected envelope to be published")
	}
}

func TestPatternsRequestCompletesOnRouterDeliveredResponse(t *testing.T) {
	broker := rt.NewBroker[wasmhost.Message](rt.DefaultBrokerConfig())
	p := NewPatterns(broker)
	router := NewRouter(p, nil)
	router.Start()
	defer router.Stop()

	self := rt.NewNamed("comp-a")
	target := rt.NewNamed("comp-b")

	sub := broker.Subscribe()
	go func() {
		env := <-sub.C()
		resp := wasmhost.NewResponse([]byte("pong"), nil)
		reply := rt.NewEnvelope(resp).WithCorrelationID(*env.CorrelationID)
		_ = broker.Publish(reply)
	}()
	defer sub.Close()

	resp, err := p.Request(self, target, wasmhost.NewInvocation("ping", nil), time.Second)
	require.NoError(t, err)
	assert.Equal(t, "pong", string(resp.Output))
}

func TestPatternsRequestTimesOutWithoutResponse(t *testing.T) {
	broker := rt.NewBroker[wasmhost.Message](rt.DefaultBrokerConfig())
	p := NewPatterns(broker)

	self := rt.NewNamed("comp-a")
	target := rt.NewNamed("comp-b")

	_, err := p.Request(self, target, wasmhost.NewInvocation("ping", nil), 20*time.Millisecond)
	assert.ErrorIs(t, err, ErrCorrelationTimeout)
}
