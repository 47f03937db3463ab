package rt

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// jsonMsg is a serializable Message double; the broker's contracts
// operate on typed values, but envelopes shipped over a wire must
// survive a round trip with every field intact.
type jsonMsg struct {
	Kind string `json:"kind"`
	Body string `json:"body"`
}

func (m jsonMsg) MessageType() string       { return m.Kind }
func (m jsonMsg) MessagePriority() Priority { return PriorityHigh }

func TestEnvelopeJSONRoundTripPreservesAllFields(t *testing.T) {
	sender := NewNamed("comp-a")
	target := NewNamed("comp-b")
	corrID := uuid.New()

	env := NewEnvelope(jsonMsg{Kind: "invoke", Body: "payload"}).
		WithSender(sender).
		WithReplyTo(target).
		WithCorrelationID(corrID).
		WithTTL(30 * time.Second)

	raw, err := json.Marshal(env)
	require.NoError(t, err)

	var got Envelope[jsonMsg]
	require.NoError(t, json.Unmarshal(raw, &got))

	assert.Equal(t, env.Payload, got.Payload)
	assert.Equal(t, "invoke", got.Payload.MessageType())
	require.NotNil(t, got.Sender)
	assert.True(t, got.Sender.Equal(sender))
	require.NotNil(t, got.ReplyTo)
	assert.True(t, got.ReplyTo.Equal(target))
	require.NotNil(t, got.CorrelationID)
	assert.Equal(t, corrID, *got.CorrelationID)
	require.NotNil(t, got.TTL)
	assert.Equal(t, 30*time.Second, *got.TTL)
	assert.True(t, env.Timestamp.Equal(got.Timestamp))
}

func TestEnvelopeExpiry(t *testing.T) {
	env := NewEnvelope(jsonMsg{Kind: "x"})
	assert.False(t, env.Expired(time.Now().Add(time.Hour)), "no TTL set never expires")

	ttl := time.Minute
	env.TTL = &ttl
	assert.False(t, env.Expired(env.Timestamp.Add(30*time.Second)))
	assert.True(t, env.Expired(env.Timestamp.Add(2*time.Minute)))
}
