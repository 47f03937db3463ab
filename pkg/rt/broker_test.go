package rt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBrokerPublishDeliversToAllSubscribers(t *testing.T) {
	b := NewBroker[testMsg](DefaultBrokerConfig())
	sub1 := b.Subscribe()
	sub2 := b.Subscribe()
	defer sub1.Close()
	defer sub2.Close()

	env := NewEnvelope(testMsg{kind: "ping"})
	require.NoError(t, b.Publish(env))

	select {
	case got := <-sub1.C():
		assert.Equal(t, "ping", got.Payload.kind)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for sub1")
	}
	select {
	case got := <-sub2.C():
		assert.Equal(t, "ping", got.Payload.kind)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for sub2")
	}
}

func TestBrokerPublishAfterShutdownFails(t *testing.T) {
	b := NewBroker[testMsg](DefaultBrokerConfig())
	b.Shutdown()

	err := b.Publish(NewEnvelope(testMsg{kind: "ping"}))
	assert.ErrorIs(t, err, ErrBrokerShutdown)
}

func TestBrokerDropsSlowSubscriberAtHighWaterMark(t *testing.T) {
	b := NewBroker[testMsg](BrokerConfig{SubscriberCapacity: 1})
	sub := b.Subscribe()
	defer sub.Close()

	var droppedID int64 = -1
	b.OnDroppedSubscriber(func(id int64) { droppedID = id })

	require.NoError(t, b.Publish(NewEnvelope(testMsg{kind: "a"})))
	require.NoError(t, b.Publish(NewEnvelope(testMsg{kind: "b"})))

	require.Eventually(t, func() bool {
		return droppedID >= 0
	}, time.Second, 5*time.Millisecond)
}

func TestBrokerSubscriptionCloseStopsDelivery(t *testing.T) {
	b := NewBroker[testMsg](DefaultBrokerConfig())
	sub := b.Subscribe()
	sub.Close()

	require.NoError(t, b.Publish(NewEnvelope(testMsg{kind: "ping"})))

	_, ok := <-sub.C()
	assert.False(t, ok)
}

func TestBrokerPublishRequestCompletesOnResponse(t *testing.T) {
	b := NewBroker[testMsg](DefaultBrokerConfig())
	sub := b.Subscribe()
	defer sub.Close()

	go func() {
		env := <-sub.C()
		resp := NewEnvelope(testMsg{kind: "pong"}).WithCorrelationID(*env.CorrelationID)
		b.CompleteRequest(resp)
	}()

	resp, err := b.PublishRequest(NewEnvelope(testMsg{kind: "ping"}), time.Second)
	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, "pong", resp.Payload.kind)
}

func TestBrokerPublishRequestTimesOut(t *testing.T) {
	b := NewBroker[testMsg](DefaultBrokerConfig())
	sub := b.Subscribe()
	defer sub.Close()

	resp, err := b.PublishRequest(NewEnvelope(testMsg{kind: "ping"}), 20*time.Millisecond)
	require.ErrorIs(t, err, ErrRequestTimeout)
	assert.Nil(t, resp)
}

func TestBrokerCompleteRequestReportsNoPending(t *testing.T) {
	b := NewBroker[testMsg](DefaultBrokerConfig())
	found := b.CompleteRequest(NewEnvelope(testMsg{kind: "pong"}))
	assert.False(t, found)
}
