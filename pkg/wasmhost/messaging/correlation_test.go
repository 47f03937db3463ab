package messaging

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airsstack/airssys/pkg/wasmhost"
)

func TestTrackerRegisterAndCompleteDelivers(t *testing.T) {
	tr := NewTracker()
	id := uuid.New()

	ch, err := tr.Register(id, time.Second, "comp-a", "comp-b")
	require.NoError(t, err)
	assert.True(t, tr.IsPending(id))

	payload := wasmhost.NewResponse([]byte("ok"), nil)
	require.NoError(t, tr.Complete(id, payload))

	select {
	case got := <-ch:
		assert.Equal(t, payload, got)
	default:
		t.Fatal("expected payload to be delivered")
	}
	assert.False(t, tr.IsPending(id))
}

func TestTrackerRegisterDuplicateFails(t *testing.T) {
	tr := NewTracker()
	id := uuid.New()
	_, err := tr.Register(id, time.Second, "a", "b")
	require.NoError(t, err)

	_, err = tr.Register(id, time.Second, "a", "b")
	assert.ErrorIs(t, err, ErrCorrelationExists)
}

func TestTrackerCompleteUnknownIDFails(t *testing.T) {
	tr := NewTracker()
	err := tr.Complete(uuid.New(), wasmhost.Message{})
	assert.ErrorIs(t, err, ErrCorrelationNotFound)
}

func TestTrackerCompleteAfterDeadlineTimesOut(t *testing.T) {
	tr := NewTracker()
	id := uuid.New()
	_, err := tr.Register(id, time.Nanosecond, "a", "b")
	require.NoError(t, err)

	time.Sleep(time.Millisecond)

	err = tr.Complete(id, wasmhost.Message{})
	assert.ErrorIs(t, err, ErrCorrelationTimeout)
	assert.False(t, tr.IsPending(id))
}

func TestTrackerRemoveDropsEntry(t *testing.T) {
	tr := NewTracker()
	id := uuid.New()
	_, err := tr.Register(id, time.Second, "a", "b")
	require.NoError(t, err)

	tr.Remove(id)
	assert.False(t, tr.IsPending(id))
}

func TestTrackerCleanupExpiredRemovesOnlyExpired(t *testing.T) {
	tr := NewTracker()
	liveID := uuid.New()
	expiredID := uuid.New()

	_, err := tr.Register(liveID, time.Hour, "a", "b")
	require.NoError(t, err)
	_, err = tr.Register(expiredID, time.Nanosecond, "a", "b")
	require.NoError(t, err)

	time.Sleep(time.Millisecond)
	tr.CleanupExpired()

	assert.True(t, tr.IsPending(liveID))
	assert.False(t, tr.IsPending(expiredID))

	// A second sweep is a no-op.
	tr.CleanupExpired()
	assert.True(t, tr.IsPending(liveID))
	assert.False(t, tr.IsPending(expiredID))
}
