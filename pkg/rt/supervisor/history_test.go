package supervisor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryRecordsInOrder(t *testing.T) {
	h := NewHistory(10)
	h.Record("crash", 100*time.Millisecond)
	h.Record("crash again", 200*time.Millisecond)

	recs := h.Records()
	require.Len(t, recs, 2)
	assert.Equal(t, 1, recs[0].AttemptIndex)
	assert.Equal(t, "crash", recs[0].Reason)
	assert.Equal(t, 2, recs[1].AttemptIndex)
	assert.Equal(t, 200*time.Millisecond, recs[1].DelayApplied)
}

func TestHistoryEvictsOldestAtCapacity(t *testing.T) {
	h := NewHistory(2)
	h.Record("a", 0)
	h.Record("b", 0)
	h.Record("c", 0)

	recs := h.Records()
	require.Len(t, recs, 2)
	assert.Equal(t, "b", recs[0].Reason)
	assert.Equal(t, "c", recs[1].Reason)
}

func TestHistoryDefaultCapacity(t *testing.T) {
	h := NewHistory(0)
	assert.Equal(t, DefaultHistoryCapacity, h.capacity)
}
