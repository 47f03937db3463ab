package supervisor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStrategyOneForOneAffectsOnlyFailed(t *testing.T) {
	assert.Equal(t, []int{2}, OneForOne.affected(2, 5))
}

func TestStrategyOneForAllAffectsEveryChild(t *testing.T) {
	assert.Equal(t, []int{0, 1, 2, 3, 4}, OneForAll.affected(2, 5))
}

func TestStrategyRestForOneAffectsFailedAndLater(t *testing.T) {
	assert.Equal(t, []int{2, 3, 4}, RestForOne.affected(2, 5))
}

func TestStrategyRestForOneAtLastIndex(t *testing.T) {
	assert.Equal(t, []int{4}, RestForOne.affected(4, 5))
}
