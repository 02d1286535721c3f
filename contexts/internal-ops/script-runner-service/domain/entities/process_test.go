package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProcessStatusTransitions(t *testing.T) {
	assert.True(t, ProcessScheduled.CanTransition(ProcessRunning))
	assert.True(t, ProcessScheduled.CanTransition(ProcessCancelled))
	assert.True(t, ProcessRunning.CanTransition(ProcessCompleted))
	assert.True(t, ProcessRunning.CanTransition(ProcessFailed))
	assert.False(t, ProcessRunning.CanTransition(ProcessScheduled))
	assert.False(t, ProcessCompleted.CanTransition(ProcessRunning))
	assert.False(t, ProcessCancelled.CanTransition(ProcessFailed))
}

func TestProcessStatusTerminalAndValid(t *testing.T) {
	assert.True(t, ProcessFailed.Terminal())
	assert.False(t, ProcessRunning.Terminal())
	assert.True(t, ProcessStatus("scheduled").Valid())
	assert.False(t, ProcessStatus("paused").Valid())
}
