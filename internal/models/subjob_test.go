package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubJobState_IsTerminal(t *testing.T) {
	terminal := []SubJobState{
		SubJobStateCompleted,
		SubJobStateFailed,
		SubJobStateFiltered,
		SubJobStateTimedOut,
	}
	for _, state := range terminal {
		assert.True(t, state.IsTerminal(), "expected %s to be terminal", state)
	}

	nonTerminal := []SubJobState{
		SubJobStateCreated,
		SubJobStateAwaitingPreprocessing,
		SubJobStatePreprocessed,
		SubJobStateTranslating,
	}
	for _, state := range nonTerminal {
		assert.False(t, state.IsTerminal(), "expected %s to be non-terminal", state)
	}
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from    SubJobState
		to      SubJobState
		allowed bool
	}{
		{SubJobStateCreated, SubJobStateAwaitingPreprocessing, true},
		{SubJobStateAwaitingPreprocessing, SubJobStatePreprocessed, true},
		{SubJobStateAwaitingPreprocessing, SubJobStateFiltered, true},
		{SubJobStateAwaitingPreprocessing, SubJobStateTimedOut, true},
		{SubJobStatePreprocessed, SubJobStateTranslating, true},
		{SubJobStateTranslating, SubJobStateCompleted, true},
		{SubJobStateTranslating, SubJobStateFailed, true},

		// No skipping or moving backwards
		{SubJobStateCreated, SubJobStateTranslating, false},
		{SubJobStateCreated, SubJobStateCompleted, false},
		{SubJobStatePreprocessed, SubJobStateAwaitingPreprocessing, false},
		{SubJobStateTranslating, SubJobStateCreated, false},

		// Terminal states allow nothing
		{SubJobStateCompleted, SubJobStateFailed, false},
		{SubJobStateFailed, SubJobStateCompleted, false},
		{SubJobStateFiltered, SubJobStateTranslating, false},
		{SubJobStateTimedOut, SubJobStateAwaitingPreprocessing, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.allowed, CanTransition(tt.from, tt.to), "%s -> %s", tt.from, tt.to)
	}
}
