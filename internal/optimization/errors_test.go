package optimization

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorString(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{"message only", NewError("boom"), "boom"},
		{"with op", NewError("boom").WithOperation("Shrink"), "Shrink: boom"},
		{"with component", NewErrorf("bad %d", 3).WithComponent("hypercube"), "hypercube: bad 3"},
		{"full", WrapError(errors.New("cause"), "boom").WithOperation("Evaluate").WithComponent("evaluation"),
			"evaluation: Evaluate: boom: cause"},
		{"wrapped without context", WrapErrorf(errors.New("cause"), "step %d", 2), "step 2: cause"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestWrapNil(t *testing.T) {
	assert.Nil(t, WrapError(nil, "x"))
	assert.Nil(t, WrapErrorf(nil, "x %d", 1))
}

func TestSentinelMatching(t *testing.T) {
	err := fmt.Errorf("building: %w", InvalidConfigf("population %d", -1).WithComponent("hypercube"))

	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.NotErrorIs(t, err, ErrNoObjective)

	e, ok := IsOptimizationError(err)
	require.True(t, ok)
	assert.Equal(t, "hypercube", e.Component)
	assert.Equal(t, "population -1", e.Message)

	_, ok = IsOptimizationError(errors.New("plain"))
	assert.False(t, ok)
}

func TestExitStatus(t *testing.T) {
	statuses := []ExitStatus{Running, Converged, IterationLimitReached, EvaluationLimitReached, TimeLimitReached}
	seen := make(map[string]bool)
	for _, s := range statuses {
		assert.NotEqual(t, "unknown", s.String())
		assert.NotEqual(t, "unknown exit status", s.Message())
		assert.False(t, seen[s.String()], "duplicate name %s", s)
		seen[s.String()] = true
	}
	assert.Equal(t, "unknown", ExitStatus(42).String())

	data, err := json.Marshal(map[string]ExitStatus{"status": Converged})
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"converged"}`, string(data))
}
