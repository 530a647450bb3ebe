package opt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBudgetValidate(t *testing.T) {
	assert.NoError(t, Budget{Iterations: 10}.Validate())
	assert.NoError(t, Budget{}.Validate())
	assert.Error(t, Budget{Iterations: -1}.Validate())
	assert.Error(t, Budget{TimeLimit: -time.Second}.Validate())
	assert.Error(t, Budget{Iterations: 1, Target: Target(-1)}.Validate())

	assert.False(t, Budget{}.Bounded())
	assert.True(t, Budget{TimeLimit: time.Second}.Bounded())
}

func TestBudgetDone(t *testing.T) {
	start := time.Now()

	b := Budget{Iterations: 5}
	_, done := b.Done(4, start, 10)
	assert.False(t, done)
	reason, done := b.Done(5, start, 10)
	assert.True(t, done)
	assert.Equal(t, StopIterations, reason)

	b = Budget{Iterations: 100, Target: Target(2)}
	reason, done = b.Done(0, start, 2)
	assert.True(t, done)
	assert.Equal(t, StopTarget, reason)

	b = Budget{TimeLimit: time.Millisecond}
	reason, done = b.Done(0, start.Add(-time.Second), 10)
	assert.True(t, done)
	assert.Equal(t, StopTime, reason)
}
