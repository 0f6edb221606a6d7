package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDealOverdue(t *testing.T) {
	now := time.Now()

	t.Run("no next action", func(t *testing.T) {
		deal := &Deal{}
		assert.False(t, deal.Overdue(now))
	})

	t.Run("next action in the future", func(t *testing.T) {
		future := now.Add(24 * time.Hour)
		deal := &Deal{NextActionAt: &future}
		assert.False(t, deal.Overdue(now))
	})

	t.Run("next action in the past", func(t *testing.T) {
		past := now.Add(-24 * time.Hour)
		deal := &Deal{NextActionAt: &past}
		assert.True(t, deal.Overdue(now))
	})
}

func TestDealExpectedValue(t *testing.T) {
	t.Run("nil when amount missing", func(t *testing.T) {
		deal := &Deal{Probability: 0.5}
		assert.Nil(t, deal.ExpectedValueAt())
	})

	t.Run("amount times probability", func(t *testing.T) {
		amount := 1_000_000.0
		deal := &Deal{AmountEstimate: &amount, Probability: 0.25}
		ev := deal.ExpectedValueAt()
		assert.NotNil(t, ev)
		assert.InDelta(t, 250_000.0, *ev, 0.001)
	})

	t.Run("zero probability gives zero value", func(t *testing.T) {
		amount := 1_000_000.0
		deal := &Deal{AmountEstimate: &amount, Probability: 0}
		ev := deal.ExpectedValueAt()
		assert.NotNil(t, ev)
		assert.Equal(t, 0.0, *ev)
	})
}

func TestDealDecorate(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	amount := 100.0
	deal := &Deal{AmountEstimate: &amount, Probability: 0.5, NextActionAt: &past}

	deal.Decorate(now)

	assert.True(t, deal.IsOverdue)
	assert.NotNil(t, deal.ExpectedValue)
	assert.InDelta(t, 50.0, *deal.ExpectedValue, 0.001)
}

func TestTaskOverdue(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)

	t.Run("no due date", func(t *testing.T) {
		task := &Task{Status: TaskStatusTodo}
		assert.False(t, task.Overdue(now))
	})

	t.Run("past due date", func(t *testing.T) {
		task := &Task{Status: TaskStatusDoing, DueAt: &past}
		assert.True(t, task.Overdue(now))
	})

	t.Run("done task is never overdue", func(t *testing.T) {
		task := &Task{Status: TaskStatusDone, DueAt: &past}
		assert.False(t, task.Overdue(now))
	})
}

func TestStageValidate(t *testing.T) {
	t.Run("valid probability", func(t *testing.T) {
		stage := &Stage{Name: "LOI", Order: 3, DefaultProbability: 0.5}
		assert.NoError(t, stage.Validate())
	})

	t.Run("probability above one", func(t *testing.T) {
		stage := &Stage{Name: "LOI", Order: 3, DefaultProbability: 1.5}
		err := stage.Validate()
		assert.Error(t, err)
		var ve *ValidationError
		assert.ErrorAs(t, err, &ve)
		assert.Equal(t, "default_probability", ve.Field)
	})

	t.Run("negative probability", func(t *testing.T) {
		stage := &Stage{Name: "LOI", Order: 3, DefaultProbability: -0.1}
		assert.Error(t, stage.Validate())
	})
}
