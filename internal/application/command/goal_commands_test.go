package command

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tojustn/Shepherd/internal/domain/goal"
	"github.com/Tojustn/Shepherd/internal/domain/progression"
	"github.com/Tojustn/Shepherd/internal/domain/shared"
)

type goalTestEnv struct {
	accounts *fakeAccountRepo
	ledger   *fakeLedgerRepo
	goals    *fakeGoalRepo
	award    *AwardXPHandler
}

func newGoalTestEnv(t *testing.T) *goalTestEnv {
	t.Helper()
	env := &goalTestEnv{
		accounts: newFakeAccountRepo(seedAccount(t, 0)),
		ledger:   &fakeLedgerRepo{},
		goals:    newFakeGoalRepo(),
	}
	env.award = newAwardHandler(env.accounts, env.ledger, newFakeStreakRepo())
	return env
}

func (e *goalTestEnv) createCustom(t *testing.T, target, difficulty int) *goal.Goal {
	t.Helper()
	h := NewCreateGoalHandler(e.goals)
	res, err := h.Handle(context.Background(), CreateGoalCommand{
		AccountID:  "acc-1",
		Label:      "Read the pgx docs",
		Target:     target,
		Difficulty: difficulty,
	})
	require.NoError(t, err)
	return res.Goal
}

func TestIncrementGoalHandler_CompletionAwardsOnce(t *testing.T) {
	env := newGoalTestEnv(t)
	g := env.createCustom(t, 3, 2)
	h := NewIncrementGoalHandler(env.goals, env.award)

	var res *IncrementGoalResult
	var err error
	for i := 0; i < 3; i++ {
		res, err = h.Handle(context.Background(), IncrementGoalCommand{
			AccountID: "acc-1",
			GoalID:    g.ID,
		})
		require.NoError(t, err)
	}

	assert.True(t, res.Completed)
	assert.Equal(t, 20, res.XPAwarded)
	assert.Equal(t, 3, res.Goal.Current)

	// a fourth increment is a no-op on a completed goal
	again, err := h.Handle(context.Background(), IncrementGoalCommand{
		AccountID: "acc-1",
		GoalID:    g.ID,
	})
	require.NoError(t, err)
	assert.False(t, again.Completed)
	assert.Zero(t, again.XPAwarded)
	assert.Empty(t, again.Events)

	assert.Len(t, env.ledger.bySource(progression.SourceGoalComplete), 1)
}

func TestIncrementGoalHandler_DeltaOvershootClamps(t *testing.T) {
	env := newGoalTestEnv(t)
	g := env.createCustom(t, 5, 1)
	h := NewIncrementGoalHandler(env.goals, env.award)

	res, err := h.Handle(context.Background(), IncrementGoalCommand{
		AccountID: "acc-1",
		GoalID:    g.ID,
		Delta:     9,
	})
	require.NoError(t, err)

	assert.True(t, res.Completed)
	assert.Equal(t, 5, res.Goal.Current)
	assert.Equal(t, 10, res.XPAwarded)
}

func TestIncrementGoalHandler_NegativeDelta(t *testing.T) {
	env := newGoalTestEnv(t)
	g := env.createCustom(t, 3, 1)
	h := NewIncrementGoalHandler(env.goals, env.award)

	_, err := h.Handle(context.Background(), IncrementGoalCommand{
		AccountID: "acc-1",
		GoalID:    g.ID,
		Delta:     -1,
	})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestIncrementGoalHandler_UnknownGoal(t *testing.T) {
	env := newGoalTestEnv(t)
	h := NewIncrementGoalHandler(env.goals, env.award)

	_, err := h.Handle(context.Background(), IncrementGoalCommand{
		AccountID: "acc-1",
		GoalID:    "missing",
	})
	assert.ErrorIs(t, err, goal.ErrGoalNotFound)
}

func TestCompleteGoalHandler_Checkbox(t *testing.T) {
	env := newGoalTestEnv(t)
	g := env.createCustom(t, 1, 3)
	h := NewCompleteGoalHandler(env.goals, env.award)

	res, err := h.Handle(context.Background(), CompleteGoalCommand{
		AccountID: "acc-1",
		GoalID:    g.ID,
	})
	require.NoError(t, err)

	assert.True(t, res.Completed)
	assert.Equal(t, 30, res.XPAwarded)

	again, err := h.Handle(context.Background(), CompleteGoalCommand{
		AccountID: "acc-1",
		GoalID:    g.ID,
	})
	require.NoError(t, err)
	assert.False(t, again.Completed)
	assert.Zero(t, again.XPAwarded)

	assert.Len(t, env.ledger.bySource(progression.SourceGoalComplete), 1)
}

func TestCompleteGoalHandler_RejectsCounterGoal(t *testing.T) {
	env := newGoalTestEnv(t)
	g := env.createCustom(t, 5, 1)
	h := NewCompleteGoalHandler(env.goals, env.award)

	_, err := h.Handle(context.Background(), CompleteGoalCommand{
		AccountID: "acc-1",
		GoalID:    g.ID,
	})
	assert.ErrorIs(t, err, shared.ErrInvalidOperation)
}

func TestCompleteGoalHandler_RejectsDailyQuest(t *testing.T) {
	env := newGoalTestEnv(t)
	today := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	quest := goal.NewDailyGoal("quest-1", "acc-1", goal.DailyCatalog[0], today)
	require.NoError(t, env.goals.Create(context.Background(), quest))

	h := NewCompleteGoalHandler(env.goals, env.award)
	_, err := h.Handle(context.Background(), CompleteGoalCommand{
		AccountID: "acc-1",
		GoalID:    quest.ID,
	})
	assert.ErrorIs(t, err, shared.ErrInvalidOperation)
}

func TestDeleteGoalHandler(t *testing.T) {
	env := newGoalTestEnv(t)
	g := env.createCustom(t, 3, 1)
	h := NewDeleteGoalHandler(env.goals)

	res, err := h.Handle(context.Background(), DeleteGoalCommand{
		AccountID: "acc-1",
		GoalID:    g.ID,
	})
	require.NoError(t, err)
	require.Len(t, res.Events, 1)

	_, err = env.goals.GetByID(context.Background(), "acc-1", g.ID)
	assert.ErrorIs(t, err, goal.ErrGoalNotFound)
}

func TestDeleteGoalHandler_RejectsDailyQuest(t *testing.T) {
	env := newGoalTestEnv(t)
	today := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	quest := goal.NewDailyGoal("quest-1", "acc-1", goal.DailyCatalog[1], today)
	require.NoError(t, env.goals.Create(context.Background(), quest))

	h := NewDeleteGoalHandler(env.goals)
	_, err := h.Handle(context.Background(), DeleteGoalCommand{
		AccountID: "acc-1",
		GoalID:    quest.ID,
	})
	assert.ErrorIs(t, err, shared.ErrInvalidOperation)

	_, err = env.goals.GetByID(context.Background(), "acc-1", quest.ID)
	assert.NoError(t, err)
}

func TestEnsureDailyGoalsHandler(t *testing.T) {
	env := newGoalTestEnv(t)
	h := NewEnsureDailyGoalsHandler(env.goals, time.UTC)
	seq := 0
	h.newID = func() string {
		seq++
		return "quest-" + string(rune('a'+seq-1))
	}
	today := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	first, err := h.Handle(context.Background(), EnsureDailyGoalsCommand{
		AccountID: "acc-1",
		Today:     today,
	})
	require.NoError(t, err)
	assert.Equal(t, len(goal.DailyCatalog), first.Created)
	require.Len(t, first.Goals, len(goal.DailyCatalog))
	assert.Equal(t, goal.KindDailyCommit, first.Goals[0].Kind)
	assert.Equal(t, goal.KindDailySolve, first.Goals[1].Kind)

	second, err := h.Handle(context.Background(), EnsureDailyGoalsCommand{
		AccountID: "acc-1",
		Today:     today,
	})
	require.NoError(t, err)
	assert.Zero(t, second.Created)
	assert.Len(t, second.Goals, len(goal.DailyCatalog))

	// a new date materializes a fresh set
	tomorrow := today.AddDate(0, 0, 1)
	third, err := h.Handle(context.Background(), EnsureDailyGoalsCommand{
		AccountID: "acc-1",
		Today:     tomorrow,
	})
	require.NoError(t, err)
	assert.Equal(t, len(goal.DailyCatalog), third.Created)
}
