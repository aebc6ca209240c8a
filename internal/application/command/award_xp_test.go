package command

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tojustn/Shepherd/internal/domain/account"
	"github.com/Tojustn/Shepherd/internal/domain/progression"
	"github.com/Tojustn/Shepherd/internal/domain/shared"
)

func seedAccount(t *testing.T, xp int) *account.Account {
	t.Helper()
	acc, err := account.NewAccount(account.NewAccountParams{
		ID:     "acc-1",
		Handle: "octocat",
	})
	require.NoError(t, err)
	if xp > 0 {
		_, err = acc.GainXP(xp)
		require.NoError(t, err)
		acc.PendingLevelUp = false
	}
	return acc
}

func newAwardHandler(accounts *fakeAccountRepo, ledger *fakeLedgerRepo, streaks *fakeStreakRepo) *AwardXPHandler {
	h := NewAwardXPHandler(accounts, ledger, streaks, nil, time.UTC)
	h.now = func() time.Time { return time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC) }
	seq := 0
	h.newID = func() string {
		seq++
		return "entry-" + string(rune('a'+seq-1))
	}
	return h
}

func TestAwardXPHandler_CommitAward(t *testing.T) {
	accounts := newFakeAccountRepo(seedAccount(t, 0))
	ledger := &fakeLedgerRepo{}
	h := newAwardHandler(accounts, ledger, newFakeStreakRepo())

	res, err := h.Handle(context.Background(), AwardXPCommand{
		AccountID: "acc-1",
		Source:    progression.SourceCommit,
		Meta: progression.Metadata{
			Commit: &progression.CommitMetadata{SHA: "abc123", FilesChanged: 2},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 14, res.Amount)
	assert.False(t, res.Capped)
	assert.False(t, res.LevelUp)
	assert.Equal(t, 1, res.NewLevel)
	assert.Equal(t, 14, res.TotalXP)
	require.NotNil(t, res.Entry)
	assert.Equal(t, progression.SourceCommit, res.Entry.Source)

	require.Len(t, res.Events, 1)
	event, ok := res.Events[0].(progression.XPGainedEvent)
	require.True(t, ok)
	assert.Equal(t, 14, event.Amount)
	assert.False(t, event.LevelUp)

	stored, err := accounts.GetByID(context.Background(), "acc-1")
	require.NoError(t, err)
	assert.Equal(t, account.XP(14), stored.XP)
	assert.Len(t, ledger.bySource(progression.SourceCommit), 1)
}

func TestAwardXPHandler_LevelUp(t *testing.T) {
	accounts := newFakeAccountRepo(seedAccount(t, 90))
	h := newAwardHandler(accounts, &fakeLedgerRepo{}, newFakeStreakRepo())

	res, err := h.Handle(context.Background(), AwardXPCommand{
		AccountID: "acc-1",
		Source:    progression.SourceCommit,
	})
	require.NoError(t, err)

	assert.Equal(t, 10, res.Amount)
	assert.True(t, res.LevelUp)
	assert.Equal(t, 2, res.NewLevel)
	assert.Equal(t, 100, res.TotalXP)

	stored, err := accounts.GetByID(context.Background(), "acc-1")
	require.NoError(t, err)
	assert.True(t, stored.PendingLevelUp)
}

func TestAwardXPHandler_CommitStreakMultiplier(t *testing.T) {
	accounts := newFakeAccountRepo(seedAccount(t, 0))
	streaks := newFakeStreakRepo()
	h := newAwardHandler(accounts, &fakeLedgerRepo{}, streaks)

	require.NoError(t, streaks.Save(context.Background(), &progression.Streak{
		AccountID: "acc-1",
		Kind:      progression.StreakCommit,
		Current:   14,
		Longest:   14,
	}))

	res, err := h.Handle(context.Background(), AwardXPCommand{
		AccountID: "acc-1",
		Source:    progression.SourceCommit,
	})
	require.NoError(t, err)

	// base 10 at the two-week tier doubles
	assert.Equal(t, 20, res.Amount)
}

func TestAwardXPHandler_MultiplierIgnoresNonCommitSources(t *testing.T) {
	accounts := newFakeAccountRepo(seedAccount(t, 0))
	streaks := newFakeStreakRepo()
	h := newAwardHandler(accounts, &fakeLedgerRepo{}, streaks)

	require.NoError(t, streaks.Save(context.Background(), &progression.Streak{
		AccountID: "acc-1",
		Kind:      progression.StreakCommit,
		Current:   30,
		Longest:   30,
	}))

	res, err := h.Handle(context.Background(), AwardXPCommand{
		AccountID: "acc-1",
		Source:    progression.SourceProblemSolve,
		Meta: progression.Metadata{
			Solve: &progression.SolveMetadata{Difficulty: "hard"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 80, res.Amount)
}

func TestAwardXPHandler_DailyCapDropsAward(t *testing.T) {
	accounts := newFakeAccountRepo(seedAccount(t, 0))
	ledger := &fakeLedgerRepo{}
	h := newAwardHandler(accounts, ledger, newFakeStreakRepo())

	cmd := AwardXPCommand{
		AccountID: "acc-1",
		Source:    progression.SourceStreakBonus,
		Meta: progression.Metadata{
			Streak: &progression.StreakMetadata{Kind: "commit", Days: 3},
		},
	}

	first, err := h.Handle(context.Background(), cmd)
	require.NoError(t, err)
	assert.Equal(t, 5, first.Amount)
	assert.False(t, first.Capped)

	second, err := h.Handle(context.Background(), cmd)
	require.NoError(t, err)
	assert.True(t, second.Capped)
	assert.Zero(t, second.Amount)
	assert.Nil(t, second.Entry)
	assert.Empty(t, second.Events)

	// the capped attempt must not leave a ledger row behind
	assert.Len(t, ledger.bySource(progression.SourceStreakBonus), 1)

	stored, err := accounts.GetByID(context.Background(), "acc-1")
	require.NoError(t, err)
	assert.Equal(t, account.XP(5), stored.XP)
}

func TestAwardXPHandler_DailyCapUsesReferenceZoneDay(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	accounts := newFakeAccountRepo(seedAccount(t, 0))
	ledger := &fakeLedgerRepo{}
	h := NewAwardXPHandler(accounts, ledger, newFakeStreakRepo(), nil, ny)
	// 01:30 UTC on March 16 is still the evening of March 15 in New York.
	h.now = func() time.Time { return time.Date(2024, 3, 16, 1, 30, 0, 0, time.UTC) }
	seq := 0
	h.newID = func() string {
		seq++
		return fmt.Sprintf("entry-%d", seq)
	}

	cmd := AwardXPCommand{
		AccountID: "acc-1",
		Source:    progression.SourceStreakBonus,
		Meta: progression.Metadata{
			Streak: &progression.StreakMetadata{Kind: "commit", Days: 3},
		},
	}

	first, err := h.Handle(context.Background(), cmd)
	require.NoError(t, err)
	assert.False(t, first.Capped)
	require.NotNil(t, first.Entry)
	assert.True(t, first.Entry.Day.Equal(time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)))

	// Same local evening: the bonus cap already applies.
	second, err := h.Handle(context.Background(), cmd)
	require.NoError(t, err)
	assert.True(t, second.Capped)

	// Next morning in New York is a fresh cap window.
	h.now = func() time.Time { return time.Date(2024, 3, 16, 14, 0, 0, 0, time.UTC) }
	third, err := h.Handle(context.Background(), cmd)
	require.NoError(t, err)
	assert.False(t, third.Capped)
	require.NotNil(t, third.Entry)
	assert.True(t, third.Entry.Day.Equal(time.Date(2024, 3, 16, 0, 0, 0, 0, time.UTC)))
}

func TestAwardXPHandler_UnknownSource(t *testing.T) {
	h := newAwardHandler(newFakeAccountRepo(seedAccount(t, 0)), &fakeLedgerRepo{}, newFakeStreakRepo())

	_, err := h.Handle(context.Background(), AwardXPCommand{
		AccountID: "acc-1",
		Source:    progression.Source("loot_box"),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrConfiguration)
}

func TestAwardXPHandler_AccountNotFound(t *testing.T) {
	h := newAwardHandler(newFakeAccountRepo(), &fakeLedgerRepo{}, newFakeStreakRepo())

	_, err := h.Handle(context.Background(), AwardXPCommand{
		AccountID: "ghost",
		Source:    progression.SourceCommit,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

type erroringAccountRepo struct {
	*fakeAccountRepo
	getErr error
}

func (r *erroringAccountRepo) GetByID(_ context.Context, _ string) (*account.Account, error) {
	return nil, r.getErr
}

func TestAwardXPHandler_RepositoryFailureIsNotNotFound(t *testing.T) {
	repoErr := errors.New("connection refused")
	accounts := &erroringAccountRepo{fakeAccountRepo: newFakeAccountRepo(), getErr: repoErr}
	h := NewAwardXPHandler(accounts, &fakeLedgerRepo{}, newFakeStreakRepo(), nil, time.UTC)

	_, err := h.Handle(context.Background(), AwardXPCommand{
		AccountID: "acc-1",
		Source:    progression.SourceCommit,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, repoErr)
	assert.NotErrorIs(t, err, shared.ErrNotFound)
}
