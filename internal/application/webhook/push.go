package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Tojustn/Shepherd/internal/application/command"
	"github.com/Tojustn/Shepherd/internal/domain/account"
	"github.com/Tojustn/Shepherd/internal/domain/goal"
	"github.com/Tojustn/Shepherd/internal/domain/progression"
	"github.com/Tojustn/Shepherd/internal/domain/shared"
	"github.com/Tojustn/Shepherd/pkg/dateutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// PUSH HANDLER
// One GitHub push: an XP award per commit, one commit-streak advance for the
// whole batch, a streak bonus when the run grows, progress on today's commit
// quest, and invalidation of the account's cached read-models.
// ══════════════════════════════════════════════════════════════════════════════

// pushPayload is the slice of a GitHub push event this handler reads.
type pushPayload struct {
	Repository struct {
		FullName string `json:"full_name"`
	} `json:"repository"`
	Commits []struct {
		ID       string   `json:"id"`
		Added    []string `json:"added"`
		Removed  []string `json:"removed"`
		Modified []string `json:"modified"`
	} `json:"commits"`
}

// PushHandler handles the "push" webhook event type.
type PushHandler struct {
	award   *command.AwardXPHandler
	advance *command.AdvanceStreakHandler
	goals   goal.Repository
	incr    *command.IncrementGoalHandler

	now func() time.Time
	loc *time.Location
}

// NewPushHandler creates a new PushHandler.
func NewPushHandler(
	award *command.AwardXPHandler,
	advance *command.AdvanceStreakHandler,
	goals goal.Repository,
	incr *command.IncrementGoalHandler,
	loc *time.Location,
) *PushHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &PushHandler{
		award:   award,
		advance: advance,
		goals:   goals,
		incr:    incr,
		now:     time.Now,
		loc:     loc,
	}
}

// Handle implements Handler. Runs inside the dispatcher's transaction.
func (h *PushHandler) Handle(ctx context.Context, payload []byte, acc *account.Account) (*Outcome, error) {
	var push pushPayload
	if err := json.Unmarshal(payload, &push); err != nil {
		return nil, shared.WrapError("webhook", "Push", shared.ErrInvalidInput, "malformed push payload", err)
	}

	today := dateutil.DayOf(h.now(), h.loc)
	outcome := &Outcome{Status: StatusOK}

	totalXP := 0
	for _, c := range push.Commits {
		res, err := h.award.Handle(ctx, command.AwardXPCommand{
			AccountID: acc.ID,
			Source:    progression.SourceCommit,
			Meta: progression.Metadata{
				Commit: &progression.CommitMetadata{
					SHA:          c.ID,
					Repo:         push.Repository.FullName,
					FilesChanged: len(c.Added) + len(c.Removed) + len(c.Modified),
				},
			},
			Today: today,
		})
		if err != nil {
			return nil, fmt.Errorf("push: award commit %s: %w", c.ID, err)
		}
		totalXP += res.Amount
		outcome.Events = append(outcome.Events, res.Events...)
	}

	// One advance for the whole batch, however many commits it carried.
	streakRes, err := h.advance.Handle(ctx, command.AdvanceStreakCommand{
		AccountID: acc.ID,
		Kind:      progression.StreakCommit,
		Today:     today,
	})
	if err != nil {
		return nil, fmt.Errorf("push: advance streak: %w", err)
	}

	if streakRes.Extended {
		bonusRes, err := h.award.Handle(ctx, command.AwardXPCommand{
			AccountID: acc.ID,
			Source:    progression.SourceStreakBonus,
			Meta: progression.Metadata{
				Streak: &progression.StreakMetadata{
					Kind: string(progression.StreakCommit),
					Days: streakRes.Streak.Current,
				},
			},
			Today: today,
		})
		if err != nil {
			return nil, fmt.Errorf("push: streak bonus: %w", err)
		}
		outcome.Events = append(outcome.Events, bonusRes.Events...)
	}

	if len(push.Commits) > 0 {
		questEvents, _, err := progressCommitQuest(ctx, h.goals, h.incr, acc.ID, today)
		if err != nil {
			return nil, fmt.Errorf("push: daily quest: %w", err)
		}
		outcome.Events = append(outcome.Events, questEvents...)
	}

	outcome.Detail = map[string]interface{}{
		"commits_processed": len(push.Commits),
		"xp_awarded":        totalXP,
		"streak":            streakRes.Streak.Current,
	}
	outcome.CacheKeys = []string{
		"github:repos:" + acc.ID,
		"account:summary:" + acc.ID,
	}
	return outcome, nil
}

// progressCommitQuest adds one unit to today's commit quest if it exists and
// is still open.
func progressCommitQuest(ctx context.Context, goals goal.Repository, incr *command.IncrementGoalHandler, accountID string, today time.Time) ([]shared.Event, bool, error) {
	daily, err := goals.ListDaily(ctx, accountID, today)
	if err != nil {
		return nil, false, err
	}
	for _, g := range daily {
		if g.Kind != goal.KindDailyCommit || g.Completed || !g.Active {
			continue
		}
		res, err := incr.Handle(ctx, command.IncrementGoalCommand{
			AccountID: accountID,
			GoalID:    g.ID,
			Delta:     1,
		})
		if err != nil {
			return nil, false, err
		}
		return res.Events, res.Completed, nil
	}
	return nil, false, nil
}
