package command

import (
	"context"
	"fmt"
	"time"

	"github.com/Tojustn/Shepherd/internal/domain/goal"
	"github.com/Tojustn/Shepherd/internal/domain/progression"
	"github.com/Tojustn/Shepherd/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECORD SOLVE COMMAND
// Entry point for the problem-tracking collaborator: one solved problem
// becomes a solve award, a solve-streak advance (with streak bonus when the
// run grows), and progress on today's solve quest, all in one atomic unit.
// ══════════════════════════════════════════════════════════════════════════════

// RecordSolveCommand contains the data for one solved problem.
type RecordSolveCommand struct {
	// AccountID is the internal ID of the account.
	AccountID string

	// Slug identifies the problem.
	Slug string

	// Difficulty is easy/medium/hard; anything else scores as easy.
	Difficulty string

	// Today is the pre-resolved calendar date.
	// Zero means "resolve from the handler's clock".
	Today time.Time
}

// Validate validates the command.
func (c RecordSolveCommand) Validate() error {
	if c.AccountID == "" {
		return shared.NewDomainError("progression", "RecordSolve", shared.ErrInvalidInput, "account_id is required")
	}
	return nil
}

// RecordSolveResult contains the result.
type RecordSolveResult struct {
	// XPAwarded is the solve XP (streak bonus and quest XP not included).
	XPAwarded int

	// Streak is the solve streak after the advance.
	Streak *progression.Streak

	// StreakExtended indicates the run grew or started today.
	StreakExtended bool

	// QuestCompleted indicates today's solve quest completed on this call.
	QuestCompleted bool

	// Events contains domain events to publish after commit.
	Events []shared.Event
}

// RecordSolveHandler handles RecordSolveCommand.
type RecordSolveHandler struct {
	award   *AwardXPHandler
	advance *AdvanceStreakHandler
	goals   goal.Repository
	incr    *IncrementGoalHandler

	now func() time.Time
	loc *time.Location
}

// NewRecordSolveHandler creates a new RecordSolveHandler.
func NewRecordSolveHandler(
	award *AwardXPHandler,
	advance *AdvanceStreakHandler,
	goals goal.Repository,
	incr *IncrementGoalHandler,
	loc *time.Location,
) *RecordSolveHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &RecordSolveHandler{
		award:   award,
		advance: advance,
		goals:   goals,
		incr:    incr,
		now:     time.Now,
		loc:     loc,
	}
}

// Handle records the solve. Must run inside the caller's transaction.
func (h *RecordSolveHandler) Handle(ctx context.Context, cmd RecordSolveCommand) (*RecordSolveResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	today := cmd.Today
	if today.IsZero() {
		today = dayOf(h.now(), h.loc)
	}

	result := &RecordSolveResult{}

	awardRes, err := h.award.Handle(ctx, AwardXPCommand{
		AccountID: cmd.AccountID,
		Source:    progression.SourceProblemSolve,
		Meta: progression.Metadata{
			Solve: &progression.SolveMetadata{Slug: cmd.Slug, Difficulty: cmd.Difficulty},
		},
		Today: today,
	})
	if err != nil {
		return nil, err
	}
	result.XPAwarded = awardRes.Amount
	result.Events = append(result.Events, awardRes.Events...)

	streakRes, err := h.advance.Handle(ctx, AdvanceStreakCommand{
		AccountID: cmd.AccountID,
		Kind:      progression.StreakSolve,
		Today:     today,
	})
	if err != nil {
		return nil, err
	}
	result.Streak = streakRes.Streak
	result.StreakExtended = streakRes.Extended

	if streakRes.Extended {
		bonusEvents, err := awardStreakBonus(ctx, h.award, cmd.AccountID, streakRes.Streak, today)
		if err != nil {
			return nil, err
		}
		result.Events = append(result.Events, bonusEvents...)
	}

	questEvents, completed, err := progressDailyQuest(ctx, h.goals, h.incr, cmd.AccountID, goal.KindDailySolve, today)
	if err != nil {
		return nil, err
	}
	result.QuestCompleted = completed
	result.Events = append(result.Events, questEvents...)

	return result, nil
}

// awardStreakBonus awards the flat streak bonus. The streak-bonus daily cap
// keeps replayed activity from stacking bonuses.
func awardStreakBonus(ctx context.Context, award *AwardXPHandler, accountID string, s *progression.Streak, today time.Time) ([]shared.Event, error) {
	res, err := award.Handle(ctx, AwardXPCommand{
		AccountID: accountID,
		Source:    progression.SourceStreakBonus,
		Meta: progression.Metadata{
			Streak: &progression.StreakMetadata{Kind: string(s.Kind), Days: s.Current},
		},
		Today: today,
	})
	if err != nil {
		return nil, fmt.Errorf("streak bonus award: %w", err)
	}
	return res.Events, nil
}

// progressDailyQuest adds one unit of progress to the account's daily quest
// of the given kind, if it exists for today and is still open. Quests are
// only materialized by EnsureDailyGoals; activity does not create them.
func progressDailyQuest(ctx context.Context, goals goal.Repository, incr *IncrementGoalHandler, accountID string, kind goal.Kind, today time.Time) ([]shared.Event, bool, error) {
	daily, err := goals.ListDaily(ctx, accountID, today)
	if err != nil {
		return nil, false, fmt.Errorf("daily quest lookup: %w", err)
	}

	for _, g := range daily {
		if g.Kind != kind || g.Completed || !g.Active {
			continue
		}
		res, err := incr.Handle(ctx, IncrementGoalCommand{
			AccountID: accountID,
			GoalID:    g.ID,
			Delta:     1,
		})
		if err != nil {
			return nil, false, fmt.Errorf("daily quest progress: %w", err)
		}
		return res.Events, res.Completed, nil
	}

	return nil, false, nil
}
