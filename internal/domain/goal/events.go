package goal

import "github.com/Tojustn/Shepherd/internal/domain/shared"

// snapshot renders a goal for event payloads.
func snapshot(g *Goal) map[string]interface{} {
	m := map[string]interface{}{
		"id":         g.ID,
		"kind":       string(g.Kind),
		"label":      g.Label,
		"target":     g.Target,
		"current":    g.Current,
		"difficulty": g.Difficulty,
		"completed":  g.Completed,
	}
	if !g.CompletedAt.IsZero() {
		m["completed_at"] = g.CompletedAt
	}
	return m
}

// CreatedEvent is emitted after a custom goal is created.
type CreatedEvent struct {
	shared.BaseEvent
	Goal *Goal
}

// NewCreatedEvent creates a CreatedEvent.
func NewCreatedEvent(g *Goal) CreatedEvent {
	return CreatedEvent{
		BaseEvent: shared.NewBaseEvent(shared.EventGoalCreated, g.AccountID),
		Goal:      g.Clone(),
	}
}

// Payload implements shared.Event.
func (e CreatedEvent) Payload() map[string]interface{} {
	return snapshot(e.Goal)
}

// UpdatedEvent is emitted after a goal's progress or completion changes.
// XPAwarded is zero unless this update completed the goal.
type UpdatedEvent struct {
	shared.BaseEvent
	Goal      *Goal
	XPAwarded int
}

// NewUpdatedEvent creates an UpdatedEvent.
func NewUpdatedEvent(g *Goal, xpAwarded int) UpdatedEvent {
	return UpdatedEvent{
		BaseEvent: shared.NewBaseEvent(shared.EventGoalUpdated, g.AccountID),
		Goal:      g.Clone(),
		XPAwarded: xpAwarded,
	}
}

// Payload implements shared.Event.
func (e UpdatedEvent) Payload() map[string]interface{} {
	m := snapshot(e.Goal)
	m["xp_awarded"] = e.XPAwarded
	return m
}

// DeletedEvent is emitted after a custom goal is deleted.
type DeletedEvent struct {
	shared.BaseEvent
	GoalID string
}

// NewDeletedEvent creates a DeletedEvent.
func NewDeletedEvent(accountID, goalID string) DeletedEvent {
	return DeletedEvent{
		BaseEvent: shared.NewBaseEvent(shared.EventGoalDeleted, accountID),
		GoalID:    goalID,
	}
}

// Payload implements shared.Event.
func (e DeletedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{"id": e.GoalID}
}
