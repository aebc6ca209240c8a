package progression

import "github.com/Tojustn/Shepherd/internal/domain/shared"

// XPGainedEvent is emitted after an award commits. Carries everything a live
// client needs to animate the gain without a follow-up fetch.
type XPGainedEvent struct {
	shared.BaseEvent
	EntryID string `json:"entry_id"`
	Amount  int    `json:"amount"`
	Source  Source `json:"source"`
	LevelUp bool   `json:"level_up"`
	Level   int    `json:"new_level"`
	TotalXP int    `json:"total_xp"`
}

// NewXPGainedEvent creates an XPGainedEvent.
func NewXPGainedEvent(accountID, entryID string, amount int, source Source, levelUp bool, level, totalXP int) XPGainedEvent {
	return XPGainedEvent{
		BaseEvent: shared.NewBaseEvent(shared.EventXPGained, accountID),
		EntryID:   entryID,
		Amount:    amount,
		Source:    source,
		LevelUp:   levelUp,
		Level:     level,
		TotalXP:   totalXP,
	}
}

// Payload implements shared.Event.
func (e XPGainedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"amount":    e.Amount,
		"source":    string(e.Source),
		"level_up":  e.LevelUp,
		"new_level": e.Level,
		"total_xp":  e.TotalXP,
	}
}
