package command

import (
	"context"
	"fmt"

	"github.com/Tojustn/Shepherd/internal/domain/progression"
	"github.com/Tojustn/Shepherd/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// MARK EVENTS READ COMMAND
// Clears the reconnect backlog after the client has rendered it.
// ══════════════════════════════════════════════════════════════════════════════

// MarkEventsReadCommand contains the data to clear the backlog.
type MarkEventsReadCommand struct {
	AccountID string
}

// MarkEventsReadHandler handles MarkEventsReadCommand.
type MarkEventsReadHandler struct {
	ledger progression.LedgerRepository
}

// NewMarkEventsReadHandler creates a new MarkEventsReadHandler.
func NewMarkEventsReadHandler(ledger progression.LedgerRepository) *MarkEventsReadHandler {
	return &MarkEventsReadHandler{ledger: ledger}
}

// Handle flags every ledger entry of the account as seen.
func (h *MarkEventsReadHandler) Handle(ctx context.Context, cmd MarkEventsReadCommand) error {
	if cmd.AccountID == "" {
		return shared.NewDomainError("progression", "MarkRead", shared.ErrInvalidInput, "account_id is required")
	}
	if err := h.ledger.MarkAllNotified(ctx, cmd.AccountID); err != nil {
		return fmt.Errorf("mark_events_read: %w", err)
	}
	return nil
}
