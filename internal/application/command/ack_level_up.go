package command

import (
	"context"
	"fmt"

	"github.com/Tojustn/Shepherd/internal/domain/account"
	"github.com/Tojustn/Shepherd/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ACK LEVEL UP COMMAND
// The award pipeline only ever raises the pending-level-up flag; clearing it
// is an explicit client acknowledgment.
// ══════════════════════════════════════════════════════════════════════════════

// AckLevelUpCommand contains the data to acknowledge a level-up.
type AckLevelUpCommand struct {
	AccountID string
}

// AckLevelUpHandler handles AckLevelUpCommand.
type AckLevelUpHandler struct {
	accounts account.Repository
}

// NewAckLevelUpHandler creates a new AckLevelUpHandler.
func NewAckLevelUpHandler(accounts account.Repository) *AckLevelUpHandler {
	return &AckLevelUpHandler{accounts: accounts}
}

// Handle clears the pending flag. Acknowledging with no pending level-up is a
// harmless no-op.
func (h *AckLevelUpHandler) Handle(ctx context.Context, cmd AckLevelUpCommand) error {
	if cmd.AccountID == "" {
		return shared.NewDomainError("account", "AckLevelUp", shared.ErrInvalidInput, "account_id is required")
	}

	acc, err := h.accounts.GetByID(ctx, cmd.AccountID)
	if err != nil {
		return err
	}
	if !acc.PendingLevelUp {
		return nil
	}

	acc.AcknowledgeLevelUp()
	if err := h.accounts.Update(ctx, acc); err != nil {
		return fmt.Errorf("ack_level_up: %w", err)
	}
	return nil
}
