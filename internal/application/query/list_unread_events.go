package query

import (
	"context"

	"github.com/Tojustn/Shepherd/internal/domain/progression"
	"github.com/Tojustn/Shepherd/internal/domain/shared"
)

// ListUnreadEventsQuery asks for the ledger entries the account has not seen
// live: the backlog a reconnecting client fetches before resuming the
// stream.
type ListUnreadEventsQuery struct {
	AccountID string
}

// ListUnreadEventsHandler handles ListUnreadEventsQuery.
type ListUnreadEventsHandler struct {
	ledger progression.LedgerRepository
}

// NewListUnreadEventsHandler creates a new ListUnreadEventsHandler.
func NewListUnreadEventsHandler(ledger progression.LedgerRepository) *ListUnreadEventsHandler {
	return &ListUnreadEventsHandler{ledger: ledger}
}

// Handle executes the query, oldest entries first.
func (h *ListUnreadEventsHandler) Handle(ctx context.Context, q ListUnreadEventsQuery) ([]*progression.Entry, error) {
	if q.AccountID == "" {
		return nil, shared.NewDomainError("progression", "ListUnread", shared.ErrInvalidInput, "account_id is required")
	}
	return h.ledger.ListUnnotified(ctx, q.AccountID)
}
