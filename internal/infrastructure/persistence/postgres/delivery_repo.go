package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/Tojustn/Shepherd/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// WEBHOOK DELIVERY REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// DeliveryRepository records processed webhook delivery IDs. The primary key
// on delivery_id makes replayed deliveries fail the insert, which is the
// whole dedup mechanism.
type DeliveryRepository struct {
	conn *Connection
}

// NewDeliveryRepository creates a new DeliveryRepository.
func NewDeliveryRepository(conn *Connection) *DeliveryRepository {
	return &DeliveryRepository{conn: conn}
}

// Record marks a delivery ID as processed. Returns
// shared.ErrAlreadyProcessed when the ID was seen before.
func (r *DeliveryRepository) Record(ctx context.Context, deliveryID string) error {
	_, err := r.conn.querier(ctx).Exec(ctx,
		`INSERT INTO webhook_deliveries (delivery_id, received_at) VALUES ($1, $2)`,
		deliveryID,
		time.Now().UTC(),
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrAlreadyProcessed
		}
		return fmt.Errorf("failed to record webhook delivery: %w", err)
	}

	return nil
}
