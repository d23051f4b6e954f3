package chat

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	// EnsureChannel inserts c unless a channel already exists for its
	// appointment. created reports whether this call inserted it.
	EnsureChannel(ctx context.Context, c *Channel) (created bool, err error)
	GetByAppointmentID(ctx context.Context, appointmentID uuid.UUID) (*Channel, error)
}
