package doctor

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*Doctor, error)

	// ListByUserIDs loads all referenced doctors in one query, keyed by user id.
	ListByUserIDs(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]*Doctor, error)

	AttachAppointment(ctx context.Context, doctorID, appointmentID uuid.UUID) error
	DetachAppointment(ctx context.Context, doctorID, appointmentID uuid.UUID) error
}
