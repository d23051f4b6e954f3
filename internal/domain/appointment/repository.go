package appointment

import (
	"context"
	"time"

	"github.com/dmehra2102/prod-golang-projects/clinicbook/internal/domain/schedule"
	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)

	// Update persists a only while its stored status still equals
	// expected; otherwise it returns ErrConcurrentUpdate.
	Update(ctx context.Context, a *Appointment, expected Status) error

	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Appointment, error)
	ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*Appointment, error)

	// HasActiveForSlot reports whether a non-cancelled appointment other
	// than excludeID references the slot key.
	HasActiveForSlot(ctx context.Context, doctorID uuid.UUID, date time.Time, w schedule.Window, excludeID uuid.UUID) (bool, error)
}
