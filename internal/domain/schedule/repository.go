package schedule

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	// Create fails with ErrSlotConflict when the slot key already exists.
	Create(ctx context.Context, s *Slot) error
	GetByID(ctx context.Context, id uuid.UUID) (*Slot, error)
	Update(ctx context.Context, s *Slot) error
	ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*Slot, error)

	// FindByKey returns the slot for the key regardless of availability.
	FindByKey(ctx context.Context, doctorID uuid.UUID, date time.Time, w Window) (*Slot, error)

	// FindAvailable returns ErrSlotUnavailable when no free slot matches.
	FindAvailable(ctx context.Context, doctorID uuid.UUID, date time.Time, w Window) (*Slot, error)

	// Reserve flips the slot to unavailable only if it is currently
	// available, as a single conditional write.
	Reserve(ctx context.Context, id uuid.UUID) error

	// Release marks the slot available. Releasing a free slot is a no-op.
	Release(ctx context.Context, id uuid.UUID) error
}
