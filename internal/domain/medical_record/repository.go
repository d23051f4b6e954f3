package medical_record

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, r *MedicalRecord) error
	GetByID(ctx context.Context, id uuid.UUID) (*MedicalRecord, error)
	GetByAppointmentID(ctx context.Context, appointmentID uuid.UUID) (*MedicalRecord, error)
	Update(ctx context.Context, r *MedicalRecord) error
	DeleteByAppointmentID(ctx context.Context, appointmentID uuid.UUID) error
	List(ctx context.Context, q *ListRecordsQuery) ([]*MedicalRecord, error)

	// LockByID and LockByOrderCode load the record and hold a row lock
	// until the surrounding transaction ends.
	LockByID(ctx context.Context, id uuid.UUID) (*MedicalRecord, error)
	LockByOrderCode(ctx context.Context, orderCode int64) (*MedicalRecord, error)
}
