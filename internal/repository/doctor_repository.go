package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmehra2102/prod-golang-projects/clinicbook/internal/domain/doctor"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DoctorRepository struct {
	db *gorm.DB
}

func NewDoctorRepository(db *gorm.DB) *DoctorRepository {
	return &DoctorRepository{db: db}
}

func (r *DoctorRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*doctor.Doctor, error) {
	var d doctor.Doctor
	err := conn(ctx, r.db).First(&d, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, doctor.ErrDoctorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading doctor: %w", err)
	}
	return &d, nil
}

func (r *DoctorRepository) ListByUserIDs(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]*doctor.Doctor, error) {
	out := make(map[uuid.UUID]*doctor.Doctor, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}

	var doctors []*doctor.Doctor
	if err := conn(ctx, r.db).Where("user_id IN ?", userIDs).Find(&doctors).Error; err != nil {
		return nil, fmt.Errorf("listing doctors: %w", err)
	}
	for _, d := range doctors {
		out[d.UserID] = d
	}
	return out, nil
}

func (r *DoctorRepository) AttachAppointment(ctx context.Context, doctorID, appointmentID uuid.UUID) error {
	link := &doctor.AppointmentLink{DoctorID: doctorID, AppointmentID: appointmentID}
	err := conn(ctx, r.db).Clauses(clause.OnConflict{DoNothing: true}).Create(link).Error
	if err != nil {
		return fmt.Errorf("linking appointment to doctor: %w", err)
	}
	return nil
}

func (r *DoctorRepository) DetachAppointment(ctx context.Context, doctorID, appointmentID uuid.UUID) error {
	err := conn(ctx, r.db).
		Where("doctor_id = ? AND appointment_id = ?", doctorID, appointmentID).
		Delete(&doctor.AppointmentLink{}).Error
	if err != nil {
		return fmt.Errorf("unlinking appointment from doctor: %w", err)
	}
	return nil
}
