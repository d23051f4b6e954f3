package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmehra2102/prod-golang-projects/clinicbook/internal/domain/appointment"
	"github.com/dmehra2102/prod-golang-projects/clinicbook/internal/domain/schedule"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AppointmentRepository struct {
	db *gorm.DB
}

func NewAppointmentRepository(db *gorm.DB) *AppointmentRepository {
	return &AppointmentRepository{db: db}
}

func (r *AppointmentRepository) Create(ctx context.Context, a *appointment.Appointment) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	err := conn(ctx, r.db).Create(a).Error
	if isUniqueViolation(err) {
		return schedule.ErrSlotUnavailable
	}
	if err != nil {
		return fmt.Errorf("inserting appointment: %w", err)
	}
	return nil
}

func (r *AppointmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error) {
	var a appointment.Appointment
	err := conn(ctx, r.db).First(&a, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, appointment.ErrAppointmentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading appointment: %w", err)
	}
	return &a, nil
}

func (r *AppointmentRepository) Update(ctx context.Context, a *appointment.Appointment, expected appointment.Status) error {
	res := conn(ctx, r.db).
		Model(a).
		Where("status = ?", expected).
		Select("*").
		Omit("id", "created_at", "created_by").
		Updates(a)
	if isUniqueViolation(res.Error) {
		return schedule.ErrSlotUnavailable
	}
	if res.Error != nil {
		return fmt.Errorf("updating appointment: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return appointment.ErrConcurrentUpdate
	}
	return nil
}

func (r *AppointmentRepository) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*appointment.Appointment, error) {
	return r.list(ctx, "patient_id = ?", patientID)
}

func (r *AppointmentRepository) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*appointment.Appointment, error) {
	return r.list(ctx, "doctor_id = ?", doctorID)
}

func (r *AppointmentRepository) list(ctx context.Context, cond string, id uuid.UUID) ([]*appointment.Appointment, error) {
	var out []*appointment.Appointment
	err := conn(ctx, r.db).
		Where(cond, id).
		Order("date DESC, start_time ASC, created_at DESC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("listing appointments: %w", err)
	}
	return out, nil
}

func (r *AppointmentRepository) HasActiveForSlot(ctx context.Context, doctorID uuid.UUID, date time.Time, w schedule.Window, excludeID uuid.UUID) (bool, error) {
	var count int64
	err := conn(ctx, r.db).
		Model(&appointment.Appointment{}).
		Where("doctor_id = ? AND date = ? AND shift = ? AND start_time = ? AND end_time = ? AND status <> ? AND id <> ?",
			doctorID, schedule.NormalizeDate(date), w.Shift, w.StartTime, w.EndTime, appointment.StatusCancelled, excludeID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("checking slot holders: %w", err)
	}
	return count > 0, nil
}
