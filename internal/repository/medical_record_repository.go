package repository

import (
	"context"
	"errors"
	"fmt"

	mr "github.com/dmehra2102/prod-golang-projects/clinicbook/internal/domain/medical_record"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MedicalRecordRepository struct {
	db *gorm.DB
}

func NewMedicalRecordRepository(db *gorm.DB) *MedicalRecordRepository {
	return &MedicalRecordRepository{db: db}
}

func (r *MedicalRecordRepository) Create(ctx context.Context, rec *mr.MedicalRecord) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if err := conn(ctx, r.db).Create(rec).Error; err != nil {
		return fmt.Errorf("inserting medical record: %w", err)
	}
	return nil
}

func (r *MedicalRecordRepository) GetByID(ctx context.Context, id uuid.UUID) (*mr.MedicalRecord, error) {
	return r.first(conn(ctx, r.db), mr.ErrRecordNotFound, "id = ?", id)
}

func (r *MedicalRecordRepository) GetByAppointmentID(ctx context.Context, appointmentID uuid.UUID) (*mr.MedicalRecord, error) {
	return r.first(conn(ctx, r.db), mr.ErrRecordNotFound, "appointment_id = ?", appointmentID)
}

func (r *MedicalRecordRepository) LockByID(ctx context.Context, id uuid.UUID) (*mr.MedicalRecord, error) {
	return r.first(r.locked(ctx), mr.ErrRecordNotFound, "id = ?", id)
}

func (r *MedicalRecordRepository) LockByOrderCode(ctx context.Context, orderCode int64) (*mr.MedicalRecord, error) {
	return r.first(r.locked(ctx), mr.ErrOrderCodeNotFound, "order_code = ?", orderCode)
}

func (r *MedicalRecordRepository) locked(ctx context.Context) *gorm.DB {
	return conn(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"})
}

func (r *MedicalRecordRepository) first(db *gorm.DB, notFound error, query string, args ...any) (*mr.MedicalRecord, error) {
	var rec mr.MedicalRecord
	err := db.Where(query, args...).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading medical record: %w", err)
	}
	return &rec, nil
}

func (r *MedicalRecordRepository) Update(ctx context.Context, rec *mr.MedicalRecord) error {
	if err := conn(ctx, r.db).Save(rec).Error; err != nil {
		return fmt.Errorf("updating medical record: %w", err)
	}
	return nil
}

func (r *MedicalRecordRepository) DeleteByAppointmentID(ctx context.Context, appointmentID uuid.UUID) error {
	err := conn(ctx, r.db).
		Where("appointment_id = ?", appointmentID).
		Delete(&mr.MedicalRecord{}).Error
	if err != nil {
		return fmt.Errorf("deleting medical record: %w", err)
	}
	return nil
}

func (r *MedicalRecordRepository) List(ctx context.Context, q *mr.ListRecordsQuery) ([]*mr.MedicalRecord, error) {
	db := conn(ctx, r.db).Model(&mr.MedicalRecord{})
	if q.PatientID != nil {
		db = db.Where("patient_id = ?", *q.PatientID)
	}
	if q.DoctorID != nil {
		db = db.Where("doctor_id = ?", *q.DoctorID)
	}
	if q.OnlyFilled {
		db = db.Where("diagnosis <> '' OR treatment <> '' OR notes <> '' OR total_cost > 0")
	}

	var out []*mr.MedicalRecord
	if err := db.Order("updated_at DESC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("listing medical records: %w", err)
	}
	return out, nil
}
