package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmehra2102/prod-golang-projects/clinicbook/internal/domain/schedule"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SlotRepository struct {
	db *gorm.DB
}

func NewSlotRepository(db *gorm.DB) *SlotRepository {
	return &SlotRepository{db: db}
}

func (r *SlotRepository) Create(ctx context.Context, s *schedule.Slot) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	s.Date = schedule.NormalizeDate(s.Date)

	err := conn(ctx, r.db).Create(s).Error
	if isUniqueViolation(err) {
		return schedule.ErrSlotConflict
	}
	if err != nil {
		return fmt.Errorf("inserting slot: %w", err)
	}
	return nil
}

func (r *SlotRepository) GetByID(ctx context.Context, id uuid.UUID) (*schedule.Slot, error) {
	var s schedule.Slot
	err := conn(ctx, r.db).First(&s, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, schedule.ErrSlotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading slot: %w", err)
	}
	return &s, nil
}

func (r *SlotRepository) Update(ctx context.Context, s *schedule.Slot) error {
	s.Date = schedule.NormalizeDate(s.Date)

	err := conn(ctx, r.db).Save(s).Error
	if isUniqueViolation(err) {
		return schedule.ErrSlotConflict
	}
	if err != nil {
		return fmt.Errorf("updating slot: %w", err)
	}
	return nil
}

func (r *SlotRepository) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*schedule.Slot, error) {
	var slots []*schedule.Slot
	err := conn(ctx, r.db).
		Where("doctor_id = ?", doctorID).
		Order("date ASC, start_time ASC, shift ASC").
		Find(&slots).Error
	if err != nil {
		return nil, fmt.Errorf("listing slots: %w", err)
	}
	return slots, nil
}

func (r *SlotRepository) keyScope(doctorID uuid.UUID, date time.Time, w schedule.Window) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("doctor_id = ? AND date = ? AND shift = ? AND start_time = ? AND end_time = ?",
			doctorID, schedule.NormalizeDate(date), w.Shift, w.StartTime, w.EndTime)
	}
}

func (r *SlotRepository) FindByKey(ctx context.Context, doctorID uuid.UUID, date time.Time, w schedule.Window) (*schedule.Slot, error) {
	var s schedule.Slot
	err := conn(ctx, r.db).Scopes(r.keyScope(doctorID, date, w)).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, schedule.ErrSlotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("finding slot: %w", err)
	}
	return &s, nil
}

func (r *SlotRepository) FindAvailable(ctx context.Context, doctorID uuid.UUID, date time.Time, w schedule.Window) (*schedule.Slot, error) {
	var s schedule.Slot
	err := conn(ctx, r.db).
		Scopes(r.keyScope(doctorID, date, w)).
		Where("is_available = ?", true).
		First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, schedule.ErrSlotUnavailable
	}
	if err != nil {
		return nil, fmt.Errorf("finding available slot: %w", err)
	}
	return &s, nil
}

func (r *SlotRepository) Reserve(ctx context.Context, id uuid.UUID) error {
	res := conn(ctx, r.db).
		Model(&schedule.Slot{}).
		Where("id = ? AND is_available = ?", id, true).
		Update("is_available", false)
	if res.Error != nil {
		return fmt.Errorf("reserving slot: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return schedule.ErrSlotUnavailable
	}
	return nil
}

func (r *SlotRepository) Release(ctx context.Context, id uuid.UUID) error {
	err := conn(ctx, r.db).
		Model(&schedule.Slot{}).
		Where("id = ?", id).
		Update("is_available", true).Error
	if err != nil {
		return fmt.Errorf("releasing slot: %w", err)
	}
	return nil
}
