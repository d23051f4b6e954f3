package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmehra2102/prod-golang-projects/clinicbook/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/clinicbook/internal/domain/appointment"
	"github.com/dmehra2102/prod-golang-projects/clinicbook/internal/domain/doctor"
	"github.com/dmehra2102/prod-golang-projects/clinicbook/internal/domain/schedule"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

type ScheduleService struct {
	slots        schedule.Repository
	doctors      doctor.Repository
	appointments appointment.Repository
	locks        *DoctorLocks
	auditSvc     *AuditService
	log          *zap.Logger
}

func NewScheduleService(
	slots schedule.Repository,
	doctors doctor.Repository,
	appointments appointment.Repository,
	locks *DoctorLocks,
	auditSvc *AuditService,
	log *zap.Logger,
) *ScheduleService {
	return &ScheduleService{
		slots:        slots,
		doctors:      doctors,
		appointments: appointments,
		locks:        locks,
		auditSvc:     auditSvc,
		log:          log,
	}
}

// CreateSlot adds an available slot. Doctors create slots for themselves;
// admins name the doctor.
func (s *ScheduleService) CreateSlot(ctx context.Context, cmd *schedule.CreateSlotCommand, caller domain.Identity) (_ *schedule.Slot, err error) {
	ctx, span := tracer.Start(ctx, "ScheduleService.CreateSlot")
	defer func() { endSpan(span, err) }()

	switch caller.Role {
	case domain.RoleDoctor:
		if cmd.DoctorID != uuid.Nil && cmd.DoctorID != caller.UserID {
			return nil, ErrForbidden
		}
		cmd.DoctorID = caller.UserID
	case domain.RoleAdmin:
		if cmd.DoctorID == uuid.Nil {
			return nil, validationError("doctor_id is required")
		}
	default:
		return nil, ErrForbidden
	}

	if cmd.Date.IsZero() {
		return nil, validationError("date is required")
	}
	if err := cmd.Window.Validate(); err != nil {
		return nil, validationError(err.Error())
	}
	span.SetAttributes(attribute.String("doctor_id", cmd.DoctorID.String()))

	if _, err := s.doctors.GetByUserID(ctx, cmd.DoctorID); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(cmd.DoctorID)
	defer unlock()

	_, err = s.slots.FindByKey(ctx, cmd.DoctorID, cmd.Date, cmd.Window)
	switch {
	case err == nil:
		return nil, schedule.ErrSlotConflict
	case !errors.Is(err, schedule.ErrSlotNotFound):
		return nil, fmt.Errorf("checking existing slot: %w", err)
	}

	slot := &schedule.Slot{
		DoctorID:    cmd.DoctorID,
		Date:        schedule.NormalizeDate(cmd.Date),
		IsAvailable: true,
	}
	slot.SetWindow(cmd.Window)

	if err := s.slots.Create(ctx, slot); err != nil {
		return nil, err
	}

	s.log.Info("slot created",
		zap.String("slot_id", slot.ID.String()),
		zap.String("doctor_id", slot.DoctorID.String()),
		zap.Time("date", slot.Date),
		zap.String("window", slot.Window().String()),
	)
	s.auditSvc.LogAsync(ctx, auditEntry(caller, domain.ActionCreate, "schedule_slot", slot.ID, ""))

	return slot, nil
}

// ListSchedule returns a doctor's slots ordered by day and time.
func (s *ScheduleService) ListSchedule(ctx context.Context, doctorID uuid.UUID) ([]*schedule.Slot, error) {
	if _, err := s.doctors.GetByUserID(ctx, doctorID); err != nil {
		return nil, err
	}
	return s.slots.ListByDoctor(ctx, doctorID)
}

func (s *ScheduleService) ListMySchedule(ctx context.Context, caller domain.Identity) ([]*schedule.Slot, error) {
	if caller.Role != domain.RoleDoctor {
		return nil, ErrForbidden
	}
	return s.slots.ListByDoctor(ctx, caller.UserID)
}

// UpdateSlot patches a slot. A slot held by a live appointment cannot be
// changed; a new key must not collide with another slot.
func (s *ScheduleService) UpdateSlot(ctx context.Context, slotID uuid.UUID, cmd *schedule.UpdateSlotCommand, caller domain.Identity) (_ *schedule.Slot, err error) {
	ctx, span := tracer.Start(ctx, "ScheduleService.UpdateSlot")
	defer func() { endSpan(span, err) }()

	slot, err := s.slots.GetByID(ctx, slotID)
	if err != nil {
		return nil, err
	}
	if !caller.IsAdmin() && !(caller.Role == domain.RoleDoctor && caller.UserID == slot.DoctorID) {
		return nil, ErrForbidden
	}

	unlock := s.locks.Lock(slot.DoctorID)
	defer unlock()

	// Reload under the lock; a booking may have reserved it meanwhile.
	slot, err = s.slots.GetByID(ctx, slotID)
	if err != nil {
		return nil, err
	}

	if !slot.IsAvailable {
		held, err := s.appointments.HasActiveForSlot(ctx, slot.DoctorID, slot.Date, slot.Window(), uuid.Nil)
		if err != nil {
			return nil, fmt.Errorf("checking slot holders: %w", err)
		}
		if held {
			return nil, schedule.ErrSlotReserved
		}
	}

	oldDate, oldWindow := slot.Date, slot.Window()
	cmd.Apply(slot)
	if err := slot.Window().Validate(); err != nil {
		return nil, validationError(err.Error())
	}

	if !slot.Date.Equal(oldDate) || slot.Window() != oldWindow {
		other, err := s.slots.FindByKey(ctx, slot.DoctorID, slot.Date, slot.Window())
		switch {
		case err == nil && other.ID != slot.ID:
			return nil, schedule.ErrSlotConflict
		case err != nil && !errors.Is(err, schedule.ErrSlotNotFound):
			return nil, fmt.Errorf("checking existing slot: %w", err)
		}
	}

	if err := s.slots.Update(ctx, slot); err != nil {
		return nil, err
	}

	s.auditSvc.LogAsync(ctx, auditEntry(caller, domain.ActionUpdate, "schedule_slot", slot.ID,
		fmt.Sprintf(`{"date":%q,"window":%q,"is_available":%t}`, slot.Date.Format(schedule.DateLayout), slot.Window(), slot.IsAvailable)))

	return slot, nil
}
