package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmehra2102/prod-golang-projects/clinicbook/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/clinicbook/internal/domain/appointment"
	"github.com/dmehra2102/prod-golang-projects/clinicbook/internal/domain/chat"
	"github.com/dmehra2102/prod-golang-projects/clinicbook/internal/domain/doctor"
	mr "github.com/dmehra2102/prod-golang-projects/clinicbook/internal/domain/medical_record"
	"github.com/dmehra2102/prod-golang-projects/clinicbook/internal/domain/schedule"
	"github.com/dmehra2102/prod-golang-projects/clinicbook/pkg/metrics"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// RecordBinder owns the medical record that lives and dies with an
// appointment.
type RecordBinder interface {
	CreateFor(ctx context.Context, a *appointment.Appointment) (*mr.MedicalRecord, error)
	DeleteFor(ctx context.Context, appointmentID uuid.UUID) error
	ForAppointment(ctx context.Context, appointmentID uuid.UUID) (*mr.MedicalRecord, error)
}

type CompletionHandler interface {
	Dispatch(ctx context.Context, a *appointment.Appointment)
	ChannelFor(ctx context.Context, appointmentID uuid.UUID) (*chat.Channel, error)
}

type AppointmentServiceDeps struct {
	Appointments appointment.Repository
	Slots        schedule.Repository
	Doctors      doctor.Repository
	Users        UserRepository
	Records      RecordBinder
	Completion   CompletionHandler
	Tx           Transactor
	Locks        *DoctorLocks
	Notifier     *NotificationService
	AuditSvc     *AuditService
	Metrics      *metrics.Collector
	Log          *zap.Logger

	// Mode used when an admin does not name one.
	DefaultMode appointment.CreationMode
}

// AppointmentService keeps appointments and doctor slots consistent: every
// live strict booking holds exactly one reserved slot.
type AppointmentService struct {
	repo        appointment.Repository
	slots       schedule.Repository
	doctors     doctor.Repository
	users       UserRepository
	records     RecordBinder
	completion  CompletionHandler
	tx          Transactor
	locks       *DoctorLocks
	notifier    *NotificationService
	auditSvc    *AuditService
	metrics     *metrics.Collector
	log         *zap.Logger
	defaultMode appointment.CreationMode
}

func NewAppointmentService(deps AppointmentServiceDeps) *AppointmentService {
	mode := deps.DefaultMode
	if !mode.IsValid() {
		mode = appointment.ModeStrict
	}
	locks := deps.Locks
	if locks == nil {
		locks = NewDoctorLocks()
	}
	return &AppointmentService{
		repo:        deps.Appointments,
		slots:       deps.Slots,
		doctors:     deps.Doctors,
		users:       deps.Users,
		records:     deps.Records,
		completion:  deps.Completion,
		tx:          deps.Tx,
		locks:       locks,
		notifier:    deps.Notifier,
		auditSvc:    deps.AuditSvc,
		metrics:     deps.Metrics,
		log:         deps.Log,
		defaultMode: mode,
	}
}

func authorizeAppointment(caller domain.Identity, a *appointment.Appointment) error {
	switch {
	case caller.IsAdmin():
		return nil
	case caller.Role == domain.RolePatient && caller.UserID == a.PatientID:
		return nil
	case caller.Role == domain.RoleDoctor && caller.UserID == a.DoctorID:
		return nil
	}
	return ErrForbidden
}

func (s *AppointmentService) resolveMode(requested appointment.CreationMode, caller domain.Identity) (appointment.CreationMode, error) {
	if requested == "" {
		if caller.IsAdmin() {
			return s.defaultMode, nil
		}
		return appointment.ModeStrict, nil
	}
	if !requested.IsValid() {
		return "", validationError("mode must be strict or unchecked")
	}
	if requested == appointment.ModeUnchecked && !caller.IsAdmin() {
		return "", ErrForbidden
	}
	return requested, nil
}

func resolvePatient(requested *uuid.UUID, caller domain.Identity) (uuid.UUID, error) {
	switch caller.Role {
	case domain.RolePatient:
		if requested != nil && *requested != caller.UserID {
			return uuid.Nil, ErrForbidden
		}
		return caller.UserID, nil
	case domain.RoleAdmin:
		if requested == nil || *requested == uuid.Nil {
			return uuid.Nil, validationError("patient_id is required when booking on behalf of a patient")
		}
		return *requested, nil
	}
	return uuid.Nil, ErrForbidden
}

// CreateAppointment books a pending appointment. Slot reservation, the
// appointment row, the doctor link and the empty medical record are written
// in one transaction.
func (s *AppointmentService) CreateAppointment(
	ctx context.Context,
	cmd *appointment.CreateAppointmentCommand,
	caller domain.Identity,
) (_ *appointment.Appointment, _ *mr.MedicalRecord, err error) {
	ctx, span := tracer.Start(ctx, "AppointmentService.CreateAppointment")
	defer func() { endSpan(span, err) }()

	mode, err := s.resolveMode(cmd.Mode, caller)
	if err != nil {
		return nil, nil, err
	}
	patientID, err := resolvePatient(cmd.PatientID, caller)
	if err != nil {
		return nil, nil, err
	}

	var fields []string
	if cmd.DoctorID == uuid.Nil {
		fields = append(fields, "doctor_id is required")
	}
	if cmd.Date.IsZero() {
		fields = append(fields, "date is required")
	}
	if err := cmd.Window.Validate(); err != nil {
		fields = append(fields, err.Error())
	}
	if len(fields) > 0 {
		return nil, nil, validationError(fields...)
	}

	doc, err := s.doctors.GetByUserID(ctx, cmd.DoctorID)
	if err != nil {
		return nil, nil, err
	}

	a := &appointment.Appointment{
		ID:             uuid.New(),
		PatientID:      patientID,
		DoctorID:       doc.UserID,
		Date:           schedule.NormalizeDate(cmd.Date),
		Shift:          cmd.Window.Shift,
		StartTime:      cmd.Window.StartTime,
		EndTime:        cmd.Window.EndTime,
		ReasonForVisit: cmd.ReasonForVisit,
		Notes:          cmd.Notes,
		Status:         appointment.StatusPending,
		CreationMode:   mode,
		CreatedBy:      caller.UserID,
	}
	span.SetAttributes(
		attribute.String("doctor_id", a.DoctorID.String()),
		attribute.String("mode", string(mode)),
	)

	unlock := s.locks.Lock(a.DoctorID)
	defer unlock()

	var (
		rec      *mr.MedicalRecord
		reserved bool
	)
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		reserved = false
		err := s.reserveFor(ctx, a, a.Date, a.SlotWindow())
		switch {
		case err == nil:
			reserved = true
		case errors.Is(err, schedule.ErrSlotUnavailable) && mode == appointment.ModeUnchecked:
			// booked without a slot
		default:
			return err
		}
		a.SlotReserved = reserved

		if err := s.repo.Create(ctx, a); err != nil {
			return err
		}
		if err := s.doctors.AttachAppointment(ctx, doc.ID, a.ID); err != nil {
			return err
		}
		rec, err = s.records.CreateFor(ctx, a)
		return err
	})
	if err != nil {
		if errors.Is(err, domain.ErrSlotUnavailable) {
			s.metrics.SlotConflictsTotal.Inc()
		}
		s.log.Warn("appointment creation failed",
			zap.String("doctor_id", a.DoctorID.String()),
			zap.String("patient_id", a.PatientID.String()),
			zap.Error(err),
		)
		return nil, nil, err
	}

	if !reserved {
		s.log.Warn("unchecked appointment booked without a slot",
			zap.String("appointment_id", a.ID.String()),
			zap.String("doctor_id", a.DoctorID.String()),
		)
	}
	s.log.Info("appointment created",
		zap.String("appointment_id", a.ID.String()),
		zap.String("doctor_id", a.DoctorID.String()),
		zap.String("patient_id", a.PatientID.String()),
		zap.Bool("slot_reserved", reserved),
	)
	s.metrics.AppointmentsTotal.WithLabelValues("created").Inc()
	s.auditSvc.LogAsync(ctx, auditEntry(caller, domain.ActionCreate, "appointment", a.ID,
		fmt.Sprintf(`{"mode":%q,"slot_reserved":%t}`, mode, reserved)))
	s.notifier.NotifyPatient(a.PatientID, "Appointment booked",
		fmt.Sprintf("Your appointment on %s (%s) is booked and pending confirmation.", a.Date.Format(schedule.DateLayout), a.SlotWindow()))

	return a, rec, nil
}

// CancelAppointment soft-cancels the appointment, frees its slot and drops
// its medical record. Cancelling twice is a no-op; completed appointments
// cannot be cancelled.
func (s *AppointmentService) CancelAppointment(
	ctx context.Context,
	id uuid.UUID,
	cmd *appointment.CancelAppointmentCommand,
	caller domain.Identity,
) (_ *appointment.Appointment, err error) {
	ctx, span := tracer.Start(ctx, "AppointmentService.CancelAppointment")
	defer func() { endSpan(span, err) }()
	span.SetAttributes(attribute.String("appointment_id", id.String()))

	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorizeAppointment(caller, a); err != nil {
		return nil, err
	}

	reason := ""
	if cmd != nil {
		reason = cmd.Reason
	}
	return s.cancel(ctx, a.ID, a.DoctorID, reason, caller)
}

func (s *AppointmentService) cancel(ctx context.Context, id, doctorID uuid.UUID, reason string, caller domain.Identity) (*appointment.Appointment, error) {
	unlock := s.locks.Lock(doctorID)
	defer unlock()

	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.Status == appointment.StatusCancelled {
		return a, nil
	}

	prev := a.Status
	if err := a.Cancel(reason, caller.UserID); err != nil {
		return nil, err
	}

	var released bool
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		if released, err = s.releaseSlot(ctx, a, a.Date, a.SlotWindow()); err != nil {
			return err
		}
		a.SlotReserved = false
		if err := s.detach(ctx, a); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, a, prev); err != nil {
			return err
		}
		return s.records.DeleteFor(ctx, a.ID)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("appointment cancelled",
		zap.String("appointment_id", a.ID.String()),
		zap.String("previous_status", string(prev)),
		zap.Bool("slot_released", released),
	)
	s.metrics.AppointmentsTotal.WithLabelValues("cancelled").Inc()
	s.auditSvc.LogAsync(ctx, auditEntry(caller, domain.ActionUpdate, "appointment", a.ID,
		fmt.Sprintf(`{"status":"cancelled","reason":%q}`, reason)))
	s.notifier.NotifyPatient(a.PatientID, "Appointment cancelled",
		fmt.Sprintf("Your appointment on %s (%s) has been cancelled.", a.Date.Format(schedule.DateLayout), a.SlotWindow()))

	return a, nil
}

// RescheduleAppointment moves the appointment to a new slot and resets it to
// pending. The old slot is released first and stays released even when the
// new one turns out to be taken.
func (s *AppointmentService) RescheduleAppointment(
	ctx context.Context,
	id uuid.UUID,
	cmd *appointment.RescheduleAppointmentCommand,
	caller domain.Identity,
) (_ *appointment.Appointment, err error) {
	ctx, span := tracer.Start(ctx, "AppointmentService.RescheduleAppointment")
	defer func() { endSpan(span, err) }()
	span.SetAttributes(attribute.String("appointment_id", id.String()))

	if cmd.Date.IsZero() {
		return nil, validationError("date is required")
	}
	if err := cmd.Window.Validate(); err != nil {
		return nil, validationError(err.Error())
	}

	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorizeAppointment(caller, a); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(a.DoctorID)
	defer unlock()

	a, err = s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.Status.IsTerminal() {
		return nil, appointment.ErrInvalidStatusTransition
	}

	oldDate, oldWindow := a.Date, a.SlotWindow()
	newDate := schedule.NormalizeDate(cmd.Date)

	// The release commits on its own. The appointment keeps its old key, so
	// the key stays claimed until the appointment moves or is cancelled.
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.releaseSlot(ctx, a, oldDate, oldWindow); err != nil {
			return err
		}
		if !a.SlotReserved {
			return nil
		}
		a.SlotReserved = false
		return s.repo.Update(ctx, a, a.Status)
	})
	if err != nil {
		return nil, fmt.Errorf("releasing previous slot: %w", err)
	}

	prev := a.Status
	moved := *a
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.reserveFor(ctx, a, newDate, cmd.Window); err != nil {
			return err
		}
		if err := moved.Reschedule(newDate, cmd.Window); err != nil {
			return err
		}
		moved.SlotReserved = true
		return s.repo.Update(ctx, &moved, prev)
	})
	if err != nil {
		if errors.Is(err, domain.ErrSlotUnavailable) {
			s.metrics.SlotConflictsTotal.Inc()
		}
		s.log.Warn("reschedule failed; previous slot stays released",
			zap.String("appointment_id", a.ID.String()),
			zap.Time("previous_date", oldDate),
			zap.String("previous_window", oldWindow.String()),
			zap.Error(err),
		)
		return nil, err
	}

	s.log.Info("appointment rescheduled",
		zap.String("appointment_id", moved.ID.String()),
		zap.Time("date", moved.Date),
		zap.String("window", moved.SlotWindow().String()),
	)
	s.metrics.AppointmentsTotal.WithLabelValues("rescheduled").Inc()
	s.auditSvc.LogAsync(ctx, auditEntry(caller, domain.ActionUpdate, "appointment", moved.ID,
		fmt.Sprintf(`{"date":%q,"window":%q,"status":"pending"}`, moved.Date.Format(schedule.DateLayout), moved.SlotWindow())))
	s.notifier.NotifyPatient(moved.PatientID, "Appointment rescheduled",
		fmt.Sprintf("Your appointment has moved to %s (%s).", moved.Date.Format(schedule.DateLayout), moved.SlotWindow()))

	return &moved, nil
}

// UpdateStatus moves the appointment along its lifecycle. Doctors follow the
// transition table; admins may also move between non-terminal states.
// Re-applying the current status succeeds without changes.
func (s *AppointmentService) UpdateStatus(
	ctx context.Context,
	id uuid.UUID,
	cmd *appointment.UpdateStatusCommand,
	caller domain.Identity,
) (_ *appointment.Appointment, err error) {
	ctx, span := tracer.Start(ctx, "AppointmentService.UpdateStatus")
	defer func() { endSpan(span, err) }()

	status := appointment.Status(strings.ToLower(strings.TrimSpace(cmd.Status)))
	if !status.IsValid() {
		return nil, appointment.ErrInvalidStatus
	}
	span.SetAttributes(attribute.String("appointment_id", id.String()), attribute.String("status", string(status)))

	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !caller.IsAdmin() && !(caller.Role == domain.RoleDoctor && caller.UserID == a.DoctorID) {
		return nil, ErrForbidden
	}

	if status == appointment.StatusCancelled {
		return s.cancel(ctx, a.ID, a.DoctorID, "", caller)
	}

	a, changed, err := s.transition(ctx, a.ID, a.DoctorID, status, caller)
	if err != nil {
		return nil, err
	}

	if changed {
		s.metrics.AppointmentsTotal.WithLabelValues(string(status)).Inc()
		s.auditSvc.LogAsync(ctx, auditEntry(caller, domain.ActionUpdate, "appointment", a.ID,
			fmt.Sprintf(`{"status":%q}`, status)))
	}
	if status == appointment.StatusCompleted {
		s.completion.Dispatch(ctx, a)
	}

	return a, nil
}

func (s *AppointmentService) transition(ctx context.Context, id, doctorID uuid.UUID, status appointment.Status, caller domain.Identity) (*appointment.Appointment, bool, error) {
	unlock := s.locks.Lock(doctorID)
	defer unlock()

	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, false, err
	}
	if a.Status == status {
		return a, false, nil
	}

	prev := a.Status
	if err := a.TransitionTo(status, caller.IsAdmin()); err != nil {
		return nil, false, err
	}
	if err := s.repo.Update(ctx, a, prev); err != nil {
		return nil, false, err
	}

	s.log.Info("appointment status updated",
		zap.String("appointment_id", a.ID.String()),
		zap.String("from", string(prev)),
		zap.String("to", string(status)),
	)
	return a, true, nil
}

// reserveFor takes the free slot at (date, w) for a. A free slot whose key
// is still claimed by another live appointment counts as unavailable: that
// happens after a failed reschedule, or when an unchecked booking came first.
func (s *AppointmentService) reserveFor(ctx context.Context, a *appointment.Appointment, date time.Time, w schedule.Window) error {
	slot, err := s.slots.FindAvailable(ctx, a.DoctorID, date, w)
	if err != nil {
		return err
	}
	held, err := s.repo.HasActiveForSlot(ctx, a.DoctorID, date, w, a.ID)
	if err != nil {
		return err
	}
	if held {
		s.log.Warn("free slot is claimed by another appointment",
			zap.String("slot_id", slot.ID.String()),
			zap.String("appointment_id", a.ID.String()),
		)
		return schedule.ErrSlotUnavailable
	}
	return s.slots.Reserve(ctx, slot.ID)
}

// releaseSlot frees the slot behind a's key when a reserved it and no other
// live appointment still holds it. A missing slot is reported as not
// released, not as an error.
func (s *AppointmentService) releaseSlot(ctx context.Context, a *appointment.Appointment, date time.Time, w schedule.Window) (bool, error) {
	if !a.SlotReserved {
		s.log.Debug("appointment holds no slot reservation",
			zap.String("appointment_id", a.ID.String()),
			zap.String("window", w.String()),
		)
		return false, nil
	}
	slot, err := s.slots.FindByKey(ctx, a.DoctorID, date, w)
	if errors.Is(err, schedule.ErrSlotNotFound) {
		s.log.Debug("no slot to release",
			zap.String("appointment_id", a.ID.String()),
			zap.String("window", w.String()),
		)
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if slot.IsAvailable {
		return true, nil
	}

	held, err := s.repo.HasActiveForSlot(ctx, a.DoctorID, date, w, a.ID)
	if err != nil {
		return false, err
	}
	if held {
		s.log.Warn("slot still held by another appointment; not released",
			zap.String("slot_id", slot.ID.String()),
			zap.String("appointment_id", a.ID.String()),
		)
		return false, nil
	}

	if err := s.slots.Release(ctx, slot.ID); err != nil {
		return false, err
	}
	return true, nil
}

func (s *AppointmentService) detach(ctx context.Context, a *appointment.Appointment) error {
	doc, err := s.doctors.GetByUserID(ctx, a.DoctorID)
	if errors.Is(err, doctor.ErrDoctorNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return s.doctors.DetachAppointment(ctx, doc.ID, a.ID)
}
