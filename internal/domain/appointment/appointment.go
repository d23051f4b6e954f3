package appointment

import (
	"time"

	"github.com/dmehra2102/prod-golang-projects/clinicbook/internal/domain/schedule"
	"github.com/google/uuid"
)

// State transitions possibilities:
//
//	pending → confirmed → completed
//	pending → completed
//	pending | confirmed → cancelled
//
// completed and cancelled are terminal.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

var allowedTransitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCompleted, StatusCancelled},
	StatusConfirmed: {StatusCompleted, StatusCancelled},
	StatusCompleted: {},
	StatusCancelled: {},
}

// CreationMode selects whether booking requires a free slot.
type CreationMode string

const (
	// ModeStrict fails with SlotUnavailable when no free slot matches.
	ModeStrict CreationMode = "strict"
	// ModeUnchecked reserves a matching slot when one is free and books
	// without one otherwise. Admin only.
	ModeUnchecked CreationMode = "unchecked"
)

func (m CreationMode) IsValid() bool {
	return m == ModeStrict || m == ModeUnchecked
}

type Appointment struct {
	ID        uuid.UUID `gorm:"type:char(36);primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	PatientID uuid.UUID `gorm:"column:patient_id;type:char(36);not null;index"`
	DoctorID  uuid.UUID `gorm:"column:doctor_id;type:char(36);not null;index:idx_appointments_doctor_day,priority:1"`

	Date      time.Time      `gorm:"column:date;type:date;not null;index:idx_appointments_doctor_day,priority:2"`
	Shift     schedule.Shift `gorm:"column:shift;type:varchar(20);not null;default:''"`
	StartTime string         `gorm:"column:start_time;type:varchar(5);not null;default:''"`
	EndTime   string         `gorm:"column:end_time;type:varchar(5);not null;default:''"`

	ReasonForVisit string `gorm:"column:reason_for_visit;type:text"`
	Notes          string `gorm:"column:notes;type:text"`

	Status       Status       `gorm:"column:status;type:varchar(20);not null;default:'pending';index"`
	CreationMode CreationMode `gorm:"column:creation_mode;type:varchar(20);not null;default:'strict'"`
	// SlotReserved is set while this appointment holds the reservation on
	// the slot behind its key. Unchecked bookings made without a free slot
	// never set it.
	SlotReserved bool `gorm:"column:slot_reserved;not null;default:false"`

	// Cancellation tracking
	CancelledAt        *time.Time `gorm:"column:cancelled_at"`
	CancellationReason string     `gorm:"column:cancellation_reason;type:text"`
	CancelledBy        *uuid.UUID `gorm:"column:cancelled_by;type:char(36)"`

	CompletedAt *time.Time `gorm:"column:completed_at"`

	CreatedBy uuid.UUID `gorm:"column:created_by;type:char(36);not null"`
}

func (Appointment) TableName() string {
	return "appointments"
}

// SlotWindow is the slot key of the appointment within its day.
func (a *Appointment) SlotWindow() schedule.Window {
	return schedule.Window{Shift: a.Shift, StartTime: a.StartTime, EndTime: a.EndTime}
}

func (a *Appointment) CanTransitionTo(newStatus Status) bool {
	for _, s := range allowedTransitions[a.Status] {
		if s == newStatus {
			return true
		}
	}
	return false
}

// TransitionTo moves the appointment to newStatus. With override, any
// non-terminal status may be reached from any non-terminal status; nothing
// ever leaves a terminal status.
func (a *Appointment) TransitionTo(newStatus Status, override bool) error {
	if !newStatus.IsValid() {
		return ErrInvalidStatus
	}
	if a.Status.IsTerminal() {
		return ErrInvalidStatusTransition
	}
	if !a.CanTransitionTo(newStatus) && !(override && !newStatus.IsTerminal()) {
		return ErrInvalidStatusTransition
	}

	now := time.Now()
	a.Status = newStatus
	if newStatus == StatusCompleted {
		a.CompletedAt = &now
	}
	return nil
}

func (a *Appointment) Cancel(reason string, cancelledBy uuid.UUID) error {
	if !a.CanTransitionTo(StatusCancelled) {
		return ErrInvalidStatusTransition
	}
	now := time.Now()
	a.Status = StatusCancelled
	a.CancelledAt = &now
	a.CancellationReason = reason
	a.CancelledBy = &cancelledBy
	return nil
}

// Reschedule moves the appointment to a new day and window and resets it to
// pending.
func (a *Appointment) Reschedule(date time.Time, w schedule.Window) error {
	if a.Status.IsTerminal() {
		return ErrInvalidStatusTransition
	}
	a.Date = schedule.NormalizeDate(date)
	a.Shift = w.Shift
	a.StartTime = w.StartTime
	a.EndTime = w.EndTime
	a.Status = StatusPending
	return nil
}

type CreateAppointmentCommand struct {
	DoctorID uuid.UUID
	// Only admins may book on behalf of another patient.
	PatientID      *uuid.UUID
	Date           time.Time
	Window         schedule.Window
	ReasonForVisit string
	Notes          string
	Mode           CreationMode
}

type CancelAppointmentCommand struct {
	Reason string
}

type RescheduleAppointmentCommand struct {
	Date   time.Time
	Window schedule.Window
}

type UpdateStatusCommand struct {
	Status string
}
