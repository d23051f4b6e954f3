package schedule

import (
	"errors"

	"github.com/dmehra2102/prod-golang-projects/clinicbook/internal/domain"
)

var (
	ErrSlotNotFound    = domain.NewError(domain.ErrNotFound, "schedule slot not found")
	ErrSlotUnavailable = domain.NewError(domain.ErrSlotUnavailable, "no available slot for the requested time")
	ErrSlotConflict    = domain.NewError(domain.ErrConflict, "a slot already exists for this doctor, date and time")
	ErrSlotReserved    = domain.NewError(domain.ErrInvalidTransition, "slot is held by an active appointment")

	ErrEmptyWindow      = errors.New("either shift or start_time/end_time is required")
	ErrInvalidShift     = errors.New("shift must be one of morning, afternoon, evening")
	ErrInvalidClock     = errors.New("time must be formatted as HH:MM")
	ErrInvalidTimeRange = errors.New("start_time must be before end_time")
	ErrInvalidDate      = errors.New("date must be formatted as YYYY-MM-DD")
)
