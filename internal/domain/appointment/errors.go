package appointment

import "github.com/dmehra2102/prod-golang-projects/clinicbook/internal/domain"

var (
	ErrAppointmentNotFound     = domain.NewError(domain.ErrNotFound, "appointment not found")
	ErrInvalidStatusTransition = domain.NewError(domain.ErrInvalidTransition, "invalid appointment status transition")
	ErrInvalidStatus           = domain.NewError(domain.ErrInvalidStatus, "invalid appointment status")
	ErrConcurrentUpdate        = domain.NewError(domain.ErrConflict, "appointment was modified concurrently")
)
