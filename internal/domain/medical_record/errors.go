package medical_record

import "github.com/dmehra2102/prod-golang-projects/clinicbook/internal/domain"

var (
	ErrRecordNotFound    = domain.NewError(domain.ErrNotFound, "medical record not found")
	ErrOrderCodeNotFound = domain.NewError(domain.ErrNotFound, "no medical record for order code")
	// The provider's record of the order disagrees with the callback.
	ErrPaymentNotConfirmed = domain.NewError(domain.ErrInvalidTransition, "payment state not confirmed by the provider")
)
