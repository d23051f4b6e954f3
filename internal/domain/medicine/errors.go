package medicine

import (
	"errors"

	"github.com/dmehra2102/prod-golang-projects/clinicbook/internal/domain"
)

var (
	ErrMedicineNotFound = domain.NewError(domain.ErrNotFound, "medicine not found")
	ErrInvalidQuantity  = errors.New("quantity must be greater than zero")
)
