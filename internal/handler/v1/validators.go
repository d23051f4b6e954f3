package v1

import (
	"fmt"

	"github.com/dmehra2102/prod-golang-projects/clinicbook/internal/domain/schedule"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// RegisterValidators installs the booking tags on gin's validator:
// "shift" for morning|afternoon|evening and "hhmm" for 24h clock times.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
	}
	if err := v.RegisterValidation("shift", validateShift); err != nil {
		return fmt.Errorf("registering shift validator: %w", err)
	}
	if err := v.RegisterValidation("hhmm", validateClock); err != nil {
		return fmt.Errorf("registering hhmm validator: %w", err)
	}
	return nil
}

func validateShift(fl validator.FieldLevel) bool {
	return schedule.Shift(fl.Field().String()).IsValid()
}

func validateClock(fl validator.FieldLevel) bool {
	_, err := schedule.ParseClock(fl.Field().String())
	return err == nil
}
