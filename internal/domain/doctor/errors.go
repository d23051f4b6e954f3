package doctor

import "github.com/dmehra2102/prod-golang-projects/clinicbook/internal/domain"

var ErrDoctorNotFound = domain.NewError(domain.ErrNotFound, "doctor not found")
