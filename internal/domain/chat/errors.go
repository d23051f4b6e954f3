package chat

import "github.com/dmehra2102/prod-golang-projects/clinicbook/internal/domain"

var ErrChannelNotFound = domain.NewError(domain.ErrNotFound, "chat channel not found")
