package service

import (
	"context"

	"github.com/dmehra2102/prod-golang-projects/clinicbook/internal/domain"
	"github.com/google/uuid"
)

// UserRepository resolves identities to contact details.
type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	ListByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*domain.User, error)
}
