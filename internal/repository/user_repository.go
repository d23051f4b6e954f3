package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmehra2102/prod-golang-projects/clinicbook/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrUserNotFound = domain.NewError(domain.ErrNotFound, "user not found")

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	var u domain.User
	err := conn(ctx, r.db).First(&u, "id = ? AND deleted_at IS NULL", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading user: %w", err)
	}
	return &u, nil
}

func (r *UserRepository) ListByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*domain.User, error) {
	out := make(map[uuid.UUID]*domain.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var users []*domain.User
	if err := conn(ctx, r.db).Where("id IN ? AND deleted_at IS NULL", ids).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	for _, u := range users {
		out[u.ID] = u
	}
	return out, nil
}
