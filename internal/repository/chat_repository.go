package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmehra2102/prod-golang-projects/clinicbook/internal/domain/chat"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ChatRepository struct {
	db *gorm.DB
}

func NewChatRepository(db *gorm.DB) *ChatRepository {
	return &ChatRepository{db: db}
}

// EnsureChannel relies on the unique appointment_id index, so concurrent
// completions of the same appointment insert at most one row.
func (r *ChatRepository) EnsureChannel(ctx context.Context, c *chat.Channel) (bool, error) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.Messages == nil {
		c.Messages = []chat.Message{}
	}

	res := conn(ctx, r.db).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "appointment_id"}}, DoNothing: true}).
		Create(c)
	if res.Error != nil {
		return false, fmt.Errorf("ensuring chat channel: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *ChatRepository) GetByAppointmentID(ctx context.Context, appointmentID uuid.UUID) (*chat.Channel, error) {
	var c chat.Channel
	err := conn(ctx, r.db).First(&c, "appointment_id = ?", appointmentID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, chat.ErrChannelNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading chat channel: %w", err)
	}
	return &c, nil
}
