package medicine

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Medicine, error)

	// DecrementStock subtracts quantity in a single conditional write and
	// returns a *StockError when the current stock is too low.
	DecrementStock(ctx context.Context, id uuid.UUID, quantity int) error
}
