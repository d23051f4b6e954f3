package medicine

import (
	"fmt"
	"time"

	"github.com/dmehra2102/prod-golang-projects/clinicbook/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Medicine struct {
	ID        uuid.UUID `gorm:"type:char(36);primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	Name  string          `gorm:"column:name;type:varchar(200);not null;index"`
	Unit  string          `gorm:"column:unit;type:varchar(30)"`
	Price decimal.Decimal `gorm:"column:price;type:decimal(14,2);not null"`
	// Never negative: decrements are conditional on stock >= quantity.
	Stock int `gorm:"column:stock;not null;default:0"`
}

func (Medicine) TableName() string {
	return "medicines"
}

// StockError reports a decrement that would drive stock below zero.
type StockError struct {
	MedicineID uuid.UUID
	Requested  int
	Available  int
}

func (e *StockError) Error() string {
	return fmt.Sprintf("insufficient stock for medicine %s: requested %d, available %d",
		e.MedicineID, e.Requested, e.Available)
}

func (e *StockError) Unwrap() error {
	return domain.ErrInsufficientStock
}
