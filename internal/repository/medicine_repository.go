package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmehra2102/prod-golang-projects/clinicbook/internal/domain/medicine"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MedicineRepository struct {
	db *gorm.DB
}

func NewMedicineRepository(db *gorm.DB) *MedicineRepository {
	return &MedicineRepository{db: db}
}

func (r *MedicineRepository) GetByID(ctx context.Context, id uuid.UUID) (*medicine.Medicine, error) {
	var m medicine.Medicine
	err := conn(ctx, r.db).First(&m, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, medicine.ErrMedicineNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading medicine: %w", err)
	}
	return &m, nil
}

func (r *MedicineRepository) DecrementStock(ctx context.Context, id uuid.UUID, quantity int) error {
	if quantity <= 0 {
		return medicine.ErrInvalidQuantity
	}

	res := conn(ctx, r.db).
		Model(&medicine.Medicine{}).
		Where("id = ? AND stock >= ?", id, quantity).
		UpdateColumn("stock", gorm.Expr("stock - ?", quantity))
	if res.Error != nil {
		return fmt.Errorf("decrementing stock: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		return nil
	}

	m, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return &medicine.StockError{MedicineID: id, Requested: quantity, Available: m.Stock}
}
