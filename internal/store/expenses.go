package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"arcade-inventory-backend/internal/model"
)

// CreateExpense records an expense against an existing machine.
func (s *gormStore) CreateExpense(ctx context.Context, e *model.Expense) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m model.Machine
		if err := tx.Select("id").First(&m, e.MachineID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUnknownMachine
			}
			return err
		}
		if err := tx.Create(e).Error; err != nil {
			return fmt.Errorf("create expense for machine %d: %w", e.MachineID, err)
		}
		return nil
	})
}
