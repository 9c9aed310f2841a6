package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"arcade-inventory-backend/internal/ledger"
	"arcade-inventory-backend/internal/model"
)

// ListMachines returns machines with their location name, ordered for display.
func (s *gormStore) ListMachines(ctx context.Context, f MachineFilter) ([]MachineListItem, error) {
	q := s.db.WithContext(ctx).
		Model(&model.Machine{}).
		Select("machines.*, locations.name AS location_name").
		Joins("LEFT JOIN locations ON locations.id = machines.current_location_id")

	if f.Status != "" {
		q = q.Where("machines.status = ?", f.Status)
	}
	if f.LocationID != nil {
		q = q.Where("machines.current_location_id = ?", *f.LocationID)
	}
	if f.VisibleOnly {
		q = q.Where("machines.visible_on_site = ?", true)
	}
	if f.NewestFirst {
		q = q.Order("machines.created_at DESC").Order("machines.id DESC")
	} else {
		q = q.Order("machines.display_order").Order("machines.name")
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}

	var out []MachineListItem
	if err := q.Scan(&out).Error; err != nil {
		return nil, fmt.Errorf("list machines: %w", err)
	}
	return out, nil
}

// ListVisibleMachines returns the machines shown on the public site.
func (s *gormStore) ListVisibleMachines(ctx context.Context) ([]model.Machine, error) {
	var out []model.Machine
	if err := s.db.WithContext(ctx).
		Where("visible_on_site = ?", true).
		Order("display_order").Order("name").
		Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list visible machines: %w", err)
	}
	return out, nil
}

func (s *gormStore) GetMachine(ctx context.Context, id uint) (*model.Machine, error) {
	var m model.Machine
	if err := s.db.WithContext(ctx).First(&m, id).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *gormStore) GetVisibleMachine(ctx context.Context, id uint) (*model.Machine, error) {
	var m model.Machine
	if err := s.db.WithContext(ctx).Where("visible_on_site = ?", true).First(&m, id).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// CreateMachine inserts a machine. A machine created at a location starts
// there today.
func (s *gormStore) CreateMachine(ctx context.Context, now time.Time, m *model.Machine) error {
	m.LocationStartDate = nil
	if m.CurrentLocationID != nil {
		day := ledger.Day(now)
		m.LocationStartDate = &day
	}
	if err := s.db.WithContext(ctx).Create(m).Error; err != nil {
		return fmt.Errorf("create machine: %w", err)
	}
	return nil
}

// UpdateMachine overwrites every editable column of an existing machine. The
// location start date moves to today only when the location changes; the
// image is managed separately and is kept.
func (s *gormStore) UpdateMachine(ctx context.Context, now time.Time, m *model.Machine) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.Machine
		if err := tx.First(&existing, m.ID).Error; err != nil {
			return err
		}

		switch {
		case sameLocation(existing.CurrentLocationID, m.CurrentLocationID):
			m.LocationStartDate = existing.LocationStartDate
		case m.CurrentLocationID == nil:
			m.LocationStartDate = nil
		default:
			day := ledger.Day(now)
			m.LocationStartDate = &day
		}
		m.ImageURL = existing.ImageURL
		m.CreatedAt = existing.CreatedAt
		m.CurrentLocation = nil

		if err := tx.Save(m).Error; err != nil {
			return fmt.Errorf("update machine %d: %w", m.ID, err)
		}
		return nil
	})
}

// DeleteMachine removes a machine with its revenue and expense rows and
// returns the deleted row.
func (s *gormStore) DeleteMachine(ctx context.Context, id uint) (*model.Machine, error) {
	var m model.Machine
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&m, id).Error; err != nil {
			return err
		}
		if err := tx.Where("machine_id = ?", id).Delete(&model.RevenueEntry{}).Error; err != nil {
			return fmt.Errorf("delete revenue of machine %d: %w", id, err)
		}
		if err := tx.Where("machine_id = ?", id).Delete(&model.Expense{}).Error; err != nil {
			return fmt.Errorf("delete expenses of machine %d: %w", id, err)
		}
		if err := tx.Delete(&model.Machine{}, id).Error; err != nil {
			return fmt.Errorf("delete machine %d: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// SetMachineImage stores a new image URL (empty clears it) and returns the
// previous one.
func (s *gormStore) SetMachineImage(ctx context.Context, id uint, imageURL string) (string, error) {
	var previous string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m model.Machine
		if err := tx.Select("id", "image_url").First(&m, id).Error; err != nil {
			return err
		}
		previous = m.ImageURL
		return tx.Model(&model.Machine{}).Where("id = ?", id).Update("image_url", imageURL).Error
	})
	if err != nil {
		return "", err
	}
	return previous, nil
}

func sameLocation(a, b *uint) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
