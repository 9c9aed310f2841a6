package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"arcade-inventory-backend/internal/model"
)

// ListLocations returns every location with its machine count, by name.
func (s *gormStore) ListLocations(ctx context.Context) ([]LocationSummary, error) {
	var out []LocationSummary
	if err := s.db.WithContext(ctx).
		Model(&model.Location{}).
		Select("locations.*, (SELECT COUNT(*) FROM machines WHERE machines.current_location_id = locations.id) AS machine_count").
		Order("locations.name").
		Scan(&out).Error; err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	return out, nil
}

func (s *gormStore) ListActiveLocations(ctx context.Context) ([]model.Location, error) {
	var out []model.Location
	if err := s.db.WithContext(ctx).Where("active = ?", true).Order("name").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list active locations: %w", err)
	}
	return out, nil
}

// GetLocation returns a location with its images.
func (s *gormStore) GetLocation(ctx context.Context, id uint) (*model.Location, error) {
	var loc model.Location
	if err := s.db.WithContext(ctx).
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("display_order, id") }).
		First(&loc, id).Error; err != nil {
		return nil, err
	}
	return &loc, nil
}

func (s *gormStore) CreateLocation(ctx context.Context, loc *model.Location) error {
	if err := s.db.WithContext(ctx).Create(loc).Error; err != nil {
		return fmt.Errorf("create location: %w", err)
	}
	return nil
}

// UpdateLocation overwrites every editable column of an existing location.
func (s *gormStore) UpdateLocation(ctx context.Context, loc *model.Location) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.Location
		if err := tx.First(&existing, loc.ID).Error; err != nil {
			return err
		}
		loc.CreatedAt = existing.CreatedAt
		loc.Images = nil
		if err := tx.Save(loc).Error; err != nil {
			return fmt.Errorf("update location %d: %w", loc.ID, err)
		}
		return nil
	})
}

// DeleteLocation removes a location, its revenue entries and its image rows.
// Machines placed there are kept and become unassigned. The deleted location
// is returned with its images so the caller can clean up blobs.
func (s *gormStore) DeleteLocation(ctx context.Context, id uint) (*model.Location, error) {
	var loc model.Location
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Images").First(&loc, id).Error; err != nil {
			return err
		}
		if err := tx.Model(&model.Machine{}).
			Where("current_location_id = ?", id).
			Updates(map[string]any{"current_location_id": nil, "location_start_date": nil}).Error; err != nil {
			return fmt.Errorf("unassign machines from location %d: %w", id, err)
		}
		if err := tx.Where("location_id = ?", id).Delete(&model.RevenueEntry{}).Error; err != nil {
			return fmt.Errorf("delete revenue of location %d: %w", id, err)
		}
		if err := tx.Where("location_id = ?", id).Delete(&model.LocationImage{}).Error; err != nil {
			return fmt.Errorf("delete images of location %d: %w", id, err)
		}
		if err := tx.Delete(&model.Location{}, id).Error; err != nil {
			return fmt.Errorf("delete location %d: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &loc, nil
}

// AddLocationImage attaches an image to an existing location.
func (s *gormStore) AddLocationImage(ctx context.Context, img *model.LocationImage) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var loc model.Location
		if err := tx.Select("id").First(&loc, img.LocationID).Error; err != nil {
			return err
		}
		if err := tx.Create(img).Error; err != nil {
			return fmt.Errorf("add image to location %d: %w", img.LocationID, err)
		}
		return nil
	})
}

// DeleteLocationImage removes one image row and returns it.
func (s *gormStore) DeleteLocationImage(ctx context.Context, locationID, imageID uint) (*model.LocationImage, error) {
	var img model.LocationImage
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND location_id = ?", imageID, locationID).First(&img).Error; err != nil {
			return err
		}
		return tx.Delete(&model.LocationImage{}, imageID).Error
	})
	if err != nil {
		return nil, err
	}
	return &img, nil
}
