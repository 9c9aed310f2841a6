package db

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"arcade-inventory-backend/internal/model"
)

// sampleLocations are the venues a fresh installation starts with.
var sampleLocations = []model.Location{
	{
		Name: "Main Warehouse", Type: "warehouse",
		Address: "123 Storage St", City: "San Diego", State: "CA", ZipCode: "92101",
		ContactName: "John Manager", ContactPhone: "555-0101", ContactEmail: "warehouse@finestcityarcades.com",
		RevenueSplit: decimal.NewNullDecimal(decimal.Zero),
	},
	{
		Name: "Downtown Bar & Grill", Type: "bar",
		Address: "456 Main St", City: "San Diego", State: "CA", ZipCode: "92102",
		ContactName: "Sarah Owner", ContactPhone: "555-0102", ContactEmail: "sarah@downtownbar.com",
		RevenueSplit: decimal.NewNullDecimal(decimal.NewFromInt(50)),
	},
	{
		Name: "Retro Gaming Lounge", Type: "arcade",
		Address: "789 Arcade Ave", City: "San Diego", State: "CA", ZipCode: "92103",
		ContactName: "Mike Operator", ContactPhone: "555-0103", ContactEmail: "mike@retrogaming.com",
		RevenueSplit: decimal.NewNullDecimal(decimal.NewFromInt(60)),
	},
}

// SeedLocations inserts the sample locations that do not exist yet (matched by
// name) and returns how many were created.
func SeedLocations(ctx context.Context, db *gorm.DB) (int, error) {
	created := 0
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, sample := range sampleLocations {
			var count int64
			if err := tx.Model(&model.Location{}).Where("name = ?", sample.Name).Count(&count).Error; err != nil {
				return fmt.Errorf("look up location %q: %w", sample.Name, err)
			}
			if count > 0 {
				continue
			}
			loc := sample
			loc.Active = true
			if err := tx.Create(&loc).Error; err != nil {
				return fmt.Errorf("seed location %q: %w", loc.Name, err)
			}
			created++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return created, nil
}
