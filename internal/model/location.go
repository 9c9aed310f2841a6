package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Location is a physical venue hosting machines.
type Location struct {
	ID           uint                `gorm:"primaryKey" json:"id"`
	Name         string              `gorm:"size:255;not null" json:"name"`
	Type         string              `gorm:"size:64" json:"type"`
	Address      string              `json:"address"`
	City         string              `gorm:"size:128" json:"city"`
	State        string              `gorm:"size:64" json:"state"`
	ZipCode      string              `gorm:"size:16" json:"zipCode"`
	ContactName  string              `gorm:"size:255" json:"contactName"`
	ContactPhone string              `gorm:"size:64" json:"contactPhone"`
	ContactEmail string              `gorm:"size:255" json:"contactEmail"`
	RevenueSplit decimal.NullDecimal `gorm:"type:decimal(5,2)" json:"revenueSplit"` // percent kept by the location
	Notes        string              `json:"notes"`
	Active       bool                `gorm:"not null" json:"active"`
	CreatedAt    time.Time           `json:"createdAt"`
	UpdatedAt    time.Time           `json:"updatedAt"`

	// Associations
	Images []LocationImage `gorm:"foreignKey:LocationID" json:"images,omitempty"`
}

// LocationImage is a photo attached to a location.
type LocationImage struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	LocationID   uint      `gorm:"index;not null" json:"locationId"`
	ImageURL     string    `gorm:"size:1024;not null" json:"imageUrl"`
	ImageName    string    `gorm:"size:255" json:"imageName"`
	DisplayOrder int       `json:"displayOrder"`
	CreatedAt    time.Time `json:"createdAt"`
}
