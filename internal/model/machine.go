package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Known machine statuses. Status is free text; these are the values the
// dashboards count.
const (
	StatusAvailable   = "available"
	StatusMaintenance = "maintenance"
	StatusDeployed    = "deployed"
	StatusSold        = "sold"
)

const DefaultMachineType = "pinball"

// Machine is a single pinball or arcade cabinet.
type Machine struct {
	ID                  uint                        `gorm:"primaryKey" json:"id"`
	Name                string                      `gorm:"size:255;not null" json:"name"`
	Manufacturer        string                      `gorm:"size:255" json:"manufacturer"`
	YearManufactured    *int                        `json:"yearManufactured"`
	MachineType         string                      `gorm:"size:64;not null" json:"machineType"`
	Status              string                      `gorm:"size:32;not null" json:"status"`
	Tags                datatypes.JSONSlice[string] `json:"tags"`
	ImageURL            string                      `gorm:"size:1024" json:"imageUrl"`
	Description         string                      `json:"description"`
	Notes               string                      `json:"notes"`
	InitialCost         decimal.NullDecimal         `gorm:"type:decimal(10,2)" json:"initialCost"`
	PurchaseDate        *time.Time                  `gorm:"type:date" json:"purchaseDate"`
	SaleDate            *time.Time                  `gorm:"type:date" json:"saleDate"`
	SaleAmount          decimal.NullDecimal         `gorm:"type:decimal(10,2)" json:"saleAmount"`
	CurrentLocationID   *uint                       `gorm:"index" json:"currentLocationId"`
	LocationStartDate   *time.Time                  `gorm:"type:date" json:"locationStartDate"`
	TotalPlays          int                         `json:"totalPlays"`
	LastMaintenanceDate *time.Time                  `gorm:"type:date" json:"lastMaintenanceDate"`
	NextMaintenanceDue  *time.Time                  `gorm:"type:date" json:"nextMaintenanceDue"`
	Featured            bool                        `json:"featured"`
	DisplayOrder        int                         `json:"displayOrder"`
	VisibleOnSite       bool                        `json:"visibleOnSite"`
	CreatedAt           time.Time                   `json:"createdAt"`
	UpdatedAt           time.Time                   `json:"updatedAt"`

	// Associations
	CurrentLocation *Location `gorm:"foreignKey:CurrentLocationID;constraint:OnDelete:SET NULL" json:"-"`
}
