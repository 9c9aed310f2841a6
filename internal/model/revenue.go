package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// RevenueEntry is the revenue one machine earned at one location on one date.
// FCAAmount + LocationAmount always equals RevenueAmount.
type RevenueEntry struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	MachineID      uint            `gorm:"not null;uniqueIndex:machine_revenue_unique_entry,priority:1" json:"machineId"`
	LocationID     uint            `gorm:"not null;uniqueIndex:machine_revenue_unique_entry,priority:2" json:"locationId"`
	RevenueDate    time.Time       `gorm:"type:date;not null;uniqueIndex:machine_revenue_unique_entry,priority:3" json:"revenueDate"`
	RevenueAmount  decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"revenueAmount"`
	FCAAmount      decimal.Decimal `gorm:"column:fca_amount;type:decimal(10,2);not null" json:"fcaAmount"`
	LocationAmount decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"locationAmount"`
	Notes          string          `json:"notes"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// TableName keeps the historical table name.
func (RevenueEntry) TableName() string { return "machine_revenue" }
