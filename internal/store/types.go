package store

import (
	"time"

	"github.com/shopspring/decimal"

	"arcade-inventory-backend/internal/model"
)

// LocationSummary is a location with the number of machines placed there.
type LocationSummary struct {
	model.Location
	MachineCount int64 `json:"machineCount"`
}

// MachineFilter narrows ListMachines. Zero values mean no filter.
type MachineFilter struct {
	Status      string
	LocationID  *uint
	VisibleOnly bool
	Limit       int
	NewestFirst bool
}

// MachineListItem is a machine with its location's name for display.
type MachineListItem struct {
	model.Machine
	LocationName string `json:"locationName"`
}

// MachineRevenue is one row of the per-location revenue entry form: a machine
// and what has been recorded for it in the requested month.
type MachineRevenue struct {
	MachineID      uint            `json:"machineId"`
	Name           string          `json:"name"`
	MachineType    string          `json:"machineType"`
	RevenueAmount  decimal.Decimal `json:"revenueAmount"`
	FCAAmount      decimal.Decimal `json:"fcaAmount"`
	LocationAmount decimal.Decimal `json:"locationAmount"`
	Notes          string          `json:"notes"`
	HasEntry       bool            `json:"hasEntry"`
}

// RevenueInput is the revenue collected from one machine.
type RevenueInput struct {
	MachineID uint
	Amount    decimal.Decimal
	Notes     string
}

// RevenueBatch is a revenue submission for one location and date.
type RevenueBatch struct {
	LocationID uint
	Date       time.Time
	Entries    []RevenueInput
}

// RevenueRow is a revenue entry with display names.
type RevenueRow struct {
	model.RevenueEntry
	MachineName  string `json:"machineName"`
	LocationName string `json:"locationName"`
}

// MonthTotal is the revenue of one calendar month.
type MonthTotal struct {
	Month         time.Month      `json:"month"`
	Revenue       decimal.Decimal `json:"revenue"`
	FCA           decimal.Decimal `json:"fca"`
	LocationShare decimal.Decimal `json:"locationShare"`
}

// MachineTotal is a machine's revenue over a period.
type MachineTotal struct {
	MachineID     uint            `json:"machineId"`
	Name          string          `json:"name"`
	Revenue       decimal.Decimal `json:"revenue"`
	FCA           decimal.Decimal `json:"fca"`
	LocationShare decimal.Decimal `json:"locationShare"`
}

// LocationTotal is a location's revenue over a period.
type LocationTotal struct {
	LocationID    uint            `json:"locationId"`
	Name          string          `json:"name"`
	MachineCount  int64           `json:"machineCount"`
	Revenue       decimal.Decimal `json:"revenue"`
	FCA           decimal.Decimal `json:"fca"`
	LocationShare decimal.Decimal `json:"locationShare"`
	Average       decimal.Decimal `json:"average"`
}

// RevenueOverview backs the revenue page.
type RevenueOverview struct {
	Year            int              `json:"year"`
	Month           time.Month       `json:"month"`
	ActiveLocations []model.Location `json:"activeLocations"`
	MonthEntries    []RevenueRow     `json:"monthEntries"`
	Monthly         []MonthTotal     `json:"monthly"`
	TopMachines     []MachineTotal   `json:"topMachines"`
	Locations       []LocationTotal  `json:"locations"`
}

// DashboardStats backs the admin dashboard.
type DashboardStats struct {
	TotalMachines       int64             `json:"totalMachines"`
	AvailableMachines   int64             `json:"availableMachines"`
	MaintenanceMachines int64             `json:"maintenanceMachines"`
	DeployedMachines    int64             `json:"deployedMachines"`
	VisibleMachines     int64             `json:"visibleMachines"`
	TotalLocations      int64             `json:"totalLocations"`
	ActiveLocations     int64             `json:"activeLocations"`
	MonthRevenue        decimal.Decimal   `json:"monthRevenue"`
	MonthMachines       int64             `json:"monthMachines"`
	RecentMachines      []MachineListItem `json:"recentMachines"`
	TopMachines         []MachineTotal    `json:"topMachines"`
}
