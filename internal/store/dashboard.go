package store

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"arcade-inventory-backend/internal/ledger"
	"arcade-inventory-backend/internal/model"
)

// Dashboard computes the admin landing page figures for the month containing now.
func (s *gormStore) Dashboard(ctx context.Context, now time.Time) (*DashboardStats, error) {
	db := s.db.WithContext(ctx)
	stats := &DashboardStats{}

	var byStatus []struct {
		Status string
		Count  int64
	}
	if err := db.Model(&model.Machine{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&byStatus).Error; err != nil {
		return nil, fmt.Errorf("count machines by status: %w", err)
	}
	for _, row := range byStatus {
		stats.TotalMachines += row.Count
		switch row.Status {
		case model.StatusAvailable:
			stats.AvailableMachines = row.Count
		case model.StatusMaintenance:
			stats.MaintenanceMachines = row.Count
		case model.StatusDeployed:
			stats.DeployedMachines = row.Count
		}
	}

	if err := db.Model(&model.Machine{}).Where("visible_on_site = ?", true).Count(&stats.VisibleMachines).Error; err != nil {
		return nil, fmt.Errorf("count visible machines: %w", err)
	}
	if err := db.Model(&model.Location{}).Count(&stats.TotalLocations).Error; err != nil {
		return nil, fmt.Errorf("count locations: %w", err)
	}
	if err := db.Model(&model.Location{}).Where("active = ?", true).Count(&stats.ActiveLocations).Error; err != nil {
		return nil, fmt.Errorf("count active locations: %w", err)
	}

	start, end := ledger.MonthRange(now)
	var month struct {
		Total    decimal.NullDecimal
		Machines int64
	}
	if err := db.Model(&model.RevenueEntry{}).
		Select("SUM(revenue_amount) AS total, COUNT(DISTINCT machine_id) AS machines").
		Where("revenue_date >= ? AND revenue_date < ?", start, end).
		Scan(&month).Error; err != nil {
		return nil, fmt.Errorf("month revenue: %w", err)
	}
	stats.MonthRevenue = decimal.Zero
	if month.Total.Valid {
		stats.MonthRevenue = month.Total.Decimal.Round(2)
	}
	stats.MonthMachines = month.Machines

	var err error
	if stats.RecentMachines, err = s.ListMachines(ctx, MachineFilter{NewestFirst: true, Limit: 5}); err != nil {
		return nil, err
	}
	if stats.TopMachines, err = s.TopMachines(ctx, start, end, 5); err != nil {
		return nil, err
	}
	return stats, nil
}
