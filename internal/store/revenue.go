package store

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"arcade-inventory-backend/internal/ledger"
	"arcade-inventory-backend/internal/model"
)

// LocationRevenue lists the machines currently at a location, skipping those
// sold before the month, with what has been recorded for each in that month.
func (s *gormStore) LocationRevenue(ctx context.Context, locationID uint, month time.Time) ([]MachineRevenue, error) {
	start, end := ledger.MonthRange(month)
	db := s.db.WithContext(ctx)

	var machines []model.Machine
	if err := db.
		Where("current_location_id = ?", locationID).
		Where("sale_date IS NULL OR sale_date >= ?", start).
		Order("display_order").Order("name").
		Find(&machines).Error; err != nil {
		return nil, fmt.Errorf("list machines at location %d: %w", locationID, err)
	}
	if len(machines) == 0 {
		return []MachineRevenue{}, nil
	}

	ids := make([]uint, len(machines))
	for i, m := range machines {
		ids[i] = m.ID
	}

	var entries []model.RevenueEntry
	if err := db.
		Where("location_id = ? AND machine_id IN ?", locationID, ids).
		Where("revenue_date >= ? AND revenue_date < ?", start, end).
		Order("revenue_date").
		Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("load revenue for location %d: %w", locationID, err)
	}

	byMachine := make(map[uint]*MachineRevenue, len(machines))
	out := make([]MachineRevenue, len(machines))
	for i, m := range machines {
		out[i] = MachineRevenue{
			MachineID:      m.ID,
			Name:           m.Name,
			MachineType:    m.MachineType,
			RevenueAmount:  decimal.Zero,
			FCAAmount:      decimal.Zero,
			LocationAmount: decimal.Zero,
		}
		byMachine[m.ID] = &out[i]
	}
	for _, e := range entries {
		row := byMachine[e.MachineID]
		row.RevenueAmount = row.RevenueAmount.Add(e.RevenueAmount)
		row.FCAAmount = row.FCAAmount.Add(e.FCAAmount)
		row.LocationAmount = row.LocationAmount.Add(e.LocationAmount)
		if e.Notes != "" {
			row.Notes = e.Notes
		}
		row.HasEntry = true
	}
	return out, nil
}

// SaveRevenue upserts a batch of revenue entries for one location and date in
// a single transaction. Entries with no positive revenue are skipped; the
// split is taken from the location as it is now. It returns how many entries
// were written.
func (s *gormStore) SaveRevenue(ctx context.Context, batch RevenueBatch) (int, error) {
	date := ledger.Day(batch.Date)

	// Last figure wins when a machine appears twice.
	latest := make(map[uint]RevenueInput)
	var order []uint
	for _, in := range batch.Entries {
		// Amounts are kept in cents; anything that rounds to zero is blank.
		in.Amount = in.Amount.Round(2)
		if !in.Amount.IsPositive() {
			continue
		}
		if _, seen := latest[in.MachineID]; !seen {
			order = append(order, in.MachineID)
		}
		latest[in.MachineID] = in
	}
	if len(order) == 0 {
		return 0, ErrEmptyBatch
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var loc model.Location
		if err := tx.First(&loc, batch.LocationID).Error; err != nil {
			return err
		}

		var known int64
		if err := tx.Model(&model.Machine{}).Where("id IN ?", order).Count(&known).Error; err != nil {
			return fmt.Errorf("check machines: %w", err)
		}
		if int(known) != len(order) {
			return ErrUnknownMachine
		}

		rows := make([]model.RevenueEntry, 0, len(order))
		for _, id := range order {
			in := latest[id]
			fca, share := ledger.Split(in.Amount, loc.RevenueSplit)
			rows = append(rows, model.RevenueEntry{
				MachineID:      id,
				LocationID:     loc.ID,
				RevenueDate:    date,
				RevenueAmount:  in.Amount,
				FCAAmount:      fca,
				LocationAmount: share,
				Notes:          in.Notes,
			})
		}

		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "machine_id"}, {Name: "location_id"}, {Name: "revenue_date"}},
			DoUpdates: clause.AssignmentColumns([]string{"revenue_amount", "fca_amount", "location_amount", "notes", "updated_at"}),
		}).Create(&rows).Error
	})
	if err != nil {
		return 0, err
	}
	return len(order), nil
}

// MonthEntries lists every revenue entry in month's calendar month.
func (s *gormStore) MonthEntries(ctx context.Context, month time.Time) ([]RevenueRow, error) {
	start, end := ledger.MonthRange(month)
	var out []RevenueRow
	if err := s.db.WithContext(ctx).
		Table("machine_revenue").
		Select("machine_revenue.*, machines.name AS machine_name, locations.name AS location_name").
		Joins("JOIN machines ON machines.id = machine_revenue.machine_id").
		Joins("JOIN locations ON locations.id = machine_revenue.location_id").
		Where("machine_revenue.revenue_date >= ? AND machine_revenue.revenue_date < ?", start, end).
		Order("machine_revenue.revenue_date DESC").Order("machines.name").
		Scan(&out).Error; err != nil {
		return nil, fmt.Errorf("list revenue entries: %w", err)
	}
	return out, nil
}

// MonthlySeries returns twelve monthly totals for year.
func (s *gormStore) MonthlySeries(ctx context.Context, year int) ([]MonthTotal, error) {
	start, end := ledger.YearRange(year)
	var entries []model.RevenueEntry
	if err := s.db.WithContext(ctx).
		Select("revenue_date", "revenue_amount", "fca_amount", "location_amount").
		Where("revenue_date >= ? AND revenue_date < ?", start, end).
		Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("load revenue for %d: %w", year, err)
	}

	out := make([]MonthTotal, 12)
	for i := range out {
		out[i] = MonthTotal{Month: time.Month(i + 1), Revenue: decimal.Zero, FCA: decimal.Zero, LocationShare: decimal.Zero}
	}
	for _, e := range entries {
		t := &out[e.RevenueDate.Month()-1]
		t.Revenue = t.Revenue.Add(e.RevenueAmount)
		t.FCA = t.FCA.Add(e.FCAAmount)
		t.LocationShare = t.LocationShare.Add(e.LocationAmount)
	}
	return out, nil
}

// TopMachines ranks machines by revenue in [from, to). A limit of zero or
// less returns every machine with revenue.
func (s *gormStore) TopMachines(ctx context.Context, from, to time.Time, limit int) ([]MachineTotal, error) {
	if limit <= 0 {
		limit = -1
	}
	var out []MachineTotal
	if err := s.db.WithContext(ctx).
		Table("machine_revenue").
		Select(`machine_revenue.machine_id, machines.name,
			SUM(machine_revenue.revenue_amount) AS revenue,
			SUM(machine_revenue.fca_amount) AS fca,
			SUM(machine_revenue.location_amount) AS location_share`).
		Joins("JOIN machines ON machines.id = machine_revenue.machine_id").
		Where("machine_revenue.revenue_date >= ? AND machine_revenue.revenue_date < ?", from, to).
		Group("machine_revenue.machine_id, machines.name").
		Order("revenue DESC").
		Limit(limit).
		Scan(&out).Error; err != nil {
		return nil, fmt.Errorf("top machines: %w", err)
	}
	for i := range out {
		out[i].Revenue = out[i].Revenue.Round(2)
		out[i].FCA = out[i].FCA.Round(2)
		out[i].LocationShare = out[i].LocationShare.Round(2)
	}
	return out, nil
}

// LocationTotals summarizes revenue per location in [from, to).
func (s *gormStore) LocationTotals(ctx context.Context, from, to time.Time) ([]LocationTotal, error) {
	var out []LocationTotal
	if err := s.db.WithContext(ctx).
		Table("machine_revenue").
		Select(`machine_revenue.location_id, locations.name,
			COUNT(DISTINCT machine_revenue.machine_id) AS machine_count,
			SUM(machine_revenue.revenue_amount) AS revenue,
			SUM(machine_revenue.fca_amount) AS fca,
			SUM(machine_revenue.location_amount) AS location_share,
			AVG(machine_revenue.revenue_amount) AS average`).
		Joins("JOIN locations ON locations.id = machine_revenue.location_id").
		Where("machine_revenue.revenue_date >= ? AND machine_revenue.revenue_date < ?", from, to).
		Group("machine_revenue.location_id, locations.name").
		Order("revenue DESC").
		Scan(&out).Error; err != nil {
		return nil, fmt.Errorf("location totals: %w", err)
	}
	for i := range out {
		out[i].Revenue = out[i].Revenue.Round(2)
		out[i].FCA = out[i].FCA.Round(2)
		out[i].LocationShare = out[i].LocationShare.Round(2)
		out[i].Average = out[i].Average.Round(2)
	}
	return out, nil
}

// RevenueOverview gathers everything the revenue page shows for a year and
// one of its months.
func (s *gormStore) RevenueOverview(ctx context.Context, year int, month time.Month) (*RevenueOverview, error) {
	yearStart, yearEnd := ledger.YearRange(year)
	monthStart := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)

	ov := &RevenueOverview{Year: year, Month: month}
	var err error
	if ov.ActiveLocations, err = s.ListActiveLocations(ctx); err != nil {
		return nil, err
	}
	if ov.MonthEntries, err = s.MonthEntries(ctx, monthStart); err != nil {
		return nil, err
	}
	if ov.Monthly, err = s.MonthlySeries(ctx, year); err != nil {
		return nil, err
	}
	if ov.TopMachines, err = s.TopMachines(ctx, yearStart, yearEnd, 5); err != nil {
		return nil, err
	}
	if ov.Locations, err = s.LocationTotals(ctx, yearStart, yearEnd); err != nil {
		return nil, err
	}
	return ov, nil
}
