package store

import (
	"context"
	"database/sql/driver"
	"fmt"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"arcade-inventory-backend/internal/db"
	"arcade-inventory-backend/internal/model"
)

// A helper function to create a mock database connection.
func newTestDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: sqlDB,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	return gormDB, mock
}

// newSQLiteStore returns a store over a private, fully migrated in-memory database.
func newSQLiteStore(t *testing.T) (Store, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	gormDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := gormDB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.Migrate(gormDB))
	return NewGormStore(gormDB), gormDB
}

// Any matches any argument.
type Any struct{}

// Match satisfies sqlmock.Argument interface
func (a Any) Match(v driver.Value) bool {
	return true
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func split(s string) decimal.NullDecimal { return decimal.NewNullDecimal(dec(s)) }

func date(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

func mustLocation(t *testing.T, s Store, name string, revenueSplit decimal.NullDecimal) *model.Location {
	t.Helper()
	loc := &model.Location{Name: name, Type: "bar", Active: true, RevenueSplit: revenueSplit}
	require.NoError(t, s.CreateLocation(context.Background(), loc))
	return loc
}

func mustMachine(t *testing.T, s Store, name string, locationID *uint) *model.Machine {
	t.Helper()
	m := &model.Machine{Name: name, MachineType: model.DefaultMachineType, Status: model.StatusAvailable, CurrentLocationID: locationID, VisibleOnSite: true}
	require.NoError(t, s.CreateMachine(context.Background(), date(2024, 1, 10), m))
	return m
}

func TestGormStore_SaveRevenue_SQL(t *testing.T) {
	testCases := []struct {
		name             string
		batch            RevenueBatch
		mockExpectations func(mock sqlmock.Sqlmock)
		wantSaved        int
		wantErr          error
	}{
		{
			name: "Upserts positive entries on the machine, location, date key",
			batch: RevenueBatch{
				LocationID: 7,
				Date:       date(2024, 3, 1),
				Entries: []RevenueInput{
					{MachineID: 1, Amount: dec("100.00")},
					{MachineID: 2, Amount: dec("0")},
					{MachineID: 3, Amount: dec("55.50"), Notes: "coin jam"},
				},
			},
			mockExpectations: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "locations" WHERE "locations"."id" = $1`)).
					WithArgs(7, Any{}).
					WillReturnRows(sqlmock.NewRows([]string{"id", "name", "revenue_split"}).AddRow(7, "Bar", "60.00"))
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "machines" WHERE id IN ($1,$2)`)).
					WithArgs(1, 3).
					WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
				mock.ExpectQuery(`INSERT INTO "machine_revenue" .* ON CONFLICT \("machine_id","location_id","revenue_date"\) DO UPDATE SET "revenue_amount"="excluded"."revenue_amount"`).
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1).AddRow(2))
				mock.ExpectCommit()
			},
			wantSaved: 2,
		},
		{
			name: "Rejects machines that do not exist",
			batch: RevenueBatch{
				LocationID: 7,
				Date:       date(2024, 3, 1),
				Entries:    []RevenueInput{{MachineID: 99, Amount: dec("10")}},
			},
			mockExpectations: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "locations"`)).
					WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(7, "Bar"))
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "machines"`)).
					WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
				mock.ExpectRollback()
			},
			wantErr: ErrUnknownMachine,
		},
		{
			name: "Unknown location",
			batch: RevenueBatch{
				LocationID: 8,
				Date:       date(2024, 3, 1),
				Entries:    []RevenueInput{{MachineID: 1, Amount: dec("10")}},
			},
			mockExpectations: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "locations"`)).
					WillReturnRows(sqlmock.NewRows([]string{"id"}))
				mock.ExpectRollback()
			},
			wantErr: gorm.ErrRecordNotFound,
		},
		{
			name: "Nothing positive to save touches no table",
			batch: RevenueBatch{
				LocationID: 7,
				Date:       date(2024, 3, 1),
				Entries:    []RevenueInput{{MachineID: 1, Amount: dec("-5")}},
			},
			mockExpectations: func(mock sqlmock.Sqlmock) {},
			wantErr:          ErrEmptyBatch,
		},
		{
			name: "Amounts that round to zero cents are skipped",
			batch: RevenueBatch{
				LocationID: 7,
				Date:       date(2024, 3, 1),
				Entries:    []RevenueInput{{MachineID: 1, Amount: dec("0.004")}},
			},
			mockExpectations: func(mock sqlmock.Sqlmock) {},
			wantErr:          ErrEmptyBatch,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gormDB, mock := newTestDB(t)
			tc.mockExpectations(mock)

			s := NewGormStore(gormDB)
			saved, err := s.SaveRevenue(context.Background(), tc.batch)

			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tc.wantSaved, saved)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestGormStore_SaveRevenue_UpsertKeepsOneRow(t *testing.T) {
	s, gormDB := newSQLiteStore(t)
	ctx := context.Background()

	loc := mustLocation(t, s, "Downtown Bar", split("60"))
	m := mustMachine(t, s, "Attack from Mars", &loc.ID)

	n, err := s.SaveRevenue(ctx, RevenueBatch{LocationID: loc.ID, Date: date(2024, 3, 1), Entries: []RevenueInput{{MachineID: m.ID, Amount: dec("100.00")}}})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = s.SaveRevenue(ctx, RevenueBatch{LocationID: loc.ID, Date: date(2024, 3, 1), Entries: []RevenueInput{{MachineID: m.ID, Amount: dec("150.00"), Notes: "recount"}}})
	require.NoError(t, err)

	var entries []model.RevenueEntry
	require.NoError(t, gormDB.Where("machine_id = ?", m.ID).Find(&entries).Error)
	require.Len(t, entries, 1)
	e := entries[0]
	assert.True(t, e.RevenueAmount.Equal(dec("150")), "revenue = %s", e.RevenueAmount)
	assert.True(t, e.LocationAmount.Equal(dec("90")), "location = %s", e.LocationAmount)
	assert.True(t, e.FCAAmount.Equal(dec("60")), "fca = %s", e.FCAAmount)
	assert.True(t, e.RevenueAmount.Equal(e.FCAAmount.Add(e.LocationAmount)))
	assert.Equal(t, "recount", e.Notes)
}

func TestGormStore_SaveRevenue_SubCentAmounts(t *testing.T) {
	s, gormDB := newSQLiteStore(t)
	ctx := context.Background()
	loc := mustLocation(t, s, "Arcade Hall", split("50"))
	m := mustMachine(t, s, "Twilight Zone", &loc.ID)
	other := mustMachine(t, s, "Funhouse", &loc.ID)

	_, err := s.SaveRevenue(ctx, RevenueBatch{LocationID: loc.ID, Date: date(2024, 3, 1), Entries: []RevenueInput{{MachineID: m.ID, Amount: dec("0.004")}}})
	assert.ErrorIs(t, err, ErrEmptyBatch)

	var count int64
	require.NoError(t, gormDB.Model(&model.RevenueEntry{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)

	n, err := s.SaveRevenue(ctx, RevenueBatch{LocationID: loc.ID, Date: date(2024, 3, 1), Entries: []RevenueInput{
		{MachineID: m.ID, Amount: dec("0.004")},
		{MachineID: other.ID, Amount: dec("0.005")},
	}})
	require.NoError(t, err)
	assert.Equal(t, 1, n, "only the amount that rounds up to a cent is saved")

	var entries []model.RevenueEntry
	require.NoError(t, gormDB.Find(&entries).Error)
	require.Len(t, entries, 1)
	assert.Equal(t, other.ID, entries[0].MachineID)
	assert.True(t, entries[0].RevenueAmount.Equal(dec("0.01")), "revenue = %s", entries[0].RevenueAmount)
}

func TestGormStore_SaveRevenue_SplitExample(t *testing.T) {
	s, gormDB := newSQLiteStore(t)
	loc := mustLocation(t, s, "Lounge", split("60"))
	noSplit := mustLocation(t, s, "Warehouse", decimal.NullDecimal{})
	m := mustMachine(t, s, "Medieval Madness", &loc.ID)

	_, err := s.SaveRevenue(context.Background(), RevenueBatch{LocationID: loc.ID, Date: date(2024, 5, 1), Entries: []RevenueInput{{MachineID: m.ID, Amount: dec("100.00")}}})
	require.NoError(t, err)
	_, err = s.SaveRevenue(context.Background(), RevenueBatch{LocationID: noSplit.ID, Date: date(2024, 5, 1), Entries: []RevenueInput{{MachineID: m.ID, Amount: dec("33.33")}}})
	require.NoError(t, err)

	var withSplit, without model.RevenueEntry
	require.NoError(t, gormDB.Where("location_id = ?", loc.ID).First(&withSplit).Error)
	require.NoError(t, gormDB.Where("location_id = ?", noSplit.ID).First(&without).Error)

	assert.True(t, withSplit.LocationAmount.Equal(dec("60.00")))
	assert.True(t, withSplit.FCAAmount.Equal(dec("40.00")))
	assert.True(t, without.LocationAmount.IsZero())
	assert.True(t, without.FCAAmount.Equal(dec("33.33")))
}

func TestGormStore_DeleteLocation_UnassignsMachines(t *testing.T) {
	s, gormDB := newSQLiteStore(t)
	ctx := context.Background()

	loc := mustLocation(t, s, "Closing Bar", split("50"))
	other := mustLocation(t, s, "Staying Bar", split("50"))
	m1 := mustMachine(t, s, "Fish Tales", &loc.ID)
	m2 := mustMachine(t, s, "Funhouse", &loc.ID)
	m3 := mustMachine(t, s, "Whirlwind", &other.ID)
	require.NoError(t, s.AddLocationImage(ctx, &model.LocationImage{LocationID: loc.ID, ImageURL: "https://cdn.example/locations/1/a.jpg"}))
	_, err := s.SaveRevenue(ctx, RevenueBatch{LocationID: loc.ID, Date: date(2024, 1, 1), Entries: []RevenueInput{{MachineID: m1.ID, Amount: dec("10")}}})
	require.NoError(t, err)

	deleted, err := s.DeleteLocation(ctx, loc.ID)
	require.NoError(t, err)
	require.Len(t, deleted.Images, 1)

	for _, id := range []uint{m1.ID, m2.ID} {
		got, err := s.GetMachine(ctx, id)
		require.NoError(t, err, "machine %d must survive", id)
		assert.Nil(t, got.CurrentLocationID)
		assert.Nil(t, got.LocationStartDate)
	}
	got, err := s.GetMachine(ctx, m3.ID)
	require.NoError(t, err)
	require.NotNil(t, got.CurrentLocationID)
	assert.Equal(t, other.ID, *got.CurrentLocationID)

	var revenueCount, imageCount int64
	gormDB.Model(&model.RevenueEntry{}).Where("location_id = ?", loc.ID).Count(&revenueCount)
	gormDB.Model(&model.LocationImage{}).Where("location_id = ?", loc.ID).Count(&imageCount)
	assert.Zero(t, revenueCount)
	assert.Zero(t, imageCount)

	_, err = s.GetLocation(ctx, loc.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	_, err = s.DeleteLocation(ctx, loc.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestGormStore_DeleteMachine_RemovesRevenueAndExpenses(t *testing.T) {
	s, gormDB := newSQLiteStore(t)
	ctx := context.Background()

	loc := mustLocation(t, s, "Bar", split("40"))
	m := mustMachine(t, s, "Twilight Zone", &loc.ID)
	keep := mustMachine(t, s, "Getaway", &loc.ID)
	_, err := s.SaveRevenue(ctx, RevenueBatch{LocationID: loc.ID, Date: date(2024, 2, 1), Entries: []RevenueInput{
		{MachineID: m.ID, Amount: dec("20")}, {MachineID: keep.ID, Amount: dec("30")},
	}})
	require.NoError(t, err)
	require.NoError(t, s.CreateExpense(ctx, &model.Expense{MachineID: m.ID, ExpenseDate: date(2024, 2, 3), Amount: dec("12.50"), ExpenseType: "repair"}))

	deleted, err := s.DeleteMachine(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, "Twilight Zone", deleted.Name)

	var revenueCount, expenseCount, keptRevenue int64
	gormDB.Model(&model.RevenueEntry{}).Where("machine_id = ?", m.ID).Count(&revenueCount)
	gormDB.Model(&model.Expense{}).Where("machine_id = ?", m.ID).Count(&expenseCount)
	gormDB.Model(&model.RevenueEntry{}).Where("machine_id = ?", keep.ID).Count(&keptRevenue)
	assert.Zero(t, revenueCount)
	assert.Zero(t, expenseCount)
	assert.Equal(t, int64(1), keptRevenue)

	_, err = s.DeleteMachine(ctx, m.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestGormStore_LocationStartDate(t *testing.T) {
	s, _ := newSQLiteStore(t)
	ctx := context.Background()
	loc := mustLocation(t, s, "Arcade", split("50"))
	other := mustLocation(t, s, "Other Arcade", split("50"))

	m := &model.Machine{Name: "Theatre of Magic", MachineType: "pinball", Status: model.StatusAvailable}
	require.NoError(t, s.CreateMachine(ctx, date(2024, 1, 5), m))
	got, err := s.GetMachine(ctx, m.ID)
	require.NoError(t, err)
	assert.Nil(t, got.LocationStartDate, "no location, no start date")

	// Assigning it later starts it that day.
	got.CurrentLocationID = &loc.ID
	require.NoError(t, s.UpdateMachine(ctx, time.Date(2024, 2, 14, 18, 30, 0, 0, time.UTC), got))
	got, err = s.GetMachine(ctx, m.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LocationStartDate)
	assert.Equal(t, date(2024, 2, 14), got.LocationStartDate.UTC())

	// Editing other fields keeps the date.
	got.Notes = "new flipper rubbers"
	require.NoError(t, s.UpdateMachine(ctx, date(2024, 3, 1), got))
	got, err = s.GetMachine(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, date(2024, 2, 14), got.LocationStartDate.UTC())
	assert.Equal(t, "new flipper rubbers", got.Notes)

	// Moving resets it.
	got.CurrentLocationID = &other.ID
	require.NoError(t, s.UpdateMachine(ctx, date(2024, 4, 2), got))
	got, err = s.GetMachine(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, date(2024, 4, 2), got.LocationStartDate.UTC())

	// Unassigning clears it.
	got.CurrentLocationID = nil
	require.NoError(t, s.UpdateMachine(ctx, date(2024, 5, 1), got))
	got, err = s.GetMachine(ctx, m.ID)
	require.NoError(t, err)
	assert.Nil(t, got.LocationStartDate)

	created := &model.Machine{Name: "Scared Stiff", MachineType: "pinball", Status: model.StatusDeployed, CurrentLocationID: &loc.ID}
	require.NoError(t, s.CreateMachine(ctx, date(2024, 6, 9), created))
	require.NotNil(t, created.LocationStartDate)
	assert.Equal(t, date(2024, 6, 9), *created.LocationStartDate)
}

func TestGormStore_UpdateMachine_FullRowAndImageKept(t *testing.T) {
	s, _ := newSQLiteStore(t)
	ctx := context.Background()

	m := mustMachine(t, s, "Monster Bash", nil)
	prev, err := s.SetMachineImage(ctx, m.ID, "https://cdn.example/machines/1/1.jpg")
	require.NoError(t, err)
	assert.Empty(t, prev)

	replacement := &model.Machine{ID: m.ID, Name: "Monster Bash (LE)", MachineType: "pinball", Status: model.StatusMaintenance}
	require.NoError(t, s.UpdateMachine(ctx, date(2024, 1, 1), replacement))

	got, err := s.GetMachine(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, "Monster Bash (LE)", got.Name)
	assert.Equal(t, model.StatusMaintenance, got.Status)
	assert.False(t, got.VisibleOnSite, "full-row update writes false flags")
	assert.Equal(t, "https://cdn.example/machines/1/1.jpg", got.ImageURL)

	err = s.UpdateMachine(ctx, date(2024, 1, 1), &model.Machine{ID: 9999, Name: "ghost"})
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestGormStore_LocationRevenue(t *testing.T) {
	s, _ := newSQLiteStore(t)
	ctx := context.Background()

	loc := mustLocation(t, s, "Bar", split("50"))
	active := mustMachine(t, s, "Addams Family", &loc.ID)
	idle := mustMachine(t, s, "Cactus Canyon", &loc.ID)

	soldEarly := mustMachine(t, s, "Sold Before", &loc.ID)
	soldEarly.SaleDate = ptr(date(2024, 2, 20))
	require.NoError(t, s.UpdateMachine(ctx, date(2024, 1, 10), soldEarly))

	soldLater := mustMachine(t, s, "Sold During", &loc.ID)
	soldLater.SaleDate = ptr(date(2024, 3, 20))
	require.NoError(t, s.UpdateMachine(ctx, date(2024, 1, 10), soldLater))

	_, err := s.SaveRevenue(ctx, RevenueBatch{LocationID: loc.ID, Date: date(2024, 3, 1), Entries: []RevenueInput{{MachineID: active.ID, Amount: dec("80"), Notes: "first week"}}})
	require.NoError(t, err)
	_, err = s.SaveRevenue(ctx, RevenueBatch{LocationID: loc.ID, Date: date(2024, 3, 15), Entries: []RevenueInput{{MachineID: active.ID, Amount: dec("20")}}})
	require.NoError(t, err)
	_, err = s.SaveRevenue(ctx, RevenueBatch{LocationID: loc.ID, Date: date(2024, 4, 1), Entries: []RevenueInput{{MachineID: idle.ID, Amount: dec("999")}}})
	require.NoError(t, err)

	rows, err := s.LocationRevenue(ctx, loc.ID, date(2024, 3, 1))
	require.NoError(t, err)

	byName := map[string]MachineRevenue{}
	for _, r := range rows {
		byName[r.Name] = r
	}
	require.Len(t, rows, 3)
	assert.NotContains(t, byName, "Sold Before")
	assert.Contains(t, byName, "Sold During")

	assert.True(t, byName["Addams Family"].HasEntry)
	assert.True(t, byName["Addams Family"].RevenueAmount.Equal(dec("100")))
	assert.True(t, byName["Addams Family"].LocationAmount.Equal(dec("50")))
	assert.Equal(t, "first week", byName["Addams Family"].Notes)

	assert.False(t, byName["Cactus Canyon"].HasEntry)
	assert.True(t, byName["Cactus Canyon"].RevenueAmount.IsZero())

	empty, err := s.LocationRevenue(ctx, 4242, date(2024, 3, 1))
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestGormStore_Aggregations(t *testing.T) {
	s, _ := newSQLiteStore(t)
	ctx := context.Background()

	bar := mustLocation(t, s, "Bar", split("50"))
	lounge := mustLocation(t, s, "Lounge", split("60"))
	a := mustMachine(t, s, "Alpha", &bar.ID)
	b := mustMachine(t, s, "Bravo", &lounge.ID)

	save := func(loc, machine uint, d time.Time, amount string) {
		_, err := s.SaveRevenue(ctx, RevenueBatch{LocationID: loc, Date: d, Entries: []RevenueInput{{MachineID: machine, Amount: dec(amount)}}})
		require.NoError(t, err)
	}
	save(bar.ID, a.ID, date(2024, 1, 1), "100")
	save(bar.ID, a.ID, date(2024, 2, 1), "50.25")
	save(lounge.ID, b.ID, date(2024, 2, 1), "300")
	save(lounge.ID, b.ID, date(2023, 12, 1), "999")

	series, err := s.MonthlySeries(ctx, 2024)
	require.NoError(t, err)
	require.Len(t, series, 12)
	assert.True(t, series[0].Revenue.Equal(dec("100")))
	assert.True(t, series[1].Revenue.Equal(dec("350.25")))
	assert.True(t, series[1].LocationShare.Equal(dec("25.13").Add(dec("180"))), "got %s", series[1].LocationShare)
	assert.True(t, series[11].Revenue.IsZero())

	top, err := s.TopMachines(ctx, date(2024, 1, 1), date(2025, 1, 1), 5)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "Bravo", top[0].Name)
	assert.True(t, top[0].Revenue.Equal(dec("300")))
	assert.True(t, top[1].Revenue.Equal(dec("150.25")))

	locs, err := s.LocationTotals(ctx, date(2024, 1, 1), date(2025, 1, 1))
	require.NoError(t, err)
	require.Len(t, locs, 2)
	assert.Equal(t, "Lounge", locs[0].Name)
	assert.Equal(t, int64(1), locs[1].MachineCount)
	assert.True(t, locs[1].Average.Equal(dec("75.13")), "got %s", locs[1].Average)

	entries, err := s.MonthEntries(ctx, date(2024, 2, 10))
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.ElementsMatch(t, []string{"Alpha", "Bravo"}, []string{entries[0].MachineName, entries[1].MachineName})

	ov, err := s.RevenueOverview(ctx, 2024, time.February)
	require.NoError(t, err)
	assert.Len(t, ov.ActiveLocations, 2)
	assert.Len(t, ov.MonthEntries, 2)
	assert.Len(t, ov.TopMachines, 2)
}

func TestGormStore_Dashboard(t *testing.T) {
	s, _ := newSQLiteStore(t)
	ctx := context.Background()

	bar := mustLocation(t, s, "Bar", split("50"))
	inactive := &model.Location{Name: "Closed", Type: "bar", Active: false}
	require.NoError(t, s.CreateLocation(ctx, inactive))

	a := mustMachine(t, s, "Alpha", &bar.ID)
	a.Status = model.StatusDeployed
	require.NoError(t, s.UpdateMachine(ctx, date(2024, 1, 1), a))
	b := mustMachine(t, s, "Bravo", nil)
	b.Status = model.StatusMaintenance
	b.VisibleOnSite = false
	require.NoError(t, s.UpdateMachine(ctx, date(2024, 1, 1), b))
	mustMachine(t, s, "Charlie", nil)

	_, err := s.SaveRevenue(ctx, RevenueBatch{LocationID: bar.ID, Date: date(2024, 6, 1), Entries: []RevenueInput{{MachineID: a.ID, Amount: dec("75.50")}}})
	require.NoError(t, err)

	stats, err := s.Dashboard(ctx, time.Date(2024, 6, 18, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.TotalMachines)
	assert.Equal(t, int64(1), stats.AvailableMachines)
	assert.Equal(t, int64(1), stats.MaintenanceMachines)
	assert.Equal(t, int64(1), stats.DeployedMachines)
	assert.Equal(t, int64(2), stats.VisibleMachines)
	assert.Equal(t, int64(2), stats.TotalLocations)
	assert.Equal(t, int64(1), stats.ActiveLocations)
	assert.True(t, stats.MonthRevenue.Equal(dec("75.50")))
	assert.Equal(t, int64(1), stats.MonthMachines)
	assert.Len(t, stats.RecentMachines, 3)
	require.Len(t, stats.TopMachines, 1)
	assert.Equal(t, "Alpha", stats.TopMachines[0].Name)

	empty, err := s.Dashboard(ctx, date(2030, 1, 1))
	require.NoError(t, err)
	assert.True(t, empty.MonthRevenue.IsZero())
}

func TestGormStore_Users(t *testing.T) {
	s, _ := newSQLiteStore(t)
	ctx := context.Background()

	active := &model.AdminUser{Username: "alice", Email: "alice@example.com", PasswordHash: "x", Active: true}
	inactive := &model.AdminUser{Username: "bob", Email: "bob@example.com", PasswordHash: "x", Active: false}
	require.NoError(t, s.CreateAdminUser(ctx, active))
	require.NoError(t, s.CreateAdminUser(ctx, inactive))
	assert.Equal(t, model.RoleAdmin, active.Role)

	u, err := s.FindActiveUserByIdentifier(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, active.ID, u.ID)

	_, err = s.FindActiveUserByIdentifier(ctx, "bob")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	_, err = s.FindActiveUserByID(ctx, inactive.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	at := time.Date(2024, 7, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, s.TouchLastLogin(ctx, active.ID, at))
	u, err = s.FindActiveUserByID(ctx, active.ID)
	require.NoError(t, err)
	require.NotNil(t, u.LastLogin)
	assert.True(t, at.Equal(*u.LastLogin))
}

func TestGormStore_ListMachines(t *testing.T) {
	s, _ := newSQLiteStore(t)
	ctx := context.Background()
	loc := mustLocation(t, s, "Bar", split("50"))

	first := mustMachine(t, s, "Zebra", &loc.ID)
	first.DisplayOrder = 1
	first.VisibleOnSite = true
	require.NoError(t, s.UpdateMachine(ctx, date(2024, 1, 1), first))
	second := mustMachine(t, s, "Apple", nil)
	second.DisplayOrder = 2
	second.VisibleOnSite = true
	require.NoError(t, s.UpdateMachine(ctx, date(2024, 1, 1), second))
	hidden := mustMachine(t, s, "Hidden", nil)
	hidden.VisibleOnSite = false
	require.NoError(t, s.UpdateMachine(ctx, date(2024, 1, 1), hidden))

	all, err := s.ListMachines(ctx, MachineFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Hidden", all[0].Name)
	assert.Equal(t, "Zebra", all[1].Name)
	assert.Equal(t, "Bar", all[1].LocationName)

	atBar, err := s.ListMachines(ctx, MachineFilter{LocationID: &loc.ID})
	require.NoError(t, err)
	require.Len(t, atBar, 1)

	visible, err := s.ListVisibleMachines(ctx)
	require.NoError(t, err)
	require.Len(t, visible, 2)
	assert.Equal(t, "Zebra", visible[0].Name)

	_, err = s.GetVisibleMachine(ctx, hidden.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	summaries, err := s.ListLocations(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, int64(1), summaries[0].MachineCount)
}

func ptr[T any](v T) *T { return &v }
