package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"arcade-inventory-backend/internal/model"
)

var (
	// ErrUnknownMachine is returned when a write references a machine id that does not exist.
	ErrUnknownMachine = errors.New("unknown machine")
	// ErrEmptyBatch is returned when a revenue batch has no positive entries.
	ErrEmptyBatch = errors.New("no revenue entries to save")
)

// Store defines the interface for all database operations.
type Store interface {
	DB() *gorm.DB
	Ping(ctx context.Context) error

	FindActiveUserByIdentifier(ctx context.Context, identifier string) (*model.AdminUser, error)
	FindActiveUserByID(ctx context.Context, id uint) (*model.AdminUser, error)
	TouchLastLogin(ctx context.Context, id uint, at time.Time) error
	CreateAdminUser(ctx context.Context, u *model.AdminUser) error

	ListLocations(ctx context.Context) ([]LocationSummary, error)
	ListActiveLocations(ctx context.Context) ([]model.Location, error)
	GetLocation(ctx context.Context, id uint) (*model.Location, error)
	CreateLocation(ctx context.Context, loc *model.Location) error
	UpdateLocation(ctx context.Context, loc *model.Location) error
	DeleteLocation(ctx context.Context, id uint) (*model.Location, error)
	AddLocationImage(ctx context.Context, img *model.LocationImage) error
	DeleteLocationImage(ctx context.Context, locationID, imageID uint) (*model.LocationImage, error)

	ListMachines(ctx context.Context, f MachineFilter) ([]MachineListItem, error)
	ListVisibleMachines(ctx context.Context) ([]model.Machine, error)
	GetMachine(ctx context.Context, id uint) (*model.Machine, error)
	GetVisibleMachine(ctx context.Context, id uint) (*model.Machine, error)
	CreateMachine(ctx context.Context, now time.Time, m *model.Machine) error
	UpdateMachine(ctx context.Context, now time.Time, m *model.Machine) error
	DeleteMachine(ctx context.Context, id uint) (*model.Machine, error)
	SetMachineImage(ctx context.Context, id uint, imageURL string) (string, error)

	LocationRevenue(ctx context.Context, locationID uint, month time.Time) ([]MachineRevenue, error)
	SaveRevenue(ctx context.Context, batch RevenueBatch) (int, error)
	MonthEntries(ctx context.Context, month time.Time) ([]RevenueRow, error)
	MonthlySeries(ctx context.Context, year int) ([]MonthTotal, error)
	TopMachines(ctx context.Context, from, to time.Time, limit int) ([]MachineTotal, error)
	LocationTotals(ctx context.Context, from, to time.Time) ([]LocationTotal, error)
	RevenueOverview(ctx context.Context, year int, month time.Month) (*RevenueOverview, error)
	Dashboard(ctx context.Context, now time.Time) (*DashboardStats, error)

	CreateExpense(ctx context.Context, e *model.Expense) error
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) DB() *gorm.DB { return s.db }

// Ping checks that the database answers.
func (s *gormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
