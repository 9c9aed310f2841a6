package db

import (
	"fmt"
	"time"

	"github.com/go-gormigrate/gormigrate/v2"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// MigrationTable records which migrations have been applied.
const MigrationTable = "schema_migrations"

// Migration IDs in application order.
const (
	MigrationCreateLocations     = "0001_create_locations"
	MigrationCreateAdminUsers    = "0002_create_admin_users"
	MigrationCreateMachines      = "0003_create_machines"
	MigrationRenameMachineImage  = "0004_rename_machines_image_to_image_url"
	MigrationMachineDetails      = "0005_add_machine_details"
	MigrationMachineSale         = "0006_add_machine_sale"
	MigrationCreateRevenue       = "0007_create_machine_revenue"
	MigrationRevenueByDate       = "0008_revenue_by_date_with_split"
	MigrationCreateExpenses      = "0009_create_machine_expenses"
	MigrationCreateLocationImage = "0010_create_location_images"
	MigrationSupportingIndexes   = "0011_supporting_indexes"
)

const (
	revenueMonthIndex = "machine_revenue_machine_location_month"
	revenueEntryIndex = "machine_revenue_unique_entry"
)

// The structs below are schema snapshots. They describe a table as it looked
// when its migration was written and must not follow later model changes.

type locationV1 struct {
	ID           uint   `gorm:"primaryKey"`
	Name         string `gorm:"size:255;not null"`
	Type         string `gorm:"size:64"`
	Address      string
	City         string `gorm:"size:128"`
	State        string `gorm:"size:64"`
	ZipCode      string `gorm:"size:16"`
	ContactName  string `gorm:"size:255"`
	ContactPhone string `gorm:"size:64"`
	ContactEmail string `gorm:"size:255"`
	RevenueSplit decimal.NullDecimal `gorm:"type:decimal(5,2)"`
	Notes        string
	Active       bool `gorm:"not null;default:true"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (locationV1) TableName() string { return "locations" }

type adminUserV1 struct {
	ID           uint   `gorm:"primaryKey"`
	Username     string `gorm:"size:64;uniqueIndex;not null"`
	Email        string `gorm:"size:255;uniqueIndex;not null"`
	PasswordHash string `gorm:"size:255;not null"`
	Role         string `gorm:"size:32;not null;default:'admin'"`
	Active       bool   `gorm:"not null;default:true"`
	LastLogin    *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (adminUserV1) TableName() string { return "admin_users" }

type machineV1 struct {
	ID                  uint   `gorm:"primaryKey"`
	Name                string `gorm:"size:255;not null"`
	Manufacturer        string `gorm:"size:255"`
	YearManufactured    *int
	MachineType         string `gorm:"size:64;not null;default:'pinball'"`
	Status              string `gorm:"size:32;not null;default:'available'"`
	Tags                datatypes.JSONSlice[string]
	Image               string              `gorm:"size:1024"`
	InitialCost         decimal.NullDecimal `gorm:"type:decimal(10,2)"`
	PurchaseDate        *time.Time          `gorm:"type:date"`
	CurrentLocationID   *uint               `gorm:"index"`
	LocationStartDate   *time.Time          `gorm:"type:date"`
	TotalPlays          int                 `gorm:"not null;default:0"`
	LastMaintenanceDate *time.Time          `gorm:"type:date"`
	NextMaintenanceDue  *time.Time          `gorm:"type:date"`
	Featured            bool                `gorm:"not null;default:false"`
	VisibleOnSite       bool                `gorm:"not null;default:true"`
	CreatedAt           time.Time
	UpdatedAt           time.Time

	CurrentLocation *locationV1 `gorm:"foreignKey:CurrentLocationID;constraint:OnDelete:SET NULL"`
}

func (machineV1) TableName() string { return "machines" }

type machineDetailsV5 struct {
	ID           uint `gorm:"primaryKey"`
	Description  string
	Notes        string
	DisplayOrder int `gorm:"not null;default:0"`
}

func (machineDetailsV5) TableName() string { return "machines" }

type machineSaleV6 struct {
	ID         uint                `gorm:"primaryKey"`
	SaleDate   *time.Time          `gorm:"type:date"`
	SaleAmount decimal.NullDecimal `gorm:"type:decimal(10,2)"`
}

func (machineSaleV6) TableName() string { return "machines" }

type revenueV1 struct {
	ID            uint            `gorm:"primaryKey"`
	MachineID     uint            `gorm:"not null;uniqueIndex:machine_revenue_machine_location_month,priority:1"`
	LocationID    uint            `gorm:"not null;index;uniqueIndex:machine_revenue_machine_location_month,priority:2"`
	RevenueMonth  time.Time       `gorm:"type:date;not null;uniqueIndex:machine_revenue_machine_location_month,priority:3"`
	RevenueAmount decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`
	PlaysCount    int             `gorm:"not null;default:0"`
	Notes         string
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Machine  *machineV1  `gorm:"constraint:OnDelete:CASCADE"`
	Location *locationV1 `gorm:"constraint:OnDelete:CASCADE"`
}

func (revenueV1) TableName() string { return "machine_revenue" }

// revenueLegacyColsV8 is used to restore the month-keyed columns on rollback.
// RevenueMonth comes back nullable because existing rows need a value first.
type revenueLegacyColsV8 struct {
	ID           uint       `gorm:"primaryKey"`
	RevenueMonth *time.Time `gorm:"type:date"`
	PlaysCount   int        `gorm:"not null;default:0"`
}

func (revenueLegacyColsV8) TableName() string { return "machine_revenue" }

type revenueV8 struct {
	ID             uint            `gorm:"primaryKey"`
	MachineID      uint            `gorm:"uniqueIndex:machine_revenue_unique_entry,priority:1"`
	LocationID     uint            `gorm:"uniqueIndex:machine_revenue_unique_entry,priority:2"`
	RevenueDate    *time.Time      `gorm:"type:date;uniqueIndex:machine_revenue_unique_entry,priority:3"`
	FCAAmount      decimal.Decimal `gorm:"column:fca_amount;type:decimal(10,2);not null;default:0"`
	LocationAmount decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`
}

func (revenueV8) TableName() string { return "machine_revenue" }

type expenseV1 struct {
	ID          uint            `gorm:"primaryKey"`
	MachineID   uint            `gorm:"index;not null"`
	ExpenseDate time.Time       `gorm:"type:date;not null"`
	ExpenseType string          `gorm:"size:64"`
	Amount      decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Description string
	Vendor      string `gorm:"size:255"`
	ReceiptURL  string `gorm:"size:1024"`
	CreatedAt   time.Time

	Machine *machineV1 `gorm:"constraint:OnDelete:CASCADE"`
}

func (expenseV1) TableName() string { return "machine_expenses" }

type locationImageV1 struct {
	ID           uint   `gorm:"primaryKey"`
	LocationID   uint   `gorm:"index;not null"`
	ImageURL     string `gorm:"size:1024;not null"`
	ImageName    string `gorm:"size:255"`
	DisplayOrder int    `gorm:"not null;default:0"`
	CreatedAt    time.Time

	Location *locationV1 `gorm:"constraint:OnDelete:CASCADE"`
}

func (locationImageV1) TableName() string { return "location_images" }

type machineIndexesV11 struct {
	ID            uint   `gorm:"primaryKey"`
	Status        string `gorm:"index:idx_machines_status"`
	VisibleOnSite bool   `gorm:"index:idx_machines_visible_on_site"`
}

func (machineIndexesV11) TableName() string { return "machines" }

type revenueIndexesV11 struct {
	ID          uint       `gorm:"primaryKey"`
	RevenueDate *time.Time `gorm:"index:idx_machine_revenue_revenue_date"`
}

func (revenueIndexesV11) TableName() string { return "machine_revenue" }

// Migrations returns the ordered migration log. Every step checks the current
// schema before changing it, so databases created by earlier tooling can adopt
// the log part way through.
func Migrations() []*gormigrate.Migration {
	return []*gormigrate.Migration{
		createTable(MigrationCreateLocations, &locationV1{}),
		createTable(MigrationCreateAdminUsers, &adminUserV1{}),
		createTable(MigrationCreateMachines, &machineV1{}),
		{
			ID: MigrationRenameMachineImage,
			Migrate: func(tx *gorm.DB) error {
				return renameColumn(tx, &machineV1{}, "machines", "image", "image_url")
			},
			Rollback: func(tx *gorm.DB) error {
				return renameColumn(tx, &machineV1{}, "machines", "image_url", "image")
			},
		},
		addColumns(MigrationMachineDetails, &machineDetailsV5{}, "machines",
			map[string]string{"Description": "description", "Notes": "notes", "DisplayOrder": "display_order"}),
		addColumns(MigrationMachineSale, &machineSaleV6{}, "machines",
			map[string]string{"SaleDate": "sale_date", "SaleAmount": "sale_amount"}),
		createTable(MigrationCreateRevenue, &revenueV1{}),
		{
			ID:       MigrationRevenueByDate,
			Migrate:  revenueByDate,
			Rollback: revenueByMonth,
		},
		createTable(MigrationCreateExpenses, &expenseV1{}),
		createTable(MigrationCreateLocationImage, &locationImageV1{}),
		{
			ID: MigrationSupportingIndexes,
			Migrate: func(tx *gorm.DB) error {
				if err := createIndex(tx, &machineIndexesV11{}, "idx_machines_status"); err != nil {
					return err
				}
				if err := createIndex(tx, &machineIndexesV11{}, "idx_machines_visible_on_site"); err != nil {
					return err
				}
				return createIndex(tx, &revenueIndexesV11{}, "idx_machine_revenue_revenue_date")
			},
			Rollback: func(tx *gorm.DB) error {
				if err := dropIndex(tx, &machineIndexesV11{}, "idx_machines_status"); err != nil {
					return err
				}
				if err := dropIndex(tx, &machineIndexesV11{}, "idx_machines_visible_on_site"); err != nil {
					return err
				}
				return dropIndex(tx, &revenueIndexesV11{}, "idx_machine_revenue_revenue_date")
			},
		},
	}
}

func newMigrator(db *gorm.DB) *gormigrate.Gormigrate {
	opts := *gormigrate.DefaultOptions
	opts.TableName = MigrationTable
	return gormigrate.New(db, &opts, Migrations())
}

// Migrate applies every pending migration.
func Migrate(db *gorm.DB) error {
	if err := newMigrator(db).Migrate(); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// MigrateTo applies pending migrations up to and including id.
func MigrateTo(db *gorm.DB, id string) error {
	if err := newMigrator(db).MigrateTo(id); err != nil {
		return fmt.Errorf("migrate to %s: %w", id, err)
	}
	return nil
}

// RollbackLast undoes the most recently applied migration.
func RollbackLast(db *gorm.DB) error {
	if err := newMigrator(db).RollbackLast(); err != nil {
		return fmt.Errorf("rollback: %w", err)
	}
	return nil
}

// RollbackTo undoes migrations applied after id. The migration id itself stays applied.
func RollbackTo(db *gorm.DB, id string) error {
	if err := newMigrator(db).RollbackTo(id); err != nil {
		return fmt.Errorf("rollback to %s: %w", id, err)
	}
	return nil
}

// AppliedMigrations lists the ids recorded in the migration table, in order.
func AppliedMigrations(db *gorm.DB) ([]string, error) {
	if !db.Migrator().HasTable(MigrationTable) {
		return nil, nil
	}
	var ids []string
	if err := db.Table(MigrationTable).Order("id").Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("list applied migrations: %w", err)
	}
	return ids, nil
}

func createTable(id string, snapshot any) *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: id,
		Migrate: func(tx *gorm.DB) error {
			if tx.Migrator().HasTable(snapshot) {
				return nil
			}
			return tx.Migrator().CreateTable(snapshot)
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(snapshot)
		},
	}
}

// addColumns adds the named snapshot fields (field name -> column name).
func addColumns(id string, snapshot any, table string, fields map[string]string) *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: id,
		Migrate: func(tx *gorm.DB) error {
			for field, column := range fields {
				if tx.Migrator().HasColumn(snapshot, column) {
					continue
				}
				if err := tx.Migrator().AddColumn(snapshot, field); err != nil {
					return fmt.Errorf("add %s.%s: %w", table, column, err)
				}
			}
			return nil
		},
		Rollback: func(tx *gorm.DB) error {
			for _, column := range fields {
				if err := dropColumn(tx, snapshot, table, column); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

// revenueByDate moves machine_revenue from a month key to a day key and adds
// the stored split columns, backfilled from each location's current split.
func revenueByDate(tx *gorm.DB) error {
	m := tx.Migrator()

	if !m.HasColumn(&revenueV8{}, "revenue_date") {
		if err := m.AddColumn(&revenueV8{}, "RevenueDate"); err != nil {
			return fmt.Errorf("add machine_revenue.revenue_date: %w", err)
		}
		if m.HasColumn(&revenueV1{}, "revenue_month") {
			if err := tx.Exec("UPDATE machine_revenue SET revenue_date = revenue_month").Error; err != nil {
				return fmt.Errorf("backfill revenue_date: %w", err)
			}
		}
	}

	addedSplit := false
	for field, column := range map[string]string{"FCAAmount": "fca_amount", "LocationAmount": "location_amount"} {
		if m.HasColumn(&revenueV8{}, column) {
			continue
		}
		if err := m.AddColumn(&revenueV8{}, field); err != nil {
			return fmt.Errorf("add machine_revenue.%s: %w", column, err)
		}
		addedSplit = true
	}
	if addedSplit {
		if err := tx.Exec(`UPDATE machine_revenue SET location_amount = ROUND(revenue_amount *
			COALESCE((SELECT revenue_split FROM locations WHERE locations.id = machine_revenue.location_id), 0) / 100.0, 2)`).Error; err != nil {
			return fmt.Errorf("backfill location_amount: %w", err)
		}
		if err := tx.Exec("UPDATE machine_revenue SET fca_amount = ROUND(revenue_amount - location_amount, 2)").Error; err != nil {
			return fmt.Errorf("backfill fca_amount: %w", err)
		}
	}

	if err := dropIndex(tx, &revenueV1{}, revenueMonthIndex); err != nil {
		return err
	}
	if err := dropColumn(tx, &revenueV1{}, "machine_revenue", "revenue_month"); err != nil {
		return err
	}
	if err := dropColumn(tx, &revenueV1{}, "machine_revenue", "plays_count"); err != nil {
		return err
	}
	return createIndex(tx, &revenueV8{}, revenueEntryIndex)
}

// revenueByMonth reverses revenueByDate. It fails if two entries of the same
// machine and location fall in one month.
func revenueByMonth(tx *gorm.DB) error {
	m := tx.Migrator()

	if !m.HasColumn(&revenueLegacyColsV8{}, "revenue_month") {
		if err := m.AddColumn(&revenueLegacyColsV8{}, "RevenueMonth"); err != nil {
			return fmt.Errorf("add machine_revenue.revenue_month: %w", err)
		}
		if err := tx.Exec("UPDATE machine_revenue SET revenue_month = revenue_date").Error; err != nil {
			return fmt.Errorf("backfill revenue_month: %w", err)
		}
	}
	if !m.HasColumn(&revenueLegacyColsV8{}, "plays_count") {
		if err := m.AddColumn(&revenueLegacyColsV8{}, "PlaysCount"); err != nil {
			return fmt.Errorf("add machine_revenue.plays_count: %w", err)
		}
	}

	if err := dropIndex(tx, &revenueV8{}, revenueEntryIndex); err != nil {
		return err
	}
	for _, column := range []string{"fca_amount", "location_amount", "revenue_date"} {
		if err := dropColumn(tx, &revenueV8{}, "machine_revenue", column); err != nil {
			return err
		}
	}
	return createIndex(tx, &revenueV1{}, revenueMonthIndex)
}

// Column DDL is issued directly: both PostgreSQL and SQLite (3.35+) accept
// these statements, while the SQLite migrator would rebuild the whole table.

func renameColumn(tx *gorm.DB, snapshot any, table, from, to string) error {
	m := tx.Migrator()
	if !m.HasColumn(snapshot, from) || m.HasColumn(snapshot, to) {
		return nil
	}
	if err := tx.Exec(fmt.Sprintf("ALTER TABLE %s RENAME COLUMN %s TO %s", table, from, to)).Error; err != nil {
		return fmt.Errorf("rename %s.%s to %s: %w", table, from, to, err)
	}
	return nil
}

func dropColumn(tx *gorm.DB, snapshot any, table, column string) error {
	if !tx.Migrator().HasColumn(snapshot, column) {
		return nil
	}
	if err := tx.Exec(fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s", table, column)).Error; err != nil {
		return fmt.Errorf("drop %s.%s: %w", table, column, err)
	}
	return nil
}

func createIndex(tx *gorm.DB, snapshot any, name string) error {
	if tx.Migrator().HasIndex(snapshot, name) {
		return nil
	}
	if err := tx.Migrator().CreateIndex(snapshot, name); err != nil {
		return fmt.Errorf("create index %s: %w", name, err)
	}
	return nil
}

func dropIndex(tx *gorm.DB, snapshot any, name string) error {
	if !tx.Migrator().HasIndex(snapshot, name) {
		return nil
	}
	if err := tx.Migrator().DropIndex(snapshot, name); err != nil {
		return fmt.Errorf("drop index %s: %w", name, err)
	}
	return nil
}
