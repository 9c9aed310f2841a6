package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Expense is money spent on a machine. Write-only.
type Expense struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	MachineID   uint            `gorm:"index;not null" json:"machineId"`
	ExpenseDate time.Time       `gorm:"type:date;not null" json:"expenseDate"`
	ExpenseType string          `gorm:"size:64" json:"expenseType"`
	Amount      decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"amount"`
	Description string          `json:"description"`
	Vendor      string          `gorm:"size:255" json:"vendor"`
	ReceiptURL  string          `gorm:"size:1024" json:"receiptUrl"`
	CreatedAt   time.Time       `json:"createdAt"`
}

func (Expense) TableName() string { return "machine_expenses" }
