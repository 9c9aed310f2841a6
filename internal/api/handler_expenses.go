package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"arcade-inventory-backend/internal/ledger"
	"arcade-inventory-backend/internal/model"
	"arcade-inventory-backend/internal/store"
)

// CreateExpense handles POST /admin/expenses.
func (h *Handler) CreateExpense(c *gin.Context) {
	values, err := formValues(c.Request)
	if err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	machineID, err := optionalID(values, "machine_id")
	if err != nil || machineID == nil || formString(values, "expense_date") == "" || formString(values, "amount") == "" {
		badRequest(c, "Machine, date and amount are required")
		return
	}
	date, err := ledger.ParseDate(values.Get("expense_date"))
	if err != nil {
		badRequest(c, "Invalid expense date")
		return
	}
	amount, err := ledger.ParseAmount(values.Get("amount"))
	if err != nil {
		badRequest(c, "Amount must be a number")
		return
	}

	e := &model.Expense{
		MachineID:   *machineID,
		ExpenseDate: date,
		ExpenseType: formString(values, "expense_type"),
		Amount:      amount.Round(2),
		Description: formString(values, "description"),
		Vendor:      formString(values, "vendor"),
		ReceiptURL:  formString(values, "receipt_url"),
	}
	if err := h.store.CreateExpense(c.Request.Context(), e); err != nil {
		if errors.Is(err, store.ErrUnknownMachine) {
			badRequest(c, "Unknown machine")
			return
		}
		h.serverError(c, "Failed to record expense", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Expense recorded", "expense": e})
}
