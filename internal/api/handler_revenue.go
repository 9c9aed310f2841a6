package api

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"arcade-inventory-backend/internal/export"
	"arcade-inventory-backend/internal/ledger"
	"arcade-inventory-backend/internal/store"
)

const revenueRequiredMsg = "Location, month, and at least one machine revenue entry are required"

type locationRevenueRequest struct {
	LocationID   uint   `json:"locationId" binding:"required"`
	RevenueMonth string `json:"revenueMonth"`
}

// LocationRevenue handles POST /admin/revenue/machines: the machines at a
// location with what has been recorded for them in a month.
func (h *Handler) LocationRevenue(c *gin.Context) {
	var req locationRevenueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Location ID is required")
		return
	}
	month := h.now().UTC()
	if req.RevenueMonth != "" {
		var err error
		if month, err = ledger.ParseRevenueDate(req.RevenueMonth); err != nil {
			badRequest(c, "Invalid revenue month")
			return
		}
	}

	machines, err := h.store.LocationRevenue(c.Request.Context(), req.LocationID, month)
	if err != nil {
		h.serverError(c, "Failed to load machines for location", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"locationId":   req.LocationID,
		"month":        month.Format("2006-01"),
		"machineCount": len(machines),
		"machines":     machines,
	})
}

// SaveRevenue handles POST /admin/revenue. The form carries location_id,
// revenue_month (or revenue_date) and machine_{id}_revenue /
// machine_{id}_notes pairs.
func (h *Handler) SaveRevenue(c *gin.Context) {
	values, err := formValues(c.Request)
	if err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	batch := store.RevenueBatch{}
	if raw := formString(values, "location_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			badRequest(c, "Invalid location id")
			return
		}
		batch.LocationID = uint(id)
	}

	rawDate := formString(values, "revenue_date")
	if rawDate == "" {
		rawDate = formString(values, "revenue_month")
	}
	if rawDate != "" {
		if batch.Date, err = ledger.ParseRevenueDate(rawDate); err != nil {
			badRequest(c, "Invalid revenue month")
			return
		}
	}

	for key := range values {
		if !strings.HasPrefix(key, "machine_") || !strings.HasSuffix(key, "_revenue") {
			continue
		}
		rawID := strings.TrimSuffix(strings.TrimPrefix(key, "machine_"), "_revenue")
		machineID, err := strconv.ParseUint(rawID, 10, 64)
		if err != nil || machineID == 0 {
			badRequest(c, "Invalid machine id "+rawID)
			return
		}
		amount, err := ledger.ParseAmount(values.Get(key))
		if err != nil {
			badRequest(c, "Invalid revenue amount for machine "+rawID)
			return
		}
		amount = amount.Round(2)
		if !amount.IsPositive() {
			continue
		}
		batch.Entries = append(batch.Entries, store.RevenueInput{
			MachineID: uint(machineID),
			Amount:    amount,
			Notes:     formString(values, fmt.Sprintf("machine_%s_notes", rawID)),
		})
	}

	if batch.LocationID == 0 || batch.Date.IsZero() || len(batch.Entries) == 0 {
		badRequest(c, revenueRequiredMsg)
		return
	}

	saved, err := h.store.SaveRevenue(c.Request.Context(), batch)
	switch {
	case err == nil:
	case errors.Is(err, store.ErrEmptyBatch):
		badRequest(c, revenueRequiredMsg)
		return
	case errors.Is(err, store.ErrUnknownMachine):
		badRequest(c, "One or more machines do not exist")
		return
	case errors.Is(err, gorm.ErrRecordNotFound):
		notFound(c, "Location")
		return
	default:
		h.serverError(c, "Failed to save revenue data", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": fmt.Sprintf("Revenue data saved for %d machines", saved),
	})
}

// RevenueOverview handles GET /admin/revenue?year=&month=.
func (h *Handler) RevenueOverview(c *gin.Context) {
	year, month, ok := h.yearMonth(c)
	if !ok {
		return
	}
	ov, err := h.store.RevenueOverview(c.Request.Context(), year, month)
	if err != nil {
		h.serverError(c, "Failed to load revenue", err)
		return
	}
	c.JSON(http.StatusOK, ov)
}

// ExportRevenue handles GET /admin/revenue/export?year= as an xlsx download.
func (h *Handler) ExportRevenue(c *gin.Context) {
	year, _, ok := h.yearMonth(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	from, to := ledger.YearRange(year)

	report := export.Report{Year: year}
	var err error
	if report.Monthly, err = h.store.MonthlySeries(ctx, year); err != nil {
		h.serverError(c, "Failed to export revenue", err)
		return
	}
	if report.Machines, err = h.store.TopMachines(ctx, from, to, 0); err != nil {
		h.serverError(c, "Failed to export revenue", err)
		return
	}
	if report.Locations, err = h.store.LocationTotals(ctx, from, to); err != nil {
		h.serverError(c, "Failed to export revenue", err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, report); err != nil {
		h.serverError(c, "Failed to export revenue", err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", report.FileName()))
	c.Data(http.StatusOK, export.ContentType, buf.Bytes())
}

func (h *Handler) yearMonth(c *gin.Context) (int, time.Month, bool) {
	now := h.now().UTC()
	year, month := now.Year(), now.Month()
	if raw := c.Query("year"); raw != "" {
		y, err := strconv.Atoi(raw)
		if err != nil || y < 1970 || y > 9999 {
			badRequest(c, "Invalid year")
			return 0, 0, false
		}
		year = y
	}
	if raw := c.Query("month"); raw != "" {
		m, err := strconv.Atoi(raw)
		if err != nil || m < 1 || m > 12 {
			badRequest(c, "Invalid month")
			return 0, 0, false
		}
		month = time.Month(m)
	}
	return year, month, true
}
