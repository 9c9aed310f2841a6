package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"arcade-inventory-backend/internal/model"
	"arcade-inventory-backend/internal/store"
)

// ListMachines handles GET /admin/machines?status=&location_id=.
func (h *Handler) ListMachines(c *gin.Context) {
	f := store.MachineFilter{Status: c.Query("status")}
	if raw := c.Query("location_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			badRequest(c, "Invalid location id")
			return
		}
		locID := uint(id)
		f.LocationID = &locID
	}

	machines, err := h.store.ListMachines(c.Request.Context(), f)
	if err != nil {
		h.serverError(c, "Failed to load machines", err)
		return
	}
	c.JSON(http.StatusOK, machines)
}

// GetMachine handles GET /admin/machines/:id.
func (h *Handler) GetMachine(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	m, err := h.store.GetMachine(c.Request.Context(), id)
	if err != nil {
		h.lookupFailed(c, "Machine", "Failed to load machine", err)
		return
	}
	c.JSON(http.StatusOK, m)
}

// CreateMachine handles POST /admin/machines.
func (h *Handler) CreateMachine(c *gin.Context) {
	m, ok := h.bindMachine(c)
	if !ok {
		return
	}
	if err := h.store.CreateMachine(c.Request.Context(), h.now(), m); err != nil {
		h.serverError(c, "Failed to create machine", err)
		return
	}
	h.machinesChanged()
	c.JSON(http.StatusCreated, gin.H{"message": "Machine created successfully", "machine": m})
}

// UpdateMachine handles PUT /admin/machines/:id. Every field except the image
// is replaced.
func (h *Handler) UpdateMachine(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	m, ok := h.bindMachine(c)
	if !ok {
		return
	}
	m.ID = id

	if err := h.store.UpdateMachine(c.Request.Context(), h.now(), m); err != nil {
		h.lookupFailed(c, "Machine", "Failed to update machine", err)
		return
	}
	h.machinesChanged()
	c.JSON(http.StatusOK, gin.H{"message": "Machine updated successfully", "machine": m})
}

// DeleteMachine handles DELETE /admin/machines/:id. Its revenue and expenses
// go with it; the image is removed best-effort.
func (h *Handler) DeleteMachine(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	m, err := h.store.DeleteMachine(ctx, id)
	if err != nil {
		h.lookupFailed(c, "Machine", "Failed to delete machine", err)
		return
	}
	h.machinesChanged()
	h.removeImage(ctx, m.ImageURL)
	c.JSON(http.StatusOK, gin.H{"message": "Machine deleted successfully"})
}

func (h *Handler) bindMachine(c *gin.Context) (*model.Machine, bool) {
	values, err := formValues(c.Request)
	if err != nil {
		badRequest(c, "Invalid request body")
		return nil, false
	}
	m, err := machineFromForm(values)
	if err != nil {
		msg, _ := asFormError(err)
		badRequest(c, msg)
		return nil, false
	}
	if m.CurrentLocationID != nil {
		if err := h.locationExists(c.Request.Context(), *m.CurrentLocationID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				badRequest(c, "Unknown location")
			} else {
				h.serverError(c, "Failed to load location", err)
			}
			return nil, false
		}
	}
	return m, true
}

func (h *Handler) locationExists(ctx context.Context, id uint) error {
	_, err := h.store.GetLocation(ctx, id)
	return err
}
