package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"

	"arcade-inventory-backend/internal/model"
)

// PublicMachine is what the public site may see of a machine.
type PublicMachine struct {
	ID               uint                        `json:"id"`
	Name             string                      `json:"name"`
	Manufacturer     string                      `json:"manufacturer"`
	YearManufactured *int                        `json:"yearManufactured"`
	MachineType      string                      `json:"machineType"`
	Status           string                      `json:"status"`
	Tags             datatypes.JSONSlice[string] `json:"tags"`
	ImageURL         string                      `json:"imageUrl"`
	Description      string                      `json:"description"`
	Featured         bool                        `json:"featured"`
}

func toPublic(m model.Machine) PublicMachine {
	return PublicMachine{
		ID:               m.ID,
		Name:             m.Name,
		Manufacturer:     m.Manufacturer,
		YearManufactured: m.YearManufactured,
		MachineType:      m.MachineType,
		Status:           m.Status,
		Tags:             m.Tags,
		ImageURL:         m.ImageURL,
		Description:      m.Description,
		Featured:         m.Featured,
	}
}

// ListPublicMachines handles GET /api/machines.
func (h *Handler) ListPublicMachines(c *gin.Context) {
	machines, err := h.store.ListVisibleMachines(c.Request.Context())
	if err != nil {
		h.serverError(c, "Failed to retrieve machines", err)
		return
	}
	out := make([]PublicMachine, 0, len(machines))
	for _, m := range machines {
		out = append(out, toPublic(m))
	}
	c.JSON(http.StatusOK, out)
}

// GetPublicMachine handles GET /api/machines/:id.
func (h *Handler) GetPublicMachine(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	m, err := h.store.GetVisibleMachine(c.Request.Context(), id)
	if err != nil {
		h.lookupFailed(c, "Machine", "Failed to retrieve machine", err)
		return
	}
	c.JSON(http.StatusOK, toPublic(*m))
}

// Healthz handles GET /healthz.
func (h *Handler) Healthz(c *gin.Context) {
	if err := h.store.Ping(c.Request.Context()); err != nil {
		h.serverError(c, "database unavailable", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
