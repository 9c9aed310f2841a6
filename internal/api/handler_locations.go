package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ListLocations handles GET /admin/locations.
func (h *Handler) ListLocations(c *gin.Context) {
	locations, err := h.store.ListLocations(c.Request.Context())
	if err != nil {
		h.serverError(c, "Failed to load locations", err)
		return
	}
	c.JSON(http.StatusOK, locations)
}

// GetLocation handles GET /admin/locations/:id.
func (h *Handler) GetLocation(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	loc, err := h.store.GetLocation(c.Request.Context(), id)
	if err != nil {
		h.lookupFailed(c, "Location", "Failed to load location", err)
		return
	}
	c.JSON(http.StatusOK, loc)
}

// CreateLocation handles POST /admin/locations.
func (h *Handler) CreateLocation(c *gin.Context) {
	values, err := formValues(c.Request)
	if err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	loc, err := locationFromForm(values)
	if err != nil {
		msg, _ := asFormError(err)
		badRequest(c, msg)
		return
	}

	if err := h.store.CreateLocation(c.Request.Context(), loc); err != nil {
		h.serverError(c, "Failed to create location", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Location created successfully", "location": loc})
}

// UpdateLocation handles PUT /admin/locations/:id. Every field is replaced.
func (h *Handler) UpdateLocation(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	values, err := formValues(c.Request)
	if err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	loc, err := locationFromForm(values)
	if err != nil {
		msg, _ := asFormError(err)
		badRequest(c, msg)
		return
	}
	loc.ID = id

	if err := h.store.UpdateLocation(c.Request.Context(), loc); err != nil {
		h.lookupFailed(c, "Location", "Failed to update location", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Location updated successfully", "location": loc})
}

// DeleteLocation handles DELETE /admin/locations/:id. Machines there are kept
// and unassigned.
func (h *Handler) DeleteLocation(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	loc, err := h.store.DeleteLocation(ctx, id)
	if err != nil {
		h.lookupFailed(c, "Location", "Failed to delete location", err)
		return
	}
	h.machinesChanged()

	for _, img := range loc.Images {
		h.removeImage(ctx, img.ImageURL)
	}
	c.JSON(http.StatusOK, gin.H{"message": "Location deleted successfully"})
}
