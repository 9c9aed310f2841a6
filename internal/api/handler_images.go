package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"arcade-inventory-backend/internal/blob"
	"arcade-inventory-backend/internal/model"
)

// multipart framing allowance on top of the file itself
const uploadOverhead = 64 << 10

type signUploadRequest struct {
	FileName    string `json:"fileName" binding:"required"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size" binding:"required"`
	Folder      string `json:"folder" binding:"required"`
	EntityID    uint   `json:"entityId" binding:"required"`
}

// SignUpload handles POST /admin/uploads/sign: a pre-signed direct upload
// for a machine or location image.
func (h *Handler) SignUpload(c *gin.Context) {
	var req signUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "fileName, size, folder and entityId are required")
		return
	}
	ct, err := blob.Validate(req.ContentType, req.FileName, req.Size, h.storage.MaxUploadBytes)
	if err != nil {
		h.uploadRejected(c, err)
		return
	}
	key, err := blob.ObjectKey(req.Folder, req.EntityID, ct, h.now())
	if err != nil {
		h.uploadRejected(c, err)
		return
	}

	signed, err := h.blobs.SignUpload(c.Request.Context(), key, ct)
	if err != nil {
		if errors.Is(err, blob.ErrSigningUnsupported) {
			c.AbortWithStatusJSON(http.StatusNotImplemented, gin.H{"error": "Direct uploads are not available with this storage provider"})
			return
		}
		h.serverError(c, "Failed to sign upload", err)
		return
	}
	c.JSON(http.StatusOK, signed)
}

// UploadMachineImage handles POST /admin/machines/:id/image.
func (h *Handler) UploadMachineImage(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if _, err := h.store.GetMachine(ctx, id); err != nil {
		h.lookupFailed(c, "Machine", "Failed to load machine", err)
		return
	}

	url, ok := h.storeUpload(c, blob.FolderMachines, id)
	if !ok {
		return
	}

	previous, err := h.store.SetMachineImage(ctx, id, url)
	if err != nil {
		h.removeImage(ctx, url)
		h.lookupFailed(c, "Machine", "Failed to save machine image", err)
		return
	}
	h.machinesChanged()
	h.removeImage(ctx, previous)
	c.JSON(http.StatusOK, gin.H{"imageUrl": url})
}

// DeleteMachineImage handles DELETE /admin/machines/:id/image.
func (h *Handler) DeleteMachineImage(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	previous, err := h.store.SetMachineImage(ctx, id, "")
	if err != nil {
		h.lookupFailed(c, "Machine", "Failed to remove machine image", err)
		return
	}
	h.machinesChanged()
	h.removeImage(ctx, previous)
	c.JSON(http.StatusOK, gin.H{"message": "Image removed"})
}

// AddLocationImage handles POST /admin/locations/:id/images.
func (h *Handler) AddLocationImage(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if _, err := h.store.GetLocation(ctx, id); err != nil {
		h.lookupFailed(c, "Location", "Failed to load location", err)
		return
	}

	url, ok := h.storeUpload(c, blob.FolderLocations, id)
	if !ok {
		return
	}

	img := &model.LocationImage{
		LocationID: id,
		ImageURL:   url,
		ImageName:  c.PostForm("image_name"),
	}
	if order := c.PostForm("display_order"); order != "" {
		n, err := strconv.Atoi(order)
		if err != nil {
			h.removeImage(ctx, url)
			badRequest(c, "display order must be a whole number")
			return
		}
		img.DisplayOrder = n
	}
	if img.ImageName == "" {
		if fh, err := c.FormFile("file"); err == nil {
			img.ImageName = fh.Filename
		}
	}

	if err := h.store.AddLocationImage(ctx, img); err != nil {
		h.removeImage(ctx, url)
		h.lookupFailed(c, "Location", "Failed to save location image", err)
		return
	}
	c.JSON(http.StatusCreated, img)
}

// DeleteLocationImage handles DELETE /admin/locations/:id/images/:imageId.
func (h *Handler) DeleteLocationImage(c *gin.Context) {
	locationID, ok := idParam(c, "id")
	if !ok {
		return
	}
	imageID, ok := idParam(c, "imageId")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	img, err := h.store.DeleteLocationImage(ctx, locationID, imageID)
	if err != nil {
		h.lookupFailed(c, "Image", "Failed to delete image", err)
		return
	}
	h.removeImage(ctx, img.ImageURL)
	c.JSON(http.StatusOK, gin.H{"message": "Image removed"})
}

// storeUpload validates the multipart "file", shrinks it if needed and
// writes it under folder/id. It answers the request itself on failure.
func (h *Handler) storeUpload(c *gin.Context, folder string, id uint) (string, bool) {
	maxBytes := h.storage.MaxUploadBytes
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes+uploadOverhead)

	fh, err := c.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			h.uploadRejected(c, blob.ErrTooLarge)
			return "", false
		}
		badRequest(c, "An image file is required")
		return "", false
	}
	if fh.Size > maxBytes {
		h.uploadRejected(c, blob.ErrTooLarge)
		return "", false
	}

	f, err := fh.Open()
	if err != nil {
		h.serverError(c, "Failed to read upload", err)
		return "", false
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		h.serverError(c, "Failed to read upload", err)
		return "", false
	}

	// The declared type is not trusted; sniff the bytes.
	ct, err := blob.Validate(http.DetectContentType(data), fh.Filename, int64(len(data)), maxBytes)
	if err != nil {
		h.uploadRejected(c, err)
		return "", false
	}
	data, err = blob.Downscale(data, ct, h.storage.MaxImageWidth)
	if err != nil {
		h.uploadRejected(c, err)
		return "", false
	}

	key, err := blob.ObjectKey(folder, id, ct, h.now())
	if err != nil {
		h.uploadRejected(c, err)
		return "", false
	}
	url, err := h.blobs.Put(c.Request.Context(), key, ct, data)
	if err != nil {
		h.serverError(c, "Failed to store image", err)
		return "", false
	}
	h.log.Info("image stored", zap.String("key", key), zap.Int("bytes", len(data)))
	return url, true
}

func (h *Handler) uploadRejected(c *gin.Context, err error) {
	switch {
	case errors.Is(err, blob.ErrUnsupportedType):
		badRequest(c, "Only JPEG, PNG and WebP images are allowed")
	case errors.Is(err, blob.ErrTooLarge):
		badRequest(c, fmt.Sprintf("Image must be %dMB or smaller", h.storage.MaxUploadBytes>>20))
	case errors.Is(err, blob.ErrUnknownFolder):
		badRequest(c, "folder must be machines or locations")
	case errors.Is(err, gorm.ErrRecordNotFound):
		notFound(c, "Record")
	default:
		h.serverError(c, "Failed to process upload", err)
	}
}
