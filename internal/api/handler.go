package api

import (
	"context"
	"time"

	"go.uber.org/zap"

	"arcade-inventory-backend/config"
	"arcade-inventory-backend/internal/auth"
	"arcade-inventory-backend/internal/blob"
	"arcade-inventory-backend/internal/cleanup"
	"arcade-inventory-backend/internal/mw"
	"arcade-inventory-backend/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store   store.Store
	auth    *auth.Service
	blobs   blob.Store
	storage config.StorageConfig
	cleanup *cleanup.WorkerPool
	log     *zap.Logger
	// public GET responses; flushed whenever a machine changes
	public *mw.ResponseCache
	now    func() time.Time
}

// NewHandler creates a new API handler.
func NewHandler(s store.Store, a *auth.Service, b blob.Store, storageCfg config.StorageConfig, cleaner *cleanup.WorkerPool, public *mw.ResponseCache, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		store:   s,
		auth:    a,
		blobs:   b,
		storage: storageCfg,
		cleanup: cleaner,
		log:     log,
		public:  public,
		now:     time.Now,
	}
}

func (h *Handler) machinesChanged() {
	if h.public != nil {
		h.public.Flush()
	}
}

// removeImage deletes a stored image, through the cleanup pool when one is
// running.
func (h *Handler) removeImage(ctx context.Context, url string) {
	if h.cleanup != nil {
		h.cleanup.Dispatch(url)
		return
	}
	blob.DeleteByURL(ctx, h.blobs, h.log, url)
}
