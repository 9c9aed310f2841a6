package api

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"arcade-inventory-backend/config"
	"arcade-inventory-backend/internal/auth"
	"arcade-inventory-backend/internal/blob"
	"arcade-inventory-backend/internal/cleanup"
	"arcade-inventory-backend/internal/mw"
	"arcade-inventory-backend/internal/store"
)

// NewRouter creates and configures a new Gin router. A nil cleaner deletes
// images inline.
func NewRouter(cfg *config.Config, s store.Store, authSvc *auth.Service, blobs blob.Store, cleaner *cleanup.WorkerPool, log *zap.Logger) *gin.Engine {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())

	metrics := mw.NewMetrics("arcade")
	r.Use(mw.RequestID(), mw.RequestLogger(log), metrics.Middleware())

	if len(cfg.Server.CORSAllowedOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.Server.CORSAllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", mw.RequestIDHeader},
			ExposeHeaders:    []string{mw.RequestIDHeader, "Content-Disposition"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Cache: the public listing, flushed whenever a machine is written
	ttl := time.Duration(cfg.Server.CacheTTLSeconds) * time.Second
	publicCache := mw.NewResponseCache(ttl)
	caching := mw.Cache(publicCache)

	handler := NewHandler(s, authSvc, blobs, cfg.Storage, cleaner, publicCache, log)

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.Server.RateLimitPerSec), cfg.Server.RateLimitBurst)
	loginLimiter := mw.RateLimiter(rate.Every(time.Minute/time.Duration(cfg.Server.LoginRatePerMinute)), cfg.Server.LoginRatePerMinute)

	r.GET("/healthz", handler.Healthz)
	r.GET("/metrics", metrics.Handler())
	if local, ok := blobs.(*blob.LocalStore); ok {
		r.Static(blob.LocalURLPrefix, local.Dir())
	}

	// Public API group
	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		api.GET("/machines", caching, handler.ListPublicMachines)
		api.GET("/machines/:id", caching, handler.GetPublicMachine)
	}

	admin := r.Group("/admin")
	admin.POST("/login", loginLimiter, handler.Login)
	admin.POST("/logout", handler.Logout)

	guarded := admin.Group("")
	guarded.Use(authSvc.RequireAdmin())
	{
		guarded.GET("/me", handler.Me)
		guarded.GET("/dashboard", handler.Dashboard)

		guarded.GET("/locations", handler.ListLocations)
		guarded.POST("/locations", handler.CreateLocation)
		guarded.GET("/locations/:id", handler.GetLocation)
		guarded.PUT("/locations/:id", handler.UpdateLocation)
		guarded.DELETE("/locations/:id", handler.DeleteLocation)
		guarded.POST("/locations/:id/images", handler.AddLocationImage)
		guarded.DELETE("/locations/:id/images/:imageId", handler.DeleteLocationImage)

		guarded.GET("/machines", handler.ListMachines)
		guarded.POST("/machines", handler.CreateMachine)
		guarded.GET("/machines/:id", handler.GetMachine)
		guarded.PUT("/machines/:id", handler.UpdateMachine)
		guarded.DELETE("/machines/:id", handler.DeleteMachine)
		guarded.POST("/machines/:id/image", handler.UploadMachineImage)
		guarded.DELETE("/machines/:id/image", handler.DeleteMachineImage)

		guarded.GET("/revenue", handler.RevenueOverview)
		guarded.POST("/revenue", handler.SaveRevenue)
		guarded.POST("/revenue/machines", handler.LocationRevenue)
		guarded.GET("/revenue/export", handler.ExportRevenue)

		guarded.POST("/expenses", handler.CreateExpense)
		guarded.POST("/uploads/sign", handler.SignUpload)
	}

	return r
}
