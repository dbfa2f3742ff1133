package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/andresuchdata/tshirt-stock/internal/api/handlers"
	"github.com/andresuchdata/tshirt-stock/internal/api/middleware"
	"github.com/andresuchdata/tshirt-stock/internal/service"
)

type Services struct {
	Inventory *service.InventoryService
	// Drive is nil unless a Drive folder is configured.
	Drive service.UploadSource
}

type Options struct {
	AllowedOrigins []string
	MaxUploadBytes int64
}

func NewRouter(services *Services, opts Options) *gin.Engine {
	router := gin.New()

	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())
	router.Use(cors.New(corsConfig(opts.AllowedOrigins)))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	apiGroup := router.Group("/api/v1")

	if services != nil && services.Inventory != nil {
		h := handlers.NewInventoryHandler(services.Inventory, services.Drive, opts.MaxUploadBytes)
		inventoryGroup := apiGroup.Group("/inventory")
		{
			inventoryGroup.GET("/catalog", h.GetCatalog)
			inventoryGroup.POST("/import", h.Import)
			inventoryGroup.GET("/snapshots", h.GetSnapshots)
			inventoryGroup.GET("/snapshots/:date", h.GetDraft)
			inventoryGroup.PUT("/snapshots/:date", h.SaveSnapshot)
			inventoryGroup.GET("/history", h.GetHistory)
			inventoryGroup.GET("/series", h.GetSeries)
			if services.Drive != nil {
				inventoryGroup.POST("/import/drive", h.ImportDrive)
			}
		}
	}

	return router
}

func corsConfig(allowedOrigins []string) cors.Config {
	cfg := cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "http://127.0.0.1:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(allowedOrigins) > 0 {
		normalized, allowAll := normalizeAllowedOrigins(allowedOrigins)
		if allowAll {
			cfg.AllowOrigins = nil
			cfg.AllowOriginFunc = func(origin string) bool { return true }
		} else if len(normalized) > 0 {
			cfg.AllowOrigins = normalized
		}
	}
	return cfg
}

// normalizeAllowedOrigins splits comma separated entries and reports
// whether "*" was among them.
func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		for _, part := range strings.Split(origin, ",") {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if trimmed == "*" {
				allowAll = true
				continue
			}
			parsed = append(parsed, trimmed)
		}
	}
	return parsed, allowAll
}
