package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/andresuchdata/tshirt-stock/internal/domain"
	"github.com/andresuchdata/tshirt-stock/internal/importer"
	"github.com/andresuchdata/tshirt-stock/internal/service"
)

type InventoryHandler struct {
	inventory      *service.InventoryService
	drive          service.UploadSource
	maxUploadBytes int64
}

// NewInventoryHandler wires the inventory routes. drive may be nil when no
// Drive folder is configured.
func NewInventoryHandler(inventory *service.InventoryService, drive service.UploadSource, maxUploadBytes int64) *InventoryHandler {
	return &InventoryHandler{
		inventory:      inventory,
		drive:          drive,
		maxUploadBytes: maxUploadBytes,
	}
}

type variantInfo struct {
	Label  string `json:"label"`
	Slug   string `json:"slug"`
	White  bool   `json:"white"`
	Marked bool   `json:"marked"`
}

// GetCatalog lists the tracked variants and sizes in display order.
func (h *InventoryHandler) GetCatalog(c *gin.Context) {
	variants := make([]variantInfo, 0, domain.VariantCount)
	for _, v := range domain.Variants() {
		variants = append(variants, variantInfo{
			Label:  v.Label(),
			Slug:   v.Slug(),
			White:  v.White(),
			Marked: v.Marked(),
		})
	}
	c.JSON(http.StatusOK, gin.H{
		"variants": variants,
		"sizes":    domain.Sizes(),
	})
}

// Import merges every uploaded spreadsheet in the "files" form field.
func (h *InventoryHandler) Import(c *gin.Context) {
	if h.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	}
	form, err := c.MultipartForm()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{
				"error": fmt.Sprintf("upload exceeds %d bytes", tooLarge.Limit),
			})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid form data"})
		return
	}

	files := form.File["files"]
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no files provided"})
		return
	}

	uploads := make([]importer.Upload, 0, len(files))
	for _, fh := range files {
		fh := fh
		uploads = append(uploads, importer.Upload{
			Name: fh.Filename,
			Open: func() (io.ReadCloser, error) { return fh.Open() },
		})
	}

	report, err := h.inventory.ImportFiles(c.Request.Context(), uploads)
	if err != nil {
		respondError(c, err)
		return
	}
	respondImport(c, report)
}

// ImportDrive imports every spreadsheet in the configured Drive folder.
func (h *InventoryHandler) ImportDrive(c *gin.Context) {
	if h.drive == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "drive import is not configured"})
		return
	}
	report, err := h.inventory.ImportSource(c.Request.Context(), h.drive)
	if err != nil {
		respondError(c, err)
		return
	}
	respondImport(c, report)
}

func respondImport(c *gin.Context, report *service.ImportReport) {
	if report.AllFailed() {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":  "no file could be imported",
			"report": report,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": fmt.Sprintf("imported %d of %d files", report.Imported, len(report.Files)),
		"report":  report,
	})
}

// GetSnapshots returns every stored snapshot, newest first.
func (h *InventoryHandler) GetSnapshots(c *gin.Context) {
	records, err := h.inventory.Snapshots(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}

// GetDraft returns the editing baseline for :date.
func (h *InventoryHandler) GetDraft(c *gin.Context) {
	snap, err := h.inventory.Draft(c.Request.Context(), c.Param("date"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

type saveSnapshotRequest struct {
	Inventory *domain.Inventory `json:"inventory"`
}

// SaveSnapshot replaces the snapshot for :date with the request body.
func (h *InventoryHandler) SaveSnapshot(c *gin.Context) {
	var req saveSnapshotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid request body: %v", err)})
		return
	}
	if req.Inventory == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "inventory is required"})
		return
	}

	date := c.Param("date")
	snap, err := h.inventory.SaveManual(c.Request.Context(), date, *req.Inventory)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":  fmt.Sprintf("saved inventory for %s", date),
		"snapshot": snap,
	})
}

// GetHistory returns history rows, optionally filtered by ?variant=.
func (h *InventoryHandler) GetHistory(c *gin.Context) {
	var filter service.HistoryFilter
	for _, raw := range c.QueryArray("variant") {
		if raw == "" {
			continue
		}
		v, ok := domain.ParseVariant(raw)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unknown variant %q", raw)})
			return
		}
		filter.Variants = append(filter.Variants, v)
	}

	rows, err := h.inventory.History(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

// GetSeries returns the chart series for the required ?variant=.
func (h *InventoryHandler) GetSeries(c *gin.Context) {
	raw := c.Query("variant")
	if raw == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "variant is required"})
		return
	}
	v, ok := domain.ParseVariant(raw)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unknown variant %q", raw)})
		return
	}

	points, err := h.inventory.Series(c.Request.Context(), v)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"variant": v.Label(),
		"sizes":   domain.Sizes(),
		"points":  points,
	})
}

func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidDate),
		errors.Is(err, service.ErrInvalidVariant),
		errors.Is(err, service.ErrNegativeCount):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Str("path", c.Request.URL.Path).Msg("Inventory request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
