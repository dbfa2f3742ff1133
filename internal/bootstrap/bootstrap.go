// Package bootstrap builds the inventory service and its collaborators from
// configuration. Both the HTTP server and stockctl start here.
package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/tshirt-stock/internal/cache"
	"github.com/andresuchdata/tshirt-stock/internal/config"
	"github.com/andresuchdata/tshirt-stock/internal/drive"
	"github.com/andresuchdata/tshirt-stock/internal/importer"
	"github.com/andresuchdata/tshirt-stock/internal/repository"
	"github.com/andresuchdata/tshirt-stock/internal/service"
)

// Inventory builds the service and loads the stored collection. A corrupt
// store is returned as an error.
func Inventory(ctx context.Context, cfg *config.Config) (*service.InventoryService, error) {
	repo, err := repository.New(cfg.Storage)
	if err != nil {
		return nil, err
	}

	historyCache, err := cache.NewHistoryCache(cfg.Cache, repository.StoreID(cfg.Storage))
	if err != nil {
		log.Warn().Err(err).Msg("History cache unavailable, continuing without it")
		historyCache = cache.NewNoopHistoryCache()
	}

	imp := importer.New(importer.Layout{
		HeaderScanRows: cfg.Import.HeaderScanRows,
		LabelColumn:    cfg.Import.LabelColumn,
	})

	svc := service.NewInventoryService(repo, imp, historyCache)
	if err := svc.Load(ctx); err != nil {
		return nil, err
	}
	return svc, nil
}

// DriveSource returns nil when no credentials are configured. folder
// overrides the configured folder ID when set; a value containing "/" is
// resolved as a path from My Drive.
func DriveSource(ctx context.Context, cfg config.DriveConfig, folder string) (*drive.Source, error) {
	if cfg.CredentialsJSON == "" {
		return nil, nil
	}
	if folder == "" {
		folder = cfg.FolderID
	}
	if folder == "" {
		return nil, fmt.Errorf("drive folder is not configured")
	}

	svc, err := drive.NewService(ctx, cfg.CredentialsJSON)
	if err != nil {
		return nil, err
	}
	if strings.Contains(folder, "/") {
		id, err := svc.FindFolderByPath(ctx, folder)
		if err != nil {
			return nil, err
		}
		folder = id
	}
	return drive.NewSource(svc, folder), nil
}
