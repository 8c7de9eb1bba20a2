package cache

import (
	"context"
	"fmt"
	"log/slog"

	"recipefinder/internal/config"
)

// MakeCache builds the backend selected by cfg.Backend.
func MakeCache(ctx context.Context, cfg config.StoreConfig) (Cache, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		slog.InfoContext(ctx, "using in-memory store, favorites will not survive a restart")
		return NewInMemoryCache(), nil
	case config.BackendSQLite:
		slog.InfoContext(ctx, "using sqlite store", "path", cfg.SQLitePath)
		return NewSQLiteCache(cfg.SQLitePath)
	case config.BackendAzure:
		slog.InfoContext(ctx, "using Azure Blob Storage store", "container", cfg.AzureContainer)
		return NewBlobCache(cfg.AzureAccountName, cfg.AzureAccountKey, cfg.AzureContainer)
	case config.BackendS3:
		slog.InfoContext(ctx, "using S3 store", "bucket", cfg.S3Bucket, "prefix", cfg.S3Prefix)
		return NewS3Cache(ctx, cfg.S3Bucket, cfg.S3Prefix, cfg.S3Region)
	case config.BackendFile, "":
		slog.InfoContext(ctx, "using file store", "dir", cfg.Dir)
		return NewFileCache(cfg.Dir), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}
