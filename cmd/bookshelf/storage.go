package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"BookShelf/internal/book/app"
	"BookShelf/internal/book/infra/persistence/gormrepo"
	"BookShelf/internal/book/infra/persistence/memory"
	"BookShelf/internal/book/infra/persistence/mongodb"
	"BookShelf/internal/shared/config"
	"BookShelf/internal/shared/infrastructure/db"
	"BookShelf/internal/shared/infrastructure/mongo"
	"BookShelf/internal/shared/logs"
)

type storage struct {
	books  app.BookRepo
	audits app.AuditRepo
	close  func(ctx context.Context) error
}

func noopClose(context.Context) error { return nil }

// openStorage 按 storage.driver 选择仓储实现；sql 驱动启动时自动建表。
func openStorage(ctx context.Context, cfg *config.Config) (*storage, error) {
	switch cfg.Storage.Driver {
	case config.StorageMemory:
		return &storage{books: memory.NewBookRepo(), audits: memory.NewAuditRepo(), close: noopClose}, nil

	case config.StorageMySQL, config.StorageSQLite:
		gormDB, err := db.Open(cfg)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", cfg.Storage.Driver, err)
		}
		if err := gormrepo.Migrate(gormDB); err != nil {
			_ = db.Close(gormDB)
			return nil, fmt.Errorf("migrate %s: %w", cfg.Storage.Driver, err)
		}
		return &storage{
			books:  gormrepo.NewBookRepo(gormDB),
			audits: gormrepo.NewAuditRepo(gormDB),
			close:  func(context.Context) error { return db.Close(gormDB) },
		}, nil

	case config.StorageMongoDB:
		client, err := mongo.Open(cfg.MongoDB, logs.L())
		if err != nil {
			return nil, fmt.Errorf("open mongodb: %w", err)
		}
		database := client.Database(cfg.MongoDB.Database)
		books, audits := mongodb.NewBookRepo(database), mongodb.NewAuditRepo(database)

		idxCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := books.EnsureIndexes(idxCtx); err != nil {
			logs.Warn("ensure book indexes failed", zap.Error(err))
		}
		if err := audits.EnsureIndexes(idxCtx); err != nil {
			logs.Warn("ensure audit indexes failed", zap.Error(err))
		}
		return &storage{books: books, audits: audits, close: client.Disconnect}, nil

	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}
