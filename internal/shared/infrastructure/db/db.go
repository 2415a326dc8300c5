package db

import (
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"BookShelf/internal/shared/config"
	"BookShelf/internal/shared/logs"
)

const slowThreshold = 200 * time.Millisecond

func gormConfig() *gorm.Config {
	return &gorm.Config{
		Logger: logs.NewGormLogger(logger.Warn, slowThreshold),
	}
}

// Open 按 storage.driver 打开关系型数据库；memory/mongodb 不走这里。
func Open(cfg *config.Config) (*gorm.DB, error) {
	switch cfg.Storage.Driver {
	case config.StorageMySQL:
		return OpenMySQL(cfg.MySQL)
	case config.StorageSQLite:
		return OpenSQLite(cfg.SQLite)
	default:
		return nil, fmt.Errorf("storage driver %q is not a gorm driver", cfg.Storage.Driver)
	}
}

func OpenMySQL(cfg config.MySQLConfig) (*gorm.DB, error) {
	charset := cfg.Charset
	if charset == "" {
		charset = "utf8mb4"
	}
	// username:password@protocol(address)/dbname?charset=utf8mb4&parseTime=True&loc=Local
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=True&loc=Local",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.DBName,
		charset,
	)
	db, err := gorm.Open(mysql.Open(dsn), gormConfig())
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(cfg.MaxConn)
	sqlDB.SetMaxIdleConns(cfg.MaxIdle)

	logs.Info("open db success",
		zap.String("driver", "mysql"),
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.String("db", cfg.DBName),
		zap.String("user", cfg.User),
	)
	return db, nil
}

// OpenSQLite 打开纯 Go 的 sqlite（无 cgo），本地开发与测试使用。
func OpenSQLite(cfg config.SQLiteConfig) (*gorm.DB, error) {
	path := cfg.Path
	if path == "" {
		path = ":memory:"
	}
	db, err := gorm.Open(sqlite.Open(path), gormConfig())
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// sqlite 单写者；:memory: 每个连接是独立的库，只能用一个连接
	sqlDB.SetMaxOpenConns(1)

	logs.Info("open db success", zap.String("driver", "sqlite"), zap.String("path", path))
	return db, nil
}

// Close 关闭底层连接池。
func Close(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
