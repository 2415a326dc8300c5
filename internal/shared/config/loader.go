package config

import (
	"fmt"
	"log"
	"os"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

const envPrefix = "BOOKSHELF"

var (
	listenersMu sync.Mutex
	listeners   []func(*Config)
)

// OnChange 注册配置热更新回调（例如调整日志级别）。回调在 fsnotify 的 goroutine 中执行。
func OnChange(fn func(*Config)) {
	listenersMu.Lock()
	defer listenersMu.Unlock()
	listeners = append(listeners, fn)
}

func notify(cfg *Config) {
	listenersMu.Lock()
	fns := append([]func(*Config){}, listeners...)
	listenersMu.Unlock()
	for _, fn := range fns {
		fn(cfg)
	}
}

// Default 返回内置默认配置：内存仓储、8080 端口、info 日志。
func Default() Config {
	return Config{
		HTTPServer: HTTPServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		GRPCServer: GRPCServerConfig{Port: 9090},
		Storage:    StorageConfig{Driver: StorageMemory},
		MySQL:      MySQLConfig{Host: "127.0.0.1", Port: 3306, Charset: "utf8mb4", MaxIdle: 10, MaxConn: 50},
		SQLite:     SQLiteConfig{Path: "bookshelf.db"},
		MongoDB:    MongoDBConfig{Database: "bookshelf", ConnectTimeout: 3 * time.Second},
		Log:        LogConfig{Level: "info", MaxSize: 100, MaxBackups: 7, MaxAge: 30},
		Auth:       AuthConfig{TokenTTL: 24 * time.Hour},
		Trace:      TraceConfig{Exporter: "none", SampleRatio: 1},
		Snowflake:  SnowflakeConfig{NodeID: 1},
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("httpserver.host", d.HTTPServer.Host)
	v.SetDefault("httpserver.port", d.HTTPServer.Port)
	v.SetDefault("httpserver.read_timeout", d.HTTPServer.ReadTimeout)
	v.SetDefault("httpserver.write_timeout", d.HTTPServer.WriteTimeout)
	v.SetDefault("httpserver.shutdown_timeout", d.HTTPServer.ShutdownTimeout)
	v.SetDefault("grpcserver.enabled", d.GRPCServer.Enabled)
	v.SetDefault("grpcserver.host", d.GRPCServer.Host)
	v.SetDefault("grpcserver.port", d.GRPCServer.Port)
	v.SetDefault("storage.driver", string(d.Storage.Driver))
	v.SetDefault("mysql.host", d.MySQL.Host)
	v.SetDefault("mysql.port", d.MySQL.Port)
	v.SetDefault("mysql.user", d.MySQL.User)
	v.SetDefault("mysql.password", d.MySQL.Password)
	v.SetDefault("mysql.dbname", d.MySQL.DBName)
	v.SetDefault("mysql.charset", d.MySQL.Charset)
	v.SetDefault("mysql.max_idle", d.MySQL.MaxIdle)
	v.SetDefault("mysql.max_conn", d.MySQL.MaxConn)
	v.SetDefault("sqlite.path", d.SQLite.Path)
	v.SetDefault("mongodb.uri", d.MongoDB.URI)
	v.SetDefault("mongodb.database", d.MongoDB.Database)
	v.SetDefault("mongodb.connect_timeout", d.MongoDB.ConnectTimeout)
	v.SetDefault("log.file_dir", d.Log.FileDir)
	v.SetDefault("log.max_size", d.Log.MaxSize)
	v.SetDefault("log.max_backups", d.Log.MaxBackups)
	v.SetDefault("log.max_age", d.Log.MaxAge)
	v.SetDefault("log.compress", d.Log.Compress)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.dev", d.Log.Dev)
	v.SetDefault("auth.enabled", d.Auth.Enabled)
	v.SetDefault("auth.jwt_secret", d.Auth.JWTSecret)
	v.SetDefault("auth.token_ttl", d.Auth.TokenTTL)
	v.SetDefault("trace.enabled", d.Trace.Enabled)
	v.SetDefault("trace.exporter", d.Trace.Exporter)
	v.SetDefault("trace.sample_ratio", d.Trace.SampleRatio)
	v.SetDefault("snowflake.node_id", d.Snowflake.NodeID)
}

func load(configPath string) (*Config, error) {
	if !fileExist(configPath) {
		return nil, fmt.Errorf("config file not exist, configPath=%v", configPath)
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", configPath, err)
	}
	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}
	current.Store(cfg)

	// 热更新：解析失败时保留旧配置。
	v.OnConfigChange(func(e fsnotify.Event) {
		next, err := decode(v)
		if err != nil {
			log.Printf("config reload failed, keep previous config, file=%s err=%v", e.Name, err)
			return
		}
		current.Store(next)
		notify(next)
	})
	v.WatchConfig()
	return cfg, nil
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	err := v.Unmarshal(&cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		storageDriverHook,
	)))
	if err != nil {
		return nil, fmt.Errorf("viper unmarshal config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var storageDriverType = reflect.TypeOf(StorageDriver(""))

func storageDriverHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if to != storageDriverType || from.Kind() != reflect.String {
		return data, nil
	}
	return StorageDriver(strings.ToLower(strings.TrimSpace(data.(string)))), nil
}

func (c *Config) validate() error {
	switch c.Storage.Driver {
	case StorageMemory, StorageMySQL, StorageSQLite, StorageMongoDB:
	default:
		return fmt.Errorf("unknown storage.driver %q", c.Storage.Driver)
	}
	if c.Storage.Driver == StorageMongoDB && c.MongoDB.URI == "" {
		return fmt.Errorf("mongodb.uri is required when storage.driver=mongodb")
	}
	if c.Auth.Enabled && c.Auth.JWTSecret == "" && os.Getenv("JWT_SECRET") == "" {
		return fmt.Errorf("auth.jwt_secret (or JWT_SECRET) is required when auth.enabled=true")
	}
	if c.HTTPServer.Port <= 0 {
		return fmt.Errorf("httpserver.port must be positive, got %d", c.HTTPServer.Port)
	}
	return nil
}

func fileExist(fileName string) bool {
	_, err := os.Stat(fileName)
	return err == nil
}
