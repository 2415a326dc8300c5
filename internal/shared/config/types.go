package config

import "time"

type Config struct {
	HTTPServer HTTPServerConfig `yaml:"httpserver" mapstructure:"httpserver"`
	GRPCServer GRPCServerConfig `yaml:"grpcserver" mapstructure:"grpcserver"`
	Storage    StorageConfig    `yaml:"storage" mapstructure:"storage"`
	MySQL      MySQLConfig      `yaml:"mysql" mapstructure:"mysql"`
	SQLite     SQLiteConfig     `yaml:"sqlite" mapstructure:"sqlite"`
	MongoDB    MongoDBConfig    `yaml:"mongodb" mapstructure:"mongodb"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
	Auth       AuthConfig       `yaml:"auth" mapstructure:"auth"`
	Trace      TraceConfig      `yaml:"trace" mapstructure:"trace"`
	Snowflake  SnowflakeConfig  `yaml:"snowflake" mapstructure:"snowflake"`
}

type HTTPServerConfig struct {
	Host            string        `yaml:"host" mapstructure:"host"`
	Port            int           `yaml:"port" mapstructure:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
}

type GRPCServerConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Host    string `yaml:"host" mapstructure:"host"`
	Port    int    `yaml:"port" mapstructure:"port"`
}

// StorageDriver 选择图书仓储实现。
type StorageDriver string

const (
	StorageMemory  StorageDriver = "memory"
	StorageMySQL   StorageDriver = "mysql"
	StorageSQLite  StorageDriver = "sqlite"
	StorageMongoDB StorageDriver = "mongodb"
)

type StorageConfig struct {
	Driver StorageDriver `yaml:"driver" mapstructure:"driver"`
}

type MySQLConfig struct {
	Host     string `yaml:"host" mapstructure:"host"`
	Port     int    `yaml:"port" mapstructure:"port"`
	User     string `yaml:"user" mapstructure:"user"`
	Password string `yaml:"password" mapstructure:"password"`
	DBName   string `yaml:"dbname" mapstructure:"dbname"`
	Charset  string `yaml:"charset" mapstructure:"charset"`
	MaxIdle  int    `yaml:"max_idle" mapstructure:"max_idle"`
	MaxConn  int    `yaml:"max_conn" mapstructure:"max_conn"`
}

type SQLiteConfig struct {
	Path string `yaml:"path" mapstructure:"path"` // 文件路径；":memory:" 为内存库
}

type MongoDBConfig struct {
	URI            string        `yaml:"uri" mapstructure:"uri"`
	Database       string        `yaml:"database" mapstructure:"database"`
	ConnectTimeout time.Duration `yaml:"connect_timeout" mapstructure:"connect_timeout"`
}

type LogConfig struct {
	FileDir    string `yaml:"file_dir" mapstructure:"file_dir"`
	MaxSize    int    `yaml:"max_size" mapstructure:"max_size"` // MB
	MaxBackups int    `yaml:"max_backups" mapstructure:"max_backups"`
	MaxAge     int    `yaml:"max_age" mapstructure:"max_age"` // days
	Compress   bool   `yaml:"compress" mapstructure:"compress"`
	Level      string `yaml:"level" mapstructure:"level"` // debug/info/warn/error...
	Dev        bool   `yaml:"dev" mapstructure:"dev"`
}

type AuthConfig struct {
	// Enabled=false 时写接口不校验令牌，审计记录的操作者为 anonymous。
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	JWTSecret string        `yaml:"jwt_secret" mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl" mapstructure:"token_ttl"`
}

type TraceConfig struct {
	Enabled     bool    `yaml:"enabled" mapstructure:"enabled"`
	Exporter    string  `yaml:"exporter" mapstructure:"exporter"` // stdout / none
	SampleRatio float64 `yaml:"sample_ratio" mapstructure:"sample_ratio"`
}

type SnowflakeConfig struct {
	NodeID int64 `yaml:"node_id" mapstructure:"node_id"`
}

func (c HTTPServerConfig) Addr() string {
	return joinHostPort(c.Host, c.Port)
}

func (c GRPCServerConfig) Addr() string {
	return joinHostPort(c.Host, c.Port)
}

// DialAddr 是本进程自检用的地址：监听在全部网卡时改走回环。
func (c GRPCServerConfig) DialAddr() string {
	switch c.Host {
	case "", "0.0.0.0", "::":
		return joinHostPort("127.0.0.1", c.Port)
	}
	return c.Addr()
}
