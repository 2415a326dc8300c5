package logs

import (
	"io"
	"os"
	"strings"

	"github.com/natefinch/lumberjack"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"BookShelf/internal/shared/config"
)

var (
	logger      *zap.Logger = zap.NewNop()
	atomicLevel             = zap.NewAtomicLevelAt(zapcore.InfoLevel)
)

func parseLevel(s string) (zapcore.Level, error) {
	lvl := zapcore.InfoLevel
	err := lvl.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(s))))
	return lvl, err
}

func Init(appName string, cfg config.LogConfig) error {
	// 1) 解析日志级别：默认 info，解析失败也回退到 info
	lvl, err := parseLevel(cfg.Level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	// AtomicLevel 支撑配置热更新时调整级别（见 SetLevel）
	atomicLevel.SetLevel(lvl)

	// 2) console 和 file 共用的编码器配置
	//    2026-01-28T10:00:00 INFO  bookshelf  server start  main.go:12
	encoderCfg := zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stack",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	// 3) 控制台：彩色级别，方便肉眼看
	consoleCfg := encoderCfg
	consoleCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	consoleEncoder := zapcore.NewConsoleEncoder(consoleCfg)

	// 4) 文件：JSON 结构化输出，不带颜色
	fileCfg := encoderCfg
	fileCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	jsonEncoder := zapcore.NewJSONEncoder(fileCfg)

	// 5) 文件输出（lumberjack 切割）；未配置路径时只输出控制台
	var fileWriter io.Writer = io.Discard
	if cfg.FileDir != "" {
		fileWriter = &lumberjack.Logger{
			Filename:   cfg.FileDir,
			MaxSize:    max(1, cfg.MaxSize),
			MaxBackups: max(0, cfg.MaxBackups),
			MaxAge:     max(0, cfg.MaxAge),
			Compress:   cfg.Compress,
		}
	}

	consoleSyncer := zapcore.Lock(os.Stderr)
	fileSyncer := zapcore.AddSync(fileWriter)

	// 6) 写文件时拆成两路 core，避免 ANSI 颜色写进日志文件
	core := zapcore.NewCore(consoleEncoder, consoleSyncer, atomicLevel)
	if cfg.FileDir != "" {
		core = zapcore.NewTee(
			zapcore.NewCore(consoleEncoder, consoleSyncer, atomicLevel),
			zapcore.NewCore(jsonEncoder, fileSyncer, atomicLevel),
		)
	}

	// 7) 开发模式：warn 及以上自动带堆栈
	opts := []zap.Option{zap.AddCaller(), zap.AddCallerSkip(1)}
	if cfg.Dev {
		opts = append(opts, zap.Development(), zap.AddStacktrace(zapcore.WarnLevel))
	}

	l := zap.New(core, opts...).Named(appName)

	// 替换全局 logger 前先把旧的刷盘
	_ = logger.Sync()
	logger = l
	return nil
}

// SetLevel 运行时调整日志级别（配置热更新回调里调用）。
func SetLevel(level string) error {
	lvl, err := parseLevel(level)
	if err != nil {
		return err
	}
	atomicLevel.SetLevel(lvl)
	return nil
}

// Level 返回当前生效的日志级别。
func Level() zapcore.Level {
	return atomicLevel.Level()
}

// L 返回底层 *zap.Logger，给需要直接持有 logger 的组件（logx 适配器、gin 中间件）使用。
// 去掉了 helper 这一层的 caller skip。
func L() *zap.Logger {
	return logger.WithOptions(zap.AddCallerSkip(-1))
}

// Sync 刷盘，进程退出前调用。
func Sync() error {
	return logger.Sync()
}

// 常用日志级别的便捷封装。fields 用 zap.String / zap.Int 等构造结构化字段。

func Debug(msg string, fields ...zap.Field) {
	logger.Debug(msg, fields...)
}

func Info(msg string, fields ...zap.Field) {
	logger.Info(msg, fields...)
}

func Warn(msg string, fields ...zap.Field) {
	logger.Warn(msg, fields...)
}

func Error(msg string, fields ...zap.Field) {
	logger.Error(msg, fields...)
}

// Fatal：输出 Fatal 级别日志，然后退出程序（os.Exit(1)）。
func Fatal(msg string, fields ...zap.Field) {
	logger.Fatal(msg, fields...)
}
