// Package logger 封装 zap，提供全局 printf 风格日志，按天滚动写文件（lumberjack）。
package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

type LogOption struct {
	Format   string // console / json
	LogDir   string // 为空时只输出到 stdout
	Level    string // debug / info / warn / error
	Compress bool
}

const (
	defaultFileName   = "app.log"
	defaultMaxSizeMB  = 200
	defaultMaxBackups = 30
	defaultMaxAgeDays = 7
)

var sugar atomic.Pointer[zap.SugaredLogger]

func init() {
	l, _ := zap.NewDevelopment()
	sugar.Store(l.Sugar())
}

// InitLogger 初始化全局日志，可重复调用（后一次覆盖前一次）
func InitLogger(opt LogOption) error {
	level, err := parseLevel(opt.Level)
	if err != nil {
		return err
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	var encoder zapcore.Encoder
	switch strings.ToLower(opt.Format) {
	case "json":
		encoder = zapcore.NewJSONEncoder(encCfg)
	case "console", "":
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encCfg)
	default:
		return fmt.Errorf("unknown log format: %s", opt.Format)
	}

	sinks := []zapcore.WriteSyncer{zapcore.AddSync(os.Stdout)}
	if opt.LogDir != "" {
		if err := os.MkdirAll(opt.LogDir, 0o755); err != nil {
			return fmt.Errorf("create log dir: %w", err)
		}
		sinks = append(sinks, zapcore.AddSync(&lumberjack.Logger{
			Filename:   filepath.Join(opt.LogDir, defaultFileName),
			MaxSize:    defaultMaxSizeMB,
			MaxBackups: defaultMaxBackups,
			MaxAge:     defaultMaxAgeDays,
			Compress:   opt.Compress,
			LocalTime:  true,
		}))
	}

	core := zapcore.NewCore(encoder, zapcore.NewMultiWriteSyncer(sinks...), level)
	l := zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1), zap.AddStacktrace(zapcore.ErrorLevel))
	sugar.Store(l.Sugar())
	return nil
}

func parseLevel(s string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zapcore.DebugLevel, nil
	case "info", "":
		return zapcore.InfoLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("unknown log level: %s", s)
	}
}

// Sync 进程退出前刷盘
func Sync() {
	_ = sugar.Load().Sync()
}

func Debugf(format string, args ...any) { sugar.Load().Debugf(format, args...) }
func Infof(format string, args ...any)  { sugar.Load().Infof(format, args...) }
func Warnf(format string, args ...any)  { sugar.Load().Warnf(format, args...) }
func Errorf(format string, args ...any) { sugar.Load().Errorf(format, args...) }
