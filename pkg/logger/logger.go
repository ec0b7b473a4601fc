// Package logger, uygulama genelinde kullanılan zap logger'ı kurar.
//
// Her bileşen kendi isimli logger'ını alır:
//
//	log := logger.Named("order")
//	log.Info("status changed", zap.String("order_id", id))
//
// Init çağrılmadan önce (ör. testlerde) Named no-op logger döner.
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

// Options, logger kurulum ayarları.
type Options struct {
	Level       string // debug | info | warn | error
	Format      string // console | json
	File        string // boşsa sadece stdout
	MaxSizeMB   int
	MaxBackups  int
	MaxAgeDays  int
	Development bool
}

var (
	current   atomic.Pointer[zap.Logger]
	atomLevel = zap.NewAtomicLevelAt(zapcore.InfoLevel)
)

// Init, stdout'a ve (File verilmişse) dönen log dosyasına yazan logger'ı kurar.
func Init(opts Options) error {
	atomLevel.SetLevel(parseLevel(opts.Level))

	encCfg := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	var encoder zapcore.Encoder
	if opts.Format == "json" {
		encoder = zapcore.NewJSONEncoder(encCfg)
	} else {
		encoder = zapcore.NewConsoleEncoder(encCfg)
	}

	cores := []zapcore.Core{
		zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout), atomLevel),
	}

	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
		// Dosyaya her zaman JSON yazılır, satır satır işlenebilsin
		fileWriter := zapcore.AddSync(&lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    orDefault(opts.MaxSizeMB, 10),
			MaxBackups: orDefault(opts.MaxBackups, 5),
			MaxAge:     orDefault(opts.MaxAgeDays, 14),
			Compress:   true,
		})
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), fileWriter, atomLevel))
	}

	zapOpts := []zap.Option{zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)}
	if opts.Development {
		zapOpts = append(zapOpts, zap.Development())
	}

	l := zap.New(zapcore.NewTee(cores...), zapOpts...)
	current.Store(l)
	zap.ReplaceGlobals(l)
	return nil
}

// L, kök logger'ı döner.
func L() *zap.Logger {
	if l := current.Load(); l != nil {
		return l
	}
	return zap.NewNop()
}

// Named, bileşen adıyla etiketlenmiş logger döner.
func Named(component string) *zap.Logger {
	return L().Named(component)
}

// SetLevel, çalışma anında log seviyesini değiştirir.
func SetLevel(level string) {
	atomLevel.SetLevel(parseLevel(level))
}

// Sync, buffer'daki logları diske yazar. Terminal stdout'larında dönen
// zararsız ioctl hataları yutulur.
func Sync() error {
	l := current.Load()
	if l == nil {
		return nil
	}
	if err := l.Sync(); err != nil {
		msg := err.Error()
		if strings.Contains(msg, "inappropriate ioctl for device") ||
			strings.Contains(msg, "invalid argument") ||
			strings.Contains(msg, "bad file descriptor") {
			return nil
		}
		return err
	}
	return nil
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
