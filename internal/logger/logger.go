// Package logger holds the process-wide zap logger.
package logger

import (
	"strings"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config selects the encoder and minimum level.
type Config struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

var (
	mu    sync.RWMutex
	log   *zap.Logger
	sugar *zap.SugaredLogger
)

// Init builds a logger from config and installs it as the package and zap
// global logger.
func Init(config Config) error {
	var cfg zap.Config
	if config.Development {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	if config.Level != "" {
		level, err := zapcore.ParseLevel(strings.ToLower(config.Level))
		if err != nil {
			return errors.Wrapf(err, "log level %q", config.Level)
		}
		cfg.Level = zap.NewAtomicLevelAt(level)
	}

	l, err := cfg.Build()
	if err != nil {
		return errors.Wrap(err, "build logger")
	}
	Set(l)
	return nil
}

// InitDevelopment installs a console logger at debug level.
func InitDevelopment() error {
	return Init(Config{Development: true})
}

// Set replaces the current logger, flushing the previous one.
func Set(l *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()

	zap.ReplaceGlobals(l)
	if log != nil {
		_ = log.Sync()
	}
	log = l
	sugar = l.Sugar()
}

// L returns the current logger. Before Init it is zap's global, a no-op
// logger unless something else replaced it.
func L() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	if log != nil {
		return log
	}
	return zap.L()
}

// S returns the sugared form of L.
func S() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	if sugar != nil {
		return sugar
	}
	return zap.S()
}

// Named returns a child of L for one component.
func Named(name string) *zap.Logger {
	return L().Named(name)
}

// Sync flushes buffered log entries.
func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	if log != nil {
		_ = log.Sync()
	}
}
