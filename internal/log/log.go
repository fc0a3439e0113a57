// Package log holds the process-wide zap logger.
//
// Components log through the package-level helpers with a short tag prefix,
// e.g. log.Info("ndvi: rendered", zap.Int("width", w)).
package log

import (
	"sync/atomic"

	"go.uber.org/zap"
)

var logger atomic.Pointer[zap.Logger]

func init() {
	logger.Store(zap.NewNop())
}

// Setup installs a production logger, or a development logger at debug
// level when verbose is set.
func Setup(verbose bool) error {
	var (
		l   *zap.Logger
		err error
	)
	if verbose {
		l, err = zap.NewDevelopment()
	} else {
		cfg := zap.NewProductionConfig()
		cfg.Encoding = "console"
		cfg.EncoderConfig = zap.NewDevelopmentEncoderConfig()
		l, err = cfg.Build()
	}
	if err != nil {
		return err
	}
	Set(l)
	return nil
}

// Set replaces the logger. A nil logger disables logging.
func Set(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	logger.Store(l)
}

// L returns the current logger.
func L() *zap.Logger { return logger.Load() }

func Sync() { _ = L().Sync() }

func Debug(msg string, fields ...zap.Field) { L().Debug(msg, fields...) }
func Info(msg string, fields ...zap.Field)  { L().Info(msg, fields...) }
func Warn(msg string, fields ...zap.Field)  { L().Warn(msg, fields...) }
func Error(msg string, fields ...zap.Field) { L().Error(msg, fields...) }
