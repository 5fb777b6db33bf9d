package logger

import (
	"sync"

	"go.uber.org/zap"
)

var (
	instance *zap.SugaredLogger
	initErr  error
	once     sync.Once
)

type Config struct {
	Development bool
}

// New builds the process-wide sugared logger on first call and memoizes the
// result. A failed first build is memoized too: later calls return the same
// error, never a nil logger with a nil error.
func New(cfg Config) (*zap.SugaredLogger, error) {
	once.Do(func() {
		var l *zap.Logger
		if cfg.Development {
			l, initErr = zap.NewDevelopment()
		} else {
			l, initErr = zap.NewProduction()
		}
		if initErr != nil {
			return
		}
		instance = l.Sugar()
	})
	return instance, initErr
}

// Nop returns a logger that discards everything, for tests.
func Nop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}
