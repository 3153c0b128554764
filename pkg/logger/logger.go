package logger

import "go.uber.org/zap"

// Log is the package-level logger. It is a no-op until Initialize runs, so library
// code can log unconditionally.
var Log = zap.NewNop()

func Initialize() error {
	logger, err := zap.NewProduction()
	if err != nil {
		return err
	}
	Log = logger
	return nil
}

func String(key, value string) zap.Field { return zap.String(key, value) }

func Int(key string, value int) zap.Field { return zap.Int(key, value) }

func Int64(key string, value int64) zap.Field { return zap.Int64(key, value) }

func Bool(key string, value bool) zap.Field { return zap.Bool(key, value) }

func Error(err error) zap.Field { return zap.Error(err) }
