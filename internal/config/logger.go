package config

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logging levels.
const (
	LevelNone   = "none"
	LevelNormal = "normal"
	LevelDebug  = "debug"
)

// LoggingConfig defines console and file logging.
type LoggingConfig struct {
	Level string `yaml:"level"` // "none", "normal", "debug"
	File  string `yaml:"file"`  // Optional log file, same level as console
}

// Validate checks the level name.
func (c LoggingConfig) Validate() error {
	switch c.Level {
	case "", LevelNone, LevelNormal, LevelDebug:
		return nil
	default:
		return fmt.Errorf("%w: logging.level: %q (must be none, normal, or debug)", ErrInvalidValue, c.Level)
	}
}

// Prepare builds the program logger. Entries below error go to stdout,
// errors and above to stderr. The returned closer flushes the logger and
// closes the log file; it is never nil.
func (c LoggingConfig) Prepare(stdout, stderr io.Writer) (*zap.Logger, func() error, error) {
	var minLevel zapcore.Level
	switch c.Level {
	case LevelNormal, "":
		minLevel = zapcore.InfoLevel
	case LevelDebug:
		minLevel = zapcore.DebugLevel
	default:
		return zap.NewNop(), func() error { return nil }, nil
	}

	ec := zap.NewDevelopmentEncoderConfig()
	ec.EncodeCaller = nil
	ec.EncodeLevel = zapcore.CapitalLevelEncoder
	encoder := zapcore.NewConsoleEncoder(ec)

	lowPriority := zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
		return minLevel <= lvl && lvl < zapcore.ErrorLevel
	})
	highPriority := zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
		return lvl >= zapcore.ErrorLevel
	})

	cores := []zapcore.Core{
		zapcore.NewCore(encoder, zapcore.Lock(zapcore.AddSync(stdout)), lowPriority),
		zapcore.NewCore(encoder, zapcore.Lock(zapcore.AddSync(stderr)), highPriority),
	}

	var file *os.File
	if c.File != "" {
		f, err := os.OpenFile(c.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("opening log file %q: %w", c.File, err)
		}
		file = f
		fileEncoder := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
		cores = append(cores, zapcore.NewCore(fileEncoder, zapcore.Lock(f), zap.NewAtomicLevelAt(minLevel)))
	}

	logger := zap.New(zapcore.NewTee(cores...)).Named("mdslides")
	closeLog := func() error {
		err := logger.Sync()
		if file != nil {
			err = multierr.Append(err, file.Close())
		}
		return err
	}
	return logger, closeLog, nil
}
