// Package log is the application logger. It stays silent unless logs.write is enabled.
package log

import (
	"errors"
	"io"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/trawl-media/trawl/constant"
	"github.com/trawl-media/trawl/key"
	"github.com/trawl-media/trawl/where"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	enabled bool
	rotator io.Closer
)

// Setup opens the rotating log file and configures format and level from the config.
func Setup() error {
	enabled = viper.GetBool(key.LogsWrite)
	if !enabled {
		return nil
	}

	dir := where.Logs()
	if dir == "" {
		return errors.New("log directory path is empty")
	}

	w := &lumberjack.Logger{
		Filename:   filepath.Join(dir, constant.Trawl+".log"),
		MaxSize:    max(viper.GetInt(key.LogsMaxSize), 1),
		MaxBackups: viper.GetInt(key.LogsMaxBackups),
		Compress:   true,
	}
	rotator = w
	logrus.SetOutput(w)

	if viper.GetBool(key.LogsJson) {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{DisableColors: true, FullTimestamp: true})
	}

	parsed, err := logrus.ParseLevel(viper.GetString(key.LogsLevel))
	if err != nil {
		parsed = logrus.InfoLevel
	}
	logrus.SetLevel(parsed)

	return nil
}

// SetOutput routes log entries to w regardless of logs.write. Used by tests.
func SetOutput(w io.Writer, level logrus.Level) {
	enabled = true
	logrus.SetOutput(w)
	logrus.SetLevel(level)
}

// Close flushes and releases the log file.
func Close() error {
	if rotator == nil {
		return nil
	}
	return rotator.Close()
}

// WithField starts a structured entry. The returned entry discards output while logging is disabled.
func WithField(k string, v any) *logrus.Entry {
	if !enabled {
		return logrus.NewEntry(discard)
	}
	return logrus.WithField(k, v)
}

// WithFields is the multi-field variant of WithField.
func WithFields(fields logrus.Fields) *logrus.Entry {
	if !enabled {
		return logrus.NewEntry(discard)
	}
	return logrus.WithFields(fields)
}

var discard = func() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}()

func Error(args ...any) {
	if enabled {
		logrus.Error(args...)
	}
}

func Errorf(format string, args ...any) {
	if enabled {
		logrus.Errorf(format, args...)
	}
}

func Warn(args ...any) {
	if enabled {
		logrus.Warn(args...)
	}
}

func Warnf(format string, args ...any) {
	if enabled {
		logrus.Warnf(format, args...)
	}
}

func Info(args ...any) {
	if enabled {
		logrus.Info(args...)
	}
}

func Infof(format string, args ...any) {
	if enabled {
		logrus.Infof(format, args...)
	}
}

func Debug(args ...any) {
	if enabled {
		logrus.Debug(args...)
	}
}

func Debugf(format string, args ...any) {
	if enabled {
		logrus.Debugf(format, args...)
	}
}
