package logger

import (
	"io"
	"os"
	"path/filepath"

	"github.com/shirenchuang/pcli2-mcp/pkg/config"
	"github.com/sirupsen/logrus"
)

var log *logrus.Logger

// Init sets up the global logger from config
func Init(cfg *config.Config) error {
	log = logrus.New()

	SetLevel(cfg.Logging.Level)

	if cfg.Logging.Format == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	output := cfg.GetResolvedLogOutput()
	if output != "" {
		if err := os.MkdirAll(filepath.Dir(output), 0755); err != nil {
			return err
		}

		file, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return err
		}

		// stdout and file
		log.SetOutput(io.MultiWriter(os.Stdout, file))
	}

	return nil
}

// SetLevel changes the level; unknown names fall back to info
func SetLevel(name string) {
	level, err := logrus.ParseLevel(name)
	if err != nil {
		level = logrus.InfoLevel
	}
	GetLogger().SetLevel(level)
}

// GetLogger returns the logger instance
func GetLogger() *logrus.Logger {
	if log == nil {
		log = logrus.New()
	}
	return log
}

// WithFields returns an entry carrying structured fields
func WithFields(fields logrus.Fields) *logrus.Entry {
	return GetLogger().WithFields(fields)
}

// Info logs at info level
func Info(args ...interface{}) {
	GetLogger().Info(args...)
}

// Infof logs a formatted message at info level
func Infof(format string, args ...interface{}) {
	GetLogger().Infof(format, args...)
}

// Error logs at error level
func Error(args ...interface{}) {
	GetLogger().Error(args...)
}

// Errorf logs a formatted message at error level
func Errorf(format string, args ...interface{}) {
	GetLogger().Errorf(format, args...)
}

// Debug logs at debug level
func Debug(args ...interface{}) {
	GetLogger().Debug(args...)
}

// Debugf logs a formatted message at debug level
func Debugf(format string, args ...interface{}) {
	GetLogger().Debugf(format, args...)
}

// Warn logs at warn level
func Warn(args ...interface{}) {
	GetLogger().Warn(args...)
}

// Warnf logs a formatted message at warn level
func Warnf(format string, args ...interface{}) {
	GetLogger().Warnf(format, args...)
}
