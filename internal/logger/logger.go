package logger

import (
	"io"
	"os"
	"time"

	"github.com/natefinch/lumberjack"
	logrus "github.com/sirupsen/logrus"
	gormlogger "gorm.io/gorm/logger"
)

// Options selects where and how much the application logs.
type Options struct {
	File    string // rotated log file; empty disables file output
	Level   string
	Console bool // also write to stdout
}

// Setup configures the standard Logrus logger with a rotating file and
// returns it.
func Setup(opts Options) (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}

	var writers []io.Writer
	if opts.File != "" {
		writers = append(writers, &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    10, // megabytes
			MaxBackups: 7,
			MaxAge:     7, // days
			Compress:   true,
		})
	}
	if opts.Console || len(writers) == 0 {
		writers = append(writers, os.Stdout)
	}

	log := logrus.StandardLogger()
	log.SetOutput(io.MultiWriter(writers...))
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})
	log.SetLevel(level)
	return log, nil
}

// GormLogger routes GORM's SQL logging through Logrus. SQL statements are
// only traced at debug level.
func GormLogger(log *logrus.Logger) gormlogger.Interface {
	level := gormlogger.Warn
	if log.IsLevelEnabled(logrus.DebugLevel) {
		level = gormlogger.Info
	}
	return gormlogger.New(log, gormlogger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}
