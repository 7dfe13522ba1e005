package utils

import (
	"io"
	"os"
	"path/filepath"
	"runtime/debug"
	"sync"

	"github.com/sirupsen/logrus"
)

type LogOptions struct {
	Level     string    // configured log level
	Verbosity int       // number of -v flags
	Out       io.Writer // log destination; nil means LogFile
	LogFile   string
}

var (
	setupOnce   sync.Once
	setupLogger *logrus.Logger
)

// Setup prepares the process and must run before any other component. Only
// the first call has an effect; later calls return the same logger, which
// writes warnings to stderr until ConfigureLogger is called.
func Setup() *logrus.Logger {
	setupOnce.Do(func() {
		if os.Getenv("GOTRACEBACK") == "" {
			debug.SetTraceback("all")
		}
		setupLogger = logrus.New()
		setupLogger.SetOutput(os.Stderr)
		setupLogger.SetLevel(logrus.WarnLevel)
		setupLogger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	})
	return setupLogger
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// ConfigureLogger applies the configured level and destination to logger.
// The returned closer releases the log file, if one was opened.
func ConfigureLogger(logger *logrus.Logger, opts LogOptions) (io.Closer, error) {
	level, err := Level(opts.Level, opts.Verbosity)
	if err != nil {
		return nil, err
	}

	if opts.Out != nil {
		logger.SetLevel(level)
		logger.SetOutput(opts.Out)
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		return nopCloser{}, nil
	}

	if err := os.MkdirAll(filepath.Dir(opts.LogFile), 0o700); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(opts.LogFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o600)
	if err != nil {
		return nil, err
	}
	logger.SetLevel(level)
	logger.SetOutput(f)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, DisableColors: true})
	return f, nil
}

// Level parses the configured level and raises it by verbosity: one -v
// means at least info, two or more mean debug.
func Level(configured string, verbosity int) (logrus.Level, error) {
	level := logrus.WarnLevel
	if configured != "" {
		var err error
		if level, err = logrus.ParseLevel(configured); err != nil {
			return level, err
		}
	}

	switch {
	case verbosity >= 2 && level < logrus.DebugLevel:
		level = logrus.DebugLevel
	case verbosity == 1 && level < logrus.InfoLevel:
		level = logrus.InfoLevel
	}
	return level, nil
}
