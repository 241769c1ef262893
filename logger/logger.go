// Package logger configures the process-wide structured logger used by the
// safety-rules engine and its tooling: logrus with a text or JSON formatter,
// a numeric verbosity knob, and an optional Sentry hook for error reporting.
package logger

import (
	"fmt"
	"time"

	"github.com/evalphobia/logrus_sentry"
	"github.com/sirupsen/logrus"
)

// verbosity levels follow the usual CLI convention:
// 0=fatal, 1=error, 2=warn, 3=info, 4=debug, 5=trace.
var levels = []logrus.Level{
	logrus.FatalLevel,
	logrus.ErrorLevel,
	logrus.WarnLevel,
	logrus.InfoLevel,
	logrus.DebugLevel,
	logrus.TraceLevel,
}

// New creates a configured logrus logger.
func New(verbosity int, format string, colored bool) (*logrus.Logger, error) {
	log := logrus.New()

	if verbosity < 0 {
		verbosity = 0
	}
	if verbosity >= len(levels) {
		verbosity = len(levels) - 1
	}
	log.SetLevel(levels[verbosity])

	switch format {
	case "", "text":
		log.SetFormatter(&logrus.TextFormatter{
			ForceColors:     colored,
			FullTimestamp:   true,
			TimestampFormat: time.RFC3339,
		})
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339,
		})
	default:
		return nil, fmt.Errorf("unknown log format %q (text|json)", format)
	}
	return log, nil
}

// AddSentryHook forwards error-and-above log lines to Sentry. The hook is
// asynchronous so logging never blocks on the network.
func AddSentryHook(log *logrus.Logger, dsn string) error {
	hook, err := logrus_sentry.NewAsyncSentryHook(dsn, []logrus.Level{
		logrus.PanicLevel,
		logrus.FatalLevel,
		logrus.ErrorLevel,
	})
	if err != nil {
		return fmt.Errorf("sentry hook: %w", err)
	}
	hook.Timeout = 3 * time.Second
	log.AddHook(hook)
	return nil
}
