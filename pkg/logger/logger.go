// Package logger provides the context-aware logrus logger shared by the
// generator and the CLI.
package logger

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Supported log formats
const (
	FormatText = "text"
	FormatJSON = "json"
)

var (
	// G returns the logger attached to a context
	G = GetLogger
	// L is the fallback logger used when a context carries none
	L = logrus.NewEntry(newLogger())
)

type loggerKey struct{}

// WithLogger attaches a logger entry to ctx
func WithLogger(ctx context.Context, entry *logrus.Entry) context.Context {
	return context.WithValue(ctx, loggerKey{}, entry.WithContext(ctx))
}

// WithField returns ctx with a logger carrying one more field
func WithField(ctx context.Context, key string, value any) context.Context {
	return WithLogger(ctx, GetLogger(ctx).WithField(key, value))
}

// GetLogger retrieves the logger entry from ctx, or L when there is none
func GetLogger(ctx context.Context) *logrus.Entry {
	if entry, ok := ctx.Value(loggerKey{}).(*logrus.Entry); ok {
		return entry
	}
	return L.WithContext(ctx)
}

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(logrus.InfoLevel)
	l.Formatter = formatter(FormatText)
	return l
}

func formatter(format string) logrus.Formatter {
	if format == FormatJSON {
		return &logrus.JSONFormatter{
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
			},
			TimestampFormat: time.RFC3339Nano,
		}
	}
	return &logrus.TextFormatter{
		TimestampFormat: time.RFC3339,
		FullTimestamp:   true,
	}
}

// SetLogLevel sets the level of the global logger
func SetLogLevel(level string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return errors.Wrapf(err, "invalid log level %q", level)
	}
	L.Logger.SetLevel(lvl)
	return nil
}

// SetLogFormat selects text or json output for the global logger
func SetLogFormat(format string) error {
	switch format {
	case FormatText, "fmt", "":
		L.Logger.Formatter = formatter(FormatText)
	case FormatJSON:
		L.Logger.Formatter = formatter(FormatJSON)
	default:
		return errors.Errorf("invalid log format %q (expected text or json)", format)
	}
	return nil
}

// SetLogOutput sets the destination of the global logger
func SetLogOutput(w io.Writer) {
	L.Logger.SetOutput(w)
}
