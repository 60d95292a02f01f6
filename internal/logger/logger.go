// Package logger wraps logrus with a request-scoped correlation id.  Every
// entry written through the context helpers carries the id stored by the
// correlation middleware, so the lines of one request can be grepped
// together.
package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"
)

// CorrelationID is the log field (and response header value key) used for
// the request correlation id.
const CorrelationID = "correlation_id"

type ctxKey struct{}

var (
	log     = logrus.New()
	newline = regexp.MustCompile(`(\r\n)|(\n)`)
)

func init() {
	log.SetOutput(os.Stdout)
}

// Configure sets level ("debug", "info", ...) and format ("json" or
// "text").  Unknown levels fall back to info.
func Configure(level, format string) {
	lvl, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)
	if strings.EqualFold(format, "json") {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
}

// SetOutput redirects all log output; tests use it to capture entries.
func SetOutput(w io.Writer) { log.SetOutput(w) }

// WithCorrelationID returns a copy of ctx carrying id.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// CorrelationIDFrom returns the id stored in ctx, or "".
func CorrelationIDFrom(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(ctxKey{}).(string); ok {
		return id
	}
	return ""
}

// Entry returns a logrus entry pre-populated with the correlation id of ctx.
func Entry(ctx context.Context) *logrus.Entry {
	return log.WithField(CorrelationID, CorrelationIDFrom(ctx))
}

func Debugf(ctx context.Context, format string, args ...interface{}) {
	Entry(ctx).Debug(escape(format, args...))
}

func Infof(ctx context.Context, format string, args ...interface{}) {
	Entry(ctx).Infof(format, args...)
}

func Warnf(ctx context.Context, format string, args ...interface{}) {
	Entry(ctx).Warnf(format, args...)
}

// Errorf logs at error level with newlines escaped so a wrapped driver
// error stays on one line.
func Errorf(ctx context.Context, format string, args ...interface{}) {
	Entry(ctx).Error(escape(format, args...))
}

func Fatalf(ctx context.Context, format string, args ...interface{}) {
	Entry(ctx).Fatalf(format, args...)
}

func escape(format string, args ...interface{}) string {
	return newline.ReplaceAllString(fmt.Sprintf(format, args...), "\\n ")
}
