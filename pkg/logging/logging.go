// Package logging builds the loggers used by the command line: a timestamped
// console logger for people and a JSON logger for machines. Both tag every
// entry with the run id.
package logging

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the printf-style logger accepted by the exporter.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// Format selects the log encoding.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// ParseFormat accepts "text" (or "console") and "json". Empty means text.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "console":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("unknown log format %q (must be text or json)", s)
}

// New returns the logger for format. Debug entries are only written when verbose is set.
func New(format Format, w io.Writer, verbose bool, runID string) Logger {
	if format == FormatJSON {
		return NewJSON(w, verbose, runID)
	}
	return NewConsole(w, verbose, runID)
}

// NewConsole returns a charm logger with "HH:MM:SS.ms" timestamps.
func NewConsole(w io.Writer, verbose bool, runID string) *log.Logger {
	level := log.InfoLevel
	if verbose {
		level = log.DebugLevel
	}
	l := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
	if runID != "" {
		l = l.With("run_id", runID)
	}
	return l
}

// JSON writes one JSON object per entry.
type JSON struct {
	sugar *zap.SugaredLogger
}

// NewJSON returns a zap-backed logger using timestamp, level and message keys.
func NewJSON(w io.Writer, verbose bool, runID string) *JSON {
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:     "timestamp",
		LevelKey:    "level",
		MessageKey:  "message",
		EncodeTime:  zapcore.RFC3339NanoTimeEncoder,
		EncodeLevel: zapcore.LowercaseLevelEncoder,
	}
	level := zapcore.InfoLevel
	if verbose {
		level = zapcore.DebugLevel
	}
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), zapcore.AddSync(w), level)

	z := zap.New(core)
	if runID != "" {
		z = z.With(zap.String("run_id", runID))
	}
	return &JSON{sugar: z.Sugar()}
}

func (j *JSON) Debugf(template string, args ...any) { j.sugar.Debugf(template, args...) }
func (j *JSON) Infof(template string, args ...any)  { j.sugar.Infof(template, args...) }
func (j *JSON) Warnf(template string, args ...any)  { j.sugar.Warnf(template, args...) }
func (j *JSON) Errorf(template string, args ...any) { j.sugar.Errorf(template, args...) }

// Sync flushes buffered entries.
func (j *JSON) Sync() error { return j.sugar.Sync() }
