// Package logrus configures file-backed logging for unspool. The terminal
// belongs to the UI, so log output always goes to a file or nowhere.
package logrus

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// ComponentField is the field that names the subsystem emitting an entry.
const ComponentField = "component"

// New returns a logger writing plain single-line entries to w.
func New(w io.Writer, level logrus.Level) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetFormatter(PlainFormatter{})
	l.SetLevel(level)
	return l
}

// Discard returns a logger that drops everything.
func Discard() *logrus.Logger {
	return New(io.Discard, logrus.PanicLevel)
}

// Open returns a logger appending to the file at path, creating parent
// directories as needed. An empty path yields a discarding logger. level is
// a logrus level name; empty means info.
func Open(path, level string) (*logrus.Logger, io.Closer, error) {
	if path == "" {
		return Discard(), io.NopCloser(nil), nil
	}
	lvl := logrus.InfoLevel
	if level != "" {
		var err error
		if lvl, err = logrus.ParseLevel(level); err != nil {
			return nil, nil, fmt.Errorf("log level %q: %w", level, err)
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return New(f, lvl), f, nil
}

// Named returns an entry tagged with component.
func Named(l logrus.FieldLogger, component string) logrus.FieldLogger {
	if component == "" {
		return l
	}
	return l.WithField(ComponentField, component)
}

// PlainFormatter renders "[timestamp] [LEVEL] [component] message k=v ...".
// Fields other than the component are sorted by key.
type PlainFormatter struct{}

// Format implements logrus.Formatter.
func (PlainFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] [%s]", entry.Time.UTC().Format(time.RFC3339Nano), strings.ToUpper(entry.Level.String()))
	if c, ok := entry.Data[ComponentField].(string); ok && c != "" {
		fmt.Fprintf(&b, " [%s]", c)
	}
	b.WriteByte(' ')
	b.WriteString(entry.Message)

	keys := make([]string, 0, len(entry.Data))
	for k := range entry.Data {
		if k != ComponentField {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, entry.Data[k])
	}
	b.WriteByte('\n')
	return []byte(b.String()), nil
}
