package logrus_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	ulogrus "github.com/fwojciec/unspool/logrus"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlainFormatter(t *testing.T) {
	t.Parallel()

	ts := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	t.Run("component and sorted fields", func(t *testing.T) {
		t.Parallel()
		entry := &logrus.Entry{
			Logger:  logrus.New(),
			Time:    ts,
			Level:   logrus.DebugLevel,
			Message: "tokenized",
			Data: logrus.Fields{
				"component": "pipeline",
				"nodes":     3,
				"message":   "m1",
			},
		}
		out, err := ulogrus.PlainFormatter{}.Format(entry)
		require.NoError(t, err)
		assert.Equal(t, "[2025-01-02T03:04:05Z] [DEBUG] [pipeline] tokenized message=m1 nodes=3\n", string(out))
	})

	t.Run("no fields", func(t *testing.T) {
		t.Parallel()
		entry := &logrus.Entry{Logger: logrus.New(), Time: ts, Level: logrus.WarnLevel, Message: "hi"}
		out, err := ulogrus.PlainFormatter{}.Format(entry)
		require.NoError(t, err)
		assert.Equal(t, "[2025-01-02T03:04:05Z] [WARNING] hi\n", string(out))
	})
}

func TestNamed(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	l := ulogrus.New(&buf, logrus.InfoLevel)
	ulogrus.Named(l, "scroll").WithError(errors.New("boom")).Info("frozen")
	assert.Contains(t, buf.String(), "[INFO] [scroll] frozen error=boom")
}

func TestDiscard(t *testing.T) {
	t.Parallel()
	l := ulogrus.Discard()
	assert.False(t, l.IsLevelEnabled(logrus.ErrorLevel))
}

func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("appends to file", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "nested", "unspool.log")
		l, closer, err := ulogrus.Open(path, "debug")
		require.NoError(t, err)
		l.Debug("first")
		require.NoError(t, closer.Close())

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), "[DEBUG] first")
	})

	t.Run("empty path discards", func(t *testing.T) {
		t.Parallel()
		l, closer, err := ulogrus.Open("", "")
		require.NoError(t, err)
		assert.NoError(t, closer.Close())
		assert.False(t, l.IsLevelEnabled(logrus.InfoLevel))
	})

	t.Run("bad level", func(t *testing.T) {
		t.Parallel()
		_, _, err := ulogrus.Open(filepath.Join(t.TempDir(), "x.log"), "loud")
		assert.Error(t, err)
	})
}
