package logger

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"dankrank/pkg/config"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.LoggingConfig
		wantErr bool
	}{
		{"info level", &config.LoggingConfig{Level: "info"}, false},
		{"debug level", &config.LoggingConfig{Level: "debug"}, false},
		{"invalid level", &config.LoggingConfig{Level: "invalid"}, true},
		{"file output", &config.LoggingConfig{Level: "info", File: filepath.Join(t.TempDir(), "logs", "dankrank.log")}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && l == nil {
				t.Error("New() returned nil logger")
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected zerolog.Level
		wantErr  bool
	}{
		{"debug", zerolog.DebugLevel, false},
		{"DEBUG", zerolog.DebugLevel, false},
		{"info", zerolog.InfoLevel, false},
		{"warn", zerolog.WarnLevel, false},
		{"warning", zerolog.WarnLevel, false},
		{"error", zerolog.ErrorLevel, false},
		{"disabled", zerolog.Disabled, false},
		{"invalid", zerolog.InfoLevel, true},
		{"", zerolog.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			level, err := parseLogLevel(tt.level)
			if (err != nil) != tt.wantErr {
				t.Errorf("parseLogLevel() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			assert.Equal(t, tt.expected, level)
		})
	}
}

func newBufferLogger(t *testing.T, level string) (Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	l, err := NewWithWriter(&buf, level)
	require.NoError(t, err)
	return l, &buf
}

func TestLevelFiltering(t *testing.T) {
	l, buf := newBufferLogger(t, "warn")

	l.Debug("debug message")
	l.Info("info message")
	l.Warn("warn message")
	l.Error("error message")

	out := buf.String()
	assert.NotContains(t, out, "debug message")
	assert.NotContains(t, out, "info message")
	assert.Contains(t, out, "warn message")
	assert.Contains(t, out, "error message")
}

func TestFieldChaining(t *testing.T) {
	l, buf := newBufferLogger(t, "debug")

	l.WithField("account", "dankmemes").
		WithFields(map[string]interface{}{
			"page":  2,
			"score": 0.125,
			"more":  true,
		}).
		Info("chained fields")

	out := buf.String()
	assert.Contains(t, out, "chained fields")
	assert.Contains(t, out, `"account":"dankmemes"`)
	assert.Contains(t, out, `"page":2`)
	assert.Contains(t, out, `"score":0.125`)
	assert.Contains(t, out, `"more":true`)
}

func TestDerivedLoggerDoesNotLeakFields(t *testing.T) {
	l, buf := newBufferLogger(t, "debug")

	_ = l.WithField("account", "first")
	l.Info("parent message")

	assert.NotContains(t, buf.String(), "first")
}

func TestWithError(t *testing.T) {
	l, buf := newBufferLogger(t, "debug")

	assert.Same(t, l, l.WithError(nil))

	l.WithError(errors.New("connection reset")).Error("fetch failed")
	out := buf.String()
	assert.Contains(t, out, "fetch failed")
	assert.Contains(t, out, "connection reset")
}

func TestStructuredFieldTypes(t *testing.T) {
	l, buf := newBufferLogger(t, "debug")

	l.InfoWithFields("typed fields", map[string]interface{}{
		"string":   "test",
		"int64":    int64(456),
		"time":     time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		"duration": 5 * time.Second,
		"strings":  []string{"a", "b"},
		"custom":   struct{ Name string }{Name: "test"},
	})

	out := buf.String()
	assert.Contains(t, out, `"int64":456`)
	assert.Contains(t, out, `"strings":["a","b"]`)
	assert.Contains(t, out, `"Name":"test"`)
}

func TestGlobalLogger(t *testing.T) {
	require.NoError(t, Initialize(&config.LoggingConfig{Level: "error"}))

	assert.NotNil(t, GetLogger())
	assert.Same(t, GetLogger(), OrDefault(nil))

	nop := NewNopLogger()
	assert.Same(t, nop, OrDefault(nop))

	Info("info message")
	WithField("key", "value").Info("with field")
	WithError(errors.New("boom")).Error("with error")
}

func TestHelpersWriteThroughInjectedLogger(t *testing.T) {
	tl := NewTestLogger()

	LogPage(tl, "dankmemes", 1, 12, true)
	LogDownload(tl, "42", "https://cdn.example.com/a.jpg", "downloaded", 2048, nil)
	LogDownload(tl, "43", "https://cdn.example.com/b.jpg", "failed", 0, errors.New("timeout"))
	LogRateLimit(tl, "media", 2*time.Second)
	LogRequest(tl, "GET", "https://example.com", 503, time.Millisecond)

	msg, ok := tl.FindMessage("Fetched feed page")
	require.True(t, ok)
	assert.Equal(t, "dankmemes", msg.Fields["account"])
	assert.Equal(t, 12, msg.Fields["items"])

	done, ok := tl.FindMessage("Download completed")
	require.True(t, ok)
	assert.Equal(t, int64(2048), done.Fields["bytes"])

	failed := tl.GetMessagesByLevel("ERROR")
	require.Len(t, failed, 2)
	assert.EqualError(t, failed[0].Error, "timeout")
	assert.Equal(t, "43", failed[0].Fields["item_id"])

	assert.True(t, tl.HasMessage("Rate limit reached, backing off"))
}

func TestTestLoggerSharesCapture(t *testing.T) {
	tl := NewTestLogger()

	child := tl.WithField("account", "a").WithError(errors.New("gone"))
	child.Warn("account skipped")
	tl.Info("run finished")

	msgs := tl.GetMessages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "WARN", msgs[0].Level)
	assert.Equal(t, "a", msgs[0].Fields["account"])
	assert.EqualError(t, msgs[0].Error, "gone")
	assert.True(t, strings.Contains(tl.String(), "account=a"))

	tl.Clear()
	assert.Empty(t, tl.GetMessages())
	assert.False(t, tl.HasError())
}
