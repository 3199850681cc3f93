package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var entries []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &entry), line)
		entries = append(entries, entry)
	}
	return entries
}

func TestLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := New(WarnLevel, &buf)

	logger.Debug("hidden")
	logger.Info("hidden")
	logger.Warn("shown", map[string]interface{}{"k": 1})
	logger.Error("shown too")

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 2)
	assert.Equal(t, "WARN", entries[0]["level"])
	assert.Equal(t, "shown", entries[0]["message"])
	assert.Equal(t, 1.0, entries[0]["k"])
	assert.Equal(t, "ERROR", entries[1]["level"])
}

func TestLoggerFields(t *testing.T) {
	var buf bytes.Buffer
	base := New(DebugLevel, &buf).WithField("service", "hypercube")
	child := base.WithError(errors.New("boom")).WithFields(map[string]interface{}{"job": "abc"})

	child.Info("with fields")
	base.Info("without child fields")

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 2)
	assert.Equal(t, "hypercube", entries[0]["service"])
	assert.Equal(t, "boom", entries[0]["error"])
	assert.Equal(t, "abc", entries[0]["job"])
	assert.NotContains(t, entries[1], "job")
	assert.Same(t, base, base.WithError(nil))
}

func TestTextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(&Config{Level: "debug", Format: "text", Output: "stdout"})
	require.NoError(t, err)
	logger.output = &buf

	logger.WithFields(map[string]interface{}{"b": 2, "a": 1}).Info("hello")

	line := buf.String()
	assert.Contains(t, line, "INFO  hello a=1 b=2 caller=")
	assert.True(t, strings.HasSuffix(line, "\n"))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DebugLevel, parseLevel("debug"))
	assert.Equal(t, WarnLevel, parseLevel("WARN"))
	assert.Equal(t, InfoLevel, parseLevel("bogus"))
}

func TestZapAdapter(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZapLogger(New(InfoLevel, &buf)).With(zap.String("component", "optimizer"))

	logger.Debug("dropped")
	logger.Info("iteration",
		zap.Int("iteration", 3),
		zap.Float64("best_value", -1.5),
		zap.Bool("skipped", true),
		zap.Error(errors.New("boom")),
	)

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	e := entries[0]
	assert.Equal(t, "iteration", e["message"])
	assert.Equal(t, "optimizer", e["component"])
	assert.Equal(t, 3.0, e["iteration"])
	assert.Equal(t, -1.5, e["best_value"])
	assert.Equal(t, true, e["skipped"])
	assert.Equal(t, "boom", e["error"])
	assert.Contains(t, e["caller"], "logging/logger_test.go")
}

func TestMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := New(InfoLevel, &buf)

	r := chi.NewRouter()
	r.Use(Middleware(logger, "/healthz"))
	r.Get("/items/{id}", func(w http.ResponseWriter, r *http.Request) {
		FromContext(r.Context()).Info("inside handler")
		w.WriteHeader(http.StatusNotFound)
	})
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/items/7", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 2, "the health check is logged at debug level")

	assert.Equal(t, "inside handler", entries[0]["message"])
	assert.Equal(t, "/items/7", entries[0]["path"])

	done := entries[1]
	assert.Equal(t, "Request completed", done["message"])
	assert.Equal(t, 404.0, done["status"])
	assert.Equal(t, "/items/{id}", done["route"])
	assert.Equal(t, "Not Found", done["error"])
}
