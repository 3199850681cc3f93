package errors

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/copyleftdev/hypercube/internal/logging"
)

func TestErrorString(t *testing.T) {
	err := Wrap(stderrors.New("disk full"), "saving result").
		WithOperation("save").
		WithComponent("store")
	assert.Equal(t, "saving result: operation=save, component=store: disk full", err.Error())
	assert.NotEmpty(t, err.StackTrace())
}

func TestWrapNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, "x"))
	assert.Nil(t, Wrapf(nil, "x %d", 1))
}

func TestIsAndAs(t *testing.T) {
	sentinel := stderrors.New("sentinel")
	err := fmt.Errorf("outer: %w", Wrap(sentinel, "inner"))

	assert.True(t, Is(err, sentinel))
	assert.False(t, Is(err, stderrors.New("sentinel")), "matching is by identity, not message")

	var target *Error
	require.True(t, As(err, &target))
	assert.Equal(t, "inner", target.Message)
	assert.Equal(t, sentinel, Unwrap(target))
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(stderrors.New("plain")))
	assert.Equal(t, http.StatusNotFound, HTTPStatus(NotFound("job %s", "x")))
	assert.Equal(t, http.StatusConflict, HTTPStatus(fmt.Errorf("wrapped: %w", Conflict("busy"))))
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(Wrap(BadRequest(stderrors.New("bad"), "decode"), "outer")),
		"wrapping keeps the inner status")
	assert.Equal(t, http.StatusServiceUnavailable, HTTPStatus(Unavailable("full")))
}

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSON(rec, NotFound("optimization %s not found", "abc"))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"optimization abc not found"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	WriteJSON(rec, stderrors.New("secret detail"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Internal Server Error"}`, rec.Body.String())
}

func TestRecoveryMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(logging.InfoLevel, &buf)

	h := RecoveryMiddleware(logger)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("kaboom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, buf.String(), "Recovered from panic")
	assert.Contains(t, buf.String(), "kaboom")
}

func TestErrorHandler(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(logging.InfoLevel, &buf)

	h := ErrorHandler(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			w.WriteHeader(http.StatusNotFound)
		}
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ok", nil))
	assert.Empty(t, buf.String())

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Contains(t, buf.String(), `"level":"WARN"`)
}
