package logging_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jrsteele09/mealplan-server/internal/logging"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func chain(h http.Handler, mw []func(http.Handler) http.Handler) http.Handler {
	for i := len(mw) - 1; i >= 0; i-- {
		h = mw[i](h)
	}
	return h
}

func TestNewJSONOutsideDev(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New("PROD", &buf)
	logger.Debug().Msg("hidden")
	logger.Info().Msg("shown")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	var line map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &line))
	require.Equal(t, "shown", line["message"])
}

func TestNewConsoleInDev(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New("dev", &buf)
	logger.Debug().Msg("visible")
	require.Contains(t, buf.String(), "visible")
	require.False(t, json.Valid(buf.Bytes()))
}

func TestMiddlewareAddsRequestAndTraceIDs(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	h := chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hlog.FromRequest(r).Info().Msg("inside")
		w.WriteHeader(http.StatusTeapot)
	}), logging.Middleware(logger))

	traceID, _ := trace.TraceIDFromHex("0102030405060708090a0b0c0d0e0f10")
	spanID, _ := trace.SpanIDFromHex("0102030405060708")
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID, TraceFlags: trace.FlagsSampled})

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req = req.WithContext(trace.ContextWithSpanContext(req.Context(), sc))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.NotEmpty(t, rec.Header().Get("X-Request-Id"))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	for _, l := range lines {
		var line map[string]any
		require.NoError(t, json.Unmarshal([]byte(l), &line))
		require.Equal(t, traceID.String(), line["trace_id"])
		require.NotEmpty(t, line["req_id"])
	}
	require.Contains(t, lines[1], `"status":418`)
}
