package http

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestExtractClientIP(t *testing.T) {
	tests := []struct {
		name       string
		xff        string
		realIP     string
		remoteAddr string
		expected   string
	}{
		{name: "single forwarded IP", xff: "192.168.1.1", expected: "192.168.1.1"},
		{name: "multiple forwarded IPs (take first)", xff: "203.0.113.1, 198.51.100.1", expected: "203.0.113.1"},
		{name: "forwarded IPs with extra spaces", xff: "203.0.113.1  ,  198.51.100.1", expected: "203.0.113.1"},
		{name: "forwarded takes preference", xff: "203.0.113.1", realIP: "192.168.1.100", expected: "203.0.113.1"},
		{name: "real IP", realIP: "192.168.1.100", expected: "192.168.1.100"},
		{name: "IPv4 with port", remoteAddr: "192.168.1.1:54321", expected: "192.168.1.1"},
		{name: "IPv6 with port", remoteAddr: "[::1]:54321", expected: "::1"},
		{name: "no port", remoteAddr: "192.168.1.1", expected: "192.168.1.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.realIP != "" {
				r.Header.Set("X-Real-IP", tt.realIP)
			}
			if tt.remoteAddr != "" {
				r.RemoteAddr = tt.remoteAddr
			}

			require.Equal(t, tt.expected, ExtractClientIP(r))
		})
	}
}

func TestRequestLogger(t *testing.T) {
	buf := new(bytes.Buffer)
	logger := zerolog.New(buf).Level(zerolog.DebugLevel)

	handler := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NotEqual(t, zerolog.Disabled, zerolog.Ctx(r.Context()).GetLevel())
		w.WriteHeader(http.StatusTeapot)
	}))

	r := httptest.NewRequest(http.MethodGet, "/missing", nil)
	r.RemoteAddr = "10.0.0.1:1234"
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	require.Equal(t, http.StatusTeapot, w.Code)
	require.Contains(t, buf.String(), `"status":418`)
	require.Contains(t, buf.String(), `"path":"/missing"`)
	require.Contains(t, buf.String(), `"client_ip":"10.0.0.1"`)
}

func TestStatusRecorder_Flush(t *testing.T) {
	w := httptest.NewRecorder()
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

	require.NoError(t, http.NewResponseController(rec).Flush())
	require.True(t, w.Flushed)
}
