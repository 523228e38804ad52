package logger

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestInit(t *testing.T) {
	previous := Log
	t.Cleanup(func() { Log = previous })

	assert.Error(t, Init("verbose"))
	require.NoError(t, Init("warn"))
	assert.False(t, Log.Desugar().Core().Enabled(zapcore.InfoLevel))
	assert.True(t, Log.Desugar().Core().Enabled(zapcore.WarnLevel))
	assert.NoError(t, Sync())
}

func TestWithLoggingHTTPMiddleware(t *testing.T) {
	previous := Log
	t.Cleanup(func() { Log = previous })

	core, logs := observer.New(zapcore.InfoLevel)
	Log = zap.New(core).Sugar()

	testCases := []struct {
		name       string
		handler    http.HandlerFunc
		wantStatus int
	}{
		{
			name: "implicit 200",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte("hello"))
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "explicit status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusCreated)
			},
			wantStatus: http.StatusCreated,
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			request := httptest.NewRequest(http.MethodGet, "/health", nil)

			WithLoggingHTTPMiddleware(testCase.handler).ServeHTTP(recorder, request)

			entries := logs.TakeAll()
			require.Len(t, entries, 1)
			assert.Contains(t, entries[0].Message, "/health")
			assert.Contains(t, entries[0].Message, http.MethodGet)
			assert.Equal(t, testCase.wantStatus, recorder.Code)
		})
	}
}
