package ipchecker

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	_, err := New("10.0.0.1")
	assert.Error(t, err)

	checker, err := New("")
	require.NoError(t, err)
	assert.True(t, checker.IsTrustedSubnetEmpty())
}

func TestTrustedOnly(t *testing.T) {
	checker, err := New("192.168.1.0/24")
	require.NoError(t, err)

	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	testCases := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		wantStatus int
	}{
		{name: "remote addr inside", remoteAddr: "192.168.1.10:5000", wantStatus: http.StatusOK},
		{name: "remote addr outside", remoteAddr: "10.1.1.1:5000", wantStatus: http.StatusForbidden},
		{
			name:       "x-real-ip from trusted proxy",
			remoteAddr: "192.168.1.1:5000",
			headers:    map[string]string{"X-Real-IP": "192.168.1.77"},
			wantStatus: http.StatusOK,
		},
		{
			name:       "trusted proxy forwards outsider",
			remoteAddr: "192.168.1.1:5000",
			headers:    map[string]string{"X-Real-IP": "203.0.113.9"},
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "x-real-ip from untrusted peer is ignored",
			remoteAddr: "203.0.113.9:5000",
			headers:    map[string]string{"X-Real-IP": "192.168.1.77"},
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "x-forwarded-for from untrusted peer is ignored",
			remoteAddr: "203.0.113.9:5000",
			headers:    map[string]string{"X-Forwarded-For": "192.168.1.77"},
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "first forwarded address",
			remoteAddr: "192.168.1.10:5000",
			headers:    map[string]string{"X-Forwarded-For": "8.8.8.8, 192.168.1.10"},
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "garbage forwarded header",
			remoteAddr: "192.168.1.10:5000",
			headers:    map[string]string{"X-Forwarded-For": "nonsense"},
			wantStatus: http.StatusForbidden,
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			request := httptest.NewRequest(http.MethodGet, "/internal/stats", nil)
			request.RemoteAddr = testCase.remoteAddr
			for key, value := range testCase.headers {
				request.Header.Set(key, value)
			}
			recorder := httptest.NewRecorder()

			checker.TrustedOnly(ok).ServeHTTP(recorder, request)

			assert.Equal(t, testCase.wantStatus, recorder.Code)
		})
	}
}

func TestTrustedOnlyWithoutSubnet(t *testing.T) {
	checker, err := New("")
	require.NoError(t, err)

	request := httptest.NewRequest(http.MethodGet, "/internal/stats", nil)
	request.RemoteAddr = "127.0.0.1:5000"
	recorder := httptest.NewRecorder()
	checker.TrustedOnly(http.NotFoundHandler()).ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusForbidden, recorder.Code)
	assert.JSONEq(t, `{"errors":["Forbidden"]}`, recorder.Body.String())
}
