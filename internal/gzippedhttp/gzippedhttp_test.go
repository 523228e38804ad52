package gzippedhttp

import (
	"bytes"
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gzipString(t *testing.T, input string) []byte {
	t.Helper()
	var buf bytes.Buffer
	gzipWriter := gzip.NewWriter(&buf)
	_, err := gzipWriter.Write([]byte(input))
	require.NoError(t, err)
	require.NoError(t, gzipWriter.Close())

	return buf.Bytes()
}

func jsonHandler(status int, body string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	})
}

func TestGzipResponse(t *testing.T) {
	testCases := []struct {
		name           string
		acceptEncoding string
		handler        http.Handler
		wantGzip       bool
		wantBody       string
	}{
		{
			name:           "json accepted",
			acceptEncoding: "gzip, deflate",
			handler:        jsonHandler(http.StatusOK, `{"status":"healthy"}`),
			wantGzip:       true,
			wantBody:       `{"status":"healthy"}`,
		},
		{
			name:     "client without gzip",
			handler:  jsonHandler(http.StatusOK, `{"status":"healthy"}`),
			wantBody: `{"status":"healthy"}`,
		},
		{
			name:           "error response stays plain",
			acceptEncoding: "gzip",
			handler:        jsonHandler(http.StatusNotFound, `{"errors":["Todo not found"]}`),
			wantBody:       `{"errors":["Todo not found"]}`,
		},
		{
			name:           "plain text stays plain",
			acceptEncoding: "gzip",
			handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "text/plain")
				_, _ = w.Write([]byte("pong"))
			}),
			wantBody: "pong",
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			request := httptest.NewRequest(http.MethodGet, "/", nil)
			if testCase.acceptEncoding != "" {
				request.Header.Set("Accept-Encoding", testCase.acceptEncoding)
			}
			recorder := httptest.NewRecorder()

			GzipResponse(testCase.handler).ServeHTTP(recorder, request)

			body := recorder.Body.Bytes()
			if testCase.wantGzip {
				assert.Equal(t, "gzip", recorder.Header().Get("Content-Encoding"))
				reader, err := gzip.NewReader(bytes.NewReader(body))
				require.NoError(t, err)
				body, err = io.ReadAll(reader)
				require.NoError(t, err)
			} else {
				assert.Empty(t, recorder.Header().Get("Content-Encoding"))
			}
			assert.Equal(t, testCase.wantBody, string(body))
		})
	}
}

func TestUngzipRequest(t *testing.T) {
	echo := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		_, _ = w.Write(body)
	})

	request := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(gzipString(t, `{"title":"x"}`)))
	request.Header.Set("Content-Encoding", "gzip")
	recorder := httptest.NewRecorder()
	UngzipRequest(echo).ServeHTTP(recorder, request)
	assert.Equal(t, `{"title":"x"}`, recorder.Body.String())

	request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader("not gzip"))
	request.Header.Set("Content-Encoding", "gzip")
	recorder = httptest.NewRecorder()
	UngzipRequest(echo).ServeHTTP(recorder, request)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.JSONEq(t, `{"errors":["Malformed gzip body"]}`, recorder.Body.String())
}
