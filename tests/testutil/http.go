package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/erp/taxsvc/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Envelope is the response wrapper with the payload kept raw
type Envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *dto.ErrorInfo  `json:"error"`
}

// Request sends a JSON request to handler. A nil body sends none.
func Request(t *testing.T, handler http.Handler, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err, "Failed to marshal request body")
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

// DecodeEnvelope parses the response wrapper
func DecodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) Envelope {
	t.Helper()
	var env Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), "Failed to parse response: %s", rec.Body.String())
	return env
}

// DecodeData asserts a success response and parses its payload into T
func DecodeData[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	env := DecodeEnvelope(t, rec)
	require.True(t, env.Success, "Expected success response, got %s", rec.Body.String())

	var data T
	require.NoError(t, json.Unmarshal(env.Data, &data), "Failed to parse data")
	return data
}

// AssertError asserts an error response with the given status and code
func AssertError(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) *dto.ErrorInfo {
	t.Helper()
	assert.Equal(t, status, rec.Code, "Unexpected status, body: %s", rec.Body.String())

	env := DecodeEnvelope(t, rec)
	assert.False(t, env.Success)
	require.NotNil(t, env.Error, "Expected error object in response")
	assert.Equal(t, code, env.Error.Code)
	return env.Error
}
