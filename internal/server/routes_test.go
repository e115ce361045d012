package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orp-io/orp/pkg/version"
)

func TestHandleVersion(t *testing.T) {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	server := New(testConfig(), logger, nil)

	req, err := http.NewRequest("GET", "/version", nil)
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(server.handleVersion)
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var versionInfo version.Info
	err = json.Unmarshal(rr.Body.Bytes(), &versionInfo)
	require.NoError(t, err)
	assert.NotEmpty(t, versionInfo.Version)
	assert.NotEmpty(t, versionInfo.GoVersion)
}

func TestHandleIndex(t *testing.T) {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	server := New(testConfig(), logger, nil)

	req, err := http.NewRequest("GET", "/", nil)
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(server.handleIndex)
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var response struct {
		Service   string   `json:"service"`
		Endpoints []string `json:"endpoints"`
	}
	err = json.Unmarshal(rr.Body.Bytes(), &response)
	require.NoError(t, err)
	assert.Equal(t, "orp", response.Service)
	assert.Contains(t, response.Endpoints, "/healthz")
	assert.Contains(t, response.Endpoints, "/api/v1/session")
}

func TestHandleSessionPlaceholder(t *testing.T) {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	server := New(testConfig(), logger, nil)

	req, err := http.NewRequest("GET", "/api/v1/session", nil)
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(server.handleSessionPlaceholder)
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var response map[string]string
	err = json.Unmarshal(rr.Body.Bytes(), &response)
	require.NoError(t, err)
	assert.Equal(t, "Session endpoint requires an active client session", response["message"])
}

func TestWriteJSON(t *testing.T) {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	server := New(testConfig(), logger, nil)

	rr := httptest.NewRecorder()
	testData := map[string]string{
		"key": "value",
	}

	err := server.writeJSON(rr, http.StatusCreated, testData)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var result map[string]string
	err = json.Unmarshal(rr.Body.Bytes(), &result)
	require.NoError(t, err)
	assert.Equal(t, testData, result)
}
