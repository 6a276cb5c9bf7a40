package settings

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	h := NewHandler(NewMemoryStore())
	r := gin.New()
	h.RegisterRoutes(r.Group("/v1/settings"))
	return r
}

func TestGetSettings(t *testing.T) {
	r := setupRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/v1/settings", nil))

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Settings Settings `json:"settings"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 85, resp.Settings.AutoDeclineThreshold)
	assert.Equal(t, "daily", resp.Settings.ModelUpdateFrequency)
}

func TestPutSettings(t *testing.T) {
	r := setupRouter(t)

	s := Defaults()
	s.AutoDeclineThreshold = 95
	s.SensitivityLevel = "high"
	body, _ := json.Marshal(s)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("PUT", "/v1/settings", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	// Read back
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/v1/settings", nil))

	var resp struct {
		Settings Settings `json:"settings"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 95, resp.Settings.AutoDeclineThreshold)
	assert.Equal(t, "high", resp.Settings.SensitivityLevel)
}

func TestPutSettingsRejectsInvalid(t *testing.T) {
	r := setupRouter(t)

	s := Defaults()
	s.AutoFlagThreshold = 99
	s.AutoDeclineThreshold = 50
	body, _ := json.Marshal(s)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("PUT", "/v1/settings", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid_settings")
}

func TestRetrainAccepted(t *testing.T) {
	r := setupRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("POST", "/v1/settings/retrain", nil))

	assert.Equal(t, http.StatusAccepted, w.Code)
}
