package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"pacsbot/internal/models"
	"pacsbot/internal/repository"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.AutomationToggle{},
		&models.FetchStatus{},
		&models.PatientFetch{},
	))
	return db
}

func doRequest(t *testing.T, handler echo.HandlerFunc, method, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, "/", strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	require.NoError(t, handler(e.NewContext(req, rec)))
	return rec
}

func TestToggleGetDefaultsFalse(t *testing.T) {
	h := NewToggleHandler(repository.NewToggleRepository(testDB(t)), zap.NewNop())

	rec := doRequest(t, h.Get, http.MethodGet, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var payload map[string]bool
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	require.False(t, payload["isEnabled"])
}

func TestToggleSetAndGet(t *testing.T) {
	toggles := repository.NewToggleRepository(testDB(t))
	h := NewToggleHandler(toggles, zap.NewNop())

	rec := doRequest(t, h.Set, http.MethodPost, `{"isEnabled":true}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var created models.AutomationToggle
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.True(t, created.IsEnabled)

	rec = doRequest(t, h.Get, http.MethodGet, "")
	var payload map[string]bool
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	require.True(t, payload["isEnabled"])

	// Each write appends; nothing is updated in place.
	rec = doRequest(t, h.Set, http.MethodPost, `{"isEnabled":false}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.False(t, toggles.IsEnabled())
}

func TestStatusLatestEmptyReturnsErrorPayload(t *testing.T) {
	h := NewStatusHandler(repository.NewStatusRepository(testDB(t), zap.NewNop()), zap.NewNop())

	rec := doRequest(t, h.Latest, http.MethodPost, "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var payload struct {
		LastFetch    string `json:"lastFetch"`
		Status       string `json:"status"`
		Message      string `json:"message"`
		PatientCount int    `json:"patientCount"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	require.Equal(t, "", payload.LastFetch)
	require.Equal(t, "error", payload.Status)
	require.Equal(t, "Failed to read status", payload.Message)
	require.Equal(t, 0, payload.PatientCount)
}

func TestStatusLatestReturnsNewestRecord(t *testing.T) {
	statuses := repository.NewStatusRepository(testDB(t), zap.NewNop())
	h := NewStatusHandler(statuses, zap.NewNop())

	require.NoError(t, statuses.Append(models.StatusFetching, "Fetching patients...", 0))
	require.NoError(t, statuses.Append(models.StatusSuccess, "Successfully processed 2 patients", 2))

	rec := doRequest(t, h.Latest, http.MethodPost, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var payload models.FetchStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	require.Equal(t, models.StatusSuccess, payload.Status)
	require.Equal(t, 2, payload.PatientCount)
	require.False(t, payload.LastFetch.IsZero())
}
