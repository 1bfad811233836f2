package api

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"landfolio/server/internal/derive"
	"landfolio/server/internal/store"
)

const sampleCSV = "id,display_name,primary_opportunity_status_label,custom.All_State,custom.All_County," +
	"custom.Asset_Cost_Basis,primary_opportunity_value,custom.Asset_Initial_Listing_Price,custom.All_Asset_Surveyed_Acres,custom.Asset_Date_Purchased,custom.Asset_Listing_Type\n" +
	"lead_1,Smith Ranch,Listed,TX,travis,100000,150000,180000,50,2024-03-15,Primary\n" +
	"lead_2,Back Forty,Purchased,OK,tulsa,80000,0,0,40,2024-01-10,Primary\n" +
	"lead_3,Smith Ranch Split,Listed,TX,travis,0,60000,0,10,,Secondary\n"

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := logrus.New()
	sessions := store.NewStore(time.Hour, time.Minute, logger)
	t.Cleanup(sessions.Close)

	handler := NewHandler(sessions, derive.NewEngine(logger), nil, 1<<20, logger)
	router := gin.New()
	SetupRoutes(router, handler)
	return router
}

func uploadCSV(t *testing.T, router *gin.Engine, csvData string) *httptest.ResponseRecorder {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", "export.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte(csvData))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/sessions", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func uploadSession(t *testing.T, router *gin.Engine) string {
	t.Helper()
	w := uploadCSV(t, router, sampleCSV)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		SessionID string `json:"session_id"`
		RowCount  int    `json:"row_count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, 3, resp.RowCount)
	return resp.SessionID
}

func get(router *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestUploadCSV(t *testing.T) {
	router := newTestRouter(t)

	w := uploadCSV(t, router, sampleCSV)
	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		SessionID       string   `json:"session_id"`
		RowCount        int      `json:"row_count"`
		AvailableFields []string `json:"available_fields"`
		MissingFields   []string `json:"missing_fields"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.SessionID)
	assert.Equal(t, 3, resp.RowCount)
	assert.Contains(t, resp.AvailableFields, "primary_opportunity_value")
	assert.Contains(t, resp.MissingFields, "custom.Asset_MLS_Listing_Date")
}

func TestUploadCSV_NoFile(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/sessions", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "No CSV file")
}

func TestUploadCSV_EmptyFile(t *testing.T) {
	router := newTestRouter(t)
	w := uploadCSV(t, router, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Error processing file")
}

func TestGetSummary(t *testing.T) {
	router := newTestRouter(t)
	id := uploadSession(t, router)

	w := get(router, "/api/sessions/"+id+"/summary")
	require.Equal(t, http.StatusOK, w.Code)

	var portfolio struct {
		Summary struct {
			Properties int `json:"properties"`
		} `json:"summary"`
		Statuses []struct {
			Status string `json:"status"`
		} `json:"statuses"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &portfolio))
	assert.Equal(t, 3, portfolio.Summary.Properties)
	require.Len(t, portfolio.Statuses, 2)
	assert.Equal(t, "Purchased", portfolio.Statuses[0].Status)
	assert.Equal(t, "Listed", portfolio.Statuses[1].Status)
}

func TestGetProperties_FilterAndSort(t *testing.T) {
	router := newTestRouter(t)
	id := uploadSession(t, router)

	w := get(router, "/api/sessions/"+id+"/properties")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Count      int `json:"count"`
		Properties []struct {
			ID     string `json:"id"`
			Status string `json:"status"`
			County string `json:"county"`
		} `json:"properties"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, 3, resp.Count)
	// Default sort: Purchased before Listed; county is normalized.
	assert.Equal(t, "lead_2", resp.Properties[0].ID)
	assert.Equal(t, "Travis", resp.Properties[1].County)

	w = get(router, "/api/sessions/"+id+"/properties?status=Listed&listing_type=Secondary")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, "lead_3", resp.Properties[0].ID)
}

func TestGetCharts(t *testing.T) {
	router := newTestRouter(t)
	id := uploadSession(t, router)

	w := get(router, "/api/sessions/"+id+"/charts/status")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Slices []struct {
			Label string `json:"label"`
			Count int    `json:"count"`
		} `json:"slices"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Slices, 2)
	assert.Equal(t, "Purchased", resp.Slices[0].Label)
	assert.Equal(t, 1, resp.Slices[0].Count)
	assert.Equal(t, "Listed", resp.Slices[1].Label)
	assert.Equal(t, 2, resp.Slices[1].Count)

	w = get(router, "/api/sessions/"+id+"/charts/state")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Slices, 2)
	assert.Equal(t, "TX", resp.Slices[0].Label)
	assert.Equal(t, 2, resp.Slices[0].Count)
}

func TestReportsDownload(t *testing.T) {
	router := newTestRouter(t)
	id := uploadSession(t, router)

	for _, path := range []string{
		"/api/sessions/" + id + "/reports/checklist",
		"/api/sessions/" + id + "/reports/inventory",
		"/api/sessions/" + id + "/reports/inventory?page_breaks=true&status=Listed",
	} {
		w := get(router, path)
		require.Equal(t, http.StatusOK, w.Code, path)
		assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
		assert.Contains(t, w.Header().Get("Content-Disposition"), ".pdf")
		assert.Equal(t, "%PDF", w.Body.String()[:4])
	}
}

func TestSessionNotFound(t *testing.T) {
	router := newTestRouter(t)

	w := get(router, "/api/sessions/5a0c4879-2783-4582-9a21-d12c860f42a1/summary")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = get(router, "/api/sessions/not-a-uuid/summary")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteSession(t *testing.T) {
	router := newTestRouter(t)
	id := uploadSession(t, router)

	req := httptest.NewRequest(http.MethodDelete, "/api/sessions/"+id, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = get(router, "/api/sessions/"+id+"/summary")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRefreshLeads_NotConfigured(t *testing.T) {
	router := newTestRouter(t)
	id := uploadSession(t, router)

	req := httptest.NewRequest(http.MethodPost, "/api/sessions/"+id+"/leads/refresh", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "not configured")
}
