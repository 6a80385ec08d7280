package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"surgly/internal/domain"
	"surgly/internal/extractor"
	"surgly/internal/infrastructure"
	"surgly/internal/usecase"
	"surgly/pkg/logger"
	"surgly/pkg/metrics"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

type stubInsights map[string]domain.CampaignInsights

func (s stubInsights) FetchCampaignInsights(ctx context.Context, campaignID string) (*domain.CampaignInsights, error) {
	if campaignID == "slow" {
		return nil, fmt.Errorf("failed to fetch insights: %w", context.DeadlineExceeded)
	}
	row, ok := s[campaignID]
	if !ok {
		return nil, domain.ErrCampaignNotFound
	}
	row.CampaignID = campaignID
	return &row, nil
}

func setupRouter(t *testing.T, allowedAddrs ...string) *gin.Engine {
	t.Helper()

	log := logger.Discard()
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)

	insights := stubInsights{
		"good": {CampaignName: "Evergreen", CTR: "3.5", CPC: "0.4", Clicks: "900", PurchaseROAS: []domain.ActionValue{{Value: "5"}}},
	}
	fetcher := infrastructure.NewPageFetcher(5*time.Second, 0, "test-agent", rate.NewLimiter(rate.Inf, 1), log, m,
		infrastructure.AllowAddresses(allowedAddrs...))

	diagnosisService := usecase.NewDiagnosisService(infrastructure.NewDiagnosisRepository(log), insights, log, m, 2)
	landingPageService := usecase.NewLandingPageService(fetcher, extractor.New(), log, m)

	handlers := NewHTTPHandlers(diagnosisService, landingPageService, log, m)
	return NewHTTPRouter(handlers, log, m, reg, 5*time.Second, []string{"*"}).SetupRoutes()
}

func doJSON(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

type recordEnvelope struct {
	Data      domain.DiagnosisRecord `json:"data"`
	RequestID string                 `json:"request_id"`
}

func TestDiagnoseAcceptsStringsAndNumbers(t *testing.T) {
	router := setupRouter(t)

	tests := []struct {
		name  string
		body  string
		score int
	}{
		{"strings", `{"ctr":"0.5","cpc":"3","roas":"1","clicks":"10"}`, 15},
		{"numbers", `{"ctr":5,"cpc":0.3,"roas":6,"clicks":1000}`, 100},
		{"garbage and nulls", `{"ctr":"abc","cpc":null,"roas":true}`, 40},
		{"empty object", `{}`, 40},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(router, http.MethodPost, "/api/v1/diagnose", tt.body)
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())

			var resp recordEnvelope
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.score, resp.Data.Diagnosis.HealthScore)
			assert.NotEmpty(t, resp.Data.ID)
			assert.Equal(t, w.Header().Get("X-Request-ID"), resp.RequestID)
		})
	}
}

func TestDiagnoseRejectsMalformedJSON(t *testing.T) {
	router := setupRouter(t)

	w := doJSON(router, http.MethodPost, "/api/v1/diagnose", `{"ctr":`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid request body")
}

func TestRequestIDIsEchoed(t *testing.T) {
	router := setupRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "req-123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "req-123", w.Header().Get("X-Request-ID"))
	assert.Contains(t, w.Body.String(), `"request_id":"req-123"`)
}

func TestDiagnoseCampaignEndpoint(t *testing.T) {
	router := setupRouter(t)

	w := doJSON(router, http.MethodGet, "/api/v1/campaigns/good/diagnosis", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp recordEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "good", resp.Data.CampaignID)
	assert.Equal(t, "Evergreen", resp.Data.CampaignName)
	assert.Equal(t, 100, resp.Data.Diagnosis.HealthScore)

	w = doJSON(router, http.MethodGet, "/api/v1/campaigns/unknown/diagnosis", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDiagnoseCampaignUpstreamTimeout(t *testing.T) {
	router := setupRouter(t)

	w := doJSON(router, http.MethodGet, "/api/v1/campaigns/slow/diagnosis", "")

	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
	assert.Contains(t, w.Body.String(), "Upstream timeout")
}

func TestDiagnoseCampaignsEndpoint(t *testing.T) {
	router := setupRouter(t)

	w := doJSON(router, http.MethodPost, "/api/v1/campaigns/diagnose", `{"campaign_ids":["good","unknown"]}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Data   []domain.BatchResult `json:"data"`
		Total  int                  `json:"total"`
		Failed int                  `json:"failed"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Total)
	assert.Equal(t, 1, resp.Failed)
	require.Len(t, resp.Data, 2)
	assert.Equal(t, "good", resp.Data[0].CampaignID)
	assert.NotNil(t, resp.Data[0].Record)
	assert.Equal(t, "unknown", resp.Data[1].CampaignID)
	assert.NotEmpty(t, resp.Data[1].Error)

	w = doJSON(router, http.MethodPost, "/api/v1/campaigns/diagnose", `{"campaign_ids":[]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListAndGetDiagnoses(t *testing.T) {
	router := setupRouter(t)

	for _, body := range []string{`{"campaign_id":"a","ctr":1}`, `{"campaign_id":"b","ctr":2}`, `{"campaign_id":"a","ctr":3}`} {
		require.Equal(t, http.StatusOK, doJSON(router, http.MethodPost, "/api/v1/diagnose", body).Code)
	}

	w := doJSON(router, http.MethodGet, "/api/v1/diagnoses?campaign_id=a&limit=1", "")
	require.Equal(t, http.StatusOK, w.Code)

	var list struct {
		Data    []domain.DiagnosisRecord `json:"data"`
		Total   int                      `json:"total"`
		Limit   int                      `json:"limit"`
		HasMore bool                     `json:"has_more"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Equal(t, 2, list.Total)
	assert.Equal(t, 1, list.Limit)
	assert.True(t, list.HasMore)
	require.Len(t, list.Data, 1)
	assert.Equal(t, "a", list.Data[0].CampaignID)

	w = doJSON(router, http.MethodGet, "/api/v1/diagnoses/"+list.Data[0].ID, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(router, http.MethodGet, "/api/v1/diagnoses/does-not-exist", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(router, http.MethodGet, "/api/v1/diagnoses?limit=ten", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExtractLandingPageFromHTML(t *testing.T) {
	router := setupRouter(t)

	payload, err := json.Marshal(map[string]string{
		"url":          "https://shop.example",
		"html":         `<title>Shop</title><h1>Summer Sale</h1><p>Everything 20% off</p>`,
		"product_hint": "sandals",
	})
	require.NoError(t, err)

	w := doJSON(router, http.MethodPost, "/api/v1/landing-page/extract", string(payload))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Data   domain.LandingPageExtraction `json:"data"`
		Failed bool                         `json:"failed"`
		Prompt string                       `json:"prompt"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Shop", resp.Data.Title)
	assert.Equal(t, "Summer Sale", resp.Data.H1)
	assert.Equal(t, "https://shop.example", resp.Data.URL)
	assert.False(t, resp.Failed)
	assert.Contains(t, resp.Prompt, "Additional context from the advertiser: sandals")
	assert.True(t, strings.HasSuffix(resp.Prompt, resp.Data.Summary))
}

func TestExtractLandingPageFromURL(t *testing.T) {
	page := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/blocked" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(`<title>Live page</title>`))
	}))
	defer page.Close()

	router := setupRouter(t, page.Listener.Addr().String())

	w := doJSON(router, http.MethodPost, "/api/v1/landing-page/extract", `{"url":"`+page.URL+`/ok"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"title":"Live page"`)
	assert.Contains(t, w.Body.String(), `"failed":false`)

	w = doJSON(router, http.MethodPost, "/api/v1/landing-page/extract", `{"url":"`+page.URL+`/blocked"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"failed":true`)
	assert.Contains(t, w.Body.String(), domain.ExtractionFailedMessage)
}

func TestExtractLandingPageValidation(t *testing.T) {
	router := setupRouter(t)

	w := doJSON(router, http.MethodPost, "/api/v1/landing-page/extract", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	for _, url := range []string{
		"ftp://files.example",
		"http://127.0.0.1:9000/admin",
		"http://10.0.0.1/",
		"http://169.254.169.254/latest/meta-data/",
	} {
		w = doJSON(router, http.MethodPost, "/api/v1/landing-page/extract", `{"url":"`+url+`"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code, url)
		assert.Contains(t, w.Body.String(), "Invalid URL", url)
	}
}

func TestExtractLandingPageRefusesLoopbackServer(t *testing.T) {
	page := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<title>internal admin secret</title>`))
	}))
	defer page.Close()

	router := setupRouter(t)

	w := doJSON(router, http.MethodPost, "/api/v1/landing-page/extract", `{"url":"`+page.URL+`"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.NotContains(t, w.Body.String(), "internal admin secret")
}

func TestMetricsEndpoint(t *testing.T) {
	router := setupRouter(t)

	doJSON(router, http.MethodPost, "/api/v1/diagnose", `{"ctr":"1"}`)
	w := doJSON(router, http.MethodGet, "/metrics", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "http_requests_total")
}

func TestAPIInfo(t *testing.T) {
	router := setupRouter(t)

	for _, path := range []string{"/api/v1", "/api/v1/"} {
		w := doJSON(router, http.MethodGet, path, "")
		assert.Equal(t, http.StatusOK, w.Code, path)
		assert.Contains(t, w.Body.String(), `"api_version":"v1"`)
	}
}
