package delivery

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"surgly/internal/domain"
	"surgly/internal/usecase"
	"surgly/pkg/logger"
	"surgly/pkg/metrics"

	"github.com/gin-gonic/gin"
)

const maxHTMLBodyBytes = 4 << 20

// handles HTTP requests
type HTTPHandlers struct {
	diagnosisService   *usecase.DiagnosisService
	landingPageService *usecase.LandingPageService
	logger             *logger.Logger
	metrics            *metrics.Metrics
}

// creates new HTTP handlers
func NewHTTPHandlers(
	diagnosisService *usecase.DiagnosisService,
	landingPageService *usecase.LandingPageService,
	logger *logger.Logger,
	metrics *metrics.Metrics,
) *HTTPHandlers {
	return &HTTPHandlers{
		diagnosisService:   diagnosisService,
		landingPageService: landingPageService,
		logger:             logger,
		metrics:            metrics,
	}
}

func respondError(c *gin.Context, status int, errMsg, message string) {
	c.JSON(status, gin.H{
		"error":      errMsg,
		"message":    message,
		"request_id": c.GetString("request_id"),
	})
}

// Diagnose scores metrics posted by the dashboard
func (h *HTTPHandlers) Diagnose(c *gin.Context) {
	h.metrics.IncHTTPRequestsInFlight()
	defer h.metrics.DecHTTPRequestsInFlight()

	var req diagnoseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	ctx := c.Request.Context()
	record, err := h.diagnosisService.DiagnoseMetrics(ctx, req.CampaignID, req.raw())
	if err != nil {
		h.logger.WithContext(ctx).WithError(err).Error("Failed to diagnose metrics")
		respondError(c, http.StatusInternalServerError, "Diagnosis failed", err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":       record,
		"request_id": c.GetString("request_id"),
	})
}

// DiagnoseCampaign fetches live insights for one campaign and scores them
func (h *HTTPHandlers) DiagnoseCampaign(c *gin.Context) {
	h.metrics.IncHTTPRequestsInFlight()
	defer h.metrics.DecHTTPRequestsInFlight()

	campaignID := strings.TrimSpace(c.Param("id"))
	if campaignID == "" {
		respondError(c, http.StatusBadRequest, "Missing required parameter", "campaign id is required")
		return
	}

	ctx := c.Request.Context()
	record, err := h.diagnosisService.DiagnoseCampaign(ctx, campaignID)
	if err != nil {
		if errors.Is(err, domain.ErrCampaignNotFound) {
			respondError(c, http.StatusNotFound, "Campaign not found", err.Error())
			return
		}
		if errors.Is(err, context.DeadlineExceeded) {
			h.logger.WithContext(ctx).WithError(err).Warn("Campaign insights timed out")
			respondError(c, http.StatusGatewayTimeout, "Upstream timeout", err.Error())
			return
		}
		h.logger.WithContext(ctx).WithError(err).Error("Failed to diagnose campaign")
		respondError(c, http.StatusBadGateway, "Failed to fetch campaign insights", err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":       record,
		"request_id": c.GetString("request_id"),
	})
}

// DiagnoseCampaigns scores a batch of campaigns
func (h *HTTPHandlers) DiagnoseCampaigns(c *gin.Context) {
	h.metrics.IncHTTPRequestsInFlight()
	defer h.metrics.DecHTTPRequestsInFlight()

	var req batchDiagnoseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	results := h.diagnosisService.DiagnoseCampaigns(c.Request.Context(), req.CampaignIDs)

	failed := 0
	for _, r := range results {
		if r.Error != "" {
			failed++
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"data":       results,
		"total":      len(results),
		"failed":     failed,
		"request_id": c.GetString("request_id"),
	})
}

// ListDiagnoses returns stored diagnoses, newest first
func (h *HTTPHandlers) ListDiagnoses(c *gin.Context) {
	h.metrics.IncHTTPRequestsInFlight()
	defer h.metrics.DecHTTPRequestsInFlight()

	limit, offset, err := parsePagination(c)
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid parameters", err.Error())
		return
	}

	filter := domain.DiagnosisFilter{
		CampaignID: c.Query("campaign_id"),
		Limit:      limit,
		Offset:     offset,
	}

	ctx := c.Request.Context()
	response, err := h.diagnosisService.ListDiagnoses(ctx, filter)
	if err != nil {
		h.logger.WithContext(ctx).WithError(err).Error("Failed to list diagnoses")
		respondError(c, http.StatusInternalServerError, "Failed to retrieve diagnoses", err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":       response.Data,
		"total":      response.Total,
		"limit":      response.Limit,
		"offset":     response.Offset,
		"has_more":   response.HasMore,
		"request_id": c.GetString("request_id"),
	})
}

// GetDiagnosis returns one stored diagnosis
func (h *HTTPHandlers) GetDiagnosis(c *gin.Context) {
	h.metrics.IncHTTPRequestsInFlight()
	defer h.metrics.DecHTTPRequestsInFlight()

	record, err := h.diagnosisService.GetDiagnosis(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, domain.ErrDiagnosisNotFound) {
			respondError(c, http.StatusNotFound, "Diagnosis not found", err.Error())
			return
		}
		respondError(c, http.StatusInternalServerError, "Failed to retrieve diagnosis", err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":       record,
		"request_id": c.GetString("request_id"),
	})
}

// ExtractLandingPage digests a landing page from a URL or from posted HTML
func (h *HTTPHandlers) ExtractLandingPage(c *gin.Context) {
	h.metrics.IncHTTPRequestsInFlight()
	defer h.metrics.DecHTTPRequestsInFlight()

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxHTMLBodyBytes)

	var req extractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	url := strings.TrimSpace(req.URL)
	if url == "" && req.HTML == "" {
		respondError(c, http.StatusBadRequest, "Missing required parameter", "either url or html is required")
		return
	}

	ctx := c.Request.Context()

	var extraction domain.LandingPageExtraction
	if req.HTML != "" {
		extraction = h.landingPageService.ExtractFromHTML(ctx, req.HTML)
		extraction.URL = url
	} else {
		var err error
		extraction, err = h.landingPageService.ExtractFromURL(ctx, url)
		if err != nil {
			respondError(c, http.StatusBadRequest, "Invalid URL", err.Error())
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"data":       extraction,
		"failed":     extraction.Failed(),
		"prompt":     usecase.BuildPrompt(extraction, req.ProductHint),
		"request_id": c.GetString("request_id"),
	})
}

// GetAPIInfo returns API v1 information and available endpoints
func (h *HTTPHandlers) GetAPIInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"api_version": "v1",
		"service":     "surgly",
		"version":     "1.0.0",
		"description": "Campaign health scoring and landing page extraction",
		"endpoints": gin.H{
			"diagnose":       "POST /api/v1/diagnose {ctr, cpc, roas, clicks, campaign_id?}",
			"campaign":       "GET /api/v1/campaigns/:id/diagnosis",
			"campaign_batch": "POST /api/v1/campaigns/diagnose {campaign_ids}",
			"diagnoses":      "GET /api/v1/diagnoses?campaign_id=&limit=&offset=",
			"diagnosis":      "GET /api/v1/diagnoses/:id",
			"landing_page":   "POST /api/v1/landing-page/extract {url | html, product_hint?}",
			"prometheus":     "GET /metrics",
			"health":         "GET /health",
		},
		"health_score": gin.H{
			"ctr":    "30 if >= 3%, 20 if >= 2%, 10 if >= 1%, else 5",
			"cpc":    "30 if <= 0.50, 20 if <= 1.00, 10 if <= 2.00, else 5",
			"roas":   "25 if >= 4, 15 if >= 3, 10 if >= 2, else 5",
			"clicks": "15 if >= 500, 10 if >= 200, 5 if >= 100, else 0",
		},
		"request_id": c.GetString("request_id"),
	})
}

// HealthCheck returns the health status of the service
func (h *HTTPHandlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":     "healthy",
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
		"service":    "surgly",
		"version":    "1.0.0",
		"request_id": c.GetString("request_id"),
	})
}

// parsePagination parses limit/offset query parameters
func parsePagination(c *gin.Context) (limit, offset int, err error) {
	if limitStr := c.Query("limit"); limitStr != "" {
		limit, err = strconv.Atoi(limitStr)
		if err != nil {
			return 0, 0, err
		}
	}

	if offsetStr := c.Query("offset"); offsetStr != "" {
		offset, err = strconv.Atoi(offsetStr)
		if err != nil {
			return 0, 0, err
		}
	}

	return limit, offset, nil
}
