package domain

import (
	"time"
)

// DiagnosisRecord is a persisted diagnosis together with the metrics it was computed from.
type DiagnosisRecord struct {
	ID           string          `json:"id"`
	CampaignID   string          `json:"campaign_id,omitempty"`
	CampaignName string          `json:"campaign_name,omitempty"`
	Metrics      CampaignMetrics `json:"metrics"`
	Diagnosis    Diagnosis       `json:"diagnosis"`
	CreatedAt    time.Time       `json:"created_at"`
}

// represents filters for querying stored diagnoses
type DiagnosisFilter struct {
	CampaignID string `json:"campaign_id,omitempty"`
	Limit      int    `json:"limit,omitempty"`
	Offset     int    `json:"offset,omitempty"`
}

// represents the API response for diagnosis queries
type DiagnosisResponse struct {
	Data    []DiagnosisRecord `json:"data"`
	Total   int               `json:"total"`
	Limit   int               `json:"limit"`
	Offset  int               `json:"offset"`
	HasMore bool              `json:"has_more"`
}

// BatchResult is the outcome for one campaign of a batch diagnosis.
type BatchResult struct {
	CampaignID string           `json:"campaign_id"`
	Record     *DiagnosisRecord `json:"record,omitempty"`
	Error      string           `json:"error,omitempty"`
}
