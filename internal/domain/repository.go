package domain

import (
	"context"
)

// interface for diagnosis persistence
type DiagnosisRepository interface {
	Store(ctx context.Context, record DiagnosisRecord) error
	GetByID(ctx context.Context, id string) (*DiagnosisRecord, error)
	GetByFilter(ctx context.Context, filter DiagnosisFilter) (*DiagnosisResponse, error)
}

// interface for the ads insights API
type InsightsClient interface {
	FetchCampaignInsights(ctx context.Context, campaignID string) (*CampaignInsights, error)
}

// interface for landing page downloads
type PageFetcher interface {
	Fetch(ctx context.Context, rawURL string) (string, error)
}

// interface for turning landing page HTML into an extraction
type ContentExtractor interface {
	Extract(html string) LandingPageExtraction
}
