package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"surgly/internal/domain"
	"surgly/pkg/logger"
	"surgly/pkg/metrics"

	"github.com/google/uuid"
)

// DiagnosisService scores campaigns and keeps the resulting diagnoses
type DiagnosisService struct {
	repo       domain.DiagnosisRepository
	insights   domain.InsightsClient
	logger     *logger.Logger
	metrics    *metrics.Metrics
	workerPool int
	now        func() time.Time
}

// NewDiagnosisService creates a new diagnosis service
func NewDiagnosisService(
	repo domain.DiagnosisRepository,
	insights domain.InsightsClient,
	logger *logger.Logger,
	metrics *metrics.Metrics,
	workerPool int,
) *DiagnosisService {
	if workerPool < 1 {
		workerPool = 1
	}
	return &DiagnosisService{
		repo:       repo,
		insights:   insights,
		logger:     logger,
		metrics:    metrics,
		workerPool: workerPool,
		now:        time.Now,
	}
}

// DiagnoseMetrics diagnoses client-supplied metrics. campaignID may be empty.
func (s *DiagnosisService) DiagnoseMetrics(ctx context.Context, campaignID string, raw domain.RawMetrics) (*domain.DiagnosisRecord, error) {
	return s.diagnose(ctx, campaignID, "", raw)
}

// DiagnoseCampaign pulls the campaign's insights and diagnoses them
func (s *DiagnosisService) DiagnoseCampaign(ctx context.Context, campaignID string) (*domain.DiagnosisRecord, error) {
	log := s.logger.WithContext(ctx).WithField("campaign_id", campaignID)
	log.Info("Diagnosing campaign")

	insights, err := s.insights.FetchCampaignInsights(ctx, campaignID)
	if err != nil {
		log.WithError(err).Error("Failed to fetch campaign insights")
		return nil, fmt.Errorf("failed to fetch insights for campaign %s: %w", campaignID, err)
	}

	return s.diagnose(ctx, insights.CampaignID, insights.CampaignName, insights.Raw())
}

func (s *DiagnosisService) diagnose(ctx context.Context, campaignID, campaignName string, raw domain.RawMetrics) (*domain.DiagnosisRecord, error) {
	log := s.logger.WithContext(ctx)

	m := raw.Metrics()
	diagnosis := domain.Diagnose(m)

	record := domain.DiagnosisRecord{
		ID:           uuid.New().String(),
		CampaignID:   campaignID,
		CampaignName: campaignName,
		Metrics:      m,
		Diagnosis:    diagnosis,
		CreatedAt:    s.now().UTC(),
	}

	if err := s.repo.Store(ctx, record); err != nil {
		log.WithError(err).Error("Failed to store diagnosis")
		return nil, fmt.Errorf("failed to store diagnosis: %w", err)
	}

	outcome := "healthy"
	if diagnosis.HasIssues() {
		outcome = "issues"
	}
	s.metrics.RecordDiagnosis(outcome, diagnosis.HealthScore)

	log.WithFields(map[string]any{
		"diagnosis_id": record.ID,
		"campaign_id":  campaignID,
		"health_score": diagnosis.HealthScore,
		"issues":       len(diagnosis.Issues),
	}).Info("Campaign diagnosed")

	return &record, nil
}

// DiagnoseCampaigns diagnoses several campaigns on a worker pool. Results keep
// the input order; a failing campaign is reported in its slot and does not
// abort the others.
func (s *DiagnosisService) DiagnoseCampaigns(ctx context.Context, campaignIDs []string) []domain.BatchResult {
	log := s.logger.WithContext(ctx)
	log.WithField("campaigns", len(campaignIDs)).Info("Starting batch diagnosis")

	results := make([]domain.BatchResult, len(campaignIDs))
	jobs := make(chan int, len(campaignIDs))

	workers := s.workerPool
	if workers > len(campaignIDs) {
		workers = len(campaignIDs)
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Go(func() {
			for idx := range jobs {
				id := campaignIDs[idx]
				result := domain.BatchResult{CampaignID: id}
				if err := ctx.Err(); err != nil {
					result.Error = err.Error()
				} else if record, err := s.DiagnoseCampaign(ctx, id); err != nil {
					result.Error = err.Error()
				} else {
					result.Record = record
				}
				results[idx] = result
			}
		})
	}

	for idx := range campaignIDs {
		jobs <- idx
	}
	close(jobs)
	wg.Wait()

	failed := 0
	for _, r := range results {
		if r.Error != "" {
			failed++
		}
	}

	log.WithFields(map[string]any{
		"campaigns": len(campaignIDs),
		"failed":    failed,
	}).Info("Batch diagnosis completed")

	return results
}

// GetDiagnosis returns one stored diagnosis
func (s *DiagnosisService) GetDiagnosis(ctx context.Context, id string) (*domain.DiagnosisRecord, error) {
	record, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get diagnosis: %w", err)
	}
	return record, nil
}

// ListDiagnoses pages through stored diagnoses, newest first
func (s *DiagnosisService) ListDiagnoses(ctx context.Context, filter domain.DiagnosisFilter) (*domain.DiagnosisResponse, error) {
	log := s.logger.WithContext(ctx)
	log.WithFields(map[string]any{
		"campaign_id": filter.CampaignID,
		"limit":       filter.Limit,
		"offset":      filter.Offset,
	}).Info("Listing diagnoses")

	response, err := s.repo.GetByFilter(ctx, filter)
	if err != nil {
		log.WithError(err).Error("Failed to list diagnoses")
		return nil, fmt.Errorf("failed to list diagnoses: %w", err)
	}

	return response, nil
}
