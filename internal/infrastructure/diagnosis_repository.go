package infrastructure

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"surgly/internal/domain"
	"surgly/pkg/logger"
)

const defaultDiagnosisLimit = 100

// implements domain.DiagnosisRepository interface
type DiagnosisRepository struct {
	byID       map[string]domain.DiagnosisRecord
	byCampaign map[string][]string
	mutex      sync.RWMutex
	logger     *logger.Logger
}

// creates a new in-memory diagnosis repository
func NewDiagnosisRepository(logger *logger.Logger) *DiagnosisRepository {
	return &DiagnosisRepository{
		byID:       make(map[string]domain.DiagnosisRecord),
		byCampaign: make(map[string][]string),
		logger:     logger,
	}
}

func (r *DiagnosisRepository) Store(ctx context.Context, record domain.DiagnosisRecord) error {
	if record.ID == "" {
		return fmt.Errorf("diagnosis record has no id")
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.byID[record.ID]; !exists {
		r.byCampaign[record.CampaignID] = append(r.byCampaign[record.CampaignID], record.ID)
	}
	r.byID[record.ID] = record

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"id":           record.ID,
		"campaign_id":  record.CampaignID,
		"health_score": record.Diagnosis.HealthScore,
	}).Debug("Stored diagnosis")

	return nil
}

func (r *DiagnosisRepository) GetByID(ctx context.Context, id string) (*domain.DiagnosisRecord, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	record, exists := r.byID[id]
	if !exists {
		return nil, fmt.Errorf("diagnosis %s: %w", id, domain.ErrDiagnosisNotFound)
	}
	return &record, nil
}

func (r *DiagnosisRepository) GetByFilter(ctx context.Context, filter domain.DiagnosisFilter) (*domain.DiagnosisResponse, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	var matched []domain.DiagnosisRecord
	if filter.CampaignID != "" {
		for _, id := range r.byCampaign[filter.CampaignID] {
			matched = append(matched, r.byID[id])
		}
	} else {
		for _, record := range r.byID {
			matched = append(matched, record)
		}
	}

	// Newest first
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID < matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	limit := defaultDiagnosisLimit
	offset := 0

	if filter.Limit > 0 {
		limit = filter.Limit
	}
	if filter.Offset > 0 {
		offset = filter.Offset
	}

	total := len(matched)
	start := min(offset, total)
	end := total
	if limit < total-start {
		end = start + limit
	}

	page := []domain.DiagnosisRecord{}
	if start < end {
		page = matched[start:end]
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"campaign_id": filter.CampaignID,
		"total":       total,
		"returned":    len(page),
	}).Debug("Queried diagnoses")

	return &domain.DiagnosisResponse{
		Data:    page,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
		HasMore: end < total,
	}, nil
}
