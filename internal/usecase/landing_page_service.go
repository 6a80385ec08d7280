package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"surgly/internal/domain"
	"surgly/pkg/logger"
	"surgly/pkg/metrics"
)

const promptHeader = `You are a direct-response copywriter. Using the landing page content below, ` +
	`write ad copy that matches the page's offer, tone and proof points. ` +
	`Do not invent prices, ratings or testimonials that are not in the content.`

// LandingPageService fetches landing pages and reduces them to prompt context
type LandingPageService struct {
	fetcher   domain.PageFetcher
	extractor domain.ContentExtractor
	logger    *logger.Logger
	metrics   *metrics.Metrics
}

// NewLandingPageService creates a new landing page service
func NewLandingPageService(
	fetcher domain.PageFetcher,
	extractor domain.ContentExtractor,
	logger *logger.Logger,
	metrics *metrics.Metrics,
) *LandingPageService {
	return &LandingPageService{
		fetcher:   fetcher,
		extractor: extractor,
		logger:    logger,
		metrics:   metrics,
	}
}

// ExtractFromURL fetches and extracts a landing page. A failed fetch yields the
// placeholder extraction rather than an error; only a malformed URL is an error.
func (s *LandingPageService) ExtractFromURL(ctx context.Context, rawURL string) (domain.LandingPageExtraction, error) {
	log := s.logger.WithContext(ctx).WithField("url", rawURL)
	log.Info("Extracting landing page")

	html, err := s.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidURL) {
			return domain.LandingPageExtraction{}, fmt.Errorf("failed to extract landing page: %w", err)
		}
		log.WithError(err).Warn("Landing page fetch failed, returning placeholder")
		failed := domain.FailedExtraction(rawURL)
		s.metrics.RecordExtraction("fetch_failed", len(failed.Summary))
		return failed, nil
	}

	extraction := s.extract(ctx, html)
	extraction.URL = rawURL
	return extraction, nil
}

// ExtractFromHTML extracts already-fetched markup
func (s *LandingPageService) ExtractFromHTML(ctx context.Context, html string) domain.LandingPageExtraction {
	s.logger.WithContext(ctx).WithField("bytes", len(html)).Info("Extracting supplied HTML")
	return s.extract(ctx, html)
}

func (s *LandingPageService) extract(ctx context.Context, html string) domain.LandingPageExtraction {
	extraction := s.extractor.Extract(html)
	s.metrics.RecordExtraction("success", len(extraction.Summary))

	s.logger.WithContext(ctx).WithFields(map[string]any{
		"title":         extraction.Title,
		"headings":      len(extraction.Headings),
		"summary_bytes": len(extraction.Summary),
	}).Info("Landing page extracted")

	return extraction
}

// BuildPrompt wraps the extraction summary in copywriting instructions.
// productHint is optional extra context from the user.
func BuildPrompt(extraction domain.LandingPageExtraction, productHint string) string {
	var b strings.Builder
	b.WriteString(promptHeader)
	if hint := strings.TrimSpace(productHint); hint != "" {
		b.WriteString("\n\nAdditional context from the advertiser: ")
		b.WriteString(hint)
	}
	b.WriteString("\n\n--- LANDING PAGE ---\n")
	b.WriteString(extraction.Summary)
	return b.String()
}
