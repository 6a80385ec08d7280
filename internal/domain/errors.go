package domain

import "errors"

var (
	ErrCampaignNotFound  = errors.New("campaign not found")
	ErrDiagnosisNotFound = errors.New("diagnosis not found")
	ErrInvalidURL        = errors.New("invalid landing page URL")
	ErrFetchFailed       = errors.New("landing page fetch failed")
)
