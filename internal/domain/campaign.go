package domain

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// CampaignMetrics is the numeric input of the health scorer.
type CampaignMetrics struct {
	CTR    float64 `json:"ctr"`
	CPC    float64 `json:"cpc"`
	ROAS   float64 `json:"roas"`
	Clicks int     `json:"clicks"`
}

// RawMetrics holds metric values exactly as an upstream API or a client sent them.
type RawMetrics struct {
	CTR    string `json:"ctr"`
	CPC    string `json:"cpc"`
	ROAS   string `json:"roas"`
	Clicks string `json:"clicks"`
}

// Metrics converts the raw strings, degrading anything unparsable to zero.
func (r RawMetrics) Metrics() CampaignMetrics {
	return CampaignMetrics{
		CTR:    ParseMetricOrDefault(r.CTR, 0),
		CPC:    ParseMetricOrDefault(r.CPC, 0),
		ROAS:   ParseMetricOrDefault(r.ROAS, 0),
		Clicks: ParseCountOrDefault(r.Clicks, 0),
	}
}

// ActionValue is one entry of an action-typed insights field such as purchase_roas.
type ActionValue struct {
	ActionType string `json:"action_type"`
	Value      string `json:"value"`
}

// CampaignInsights mirrors one row of the ads insights API.
// Numeric fields arrive as strings and stay that way until Raw().Metrics().
type CampaignInsights struct {
	CampaignID   string        `json:"campaign_id"`
	CampaignName string        `json:"campaign_name"`
	Impressions  string        `json:"impressions"`
	Clicks       string        `json:"clicks"`
	Spend        string        `json:"spend"`
	CTR          string        `json:"ctr"`
	CPC          string        `json:"cpc"`
	PurchaseROAS []ActionValue `json:"purchase_roas"`
}

// ROAS returns the first purchase_roas value, or "" when the campaign has none.
func (i CampaignInsights) ROAS() string {
	if len(i.PurchaseROAS) == 0 {
		return ""
	}
	return i.PurchaseROAS[0].Value
}

func (i CampaignInsights) Raw() RawMetrics {
	return RawMetrics{
		CTR:    i.CTR,
		CPC:    i.CPC,
		ROAS:   i.ROAS(),
		Clicks: i.Clicks,
	}
}

// InsightsResponse is the envelope returned by the insights endpoint
type InsightsResponse struct {
	Data []CampaignInsights `json:"data"`
}

var (
	leadingFloat = regexp.MustCompile(`^[+-]?(?:\d+(?:\.\d*)?|\.\d+)(?:[eE][+-]?\d+)?`)
	leadingInt   = regexp.MustCompile(`^[+-]?\d+`)
)

// ParseMetricOrDefault reads the leading decimal number of raw ("2.5%" -> 2.5).
// Empty, non-numeric, NaN and out-of-range input yields def.
func ParseMetricOrDefault(raw string, def float64) float64 {
	m := leadingFloat.FindString(strings.TrimSpace(raw))
	if m == "" {
		return def
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return def
	}
	return v
}

// ParseCountOrDefault reads the leading integer of raw. Counts are never
// negative, so a negative parse also yields def.
func ParseCountOrDefault(raw string, def int) int {
	m := leadingInt.FindString(strings.TrimSpace(raw))
	if m == "" {
		return def
	}
	v, err := strconv.Atoi(m)
	if err != nil || v < 0 {
		return def
	}
	return v
}
