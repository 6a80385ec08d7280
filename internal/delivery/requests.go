package delivery

import (
	"bytes"
	"encoding/json"

	"surgly/internal/domain"
)

// MetricValue accepts a JSON string, number or null and keeps its text form,
// so numeric parsing happens in one place (domain.ParseMetricOrDefault).
type MetricValue string

func (v *MetricValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*v = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = MetricValue(s)
		return nil
	}
	// Numbers, booleans and anything else keep their literal text and
	// degrade to zero during parsing if they are not numeric.
	*v = MetricValue(data)
	return nil
}

type diagnoseRequest struct {
	CampaignID string      `json:"campaign_id"`
	CTR        MetricValue `json:"ctr"`
	CPC        MetricValue `json:"cpc"`
	ROAS       MetricValue `json:"roas"`
	Clicks     MetricValue `json:"clicks"`
}

func (r diagnoseRequest) raw() domain.RawMetrics {
	return domain.RawMetrics{
		CTR:    string(r.CTR),
		CPC:    string(r.CPC),
		ROAS:   string(r.ROAS),
		Clicks: string(r.Clicks),
	}
}

type batchDiagnoseRequest struct {
	CampaignIDs []string `json:"campaign_ids" binding:"required,min=1,max=50,dive,required"`
}

type extractRequest struct {
	URL         string `json:"url"`
	HTML        string `json:"html"`
	ProductHint string `json:"product_hint"`
}
