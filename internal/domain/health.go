package domain

const (
	IssueLowCTR     = "Low click-through rate: the ads are not grabbing attention"
	IssueHighCPC    = "High cost per click: you are overpaying for each visitor"
	IssueLowROAS    = "Low return on ad spend: the campaign is not generating enough revenue"
	IssueNoCritical = "No critical issues detected"

	MaxHealthScore = 100
)

var (
	lowCTRRecommendations = []string{
		"Test new ad creatives with bolder visuals, video or carousel formats",
		"Strengthen the ad copy with a clear benefit and a direct call-to-action",
		"Refine audience targeting toward interests and lookalikes that match your buyers",
	}
	highCPCRecommendations = []string{
		"Improve ad relevance so the creative and offer match what the audience wants",
		"Broaden targeting to reduce auction competition for the same users",
		"Review the bidding strategy and try lowest cost or a cost cap",
	}
	lowROASRecommendations = []string{
		"Analyze the conversion funnel to find where visitors drop off",
		"A/B test the landing page headline, offer and checkout flow",
		"Set up retargeting campaigns for visitors who did not convert",
	}
	highScoreRecommendations = []string{
		"Scale the budget gradually, 20-30% every few days while results hold",
		"Duplicate the winning creatives and audiences into new ad sets",
	}
	maintenanceRecommendations = []string{
		"Keep monitoring daily performance for early signs of fatigue",
		"Refresh creatives every 2-3 weeks to keep engagement up",
	}
)

// Diagnosis is a scored, explained view of one set of campaign metrics.
type Diagnosis struct {
	HealthScore     int      `json:"health_score"`
	Issues          []string `json:"issues"`
	Recommendations []string `json:"recommendations"`
}

// HasIssues reports whether any threshold was breached.
func (d Diagnosis) HasIssues() bool {
	return len(d.Issues) > 0 && d.Issues[0] != IssueNoCritical
}

// Score maps the metrics onto 0-100 by summing four bucketed contributions.
// Boundary values take the higher bucket.
func Score(m CampaignMetrics) int {
	score := ctrPoints(m.CTR) + cpcPoints(m.CPC) + roasPoints(m.ROAS) + clickPoints(m.Clicks)
	if score > MaxHealthScore {
		return MaxHealthScore
	}
	return score
}

func ctrPoints(ctr float64) int {
	switch {
	case ctr >= 3:
		return 30
	case ctr >= 2:
		return 20
	case ctr >= 1:
		return 10
	default:
		return 5
	}
}

func cpcPoints(cpc float64) int {
	switch {
	case cpc <= 0.5:
		return 30
	case cpc <= 1:
		return 20
	case cpc <= 2:
		return 10
	default:
		return 5
	}
}

func roasPoints(roas float64) int {
	switch {
	case roas >= 4:
		return 25
	case roas >= 3:
		return 15
	case roas >= 2:
		return 10
	default:
		return 5
	}
}

func clickPoints(clicks int) int {
	switch {
	case clicks >= 500:
		return 15
	case clicks >= 200:
		return 10
	case clicks >= 100:
		return 5
	default:
		return 0
	}
}

// Diagnose scores the metrics and explains the result. Checks run in a fixed
// order (CTR, CPC, ROAS, high-score bonus, no-issues fallback) so callers
// that show only the first N recommendations see the most urgent ones.
func Diagnose(m CampaignMetrics) Diagnosis {
	d := Diagnosis{
		HealthScore:     Score(m),
		Issues:          []string{},
		Recommendations: []string{},
	}

	if m.CTR < 1 {
		d.Issues = append(d.Issues, IssueLowCTR)
		d.Recommendations = append(d.Recommendations, lowCTRRecommendations...)
	}
	if m.CPC > 2 {
		d.Issues = append(d.Issues, IssueHighCPC)
		d.Recommendations = append(d.Recommendations, highCPCRecommendations...)
	}
	if m.ROAS < 2 {
		d.Issues = append(d.Issues, IssueLowROAS)
		d.Recommendations = append(d.Recommendations, lowROASRecommendations...)
	}
	if d.HealthScore >= 80 {
		d.Recommendations = append(d.Recommendations, highScoreRecommendations...)
	}
	if len(d.Issues) == 0 {
		d.Issues = append(d.Issues, IssueNoCritical)
		d.Recommendations = append(d.Recommendations, maintenanceRecommendations...)
	}

	return d
}
