package market

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rank11/sol-wallet-monitor/internal/models"
)

// rugCheckRisk represents one named risk flag in a RugCheck summary.
type rugCheckRisk struct {
	Name  string `json:"name"`
	Level string `json:"level"`
	Score int    `json:"score"`
}

// rugCheckSummary represents the RugCheck report summary payload.
type rugCheckSummary struct {
	Score           float64        `json:"score"`
	ScoreNormalised float64        `json:"score_normalised"`
	Risks           []rugCheckRisk `json:"risks"`
}

// RugCheckClient queries the RugCheck risk API.
type RugCheckClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewRugCheckClient creates a RugCheck client against baseURL.
func NewRugCheckClient(baseURL string, timeout time.Duration) *RugCheckClient {
	return &RugCheckClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Report fetches and buckets the risk summary for mint.
func (c *RugCheckClient) Report(ctx context.Context, mint string) (*models.RiskReport, error) {
	u := fmt.Sprintf("%s/v1/tokens/%s/report/summary", c.baseURL, mint)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rugcheck request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rugcheck request failed with status: %d", resp.StatusCode)
	}

	var summary rugCheckSummary
	if err := json.NewDecoder(resp.Body).Decode(&summary); err != nil {
		return nil, fmt.Errorf("decode rugcheck response: %w", err)
	}

	score := summary.ScoreNormalised
	if score == 0 && summary.Score > 0 {
		// Older API revisions only carry the raw score; squash it into the
		// normalised 0..100 range.
		score = summary.Score / 100
		if score > 100 {
			score = 100
		}
	}

	report := &models.RiskReport{
		Mint:  mint,
		Score: score,
		Tier:  tierFor(score),
	}
	for _, risk := range summary.Risks {
		if strings.Contains(strings.ToLower(risk.Name), "new") {
			report.IsNewToken = true
			break
		}
	}
	return report, nil
}

func tierFor(score float64) models.RiskTier {
	switch {
	case score <= 0:
		return models.RiskUnknown
	case score < 30:
		return models.RiskLow
	case score < 60:
		return models.RiskMedium
	default:
		return models.RiskHigh
	}
}
