package vertex

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"ecomindsx/internal/domain"
	"ecomindsx/internal/infrastructure/config"
)

// DefaultProbeRegions は、接続確認で試すリージョンの既定リストです
var DefaultProbeRegions = []string{"us-central1", "us-east4", "europe-west4", "asia-northeast3"}

// RegionResult は、1リージョン分の接続確認結果です
type RegionResult struct {
	Region string
	Status int
	Body   string
	Err    error
}

// OK は、リージョンが200を返したかどうかを返します
func (r RegionResult) OK() bool {
	return r.Err == nil && r.Status == http.StatusOK
}

// RegionProber は、リージョンごとのモデル一覧エンドポイントを呼び出して利用可否を確認します
type RegionProber struct {
	ProjectID  string
	HTTPClient *http.Client
	Timeout    time.Duration
	// BaseURL は、リージョンに対応するベースURLを返します
	BaseURL func(region string) string
}

// NewRegionProber は、新しい RegionProber を作成します
func NewRegionProber(projectID string) *RegionProber {
	return &RegionProber{
		ProjectID:  projectID,
		HTTPClient: &http.Client{},
		Timeout:    15 * time.Second,
		BaseURL:    config.VertexBaseURL,
	}
}

// Probe は、リージョンを順に確認し、最初に200を返したリージョンで停止します
// 200を返すリージョンがない場合、found は空文字列になります
func (p *RegionProber) Probe(ctx context.Context, token string, regions []string) (results []RegionResult, found string) {
	for _, region := range regions {
		result := p.probeOne(ctx, token, region)
		results = append(results, result)
		if result.OK() {
			return results, region
		}
	}
	return results, ""
}

func (p *RegionProber) probeOne(ctx context.Context, token, region string) RegionResult {
	ctx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	url := fmt.Sprintf("%s/v1/projects/%s/locations/%s/models", p.BaseURL(region), p.ProjectID, region)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return RegionResult{Region: region, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := p.HTTPClient.Do(req)
	if err != nil {
		return RegionResult{Region: region, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	result := RegionResult{
		Region: region,
		Status: resp.StatusCode,
		Body:   domain.Truncate(string(body), 200),
	}
	if err != nil {
		result.Err = fmt.Errorf("応答本文の読み込みに失敗しました: %w", err)
	}
	return result
}
