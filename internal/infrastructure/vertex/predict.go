// Package vertex は、Vertex AI の Imagen predict エンドポイントを REST で呼び出します
package vertex

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"ecomindsx/internal/domain"
	"ecomindsx/internal/infrastructure/config"

	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// maxErrorBodyLength は、エラー詳細として保持する応答本文の最大文字数です
const maxErrorBodyLength = 500

// PredictClient は、Imagen の :predict を呼び出すクライアントです
type PredictClient struct {
	baseURL    string
	projectID  string
	location   string
	timeout    time.Duration
	httpClient *http.Client
}

// NewPredictClient は、新しい PredictClient を作成します
func NewPredictClient(cfg config.VertexConfig, httpClient *http.Client) *PredictClient {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &PredictClient{
		baseURL:    strings.TrimSuffix(cfg.BaseURL(), "/"),
		projectID:  cfg.ProjectID,
		location:   cfg.Location,
		timeout:    cfg.Timeout,
		httpClient: httpClient,
	}
}

// PredictURL は、モデルの :predict エンドポイントURLを返します
func (c *PredictClient) PredictURL(model string) string {
	return fmt.Sprintf("%s/%s/projects/%s/locations/%s/publishers/google/models/%s:%s",
		c.baseURL, "v1", c.projectID, c.location, model, "predict")
}

// Predict は、画像生成を1回実行し、予測ごとの base64 データを上流の順序で返します
func (c *PredictClient) Predict(ctx context.Context, token string, call domain.ImageCall) ([]string, error) {
	body, err := buildPredictBody(call)
	if err != nil {
		return nil, fmt.Errorf("リクエストの作成に失敗しました: %w", err)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.PredictURL(call.Model), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("リクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &domain.UpstreamError{Model: call.Model, Err: err}
	}
	defer func() {
		if errClose := resp.Body.Close(); errClose != nil {
			log.Errorf("vertex: 応答本文のクローズに失敗しました: %v", errClose)
		}
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.UpstreamError{Model: call.Model, Status: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &domain.UpstreamError{
			Model:  call.Model,
			Status: resp.StatusCode,
			Body:   domain.Truncate(string(data), maxErrorBodyLength),
		}
	}

	images, err := parsePredictions(data)
	if err != nil {
		return nil, &domain.UpstreamError{
			Model:     call.Model,
			Status:    http.StatusInternalServerError,
			Body:      domain.Truncate(string(data), maxErrorBodyLength),
			Malformed: true,
			Err:       err,
		}
	}
	return images, nil
}

// buildPredictBody は、instances と parameters を組み立てます
func buildPredictBody(call domain.ImageCall) ([]byte, error) {
	body := []byte(`{"instances":[{}],"parameters":{}}`)
	var err error
	set := func(path string, value any) {
		if err != nil {
			return
		}
		body, err = sjson.SetBytes(body, path, value)
	}

	set("instances.0.prompt", call.Prompt)
	set("instances.0.aspectRatio", call.AspectRatio)
	set("parameters.sampleCount", call.SampleCount)
	if call.Parameters.SafetyFilterLevel != "" {
		set("parameters.safetyFilterLevel", call.Parameters.SafetyFilterLevel)
	}
	if call.Parameters.PersonGeneration != "" {
		set("parameters.personGeneration", call.Parameters.PersonGeneration)
	}
	if call.Parameters.AddWatermark != nil {
		set("parameters.addWatermark", *call.Parameters.AddWatermark)
	}
	return body, err
}

// parsePredictions は、predictions から画像データを取り出します
func parsePredictions(data []byte) ([]string, error) {
	if !gjson.ValidBytes(data) {
		return nil, errors.New("応答が有効なJSONではありません")
	}
	predictions := gjson.GetBytes(data, "predictions")
	if !predictions.IsArray() || len(predictions.Array()) == 0 {
		return nil, domain.ErrNoPredictions
	}

	var images []string
	for i, p := range predictions.Array() {
		b64 := p.Get("bytesBase64Encoded").String()
		if b64 == "" {
			b64 = p.Get("bytes").String()
		}
		if b64 == "" {
			return nil, fmt.Errorf("predictions[%d] に画像データがありません", i)
		}
		images = append(images, b64)
	}
	return images, nil
}
