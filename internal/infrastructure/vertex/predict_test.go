package vertex

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ecomindsx/internal/domain"
	"ecomindsx/internal/infrastructure/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func newTestClient(srv *httptest.Server, timeout time.Duration) *PredictClient {
	return NewPredictClient(config.VertexConfig{
		ProjectID: "ecominds-test",
		Location:  "us-central1",
		Endpoint:  srv.URL,
		Timeout:   timeout,
	}, srv.Client())
}

func primaryCall() domain.ImageCall {
	watermark := false
	return domain.ImageCall{
		Model:       "imagen-3.0-fast-generate-001",
		Prompt:      "A cozy reading nook with a large window",
		AspectRatio: "16:9",
		SampleCount: 2,
		Parameters: domain.ImageParameters{
			SafetyFilterLevel: "block_some",
			PersonGeneration:  "allow_adult",
			AddWatermark:      &watermark,
		},
	}
}

func TestPredictClient_PredictURL(t *testing.T) {
	c := NewPredictClient(config.VertexConfig{ProjectID: "p1", Location: "europe-west4"}, nil)

	assert.Equal(t,
		"https://europe-west4-aiplatform.googleapis.com/v1/projects/p1/locations/europe-west4/publishers/google/models/imagen-3.0-generate-001:predict",
		c.PredictURL("imagen-3.0-generate-001"))
}

func TestPredictClient_Predict_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/projects/ecominds-test/locations/us-central1/publishers/google/models/imagen-3.0-fast-generate-001:predict", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.Equal(t, "A cozy reading nook with a large window", gjson.GetBytes(body, "instances.0.prompt").String())
		assert.Equal(t, "16:9", gjson.GetBytes(body, "instances.0.aspectRatio").String())
		assert.Equal(t, int64(2), gjson.GetBytes(body, "parameters.sampleCount").Int())
		assert.Equal(t, "block_some", gjson.GetBytes(body, "parameters.safetyFilterLevel").String())
		assert.Equal(t, "allow_adult", gjson.GetBytes(body, "parameters.personGeneration").String())
		assert.True(t, gjson.GetBytes(body, "parameters.addWatermark").Exists())
		assert.False(t, gjson.GetBytes(body, "parameters.addWatermark").Bool())

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"predictions":[{"bytesBase64Encoded":"AAA="},{"bytes":"BBB="}]}`))
	}))
	defer srv.Close()

	images, err := newTestClient(srv, time.Second).Predict(context.Background(), "tok", primaryCall())
	require.NoError(t, err)
	assert.Equal(t, []string{"AAA=", "BBB="}, images)
}

func TestPredictClient_Predict_FallbackBodyOmitsUnsetParameters(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, int64(1), gjson.GetBytes(body, "parameters.sampleCount").Int())
		assert.False(t, gjson.GetBytes(body, "parameters.personGeneration").Exists())
		assert.False(t, gjson.GetBytes(body, "parameters.addWatermark").Exists())
		_, _ = w.Write([]byte(`{"predictions":[{"bytesBase64Encoded":"AAA="}]}`))
	}))
	defer srv.Close()

	call := domain.ImageCall{
		Model:       "imagen-3.0-generate-001",
		Prompt:      "A cozy reading nook",
		AspectRatio: "1:1",
		SampleCount: 1,
		Parameters:  domain.ImageParameters{SafetyFilterLevel: "block_some"},
	}
	_, err := newTestClient(srv, time.Second).Predict(context.Background(), "tok", call)
	require.NoError(t, err)
}

func TestPredictClient_Predict_Errors(t *testing.T) {
	longBody := strings.Repeat("x", 800)

	tests := []struct {
		name          string
		status        int
		body          string
		wantStatus    int
		wantMalformed bool
		wantBodyLen   int
	}{
		{name: "モデルが見つからない", status: http.StatusNotFound, body: `{"error":{"code":404}}`, wantStatus: 404},
		{name: "権限エラー", status: http.StatusForbidden, body: `{"error":{"code":403}}`, wantStatus: 403},
		{name: "本文は500文字に切り詰め", status: http.StatusInternalServerError, body: longBody, wantStatus: 500, wantBodyLen: 500},
		{name: "predictionsがない", status: http.StatusOK, body: `{"foo":"bar"}`, wantStatus: 500, wantMalformed: true},
		{name: "predictionsが空", status: http.StatusOK, body: `{"predictions":[]}`, wantStatus: 500, wantMalformed: true},
		{name: "画像データがない", status: http.StatusOK, body: `{"predictions":[{"mimeType":"image/png"}]}`, wantStatus: 500, wantMalformed: true},
		{name: "JSONではない", status: http.StatusOK, body: `<html>`, wantStatus: 500, wantMalformed: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := newTestClient(srv, time.Second).Predict(context.Background(), "tok", primaryCall())

			var upstreamErr *domain.UpstreamError
			require.True(t, errors.As(err, &upstreamErr), "UpstreamError が期待されましたが、実際: %v", err)
			assert.Equal(t, tt.wantStatus, upstreamErr.Status)
			assert.Equal(t, tt.wantMalformed, upstreamErr.Malformed)
			assert.Equal(t, "imagen-3.0-fast-generate-001", upstreamErr.Model)
			if tt.wantBodyLen > 0 {
				assert.Len(t, upstreamErr.Body, tt.wantBodyLen)
			}
		})
	}
}

func TestPredictClient_Predict_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	_, err := newTestClient(srv, 50*time.Millisecond).Predict(context.Background(), "tok", primaryCall())

	var upstreamErr *domain.UpstreamError
	require.True(t, errors.As(err, &upstreamErr))
	assert.Equal(t, 0, upstreamErr.Status)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestRegionProber_Probe(t *testing.T) {
	var seen []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		if strings.Contains(r.URL.Path, "/locations/europe-west4/") {
			_, _ = w.Write([]byte(`{"models":[]}`))
			return
		}
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	prober := NewRegionProber("ecominds-test")
	prober.HTTPClient = srv.Client()
	prober.BaseURL = func(string) string { return srv.URL }

	results, found := prober.Probe(context.Background(), "tok", DefaultProbeRegions)

	assert.Equal(t, "europe-west4", found)
	require.Len(t, results, 3)
	assert.Equal(t, http.StatusForbidden, results[0].Status)
	assert.True(t, results[2].OK())
	assert.Equal(t, "/v1/projects/ecominds-test/locations/us-central1/models", seen[0])
}

func TestRegionProber_TruncatedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "100")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"models":`))
	}))
	defer srv.Close()

	prober := NewRegionProber("ecominds-test")
	prober.HTTPClient = srv.Client()
	prober.BaseURL = func(string) string { return srv.URL }

	results, found := prober.Probe(context.Background(), "tok", []string{"us-central1"})

	assert.Empty(t, found, "本文が途中で切れたリージョンは利用可能とみなさないべきです")
	require.Len(t, results, 1)
	assert.Equal(t, http.StatusOK, results[0].Status)
	require.Error(t, results[0].Err)
	assert.True(t, errors.Is(results[0].Err, io.ErrUnexpectedEOF))
	assert.False(t, results[0].OK())
}
