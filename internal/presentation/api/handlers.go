package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"ecomindsx/internal/application"
	"ecomindsx/internal/domain"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// ImageGenerator は、画像生成サービスのインターフェースです
type ImageGenerator interface {
	GenerateImage(ctx context.Context, req domain.GenerationRequest) (domain.GenerationResult, error)
}

// TextAnalyzer は、テキスト生成サービスのインターフェースです
type TextAnalyzer interface {
	GenerateText(ctx context.Context, prompt string) (application.TextResult, error)
}

// HealthChecker は、ヘルスチェックサービスのインターフェースです
type HealthChecker interface {
	Check(ctx context.Context) (application.HealthReport, error)
}

// Handler は、API のリクエストを処理します
type Handler struct {
	images ImageGenerator
	text   TextAnalyzer
	health HealthChecker
}

// NewHandler は新しいHandlerインスタンスを作成します
func NewHandler(images ImageGenerator, text TextAnalyzer, health HealthChecker) *Handler {
	return &Handler{images: images, text: text, health: health}
}

// routes は、/api/test で案内するエンドポイントの一覧です
var routes = []string{
	"POST /api/generate-image",
	"POST /api/analyze",
	"GET /api/health",
	"GET /api/test",
}

// RegisterRoutes は、ルートを gin エンジンに登録します
func (h *Handler) RegisterRoutes(engine *gin.Engine) {
	api := engine.Group("/api")
	api.POST("/generate-image", h.generateImage)
	api.POST("/analyze", h.analyze)
	api.GET("/health", h.healthCheck)
	api.GET("/test", h.test)
}

type generateImageRequest struct {
	Prompt         string     `json:"prompt"`
	AspectRatio    string     `json:"aspectRatio"`
	NumberOfImages imageCount `json:"numberOfImages"`
}

// imageCount は、数値または数値文字列で指定された画像枚数です
// 小数は切り捨て、空文字列と null は未指定として扱います
type imageCount int

func (n *imageCount) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*n = 0
		return nil
	}
	if unquoted, err := strconv.Unquote(s); err == nil {
		s = strings.TrimSpace(unquoted)
	}
	if s == "" {
		*n = 0
		return nil
	}
	if i, err := strconv.Atoi(s); err == nil {
		*n = imageCount(i)
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("numberOfImages は数値で指定してください: %s", s)
	}
	*n = imageCount(int(f))
	return nil
}

type generateImageResponse struct {
	Success bool `json:"success"`
	domain.GenerationResult
}

type analyzeRequest struct {
	Prompt string `json:"prompt"`
}

type analyzeResponse struct {
	Success  bool   `json:"success"`
	Analysis string `json:"analysis"`
	Model    string `json:"model"`
}

type unhealthyResponse struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

type testResponse struct {
	Message   string   `json:"message"`
	Endpoints []string `json:"endpoints"`
}

// upstreamContext は、ブラウザの切断で上流呼び出しが中断されないコンテキストを返します
func upstreamContext(c *gin.Context) context.Context {
	return context.WithoutCancel(c.Request.Context())
}

func (h *Handler) generateImage(c *gin.Context) {
	var body generateImageRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		h.respondError(c, &domain.ValidationError{Field: "body", Err: err})
		return
	}

	result, err := h.images.GenerateImage(upstreamContext(c), domain.GenerationRequest{
		Prompt:      body.Prompt,
		AspectRatio: body.AspectRatio,
		ImageCount:  int(body.NumberOfImages),
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, generateImageResponse{Success: true, GenerationResult: result})
}

func (h *Handler) analyze(c *gin.Context) {
	var body analyzeRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		h.respondError(c, &domain.ValidationError{Field: "body", Err: err})
		return
	}

	result, err := h.text.GenerateText(upstreamContext(c), body.Prompt)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, analyzeResponse{Success: true, Analysis: result.Text, Model: result.Model})
}

func (h *Handler) healthCheck(c *gin.Context) {
	report, err := h.health.Check(upstreamContext(c))
	if err != nil {
		log.Warnf("ヘルスチェックに失敗しました: %v", err)
		c.JSON(http.StatusInternalServerError, unhealthyResponse{Status: "unhealthy", Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *Handler) test(c *gin.Context) {
	c.JSON(http.StatusOK, testResponse{
		Message:   "EcoMindsX Vertex AI サーバーが稼働しています",
		Endpoints: routes,
	})
}

// respondError は、エラーをエラー応答に変換して返します
func (h *Handler) respondError(c *gin.Context, err error) {
	status, env := envelopeFor(err)
	_ = c.Error(err)
	c.JSON(status, env)
}
