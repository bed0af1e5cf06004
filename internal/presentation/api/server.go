// Package api は、ブラウザ向けの HTTP API を gin で提供します
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"ecomindsx/internal/infrastructure/config"
	"ecomindsx/internal/infrastructure/logging"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// Server は、HTTP API サーバーです
type Server struct {
	engine *gin.Engine
	server *http.Server
}

// NewServer は、ミドルウェアとルートを設定した Server を作成します
func NewServer(cfg config.ServerConfig, handler *Handler) *Server {
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(requestIDMiddleware())
	engine.Use(logging.GinLogrusLogger())
	engine.Use(logging.GinLogrusRecovery())
	engine.Use(corsMiddleware())

	handler.RegisterRoutes(engine)

	return &Server{
		engine: engine,
		server: &http.Server{
			Addr:    cfg.Addr(),
			Handler: engine,
		},
	}
}

// Handler は、テスト用に gin エンジンを返します
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start は、サーバーを起動し、停止されるまでブロックします
func (s *Server) Start() error {
	log.Infof("APIサーバーを %s で起動します", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTPサーバーの起動に失敗しました: %w", err)
	}
	return nil
}

// Stop は、処理中のリクエストを待ってからサーバーを停止します
func (s *Server) Stop(ctx context.Context) error {
	log.Info("APIサーバーを停止しています...")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("HTTPサーバーの停止に失敗しました: %w", err)
	}
	log.Info("APIサーバーを停止しました")
	return nil
}

// corsMiddleware は、すべてのオリジンからのリクエストを許可します
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "*")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
