// Package logging は、logrus の初期化と gin 用のログミドルウェアを提供します
package logging

import (
	"fmt"
	"net/http"
	"os"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// RequestIDKey は、gin.Context にリクエストIDを格納するキーです
const RequestIDKey = "request_id"

// Setup は、ログの出力形式とレベルを設定します
func Setup(level string) error {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("ログレベルの解析に失敗しました: %w", err)
	}
	log.SetOutput(os.Stdout)
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	log.SetLevel(lvl)
	return nil
}

// GinLogrusLogger は、アクセスログを logrus に出力するミドルウェアを返します
func GinLogrusLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		status := c.Writer.Status()
		entry := log.WithFields(log.Fields{
			"status":     status,
			"method":     c.Request.Method,
			"path":       path,
			"latency":    time.Since(start).String(),
			"client_ip":  c.ClientIP(),
			"request_id": c.GetString(RequestIDKey),
		})
		if len(c.Errors) > 0 {
			entry = entry.WithField("errors", c.Errors.String())
		}

		switch {
		case status >= http.StatusInternalServerError:
			entry.Error("リクエスト処理でサーバーエラーが発生しました")
		case status >= http.StatusBadRequest:
			entry.Warn("リクエストがエラーで終了しました")
		default:
			entry.Info("リクエストを処理しました")
		}
	}
}

// GinLogrusRecovery は、panic を回復して500を返すミドルウェアを返します
func GinLogrusRecovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.WithFields(log.Fields{
					"path":       c.Request.URL.Path,
					"request_id": c.GetString(RequestIDKey),
					"panic":      r,
				}).Errorf("panicから回復しました\n%s", debug.Stack())
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error": "内部エラーが発生しました",
					"kind":  "internal",
				})
			}
		}()
		c.Next()
	}
}
