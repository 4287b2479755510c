// Package handler はプラットフォームレベルのエンドポイント用HTTPハンドラーを提供します。
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Health はサービスヘルスチェック用の /healthz エンドポイントを処理します。
// プロセスの生存のみを報告し、依存先には触れません。
func Health(c *gin.Context) {
	// 明示的にキャッシュを防止
	c.Header("Cache-Control", "no-store")

	switch c.Request.Method {
	case http.MethodHead:
		c.Status(http.StatusOK)
	case http.MethodOptions:
		c.Status(http.StatusNoContent)
	default:
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

// Readiness は /readyz エンドポイント用のハンドラーを生成します。
// データベースとRedisへの疎通を確認し、いずれかが失敗すると503を返します。
// rdbがnilの場合（キャッシュ無効構成）、Redisのチェックはスキップされます。
func Readiness(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-store")

		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		checks := gin.H{"database": "ok"}
		healthy := true

		sqlDB, err := db.DB()
		if err != nil || sqlDB.PingContext(ctx) != nil {
			checks["database"] = "unreachable"
			healthy = false
		}

		if rdb != nil {
			checks["redis"] = "ok"
			if err := rdb.Ping(ctx).Err(); err != nil {
				checks["redis"] = "unreachable"
				healthy = false
			}
		}

		status := http.StatusOK
		if !healthy {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, checks)
	}
}
