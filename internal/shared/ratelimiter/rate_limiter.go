// Package ratelimiter はログインやパスワードリセット等の操作の頻度を
// キー（クライアントIPなど）単位で制限します。
package ratelimiter

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"shop_backend/internal/api"
)

// RateLimiterInterface は、操作の頻度を制限するインターフェースです。
type RateLimiterInterface interface {
	Allow(key string) bool
}

// RateLimiter は固定ウィンドウ方式のレートリミッターです。
type RateLimiter struct {
	limit    int           // ウィンドウあたりの上限
	interval time.Duration // どの単位でリセットするか

	mu      sync.Mutex
	windows map[string]*window
}

type window struct {
	count int
	start time.Time
}

// NewRateLimiter は新しいRateLimiterのインスタンスを生成します。
func NewRateLimiter(limit int, interval time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:    limit,
		interval: interval,
		windows:  make(map[string]*window),
	}
}

// Allow はキーに対するリクエストを受け付けるかを返します。
// interval を過ぎたウィンドウはリセットされます。
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	w, ok := rl.windows[key]
	if !ok || now.Sub(w.start) >= rl.interval {
		// 期限切れウィンドウの掃除（マップの無制限な成長を防ぐ）
		if len(rl.windows) > 1024 {
			for k, v := range rl.windows {
				if now.Sub(v.start) >= rl.interval {
					delete(rl.windows, k)
				}
			}
		}
		rl.windows[key] = &window{count: 1, start: now}
		return true
	}

	if w.count >= rl.limit {
		return false
	}
	w.count++
	return true
}

// Middleware は上限超過時に429を返すGinミドルウェアを生成します。
func Middleware(rl RateLimiterInterface) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.Allow(c.ClientIP()) {
			c.Abort()
			api.Fail(c, http.StatusTooManyRequests, "too many requests")
			return
		}
		c.Next()
	}
}
