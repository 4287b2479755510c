package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	authhandler "shop_backend/internal/feature/auth/transport/handler"
	platformhandler "shop_backend/internal/platform/http/handler"
	jwtmw "shop_backend/internal/platform/jwt"
	"shop_backend/internal/shared/ratelimiter"
)

func NewRouter(authHandler *authhandler.AuthHandler, issuer *jwtmw.Issuer, db *gorm.DB, rdb *redis.Client) *gin.Engine {
	r := gin.Default()

	// ヘルスチェック（liveness）と依存先疎通（readiness）
	r.GET("/healthz", platformhandler.Health)
	r.HEAD("/healthz", platformhandler.Health)
	r.OPTIONS("/healthz", platformhandler.Health)
	r.GET("/readyz", platformhandler.Readiness(db, rdb))

	// 認証情報を扱うエンドポイントにはIP単位のレートリミットを適用
	loginLimit := ratelimiter.Middleware(ratelimiter.NewRateLimiter(10, time.Minute))
	forgotLimit := ratelimiter.Middleware(ratelimiter.NewRateLimiter(5, time.Minute))

	// 認証不要
	// 新規ユーザー登録
	r.POST("/signup", authHandler.Signup)
	// ログイン（トークンペア発行）
	r.POST("/login", loginLimit, authHandler.Login)
	// リフレッシュトークンのローテーション
	r.POST("/refresh-token", authHandler.Refresh)
	// メール内リンクからの確認
	r.GET("/verify-email/:token", authHandler.VerifyEmail)
	// パスワードリセットの要求と確定
	r.POST("/forgot-password", forgotLimit, authHandler.ForgotPassword)
	r.POST("/reset-password/:token", authHandler.ResetPassword)

	// 認証必須のルート
	// jwtmw.AuthRequired() ミドルウェアを適用
	// → リクエストヘッダーに Bearer アクセストークンが必要になる
	auth := r.Group("/")
	auth.Use(jwtmw.AuthRequired(issuer))
	{
		auth.POST("/logout", authHandler.Logout)
		auth.POST("/send-verification-email", authHandler.SendVerificationEmail)
		auth.GET("/profile", authHandler.GetProfile)
		auth.PUT("/profile", authHandler.UpdateProfile)
	}

	return r
}
