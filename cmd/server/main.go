package main

import (
	"log"
	"time"

	redisv9 "github.com/redis/go-redis/v9"

	"shop_backend/internal/app/router"
	"shop_backend/internal/config"
	authadapters "shop_backend/internal/feature/auth/adapters"
	authhandler "shop_backend/internal/feature/auth/transport/handler"
	authusecase "shop_backend/internal/feature/auth/usecase"
	"shop_backend/internal/platform/cache"
	infradb "shop_backend/internal/platform/db"
	jwtmw "shop_backend/internal/platform/jwt"
	"shop_backend/internal/platform/mail"
	infraredis "shop_backend/internal/platform/redis"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	// db
	db := infradb.OpenDB(cfg.DSN(), cfg.RunMigrations)

	// Redis（プロフィールキャッシュ用、任意）
	var rdb *redisv9.Client
	if cfg.RedisAddr != "" {
		if tmp, err := infraredis.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword); err != nil {
			log.Println("[WARN] Redis unavailable. Running without cache.")
		} else {
			rdb = tmp
			defer func() {
				if err := rdb.Close(); err != nil {
					log.Println("[ERROR] Failed to close Redis client:", err)
				}
			}()
		}
	}

	// Repository（RedisキャッシュでFindByIDをラップ）
	userRepo := cache.NewCachingUserRepository(rdb, 5*time.Minute, authadapters.NewUserMySQL(db), "users")

	// トークン発行・メール送信
	issuer := jwtmw.NewIssuer(cfg.AccessTokenSecret, cfg.RefreshTokenSecret,
		cfg.AccessTokenExpiry, cfg.RefreshTokenExpiry)
	mailer, err := mail.NewMailer(mail.Config{
		Host:      cfg.SMTPHost,
		Port:      cfg.SMTPPort,
		Username:  cfg.SMTPUser,
		Password:  cfg.SMTPPass,
		FromName:  cfg.FromName,
		FromEmail: cfg.FromEmail,
		Timeout:   cfg.SMTPTimeout,
	})
	if err != nil {
		log.Fatal(err)
	}

	// Usecase
	authUC := authusecase.NewAuthUsecase(userRepo, issuer, mailer, cfg.FrontendURL)

	// Handler
	authH := authhandler.NewAuthHandler(authUC)

	// ルータ生成
	router := router.NewRouter(authH, issuer, db, rdb)

	if err := router.Run(":" + cfg.ServerPort); err != nil {
		log.Fatal(err)
	}
}
