package db

import (
	"log"
	"time"

	gmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"

	"shop_backend/internal/feature/auth/domain/entity"
)

// OpenDB はMySQLへ接続し、必要に応じてマイグレーションを実行します。
// 起動直後のDB未準備に備えて最大60秒リトライします。
func OpenDB(dsn string, runMigrations bool) *gorm.DB {
	var (
		db  *gorm.DB
		err error
	)

	deadline := time.Now().Add(60 * time.Second)
	for {
		db, err = gorm.Open(gmysql.Open(dsn), &gorm.Config{})
		if err == nil {
			break
		}
		if time.Now().After(deadline) {
			log.Fatalf("DB connect failed after 60s: %v", err)
		}
		log.Printf("DB connect failed, retrying...: %v", err)
		time.Sleep(3 * time.Second)
	}

	if runMigrations {
		if err := db.AutoMigrate(&entity.User{}); err != nil {
			log.Fatalf("failed to migrate: %v", err)
		}
	}

	return db
}
