// Package adapters はauthフィーチャーのリポジトリ実装を提供します。
package adapters

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"

	"shop_backend/internal/feature/auth/domain"
	"shop_backend/internal/feature/auth/domain/entity"
	"shop_backend/internal/feature/auth/usecase"
)

// userMySQL はUserRepositoryインターフェースのMySQL実装です。
// GORMを使用してデータベース操作を行います。
type userMySQL struct {
	db *gorm.DB
}

// userMySQLがUserRepositoryを実装していることをコンパイル時に検証します。
var _ usecase.UserRepository = (*userMySQL)(nil)

// NewUserMySQL は指定されたgorm.DB接続でuserMySQLの新しいインスタンスを生成します。
// 依存性注入用のコンストラクタです。
func NewUserMySQL(db *gorm.DB) *userMySQL {
	return &userMySQL{db: db}
}

// duplicateError はユニーク制約違反をフィールド別のdomainエラーへ変換します。
// MySQLエラー1062（重複エントリ）とSQLiteのUNIQUE制約違反（テスト用）を認識します。
func duplicateError(err error) error {
	msg := err.Error()
	var mysqlErr *mysql.MySQLError
	switch {
	case errors.As(err, &mysqlErr) && mysqlErr.Number == 1062:
		msg = mysqlErr.Message
	case strings.Contains(msg, "UNIQUE constraint failed"):
	default:
		return nil
	}

	switch {
	case strings.Contains(msg, "username"):
		return domain.ErrDuplicateUsername
	case strings.Contains(msg, "email"):
		return domain.ErrDuplicateEmail
	case strings.Contains(msg, "phone"):
		return domain.ErrDuplicatePhone
	}
	return domain.ErrDuplicateUser
}

// Create はユーザーをデータベースに追加します。
// email/username/phoneが既に存在する場合、対応するdomain.ErrDuplicate*を返します。
func (r *userMySQL) Create(ctx context.Context, u *entity.User) error {
	if err := r.db.WithContext(ctx).Create(u).Error; err != nil {
		if dup := duplicateError(err); dup != nil {
			return dup
		}
		return err
	}
	return nil
}

// FindByIdentifier はメールアドレスまたはユーザー名でユーザーを取得します。
// 呼び出し側で小文字化済みの識別子を渡します。
func (r *userMySQL) FindByIdentifier(ctx context.Context, identifier string) (*entity.User, error) {
	var u entity.User
	if err := r.db.WithContext(ctx).
		Where("email = ? OR username = ?", identifier, identifier).
		First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

// FindByEmail はメールアドレスでユーザーを取得します。
// ユーザーが存在しない場合、domain.ErrUserNotFoundを返します。
func (r *userMySQL) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	var u entity.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

// FindByID はIDでユーザーを取得します。
// ユーザーが存在しない場合、domain.ErrUserNotFoundを返します。
func (r *userMySQL) FindByID(ctx context.Context, id string) (*entity.User, error) {
	var u entity.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

// SetRefreshToken は保存済みリフレッシュトークンを無条件に上書きします。
func (r *userMySQL) SetRefreshToken(ctx context.Context, id, refreshToken string) error {
	result := r.db.WithContext(ctx).
		Model(&entity.User{}).
		Where("id = ?", id).
		Update("refresh_token", refreshToken)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// RotateRefreshToken は保存値が一致する場合のみトークンを差し替えます（CAS）。
// 同一トークンでの並行リフレッシュでは一方だけが成功し、敗者は
// domain.ErrUnauthorizedを受け取ります。
func (r *userMySQL) RotateRefreshToken(ctx context.Context, id, old, new string) error {
	result := r.db.WithContext(ctx).
		Model(&entity.User{}).
		Where("id = ? AND refresh_token = ?", id, old).
		Update("refresh_token", new)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrUnauthorized
	}
	return nil
}

// ClearRefreshToken は保存済みリフレッシュトークンを消去します。
// セッションが既に存在しない場合も成功します（冪等）。
func (r *userMySQL) ClearRefreshToken(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Model(&entity.User{}).
		Where("id = ?", id).
		Update("refresh_token", nil).Error
}

// SetEmailVerification はメール確認トークンのダイジェストと有効期限を保存します。
// 前回の未消費トークンは上書きで無効になります。
func (r *userMySQL) SetEmailVerification(ctx context.Context, id, digest string, expiresAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&entity.User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"email_verification_token_hash": digest,
			"email_verification_expires_at": expiresAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// ConfirmEmailByTokenHash は未失効の確認ダイジェストに一致する行を
// 単一の条件付きUPDATEで消費します。確認フラグの設定とトークン欄の消去が
// 同時に行われるため、同じトークンの2回目の消費は必ず失敗します。
func (r *userMySQL) ConfirmEmailByTokenHash(ctx context.Context, digest string, now time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&entity.User{}).
		Where("email_verification_token_hash = ? AND email_verification_expires_at > ?", digest, now).
		Updates(map[string]interface{}{
			"is_email_verified":             true,
			"email_verification_token_hash": nil,
			"email_verification_expires_at": nil,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrInvalidOrExpiredToken
	}
	return nil
}

// SetPasswordReset はリセットトークンのダイジェストと有効期限を保存します。
func (r *userMySQL) SetPasswordReset(ctx context.Context, id, digest string, expiresAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&entity.User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"password_reset_token_hash": digest,
			"password_reset_expires_at": expiresAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// ResetPasswordByTokenHash は未失効のリセットダイジェストに一致する行を
// 単一の条件付きUPDATEで消費します。パスワードハッシュの書き換え、
// リセット欄の消去、保存済みリフレッシュトークンの破棄が同時に行われます。
func (r *userMySQL) ResetPasswordByTokenHash(ctx context.Context, digest, newPasswordHash string, now time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&entity.User{}).
		Where("password_reset_token_hash = ? AND password_reset_expires_at > ?", digest, now).
		Updates(map[string]interface{}{
			"password_hash":             newPasswordHash,
			"password_reset_token_hash": nil,
			"password_reset_expires_at": nil,
			"refresh_token":             nil,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrInvalidOrExpiredToken
	}
	return nil
}

// UpdateProfile はプロフィール項目を上書きし、更新後のユーザーを返します。
// 電話番号の重複はdomain.ErrDuplicatePhoneを返します。
func (r *userMySQL) UpdateProfile(ctx context.Context, id string, update usecase.ProfileUpdate) (*entity.User, error) {
	updates := map[string]interface{}{}
	if update.FullName != nil {
		updates["full_name"] = *update.FullName
	}
	if update.Phone != nil {
		updates["phone"] = *update.Phone
	}
	if update.ProfilePictureURL != nil {
		updates["profile_picture_url"] = *update.ProfilePictureURL
	}

	if len(updates) > 0 {
		result := r.db.WithContext(ctx).
			Model(&entity.User{}).
			Where("id = ?", id).
			Updates(updates)
		if result.Error != nil {
			if dup := duplicateError(result.Error); dup != nil {
				return nil, dup
			}
			return nil, result.Error
		}
	}

	return r.FindByID(ctx, id)
}
