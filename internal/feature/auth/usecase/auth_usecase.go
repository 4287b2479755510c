// Package usecase はauthフィーチャーのビジネスロジックを実装します。
// サインアップ、ログイン、メール確認、パスワードリセット、
// リフレッシュトークンのローテーションを束ねる中核です。
package usecase

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"shop_backend/internal/feature/auth/domain"
	"shop_backend/internal/feature/auth/domain/entity"
	"shop_backend/internal/platform/password"
	"shop_backend/internal/platform/token"
)

const (
	// minPasswordLength はパスワードの最低文字数を定義します。
	minPasswordLength = 8

	// verificationTokenTTL はメール確認トークンの有効期間です。
	verificationTokenTTL = time.Hour

	// resetTokenTTL はパスワードリセットトークンの有効期間です。
	resetTokenTTL = 15 * time.Minute
)

// phonePattern は電話番号の形式（数字10桁）を検証します。
var phonePattern = regexp.MustCompile(`^[0-9]{10}$`)

// ProfileUpdate holds the profile fields a user may overwrite.
// Nil fields are left untouched.
type ProfileUpdate struct {
	FullName          *string
	Phone             *string
	ProfilePictureURL *string
}

// UserRepository はユーザーエンティティの永続化層を抽象化します。
// Goの慣例に従い、インターフェースはプロバイダー（adapters）ではなくコンシューマー（usecase）が定義します。
type UserRepository interface {
	// Create は新しいユーザーをストレージに永続化します。
	// email/username/phoneの一意制約違反は対応するdomain.ErrDuplicate*を返します。
	Create(ctx context.Context, user *entity.User) error

	// FindByIdentifier はメールアドレスまたはユーザー名でユーザーを取得します。
	FindByIdentifier(ctx context.Context, identifier string) (*entity.User, error)

	// FindByEmail は指定されたメールアドレスに一致するユーザーを取得します。
	FindByEmail(ctx context.Context, email string) (*entity.User, error)

	// FindByID は指定されたIDに一致するユーザーを取得します。
	FindByID(ctx context.Context, id string) (*entity.User, error)

	// SetRefreshToken は保存済みリフレッシュトークンを無条件に上書きします。
	SetRefreshToken(ctx context.Context, id, refreshToken string) error

	// RotateRefreshToken compare-and-swaps the stored refresh token: the
	// update applies only while the stored value still equals old. A lost
	// race returns domain.ErrUnauthorized.
	RotateRefreshToken(ctx context.Context, id, old, new string) error

	// ClearRefreshToken は保存済みリフレッシュトークンを消去します（冪等）。
	ClearRefreshToken(ctx context.Context, id string) error

	// SetEmailVerification はメール確認トークンのダイジェストと有効期限を保存します。
	// 既存の未消費トークンは上書きされます。
	SetEmailVerification(ctx context.Context, id, digest string, expiresAt time.Time) error

	// ConfirmEmailByTokenHash consumes an unexpired verification digest in a
	// single conditional update: sets isEmailVerified and clears both token
	// fields. No matching row returns domain.ErrInvalidOrExpiredToken.
	ConfirmEmailByTokenHash(ctx context.Context, digest string, now time.Time) error

	// SetPasswordReset はリセットトークンのダイジェストと有効期限を保存します。
	SetPasswordReset(ctx context.Context, id, digest string, expiresAt time.Time) error

	// ResetPasswordByTokenHash consumes an unexpired reset digest in a single
	// conditional update: rewrites the password hash, clears the reset fields
	// and revokes the stored refresh token.
	ResetPasswordByTokenHash(ctx context.Context, digest, newPasswordHash string, now time.Time) error

	// UpdateProfile はプロフィール項目を上書きし、更新後のユーザーを返します。
	UpdateProfile(ctx context.Context, id string, update ProfileUpdate) (*entity.User, error)
}

// TokenIssuer は署名付きセッショントークンの発行と検証を抽象化します。
type TokenIssuer interface {
	// IssueAccessToken は短命のアクセストークンを発行します。
	IssueAccessToken(userID, email, username, fullName string) (string, error)
	// IssueRefreshToken はユーザーIDのみを運ぶリフレッシュトークンを発行します。
	IssueRefreshToken(userID string) (string, error)
	// VerifyRefreshToken は署名と有効期限を検証し、ユーザーIDを返します。
	VerifyRefreshToken(tokenStr string) (string, error)
}

// Mailer は外部メール送信を抽象化します。送信失敗はトランスポートエラーを返します。
type Mailer interface {
	Send(ctx context.Context, to, subject, text string) error
}

// AuthUsecase は認証ビジネスロジックを実装します。
type AuthUsecase struct {
	users       UserRepository
	tokens      TokenIssuer
	mailer      Mailer
	frontendURL string

	// now is the single authoritative clock read per operation.
	now func() time.Time
}

// NewAuthUsecase はAuthUsecaseの新しいインスタンスを生成します。
func NewAuthUsecase(users UserRepository, tokens TokenIssuer, mailer Mailer, frontendURL string) *AuthUsecase {
	return &AuthUsecase{
		users:       users,
		tokens:      tokens,
		mailer:      mailer,
		frontendURL: strings.TrimSuffix(frontendURL, "/"),
		now:         time.Now,
	}
}

// SignupInput はサインアップの入力項目です。全項目必須です。
type SignupInput struct {
	Username string
	Email    string
	Password string
	FullName string
	Phone    string
}

// Signup はハッシュ化されたパスワードで新規ユーザーを登録し、
// メール確認トークンを発行して確認リンクを送信します。
// トークンの状態はメール送信前に永続化されるため、送信失敗時も
// トークンは有効なまま残り、再試行が可能です。
func (u *AuthUsecase) Signup(ctx context.Context, in SignupInput) (*entity.User, error) {
	in.Username = strings.ToLower(strings.TrimSpace(in.Username))
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.FullName = strings.TrimSpace(in.FullName)
	in.Phone = strings.TrimSpace(in.Phone)

	if in.Username == "" || in.Email == "" || in.Password == "" || in.FullName == "" || in.Phone == "" {
		return nil, fmt.Errorf("%w: all fields are required", domain.ErrValidation)
	}
	if len(in.Password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters long", domain.ErrValidation, minPasswordLength)
	}
	if !phonePattern.MatchString(in.Phone) {
		return nil, fmt.Errorf("%w: phone must be 10 digits", domain.ErrValidation)
	}

	hashed, err := password.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	secret, err := token.GenerateSecret()
	if err != nil {
		return nil, err
	}
	digest := token.Hash(secret)
	expiresAt := u.now().Add(verificationTokenTTL)

	user := &entity.User{
		ID:                         uuid.NewString(),
		Username:                   in.Username,
		Email:                      in.Email,
		PasswordHash:               hashed,
		FullName:                   in.FullName,
		Phone:                      &in.Phone,
		Role:                       entity.RoleBuyer,
		EmailVerificationTokenHash: &digest,
		EmailVerificationExpiresAt: &expiresAt,
	}
	if err := u.users.Create(ctx, user); err != nil {
		return nil, err
	}

	if err := u.sendVerificationLink(ctx, user.Email, secret); err != nil {
		return nil, err
	}
	return user, nil
}

// Login はユーザーを認証し、アクセス・リフレッシュトークンを発行します。
// 発行したリフレッシュトークンはユーザーレコードに保存され、既存の値を
// 上書きします（同時に有効なリフレッシュトークンは常に1つ）。
// タイミング攻撃を防止するため、ユーザーが存在しない場合でもbcrypt比較を実行します。
func (u *AuthUsecase) Login(ctx context.Context, identifier, plain string) (*entity.User, string, string, error) {
	identifier = strings.ToLower(strings.TrimSpace(identifier))
	if identifier == "" || plain == "" {
		return nil, "", "", fmt.Errorf("%w: identifier and password are required", domain.ErrValidation)
	}

	user, err := u.users.FindByIdentifier(ctx, identifier)

	// ユーザー未検出時もダミーハッシュで比較し、所要時間を揃える
	hashed := password.DummyHash
	if err == nil {
		hashed = user.PasswordHash
	}
	ok := password.Verify(plain, hashed)

	// 「ユーザーなし」と「パスワード不一致」は同一のエラーに集約する
	// （アカウント列挙を防止するため）
	if err != nil || !ok {
		return nil, "", "", domain.ErrInvalidCredentials
	}

	access, err := u.tokens.IssueAccessToken(user.ID, user.Email, user.Username, user.FullName)
	if err != nil {
		return nil, "", "", fmt.Errorf("failed to generate token: %w", err)
	}
	refresh, err := u.tokens.IssueRefreshToken(user.ID)
	if err != nil {
		return nil, "", "", fmt.Errorf("failed to generate token: %w", err)
	}

	if err := u.users.SetRefreshToken(ctx, user.ID, refresh); err != nil {
		return nil, "", "", err
	}
	user.RefreshToken = &refresh
	return user, access, refresh, nil
}

// Logout は保存済みリフレッシュトークンを無条件に消去します。
// 既にセッションがない場合も成功します（冪等）。
func (u *AuthUsecase) Logout(ctx context.Context, userID string) error {
	return u.users.ClearRefreshToken(ctx, userID)
}

// Refresh はリフレッシュトークンを検証し、新しいトークンペアを発行します。
// 提示されたトークンが保存値と一致する場合のみローテーションが成立し、
// 古いトークンは無効になります。同一トークンによる並行リフレッシュは
// ストア側のcompare-and-swapにより一方だけが成功します。
func (u *AuthUsecase) Refresh(ctx context.Context, presented string) (string, string, error) {
	if presented == "" {
		return "", "", fmt.Errorf("%w: refresh token is required", domain.ErrValidation)
	}

	userID, err := u.tokens.VerifyRefreshToken(presented)
	if err != nil {
		return "", "", domain.ErrUnauthorized
	}

	user, err := u.users.FindByID(ctx, userID)
	if err != nil {
		return "", "", domain.ErrUnauthorized
	}

	access, err := u.tokens.IssueAccessToken(user.ID, user.Email, user.Username, user.FullName)
	if err != nil {
		return "", "", fmt.Errorf("failed to generate token: %w", err)
	}
	refresh, err := u.tokens.IssueRefreshToken(user.ID)
	if err != nil {
		return "", "", fmt.Errorf("failed to generate token: %w", err)
	}

	// 保存値との照合とローテーションを単一のCAS更新で行う
	if err := u.users.RotateRefreshToken(ctx, user.ID, presented, refresh); err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

// SendVerificationEmail は新しいメール確認トークンを発行し、確認リンクを送信します。
// 再実行可能で、呼び出しごとに前回の未消費トークンを無効化します。
func (u *AuthUsecase) SendVerificationEmail(ctx context.Context, userID string) error {
	user, err := u.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.IsEmailVerified {
		return fmt.Errorf("%w: email is already verified", domain.ErrValidation)
	}

	secret, err := token.GenerateSecret()
	if err != nil {
		return err
	}
	if err := u.users.SetEmailVerification(ctx, user.ID, token.Hash(secret), u.now().Add(verificationTokenTTL)); err != nil {
		return err
	}
	return u.sendVerificationLink(ctx, user.Email, secret)
}

// ConfirmEmail は提示された確認トークンを消費し、メールアドレスを確認済みにします。
// トークンは単回使用です。2回目の確認は（フィールドが既に消去されているため）失敗します。
func (u *AuthUsecase) ConfirmEmail(ctx context.Context, secret string) error {
	if secret == "" {
		return fmt.Errorf("%w: token is required", domain.ErrValidation)
	}
	return u.users.ConfirmEmailByTokenHash(ctx, token.Hash(secret), u.now())
}

// ForgotPassword はパスワードリセットトークンを発行し、リセットリンクを送信します。
func (u *AuthUsecase) ForgotPassword(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return fmt.Errorf("%w: email is required", domain.ErrValidation)
	}

	user, err := u.users.FindByEmail(ctx, email)
	if err != nil {
		return err
	}

	secret, err := token.GenerateSecret()
	if err != nil {
		return err
	}
	if err := u.users.SetPasswordReset(ctx, user.ID, token.Hash(secret), u.now().Add(resetTokenTTL)); err != nil {
		return err
	}

	resetURL := fmt.Sprintf("%s/reset-password/%s", u.frontendURL, secret)
	if err := u.mailer.Send(ctx, user.Email, "Password Reset",
		fmt.Sprintf("Click the link to reset your password: %s", resetURL)); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrEmailDelivery, err)
	}
	return nil
}

// ResetPassword は提示されたリセットトークンを消費し、新しいパスワードを保存します。
// 同時に保存済みリフレッシュトークンも破棄し、既存セッションを無効化します。
func (u *AuthUsecase) ResetPassword(ctx context.Context, secret, newPassword string) error {
	if secret == "" {
		return fmt.Errorf("%w: token is required", domain.ErrValidation)
	}
	if len(newPassword) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters long", domain.ErrValidation, minPasswordLength)
	}

	hashed, err := password.Hash(newPassword)
	if err != nil {
		return err
	}
	return u.users.ResetPasswordByTokenHash(ctx, token.Hash(secret), hashed, u.now())
}

// GetProfile は認証済みユーザーのレコードを取得します。
func (u *AuthUsecase) GetProfile(ctx context.Context, userID string) (*entity.User, error) {
	return u.users.FindByID(ctx, userID)
}

// UpdateProfile はプロフィール項目を上書きし、更新後のユーザーを返します。
func (u *AuthUsecase) UpdateProfile(ctx context.Context, userID string, update ProfileUpdate) (*entity.User, error) {
	if update.FullName != nil {
		trimmed := strings.TrimSpace(*update.FullName)
		if trimmed == "" {
			return nil, fmt.Errorf("%w: fullName must not be blank", domain.ErrValidation)
		}
		update.FullName = &trimmed
	}
	if update.Phone != nil && !phonePattern.MatchString(*update.Phone) {
		return nil, fmt.Errorf("%w: phone must be 10 digits", domain.ErrValidation)
	}
	return u.users.UpdateProfile(ctx, userID, update)
}

// sendVerificationLink はメール確認リンクを送信します。
// 送信失敗はdomain.ErrEmailDeliveryとして報告し、永続化済みのトークンは
// 有効なまま残します（ユーザーは再送を要求できます）。
func (u *AuthUsecase) sendVerificationLink(ctx context.Context, email, secret string) error {
	verifyURL := fmt.Sprintf("%s/verify-email/%s", u.frontendURL, secret)
	if err := u.mailer.Send(ctx, email, "Verify your email",
		fmt.Sprintf("Click the link to verify your email: %s", verifyURL)); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrEmailDelivery, err)
	}
	return nil
}
