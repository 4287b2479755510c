// Package handler はauthフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"shop_backend/internal/api"
	"shop_backend/internal/feature/auth/domain"
	"shop_backend/internal/feature/auth/domain/entity"
	"shop_backend/internal/feature/auth/transport/http/dto"
	"shop_backend/internal/feature/auth/usecase"
	jwtmw "shop_backend/internal/platform/jwt"
)

// AuthUsecase は認証操作のユースケースを定義します。
// Goの慣例に従い、インターフェースはプロバイダー（usecase）ではなくコンシューマー（handler）が定義します。
type AuthUsecase interface {
	Signup(ctx context.Context, in usecase.SignupInput) (*entity.User, error)
	Login(ctx context.Context, identifier, password string) (*entity.User, string, string, error)
	Logout(ctx context.Context, userID string) error
	Refresh(ctx context.Context, refreshToken string) (string, string, error)
	SendVerificationEmail(ctx context.Context, userID string) error
	ConfirmEmail(ctx context.Context, secret string) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, secret, newPassword string) error
	GetProfile(ctx context.Context, userID string) (*entity.User, error)
	UpdateProfile(ctx context.Context, userID string, update usecase.ProfileUpdate) (*entity.User, error)
}

// AuthHandler は認証操作のHTTPリクエストを処理します。
// AuthUsecaseインターフェースに依存し、JSONリクエスト/レスポンスを処理します。
type AuthHandler struct {
	auth AuthUsecase
}

// NewAuthHandler はAuthHandlerの新しいインスタンスを生成します。
func NewAuthHandler(auth AuthUsecase) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// respondError はドメインエラーをHTTPステータスへ変換します。
// 未知のエラーは詳細を隠して500を返します。
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		api.Fail(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrDuplicateEmail),
		errors.Is(err, domain.ErrDuplicateUsername),
		errors.Is(err, domain.ErrDuplicatePhone),
		errors.Is(err, domain.ErrDuplicateUser):
		api.Fail(c, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrUserNotFound):
		api.Fail(c, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrInvalidCredentials):
		api.Fail(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrInvalidOrExpiredToken):
		api.Fail(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		api.Fail(c, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, domain.ErrEmailDelivery):
		api.Fail(c, http.StatusInternalServerError, domain.ErrEmailDelivery.Error())
	default:
		slog.Error("unexpected error", "error", err, "path", c.FullPath())
		api.Fail(c, http.StatusInternalServerError, "internal server error")
	}
}

// Signup はユーザー登録APIエンドポイントを処理します。
// - バリデーションエラー時は400を返却
// - email/username/phone重複時は409を返却
// - 成功時は201と（クレデンシャルを除く）作成済みユーザーを返却
func (h *AuthHandler) Signup(c *gin.Context) {
	var req dto.SignupReq
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("signup validation failed", "error", err, "remote_addr", c.ClientIP())
		api.Fail(c, http.StatusBadRequest, "invalid request")
		return
	}

	user, err := h.auth.Signup(c.Request.Context(), usecase.SignupInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
		Phone:    req.Phone,
	})
	if err != nil {
		slog.Warn("signup failed", "error", err, "email", req.Email, "remote_addr", c.ClientIP())
		respondError(c, err)
		return
	}

	slog.Info("user signup successful", "email", user.Email, "remote_addr", c.ClientIP())
	api.OK(c, http.StatusCreated, dto.NewUserRes(user), "User registered successfully. Please verify your email.")
}

// Login はユーザーログインAPIエンドポイントを処理します。
// 認証成功時はアクセス・リフレッシュトークンとユーザービューを返します。
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("login validation failed", "error", err, "remote_addr", c.ClientIP())
		api.Fail(c, http.StatusBadRequest, "invalid request")
		return
	}

	user, access, refresh, err := h.auth.Login(c.Request.Context(), req.Identifier, req.Password)
	if err != nil {
		// ユーザー列挙攻撃を防止するため、実際のエラーを公開しない
		slog.Warn("login failed", "error", err, "identifier", req.Identifier, "remote_addr", c.ClientIP())
		respondError(c, err)
		return
	}

	slog.Info("user login successful", "user_id", user.ID, "remote_addr", c.ClientIP())
	api.OK(c, http.StatusOK, dto.LoginRes{
		AccessToken:  access,
		RefreshToken: refresh,
		User:         dto.NewUserRes(user),
	}, "Login successful")
}

// Logout は保存済みリフレッシュトークンを消去します（冪等）。
func (h *AuthHandler) Logout(c *gin.Context) {
	userID := jwtmw.UserID(c)
	if err := h.auth.Logout(c.Request.Context(), userID); err != nil {
		respondError(c, err)
		return
	}
	slog.Info("user logout", "user_id", userID)
	api.OK(c, http.StatusOK, nil, "Logout successful")
}

// Refresh はリフレッシュトークンを検証し、新しいトークンペアを返します。
// 署名不正・期限切れ・保存値との不一致はいずれも401を返します。
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req dto.RefreshReq
	if err := c.ShouldBindJSON(&req); err != nil {
		api.Fail(c, http.StatusBadRequest, "refresh token is required")
		return
	}

	access, refresh, err := h.auth.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		slog.Warn("token refresh failed", "error", err, "remote_addr", c.ClientIP())
		respondError(c, err)
		return
	}

	api.OK(c, http.StatusOK, dto.RefreshRes{AccessToken: access, RefreshToken: refresh}, "Access token refreshed")
}

// SendVerificationEmail は新しい確認トークンを発行し、確認リンクを送信します。
func (h *AuthHandler) SendVerificationEmail(c *gin.Context) {
	userID := jwtmw.UserID(c)
	if err := h.auth.SendVerificationEmail(c.Request.Context(), userID); err != nil {
		slog.Warn("send verification email failed", "error", err, "user_id", userID)
		respondError(c, err)
		return
	}
	api.OK(c, http.StatusOK, nil, "Verification email sent")
}

// VerifyEmail はメール内リンクの確認トークンを消費します。
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	if err := h.auth.ConfirmEmail(c.Request.Context(), c.Param("token")); err != nil {
		slog.Warn("email verification failed", "error", err, "remote_addr", c.ClientIP())
		respondError(c, err)
		return
	}
	api.OK(c, http.StatusOK, nil, "Email verified successfully")
}

// ForgotPassword はパスワードリセットリンクを送信します。
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req dto.ForgotPasswordReq
	if err := c.ShouldBindJSON(&req); err != nil {
		api.Fail(c, http.StatusBadRequest, "email is required")
		return
	}

	if err := h.auth.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		slog.Warn("forgot password failed", "error", err, "remote_addr", c.ClientIP())
		respondError(c, err)
		return
	}
	api.OK(c, http.StatusOK, nil, "Reset password link sent to email")
}

// ResetPassword はリセットトークンを消費して新しいパスワードを保存します。
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req dto.ResetPasswordReq
	if err := c.ShouldBindJSON(&req); err != nil {
		api.Fail(c, http.StatusBadRequest, "new password is required")
		return
	}

	if err := h.auth.ResetPassword(c.Request.Context(), c.Param("token"), req.NewPassword); err != nil {
		slog.Warn("password reset failed", "error", err, "remote_addr", c.ClientIP())
		respondError(c, err)
		return
	}
	api.OK(c, http.StatusOK, nil, "Password reset successful")
}

// GetProfile は認証済みユーザーのプロフィールを返します。
func (h *AuthHandler) GetProfile(c *gin.Context) {
	user, err := h.auth.GetProfile(c.Request.Context(), jwtmw.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	api.OK(c, http.StatusOK, dto.NewUserRes(user), "Profile fetched successfully")
}

// UpdateProfile はプロフィール項目を上書きします。
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	var req dto.UpdateProfileReq
	if err := c.ShouldBindJSON(&req); err != nil {
		api.Fail(c, http.StatusBadRequest, "invalid request")
		return
	}

	user, err := h.auth.UpdateProfile(c.Request.Context(), jwtmw.UserID(c), usecase.ProfileUpdate{
		FullName:          req.FullName,
		Phone:             req.Phone,
		ProfilePictureURL: req.ProfilePictureURL,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	api.OK(c, http.StatusOK, dto.NewUserRes(user), "Profile updated")
}
