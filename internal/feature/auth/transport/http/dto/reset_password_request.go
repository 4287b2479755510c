package dto

// ResetPasswordReq represents the request body for /reset-password/:token.
type ResetPasswordReq struct {
	NewPassword string `json:"newPassword" binding:"required,min=8"`
}
