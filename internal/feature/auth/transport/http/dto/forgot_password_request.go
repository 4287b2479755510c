package dto

// ForgotPasswordReq represents the request body for /forgot-password.
type ForgotPasswordReq struct {
	Email string `json:"email" binding:"required,email"`
}
