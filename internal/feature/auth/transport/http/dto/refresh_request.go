package dto

// RefreshReq represents the request for token refresh.
type RefreshReq struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// RefreshRes represents the response for a successful token refresh.
type RefreshRes struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}
