package dto

// LoginReq は/loginエンドポイントのリクエストボディを表します。
// identifierはメールアドレスまたはユーザー名です。
type LoginReq struct {
	Identifier string `json:"identifier" binding:"required"`
	Password   string `json:"password" binding:"required"`
}

// LoginRes はログイン成功時のレスポンスを表します。
type LoginRes struct {
	AccessToken  string  `json:"accessToken"`
	RefreshToken string  `json:"refreshToken"`
	User         UserRes `json:"user"`
}
