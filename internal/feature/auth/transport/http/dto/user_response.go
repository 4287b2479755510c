package dto

import "shop_backend/internal/feature/auth/domain/entity"

// UserRes はクレデンシャルとセッション情報を除いたユーザービューです。
type UserRes struct {
	ID                string `json:"id"`
	Username          string `json:"username"`
	Email             string `json:"email"`
	FullName          string `json:"fullName"`
	Phone             string `json:"phone,omitempty"`
	ProfilePictureURL string `json:"profilePictureUrl,omitempty"`
	Role              string `json:"role"`
	IsEmailVerified   bool   `json:"isEmailVerified"`
}

// NewUserRes はエンティティからUserResを構築します。
// パスワードハッシュ・リフレッシュトークン・各種トークン欄は含めません。
func NewUserRes(u *entity.User) UserRes {
	res := UserRes{
		ID:                u.ID,
		Username:          u.Username,
		Email:             u.Email,
		FullName:          u.FullName,
		ProfilePictureURL: u.ProfilePictureURL,
		Role:              string(u.Role),
		IsEmailVerified:   u.IsEmailVerified,
	}
	if u.Phone != nil {
		res.Phone = *u.Phone
	}
	return res
}
