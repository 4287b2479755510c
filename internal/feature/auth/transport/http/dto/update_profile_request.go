package dto

// UpdateProfileReq は/profile更新のリクエストボディを表します。
// nilのフィールドは変更されません。
type UpdateProfileReq struct {
	FullName          *string `json:"fullName"`
	Phone             *string `json:"phone"`
	ProfilePictureURL *string `json:"profilePictureUrl"`
}
