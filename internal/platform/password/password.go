// Package password はログイン用パスワードのハッシュ化と検証を提供します。
// 検証可能な低速ハッシュ（bcrypt）を使用し、オフライン総当たり攻撃への
// 耐性を確保します。ランダムトークン用の高速ハッシュとは役割が異なります。
package password

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Hash は平文パスワードのbcryptハッシュを返します。
func Hash(plain string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// Verify は平文パスワードが保存済みハッシュと一致するかを返します。
func Verify(plain, hashed string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain)) == nil
}

// DummyHash はユーザー未検出時のタイミング攻撃緩和用ダミーハッシュです。
// ログイン処理でbcrypt比較が常に実行されることを保証します。
const DummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"
