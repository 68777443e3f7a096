// Package auth はパスワードのハッシュ化とアクセストークンを扱う
package auth

import "golang.org/x/crypto/bcrypt"

// HashPassword は bcrypt でハッシュ化する。cost が範囲外の場合は既定値
func HashPassword(plain string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword はハッシュと平文が一致するかを返す
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
