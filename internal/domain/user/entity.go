package user

import (
	"regexp"
	"time"
)

var emailPattern = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,7}$`)

// User は利用者を表す
type User struct {
	ID           string
	Email        string
	Username     string
	PasswordHash string
	FirstName    string
	LastName     string
	Age          int
	IsAdmin      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Profile は登録・更新時の入力値
type Profile struct {
	Email     string
	Username  string
	FirstName string
	LastName  string
	Age       int
	IsAdmin   bool
}

// NewUser は新しいユーザーを作成する。passwordHash はハッシュ化済みの値
func NewUser(p Profile, passwordHash string, now time.Time) *User {
	return &User{
		Email:        p.Email,
		Username:     p.Username,
		PasswordHash: passwordHash,
		FirstName:    p.FirstName,
		LastName:     p.LastName,
		Age:          p.Age,
		IsAdmin:      p.IsAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Apply はプロフィールを上書きする
func (u *User) Apply(p Profile, now time.Time) {
	u.Email = p.Email
	u.Username = p.Username
	u.FirstName = p.FirstName
	u.LastName = p.LastName
	u.Age = p.Age
	u.IsAdmin = p.IsAdmin
	u.UpdatedAt = now
}

// ValidEmail はメールアドレスの形式を確認する
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// Validate はユーザーの検証を行う。一意性はリポジトリ側で確認する
func (u *User) Validate() error {
	if u.Email == "" {
		return ErrEmailRequired
	}
	if !ValidEmail(u.Email) {
		return ErrInvalidEmail
	}
	if u.Username == "" {
		return ErrUsernameRequired
	}
	if u.PasswordHash == "" {
		return ErrPasswordRequired
	}
	if u.FirstName == "" {
		return ErrFirstNameRequired
	}
	if u.LastName == "" {
		return ErrLastNameRequired
	}
	if u.Age <= 0 {
		return ErrInvalidAge
	}
	return nil
}
