package user

import "github.com/sanosuguru/go-train-ticket-reservation/internal/domain/apperr"

// User ドメインのエラー定義
var (
	ErrUserNotFound          = apperr.New(apperr.ErrNotFound, "ユーザーが見つかりません")
	ErrEmailRequired         = apperr.New(apperr.ErrInvalidInput, "メールアドレスは必須です")
	ErrInvalidEmail          = apperr.New(apperr.ErrInvalidInput, "有効なメールアドレスを入力してください")
	ErrEmailAlreadyExists    = apperr.New(apperr.ErrInvalidInput, "このメールアドレスは既に使用されています")
	ErrUsernameRequired      = apperr.New(apperr.ErrInvalidInput, "ユーザー名は必須です")
	ErrUsernameAlreadyExists = apperr.New(apperr.ErrInvalidInput, "このユーザー名は既に使用されています")
	ErrPasswordRequired      = apperr.New(apperr.ErrInvalidInput, "パスワードは必須です")
	ErrFirstNameRequired     = apperr.New(apperr.ErrInvalidInput, "名は必須です")
	ErrLastNameRequired      = apperr.New(apperr.ErrInvalidInput, "姓は必須です")
	ErrInvalidAge            = apperr.New(apperr.ErrInvalidInput, "年齢は1以上である必要があります")
	ErrInvalidCredentials    = apperr.New(apperr.ErrUnauthorized, "ユーザー名またはパスワードが正しくありません")
)
