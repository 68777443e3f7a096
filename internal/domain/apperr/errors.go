package apperr

import "errors"

// エラー分類。各ドメインのエラーはいずれかを Unwrap で返す
var (
	ErrInvalidInput          = errors.New("入力値が不正です")
	ErrInsufficientInventory = errors.New("空席が不足しています")
	ErrNotFound              = errors.New("対象が見つかりません")
	ErrUnauthorized          = errors.New("権限がありません")
)

// Error は分類付きのドメインエラー
type Error struct {
	kind error
	msg  string
}

// New は分類 kind に属するエラーを作成する
func New(kind error, msg string) *Error {
	return &Error{kind: kind, msg: msg}
}

func (e *Error) Error() string {
	return e.msg
}

func (e *Error) Unwrap() error {
	return e.kind
}

// Kind はエラーの分類を返す。分類できない場合は nil
func Kind(err error) error {
	for _, k := range []error{ErrInvalidInput, ErrInsufficientInventory, ErrNotFound, ErrUnauthorized} {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}
