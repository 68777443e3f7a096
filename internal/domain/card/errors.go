package card

import "github.com/sanosuguru/go-train-ticket-reservation/internal/domain/apperr"

// TrainCard ドメインのエラー定義
var (
	ErrCardNotFound        = apperr.New(apperr.ErrNotFound, "鉄道カードが登録されていません")
	ErrUnsupportedCardType = apperr.New(apperr.ErrInvalidInput, "サポートされていないカード種別です")
	ErrUserIDRequired      = apperr.New(apperr.ErrInvalidInput, "ユーザーIDは必須です")
)
