package reservation

import "github.com/sanosuguru/go-train-ticket-reservation/internal/domain/apperr"

// Reservation ドメインのエラー定義
var (
	ErrReservationNotFound    = apperr.New(apperr.ErrNotFound, "予約が見つかりません")
	ErrReservationAlreadyPaid = apperr.New(apperr.ErrInvalidInput, "支払い済みの予約は変更できません")
	ErrTripIDRequired         = apperr.New(apperr.ErrInvalidInput, "列車IDは必須です")
	ErrUserIDRequired         = apperr.New(apperr.ErrInvalidInput, "ユーザーIDは必須です")
	ErrInvalidTicketNumbers   = apperr.New(apperr.ErrInvalidInput, "チケット枚数は1以上である必要があります")
	ErrInvalidSumPrice        = apperr.New(apperr.ErrInvalidInput, "合計金額は0より大きい必要があります")
	ErrCreatedAtRequired      = apperr.New(apperr.ErrInvalidInput, "作成日時は必須です")
	ErrReservationNotPaid     = apperr.New(apperr.ErrInvalidInput, "支払い前の予約は乗車券を発行できません")
)
