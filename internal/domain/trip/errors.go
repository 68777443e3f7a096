package trip

import "github.com/sanosuguru/go-train-ticket-reservation/internal/domain/apperr"

// Trip ドメインのエラー定義
var (
	ErrTripNotFound           = apperr.New(apperr.ErrNotFound, "列車が見つかりません")
	ErrDepartureCityRequired  = apperr.New(apperr.ErrInvalidInput, "出発駅は必須です")
	ErrArrivalCityRequired    = apperr.New(apperr.ErrInvalidInput, "到着駅は必須です")
	ErrDepartureTimeRequired  = apperr.New(apperr.ErrInvalidInput, "出発日時は必須です")
	ErrArrivalTimeRequired    = apperr.New(apperr.ErrInvalidInput, "到着日時は必須です")
	ErrArrivalBeforeDeparture = apperr.New(apperr.ErrInvalidInput, "到着日時は出発日時より後である必要があります")
	ErrSameCity               = apperr.New(apperr.ErrInvalidInput, "出発駅と到着駅は同じにできません")
	ErrDepartureInPast        = apperr.New(apperr.ErrInvalidInput, "出発日時に過去は指定できません")
	ErrNegativeSeats          = apperr.New(apperr.ErrInvalidInput, "空席数は0以上である必要があります")
	ErrInvalidBasePrice       = apperr.New(apperr.ErrInvalidInput, "基本運賃は0より大きい必要があります")
	ErrInvalidDateTime        = apperr.New(apperr.ErrInvalidInput, "日時の形式が不正です（YYYY-MM-DDTHH:MM）")
	ErrInsufficientSeats      = apperr.New(apperr.ErrInsufficientInventory, "空席が不足しています")
	ErrTripHasReservations    = apperr.New(apperr.ErrInvalidInput, "予約が残っている列車は削除できません")
	ErrUnsupportedFilterType  = apperr.New(apperr.ErrInvalidInput, "サポートされていない絞り込み条件です")
	ErrFilterDataRequired     = apperr.New(apperr.ErrInvalidInput, "絞り込み値を入力してください")
	ErrOptimisticLockConflict = apperr.New(apperr.ErrInvalidInput, "他の更新と競合しました。再読み込みしてください")
)
