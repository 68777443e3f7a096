package reservation

import "time"

// DefaultExpireAfter は未払い予約が自動削除されるまでの期間
// 経過時間で判定するため 7 日と 1 分で期限切れになる。日単位の切り捨て（8 日目以降）ではない
const DefaultExpireAfter = 7 * 24 * time.Hour

// Reservation は予約エンティティを表す
type Reservation struct {
	ID            string
	TripID        string
	UserID        string
	TicketNumbers int
	SumPrice      float64
	HasChild      bool
	IsPaid        bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewReservation は未払いの新しい予約を作成する
func NewReservation(tripID, userID string, ticketNumbers int, sumPrice float64, hasChild bool, now time.Time) *Reservation {
	return &Reservation{
		TripID:        tripID,
		UserID:        userID,
		TicketNumbers: ticketNumbers,
		SumPrice:      sumPrice,
		HasChild:      hasChild,
		IsPaid:        false,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// IsExpired は未払いのまま expireAfter を超えて経過したかを返す
func (r *Reservation) IsExpired(now time.Time, expireAfter time.Duration) bool {
	return !r.IsPaid && now.Sub(r.CreatedAt) > expireAfter
}

// IsOwnedBy は userID の予約かを返す
func (r *Reservation) IsOwnedBy(userID string) bool {
	return r.UserID == userID
}

// MarkPaid は支払い済みにする。既に支払い済みでもエラーにしない
func (r *Reservation) MarkPaid(now time.Time) {
	r.IsPaid = true
	r.UpdatedAt = now
}

// Change は枚数・子供同伴・金額を検証してから更新する。失敗時は変更しない
func (r *Reservation) Change(ticketNumbers int, hasChild bool, sumPrice float64, now time.Time) error {
	if r.IsPaid {
		return ErrReservationAlreadyPaid
	}
	candidate := *r
	candidate.TicketNumbers = ticketNumbers
	candidate.HasChild = hasChild
	candidate.SumPrice = sumPrice
	candidate.UpdatedAt = now
	if err := candidate.Validate(); err != nil {
		return err
	}
	*r = candidate
	return nil
}

// CheckCancelable はキャンセル可能かを確認する
func (r *Reservation) CheckCancelable() error {
	if r.IsPaid {
		return ErrReservationAlreadyPaid
	}
	return nil
}

// Validate は予約の検証を行う
func (r *Reservation) Validate() error {
	if r.TripID == "" {
		return ErrTripIDRequired
	}
	if r.UserID == "" {
		return ErrUserIDRequired
	}
	if r.TicketNumbers <= 0 {
		return ErrInvalidTicketNumbers
	}
	if r.SumPrice <= 0 {
		return ErrInvalidSumPrice
	}
	if r.CreatedAt.IsZero() {
		return ErrCreatedAtRequired
	}
	return nil
}
