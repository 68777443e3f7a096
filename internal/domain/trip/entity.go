package trip

import (
	"fmt"
	"strings"
	"time"
)

// DateTimeLayout は画面・APIから受け取る日時の書式（例: 2024-03-25T08:00）
const DateTimeLayout = "2006-01-02T15:04"

// Trip は運行便と座席在庫を表す
type Trip struct {
	ID             string
	DepartureCity  string
	ArrivalCity    string
	DepartureAt    time.Time
	ArrivalAt      time.Time
	TwoWay         bool
	AvailableSeats int
	BasePrice      float64
	CreatedAt      time.Time
	UpdatedAt      time.Time
	Version        int // 楽観的ロック用
}

// Params は作成・更新時の入力値
type Params struct {
	DepartureCity  string
	ArrivalCity    string
	DepartureAt    time.Time
	ArrivalAt      time.Time
	TwoWay         bool
	AvailableSeats int
	BasePrice      float64
}

// NewTrip は新しい運行便を作成する
func NewTrip(p Params, now time.Time) *Trip {
	t := &Trip{CreatedAt: now, Version: 0}
	t.apply(p)
	t.UpdatedAt = now
	return t
}

// Apply は更新可能な全項目を上書きする。座席数の整合性は呼び出し側の責務
func (t *Trip) Apply(p Params, now time.Time) {
	t.apply(p)
	t.UpdatedAt = now
}

func (t *Trip) apply(p Params) {
	t.DepartureCity = p.DepartureCity
	t.ArrivalCity = p.ArrivalCity
	t.DepartureAt = p.DepartureAt
	t.ArrivalAt = p.ArrivalAt
	t.TwoWay = p.TwoWay
	t.AvailableSeats = p.AvailableSeats
	t.BasePrice = p.BasePrice
}

// Validate は運行便の検証を行う。最初に失敗した項目のエラーを返す
func (t *Trip) Validate() error {
	if strings.TrimSpace(t.DepartureCity) == "" {
		return ErrDepartureCityRequired
	}
	if strings.TrimSpace(t.ArrivalCity) == "" {
		return ErrArrivalCityRequired
	}
	if t.DepartureAt.IsZero() {
		return ErrDepartureTimeRequired
	}
	if t.ArrivalAt.IsZero() {
		return ErrArrivalTimeRequired
	}
	if !t.ArrivalAt.After(t.DepartureAt) {
		return ErrArrivalBeforeDeparture
	}
	if strings.EqualFold(t.DepartureCity, t.ArrivalCity) {
		return ErrSameCity
	}
	if t.AvailableSeats < 0 {
		return ErrNegativeSeats
	}
	if t.BasePrice <= 0 {
		return ErrInvalidBasePrice
	}
	return nil
}

// ValidateForCreate は作成時の検証。出発日時が過去でないことも確認する
func (t *Trip) ValidateForCreate(now time.Time) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if t.DepartureAt.Before(now) {
		return ErrDepartureInPast
	}
	return nil
}

// AdjustSeats は空席数に delta を加える。結果が負になる場合は変更しない
func (t *Trip) AdjustSeats(delta int, now time.Time) error {
	if t.AvailableSeats+delta < 0 {
		return fmt.Errorf("%w: 残り%d席です", ErrInsufficientSeats, t.AvailableSeats)
	}
	t.AvailableSeats += delta
	t.UpdatedAt = now
	t.Version++
	return nil
}

// IsUpcoming は出発前の便かを返す
func (t *Trip) IsUpcoming(now time.Time) bool {
	return !t.DepartureAt.Before(now)
}

// ParseDateTime は DateTimeLayout 形式の文字列を loc の時刻として解釈する
func ParseDateTime(value string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	v, err := time.ParseInLocation(DateTimeLayout, strings.TrimSpace(value), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDateTime, value)
	}
	return v, nil
}
