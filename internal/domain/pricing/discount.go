// Package pricing は運賃計算（割引ポリシー）を提供する。副作用を持たない
package pricing

import (
	"time"

	"github.com/sanosuguru/go-train-ticket-reservation/internal/domain/card"
	"github.com/sanosuguru/go-train-ticket-reservation/internal/domain/trip"
)

// 割引率
const (
	OffPeakDiscount     = 0.05
	AgedFirstSeatCut    = 0.34
	FamilyChildDiscount = 0.5
	FamilyDiscount      = 0.1
)

// オフピーク判定の時刻（0時からの経過時間）
var (
	dayOffPeakStart   = clockTime(9, 30)
	dayOffPeakEnd     = clockTime(16, 0)
	nightOffPeakStart = clockTime(19, 30)
)

func clockTime(h, m int) time.Duration {
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute
}

func timeOfDay(t time.Time) time.Duration {
	h, m, s := t.Clock()
	return clockTime(h, m) + time.Duration(s)*time.Second
}

// TimeDiscount は時間帯割引の率を返す。
// 出発 09:30 以降かつ到着 16:00 以前、または出発 19:30 以降なら 5%
func TimeDiscount(departureAt, arrivalAt time.Time) float64 {
	dep := timeOfDay(departureAt)
	arr := timeOfDay(arrivalAt)
	if (dep >= dayOffPeakStart && arr <= dayOffPeakEnd) || dep >= nightOffPeakStart {
		return OffPeakDiscount
	}
	return 0
}

// CalculatePrice は予約の合計金額を計算する。c が nil の場合はカードなし。
// 時間帯割引とファミリーカード割引は加算してから運賃に適用する。
// シニアカードは1枚目のみ34%引きで、2枚目以降は時間帯割引のみが適用される。
// 丸めは行わない
func CalculatePrice(t *trip.Trip, c *card.TrainCard, ticketNumbers int, hasChild bool) float64 {
	base := t.BasePrice
	total := TimeDiscount(t.DepartureAt, t.ArrivalAt)

	var cardType card.Type
	if c != nil {
		cardType = c.Type
	}

	switch cardType {
	case card.TypeAged:
		return (base - base*AgedFirstSeatCut) + float64(ticketNumbers-1)*(base-base*total)
	case card.TypeFamily:
		if hasChild {
			total += FamilyChildDiscount
		} else {
			total += FamilyDiscount
		}
	}
	return (base - base*total) * float64(ticketNumbers)
}
