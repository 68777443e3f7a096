package reservation

import "time"

// EventType は予約イベントの種類
type EventType string

const (
	EventBooked    EventType = "reservation.booked"
	EventEdited    EventType = "reservation.edited"
	EventPaid      EventType = "reservation.paid"
	EventCancelled EventType = "reservation.cancelled"
	EventExpired   EventType = "reservation.expired"
)

// Event はコミット後に外部へ通知する予約イベント
type Event struct {
	Type          EventType `json:"type"`
	ReservationID string    `json:"reservation_id"`
	TripID        string    `json:"trip_id"`
	UserID        string    `json:"user_id"`
	TicketNumbers int       `json:"ticket_numbers"`
	SumPrice      float64   `json:"sum_price"`
	HasChild      bool      `json:"has_child"`
	IsPaid        bool      `json:"is_paid"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// NewEvent は予約の現在の状態からイベントを作成する
func NewEvent(t EventType, r *Reservation, now time.Time) Event {
	return Event{
		Type:          t,
		ReservationID: r.ID,
		TripID:        r.TripID,
		UserID:        r.UserID,
		TicketNumbers: r.TicketNumbers,
		SumPrice:      r.SumPrice,
		HasChild:      r.HasChild,
		IsPaid:        r.IsPaid,
		OccurredAt:    now,
	}
}
