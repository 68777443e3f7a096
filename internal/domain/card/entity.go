package card

import (
	"fmt"
	"time"
)

// Type は鉄道カードの種別
type Type string

const (
	TypeAged   Type = "aged"
	TypeFamily Type = "family"
)

// SupportedTypes はサポートするカード種別
var SupportedTypes = []Type{TypeAged, TypeFamily}

// IsValid はサポートされた種別かを返す
func (t Type) IsValid() bool {
	for _, s := range SupportedTypes {
		if t == s {
			return true
		}
	}
	return false
}

// TrainCard は割引対象を表す鉄道カード。ユーザーごとに最大1枚
type TrainCard struct {
	ID        string
	UserID    string
	Type      Type
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewTrainCard は新しいカードを作成する
func NewTrainCard(userID string, cardType Type, now time.Time) *TrainCard {
	return &TrainCard{
		UserID:    userID,
		Type:      cardType,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// ChangeType は種別を変更する
func (c *TrainCard) ChangeType(cardType Type, now time.Time) error {
	if !cardType.IsValid() {
		return fmt.Errorf("%w: %s", ErrUnsupportedCardType, cardType)
	}
	c.Type = cardType
	c.UpdatedAt = now
	return nil
}

// Validate はカードの検証を行う
func (c *TrainCard) Validate() error {
	if c.UserID == "" {
		return ErrUserIDRequired
	}
	if !c.Type.IsValid() {
		return fmt.Errorf("%w: %s", ErrUnsupportedCardType, c.Type)
	}
	return nil
}
