package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-train-ticket-reservation/internal/domain/card"
	"github.com/sanosuguru/go-train-ticket-reservation/internal/pkg/clock"
	"github.com/sanosuguru/go-train-ticket-reservation/internal/pkg/logger"
)

type CardService struct {
	cardRepo card.Repository
	clock    clock.Clock
}

func NewCardService(cr card.Repository, clk clock.Clock) *CardService {
	if clk == nil {
		clk = clock.NewReal(nil)
	}
	return &CardService{cardRepo: cr, clock: clk}
}

func (s *CardService) GetCard(ctx context.Context, userID string) (*card.TrainCard, error) {
	return s.cardRepo.GetByUserID(ctx, userID)
}

// RegisterCard はユーザーのカードを登録する。登録済みなら種別を変更する
func (s *CardService) RegisterCard(ctx context.Context, userID, cardType string) (*card.TrainCard, error) {
	t := card.Type(strings.ToLower(strings.TrimSpace(cardType)))

	now := s.clock.Now()
	c, err := s.cardRepo.GetByUserID(ctx, userID)
	switch {
	case errors.Is(err, card.ErrCardNotFound):
		c = card.NewTrainCard(userID, t, now)
	case err != nil:
		return nil, fmt.Errorf("鉄道カード取得に失敗: %w", err)
	default:
		if err := c.ChangeType(t, now); err != nil {
			return nil, err
		}
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if err := s.cardRepo.Upsert(ctx, c); err != nil {
		return nil, fmt.Errorf("鉄道カード登録に失敗: %w", err)
	}
	logger.Info("鉄道カードを登録", zap.String("user_id", userID), zap.String("card_type", string(c.Type)))
	return c, nil
}

func (s *CardService) RemoveCard(ctx context.Context, userID string) error {
	if err := s.cardRepo.DeleteByUserID(ctx, userID); err != nil {
		return err
	}
	logger.Info("鉄道カードを削除", zap.String("user_id", userID))
	return nil
}
