package memory

import (
	"context"

	"github.com/sanosuguru/go-train-ticket-reservation/internal/domain/card"
)

type CardRepository struct{ s *Store }

func NewCardRepository(s *Store) *CardRepository {
	return &CardRepository{s: s}
}

func (r *CardRepository) GetByUserID(ctx context.Context, userID string) (*card.TrainCard, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	c, ok := r.s.cards[userID]
	if !ok {
		return nil, card.ErrCardNotFound
	}
	return &c, nil
}

// Upsert は既存カードがあれば ID と作成日時を引き継ぐ
func (r *CardRepository) Upsert(ctx context.Context, c *card.TrainCard) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if existing, ok := r.s.cards[c.UserID]; ok {
		c.ID = existing.ID
		c.CreatedAt = existing.CreatedAt
	} else if c.ID == "" {
		c.ID = newID()
	}
	r.s.cards[c.UserID] = *c
	return nil
}

func (r *CardRepository) DeleteByUserID(ctx context.Context, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.cards[userID]; !ok {
		return card.ErrCardNotFound
	}
	delete(r.s.cards, userID)
	return nil
}

var _ card.Repository = (*CardRepository)(nil)
