// Package memory はプロセス内で完結するリポジトリ実装を提供する。
// テストと STORAGE_DRIVER=memory で使用する
package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/sanosuguru/go-train-ticket-reservation/internal/domain/card"
	"github.com/sanosuguru/go-train-ticket-reservation/internal/domain/reservation"
	"github.com/sanosuguru/go-train-ticket-reservation/internal/domain/transaction"
	"github.com/sanosuguru/go-train-ticket-reservation/internal/domain/trip"
	"github.com/sanosuguru/go-train-ticket-reservation/internal/domain/user"
)

var (
	ErrTxDone     = errors.New("トランザクションは終了しています")
	ErrTxRequired = errors.New("トランザクションが必要です")
)

// Store は全エンティティを保持する。トランザクションは1本ずつ直列に実行される
type Store struct {
	mu  sync.RWMutex
	sem chan struct{}

	trips        map[string]trip.Trip
	reservations map[string]reservation.Reservation
	cards        map[string]card.TrainCard // user_id をキーにする
	users        map[string]user.User
}

func NewStore() *Store {
	return &Store{
		sem:          make(chan struct{}, 1),
		trips:        make(map[string]trip.Trip),
		reservations: make(map[string]reservation.Reservation),
		cards:        make(map[string]card.TrainCard),
		users:        make(map[string]user.User),
	}
}

func newID() string {
	return uuid.NewString()
}

// Tx はメモリ上のトランザクション。書き込みは即時反映し、Rollback で取り消す
type Tx struct {
	store *Store
	undo  []func()
	done  bool
}

func (t *Tx) Commit() error {
	if t.done {
		return ErrTxDone
	}
	t.done = true
	t.undo = nil
	<-t.store.sem
	return nil
}

func (t *Tx) Rollback() error {
	if t.done {
		return ErrTxDone
	}
	t.done = true
	t.store.mu.Lock()
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.store.mu.Unlock()
	t.undo = nil
	<-t.store.sem
	return nil
}

// record は取り消し処理を積む。呼び出し側は store.mu を保持していること
func (t *Tx) record(f func()) {
	t.undo = append(t.undo, f)
}

// TxManager は Store のトランザクションを開始する
type TxManager struct {
	store *Store
}

func NewTxManager(s *Store) *TxManager {
	return &TxManager{store: s}
}

// Begin は実行中のトランザクションが終わるまで待つ
func (m *TxManager) Begin(ctx context.Context) (transaction.Tx, error) {
	select {
	case m.store.sem <- struct{}{}:
		return &Tx{store: m.store}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *Store) activeTx(tx transaction.Tx) (*Tx, error) {
	t, ok := tx.(*Tx)
	if !ok || t == nil || t.store != s {
		return nil, ErrTxRequired
	}
	if t.done {
		return nil, ErrTxDone
	}
	return t, nil
}

var _ transaction.Manager = (*TxManager)(nil)
