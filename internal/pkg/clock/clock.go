// Package clock は現在時刻の取得を抽象化する
package clock

import (
	"sync"
	"time"
)

// Clock は現在時刻を返す
type Clock interface {
	Now() time.Time
}

// Real はシステム時刻を loc のタイムゾーンで返す
type Real struct {
	loc *time.Location
}

// NewReal は loc の時刻を返す Clock を作成する。nil の場合は time.Local
func NewReal(loc *time.Location) Real {
	if loc == nil {
		loc = time.Local
	}
	return Real{loc: loc}
}

func (r Real) Now() time.Time {
	if r.loc == nil {
		return time.Now()
	}
	return time.Now().In(r.loc)
}

// Fake はテスト用の固定時刻。Set / Advance で動かす
type Fake struct {
	mu  sync.Mutex
	now time.Time
}

func NewFake(now time.Time) *Fake {
	return &Fake{now: now}
}

func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *Fake) Set(now time.Time) {
	f.mu.Lock()
	f.now = now
	f.mu.Unlock()
}

func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}
