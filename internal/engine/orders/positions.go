package orders

import (
	"sync"
	"time"
)

// Position 一笔已确认持仓。只在成交确认后创建，绝不投机性创建；
// 某 ticker 没有记录即视为空仓。
type Position struct {
	Ticker         string
	Quantity       int
	EntryPrice     int
	EntryCostCents int // 含开仓手续费
	SellTarget     int // 保本退出价
	FilledAt       time.Time
	IsTakerEntry   bool
}

// PositionTracker 按 ticker 跟踪已确认持仓，每个 ticker 至多一笔。
// 重复 RecordEntry 直接覆盖，调用方必须保证持仓期间不再开仓。
type PositionTracker struct {
	mu        sync.Mutex
	positions map[string]Position
}

func NewPositionTracker() *PositionTracker {
	return &PositionTracker{positions: make(map[string]Position)}
}

// RecordEntry 记录一笔确认成交的开仓。
func (t *PositionTracker) RecordEntry(p Position) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.positions[p.Ticker] = p
}

// RecordExit 移除并返回持仓。
func (t *PositionTracker) RecordExit(ticker string) (Position, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.positions[ticker]
	if !ok {
		return Position{}, false
	}
	delete(t.positions, ticker)
	return p, true
}

// Get 返回持仓快照。
func (t *PositionTracker) Get(ticker string) (Position, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.positions[ticker]
	return p, ok
}

// Has 判断该 ticker 是否持仓。
func (t *PositionTracker) Has(ticker string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.positions[ticker]
	return ok
}

// All 返回全部持仓快照。
func (t *PositionTracker) All() []Position {
	t.mu.Lock()
	defer t.mu.Unlock()
	snapshot := make([]Position, 0, len(t.positions))
	for _, p := range t.positions {
		snapshot = append(snapshot, p)
	}
	return snapshot
}

// Count 返回持仓数。
func (t *PositionTracker) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.positions)
}
