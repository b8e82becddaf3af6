// Package risk 维护账户级风险限额：单市场持仓上限、并发市场数
// 上限与总敞口上限。所有检查在下单前进行。
package risk

import "sync"

// Limits 风险限额。
type Limits struct {
	// MaxContractsPerMarket 单个市场允许持有的最大合约数。
	MaxContractsPerMarket int
	// MaxTotalExposureCents 全账户最大敞口（分），按每张合约
	// 最坏情况 100 分计。
	MaxTotalExposureCents int64
	// MaxConcurrentMarkets 同时持仓的市场数上限。
	MaxConcurrentMarkets int
}

// Manager 跟踪各市场持仓并执行限额检查。并发安全。
type Manager struct {
	mu        sync.Mutex
	limits    Limits
	positions map[string]int // ticker -> 合约数
}

func NewManager(limits Limits) *Manager {
	return &Manager{
		limits:    limits,
		positions: make(map[string]int),
	}
}

// CanTrade 判断能否在 ticker 上新开 quantity 张、成本 costCents 的仓位。
// 依次检查单市场上限、并发市场数（仅对新市场生效）与总敞口。
// 敞口按已持合约 × 100 分的最坏情况估计，加上本次成本。
func (m *Manager) CanTrade(ticker string, quantity, costCents int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	current := m.positions[ticker]
	if current+quantity > m.limits.MaxContractsPerMarket {
		return false
	}
	if _, held := m.positions[ticker]; !held && len(m.positions) >= m.limits.MaxConcurrentMarkets {
		return false
	}

	var exposure int64
	for _, q := range m.positions {
		exposure += int64(q) * 100
	}
	exposure += int64(costCents)
	return exposure <= m.limits.MaxTotalExposureCents
}

// RecordBuy 记录一次成交买入。
func (m *Manager) RecordBuy(ticker string, quantity int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.positions[ticker] += quantity
}

// RecordSell 记录一次成交卖出，持仓减到 0 时移除该市场。
// 超卖按 0 截断。
func (m *Manager) RecordSell(ticker string, quantity int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pos, ok := m.positions[ticker]
	if !ok {
		return
	}
	pos -= quantity
	if pos <= 0 {
		delete(m.positions, ticker)
		return
	}
	m.positions[ticker] = pos
}

// PositionCount 返回 ticker 当前持仓合约数。
func (m *Manager) PositionCount(ticker string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.positions[ticker]
}

// TotalMarkets 返回当前持仓的市场数。
func (m *Manager) TotalMarkets() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.positions)
}
