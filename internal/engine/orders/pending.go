// Package orders 维护订单生命周期状态：在途订单登记表与已成交
// 持仓跟踪器。登记表是防止同一市场/方向重复下单的唯一机制。
package orders

import (
	"sync"
	"time"
)

// Side 订单方向：开仓或平仓。
type Side string

const (
	SideEntry Side = "entry"
	SideExit  Side = "exit"
)

// PendingOrder 一笔在途订单。VenueOrderID 在场内确认后回填。
type PendingOrder struct {
	Ticker       string
	Side         Side
	Quantity     int
	Price        int
	IsTaker      bool
	SubmittedAt  time.Time
	VenueOrderID string
}

type pendingKey struct {
	ticker string
	side   Side
}

// Registry 在途订单登记表，每个 (ticker, side) 至多一笔。
// check-and-set 在锁内完成，登记成功即取得该键的独占提交权。
type Registry struct {
	mu     sync.Mutex
	orders map[pendingKey]*PendingOrder
	now    func() time.Time
}

func NewRegistry() *Registry {
	return &Registry{
		orders: make(map[pendingKey]*PendingOrder),
		now:    time.Now,
	}
}

// TryRegister 登记一笔新订单。同键已有在途订单时拒绝并返回 false。
func (r *Registry) TryRegister(ticker string, side Side, quantity, price int, isTaker bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := pendingKey{ticker, side}
	if _, exists := r.orders[key]; exists {
		return false
	}
	r.orders[key] = &PendingOrder{
		Ticker:      ticker,
		Side:        side,
		Quantity:    quantity,
		Price:       price,
		IsTaker:     isTaker,
		SubmittedAt: r.now(),
	}
	return true
}

// AttachOrderID 把场内订单号挂到在途记录上。记录不存在返回 false。
func (r *Registry) AttachOrderID(ticker string, side Side, orderID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[pendingKey{ticker, side}]
	if !ok {
		return false
	}
	order.VenueOrderID = orderID
	return true
}

// Complete 移除并返回在途记录（成交或撤销后调用）。
func (r *Registry) Complete(ticker string, side Side) (PendingOrder, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := pendingKey{ticker, side}
	order, ok := r.orders[key]
	if !ok {
		return PendingOrder{}, false
	}
	delete(r.orders, key)
	return *order, true
}

// IsPending 判断该键是否有在途订单。
func (r *Registry) IsPending(ticker string, side Side) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.orders[pendingKey{ticker, side}]
	return ok
}

// Count 返回在途订单总数。
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.orders)
}

// ExpireOlderThan 移除并返回所有超龄的在途订单，供驱动循环
// 排查或撤单。这里只做移除，不假定订单已死。
func (r *Registry) ExpireOlderThan(maxAge time.Duration) []PendingOrder {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	var expired []PendingOrder
	for key, order := range r.orders {
		if now.Sub(order.SubmittedAt) > maxAge {
			expired = append(expired, *order)
			delete(r.orders, key)
		}
	}
	return expired
}

// Drain 无条件移除并返回全部在途订单，用于 kill-switch 批量撤单。
func (r *Registry) Drain() []PendingOrder {
	r.mu.Lock()
	defer r.mu.Unlock()

	drained := make([]PendingOrder, 0, len(r.orders))
	for key, order := range r.orders {
		drained = append(drained, *order)
		delete(r.orders, key)
	}
	return drained
}
