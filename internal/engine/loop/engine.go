// Package loop 是决策核心的驱动层：单一消费者按周期拉取规范化
// 信号与盘口更新，依次执行身份解析、定价、动量、策略、风险闸门
// 与订单状态机转换。所有登记表只被这一个逻辑消费者修改。
package loop

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/arbbot/goarb/internal/engine/momentum"
	"github.com/arbbot/goarb/internal/engine/orders"
	"github.com/arbbot/goarb/internal/engine/risk"
	"github.com/arbbot/goarb/internal/engine/sim"
	"github.com/arbbot/goarb/internal/metrics"
	"github.com/arbbot/goarb/internal/venue"
	"github.com/arbbot/goarb/pkg/config"
	"github.com/arbbot/goarb/pkg/sigchan"
)

var loopLog = logrus.WithField("module", "loop")

// OrderSubmitter 实盘下单的外部协作方。纸面模式下为 nil。
type OrderSubmitter interface {
	SubmitOrder(ctx context.Context, ticker string, quantity, priceCents int, isBuy, isTaker bool) (venue.Order, error)
	CancelOrder(ctx context.Context, orderID string) error
}

// bookState 某 ticker 最近一次盘口快照。
type bookState struct {
	YesBid     int
	YesAsk     int
	BidDepth   int64
	AskDepth   int64
	ReceivedAt time.Time
}

// Engine 决策引擎。除 kill-switch 外的全部方法都必须由
// 同一个 goroutine 调用；kill-switch 可以并发触发。
type Engine struct {
	cfg *config.Config

	submitter OrderSubmitter
	simulator *sim.Simulator

	registry  *orders.Registry
	positions *orders.PositionTracker
	riskMgr   *risk.Manager

	velocity map[string]*momentum.VelocityTracker
	pressure map[string]*momentum.BookPressureTracker
	scorer   momentum.Scorer

	books map[string]bookState

	simBalanceCents int64

	killC  *sigchan.Chan
	killed bool
	killMu sync.Mutex
}

// New 组装决策引擎。submitter 为 nil 时所有成交走模拟器。
func New(cfg *config.Config, submitter OrderSubmitter, simulator *sim.Simulator) *Engine {
	return &Engine{
		cfg:       cfg,
		submitter: submitter,
		simulator: simulator,
		registry:  orders.NewRegistry(),
		positions: orders.NewPositionTracker(),
		riskMgr: risk.NewManager(risk.Limits{
			MaxContractsPerMarket: cfg.Risk.MaxContractsPerMarket,
			MaxTotalExposureCents: cfg.Risk.MaxTotalExposureCents,
			MaxConcurrentMarkets:  cfg.Risk.MaxConcurrentMarkets,
		}),
		velocity: make(map[string]*momentum.VelocityTracker),
		pressure: make(map[string]*momentum.BookPressureTracker),
		scorer: momentum.Scorer{
			VelocityWeight:     cfg.Momentum.VelocityWeight,
			BookPressureWeight: cfg.Momentum.BookPressureWeight,
		},
		books:           make(map[string]bookState),
		simBalanceCents: cfg.Risk.BankrollCents,
		killC:           sigchan.New(1),
	}
}

// Registry 暴露在途订单登记表（只读用途）。
func (e *Engine) Registry() *orders.Registry { return e.registry }

// Positions 暴露持仓跟踪器（只读用途）。
func (e *Engine) Positions() *orders.PositionTracker { return e.positions }

// Risk 暴露风险管理器（只读用途）。
func (e *Engine) Risk() *risk.Manager { return e.riskMgr }

// SimBalanceCents 纸面余额。
func (e *Engine) SimBalanceCents() int64 { return e.simBalanceCents }

// OnBookUpdate 记录最新盘口并喂给买压跟踪器。
func (e *Engine) OnBookUpdate(update venue.BookUpdate) {
	e.books[update.Ticker] = bookState{
		YesBid:     update.YesBid,
		YesAsk:     update.YesAsk,
		BidDepth:   update.BidDepth,
		AskDepth:   update.AskDepth,
		ReceivedAt: update.ReceivedAt,
	}

	tracker, ok := e.pressure[update.Ticker]
	if !ok {
		tracker = momentum.NewBookPressureTracker(10)
		e.pressure[update.Ticker] = tracker
	}
	tracker.Push(update.BidDepth, update.AskDepth, update.ReceivedAt)
}

// PushProbability 把事件的最新公允概率喂给速度跟踪器。
// eventKey 用赛事维度的键（而非 ticker），同一场比赛两侧共享窗口。
func (e *Engine) PushProbability(eventKey string, prob float64, at time.Time) {
	tracker, ok := e.velocity[eventKey]
	if !ok {
		tracker = momentum.NewVelocityTracker(e.cfg.Momentum.VelocityWindowSize)
		e.velocity[eventKey] = tracker
	}
	tracker.Push(prob, at)
}

// liveBidAsk 取 ticker 的实时盘口，没有流数据时退回快照价。
func (e *Engine) liveBidAsk(ticker string, fallbackBid, fallbackAsk int) (int, int) {
	book, ok := e.books[ticker]
	if !ok || book.YesAsk <= 0 {
		return fallbackBid, fallbackAsk
	}
	return book.YesBid, book.YesAsk
}

// momentumScore 合成 ticker 的动量评分。
func (e *Engine) momentumScore(eventKey, ticker string) float64 {
	var velocityScore, pressureScore float64
	if tracker, ok := e.velocity[eventKey]; ok {
		velocityScore = tracker.Score()
	}
	if tracker, ok := e.pressure[ticker]; ok {
		pressureScore = tracker.Score()
	}
	return e.scorer.Composite(velocityScore, pressureScore)
}

// Kill 触发 kill-switch：停止后续提交，排空在途订单并逐笔撤单。
// 可以和进行中的决策周期并发调用。
func (e *Engine) Kill(ctx context.Context) []orders.PendingOrder {
	e.killMu.Lock()
	e.killed = true
	e.killMu.Unlock()
	e.killC.Emit()

	drained := e.registry.Drain()
	for _, order := range drained {
		if order.VenueOrderID == "" || e.submitter == nil {
			continue
		}
		if err := e.submitter.CancelOrder(ctx, order.VenueOrderID); err != nil {
			loopLog.WithError(err).WithField("order_id", order.VenueOrderID).Error("kill-switch 撤单失败")
		}
	}
	loopLog.Warnf("kill-switch 触发, 排空 %d 笔在途订单", len(drained))
	return drained
}

// Killed 判断 kill-switch 是否已触发。
func (e *Engine) Killed() bool {
	e.killMu.Lock()
	defer e.killMu.Unlock()
	return e.killed
}

// KillC 返回 kill 信号 channel，供驱动循环 select。
func (e *Engine) KillC() <-chan struct{} {
	return e.killC.C()
}

// Housekeep 每周期一次的状态维护：超时的在途订单被移出
// 登记表交给调用方排查，纸面仓位触发超时强平。
func (e *Engine) Housekeep(now time.Time) []orders.PendingOrder {
	expired := e.registry.ExpireOlderThan(time.Duration(e.cfg.Execution.MakerTimeoutMs) * time.Millisecond)
	metrics.OrdersExpired.Add(int64(len(expired)))
	for _, order := range expired {
		loopLog.WithFields(logrus.Fields{
			"ticker": order.Ticker,
			"side":   order.Side,
			"age_ms": now.Sub(order.SubmittedAt).Milliseconds(),
		}).Warn("在途订单超时")
	}

	if e.simulator != nil && e.simulator.Enabled() {
		e.forceTimeoutExits(now)
	}
	return expired
}

// forceTimeoutExits 纸面模式：持仓超过 max_hold_seconds 的仓位
// 按买一减固定滑点强平。
func (e *Engine) forceTimeoutExits(now time.Time) {
	maxHold := time.Duration(e.simulator.MaxHoldSeconds()) * time.Second
	if maxHold <= 0 {
		return
	}
	for _, pos := range e.positions.All() {
		if now.Sub(pos.FilledAt) <= maxHold {
			continue
		}
		book, ok := e.books[pos.Ticker]
		if !ok {
			continue
		}
		result := e.simulator.ForceTakerExit(book.YesBid)
		e.settleExit(pos, result.Price, true)
		loopLog.WithFields(logrus.Fields{
			"ticker": pos.Ticker,
			"price":  result.Price,
			"held_s": int(now.Sub(pos.FilledAt).Seconds()),
		}).Warn("持仓超时强平")
	}
}

// settleExit 平仓结算：登记表、持仓、风险计数与纸面余额。
func (e *Engine) settleExit(pos orders.Position, sellPrice int, isTaker bool) {
	e.positions.RecordExit(pos.Ticker)
	e.registry.Complete(pos.Ticker, orders.SideExit)
	e.riskMgr.RecordSell(pos.Ticker, pos.Quantity)

	proceeds := int64(sellPrice * pos.Quantity)
	fee := int64(exitFee(sellPrice, pos.Quantity, isTaker))
	e.simBalanceCents += proceeds - fee
	metrics.SimFills.Add(1)

	pnl := proceeds - fee - int64(pos.EntryCostCents)
	loopLog.WithFields(logrus.Fields{
		"ticker":    pos.Ticker,
		"qty":       pos.Quantity,
		"sell":      sellPrice,
		"pnl_cents": pnl,
	}).Info("平仓")
}
