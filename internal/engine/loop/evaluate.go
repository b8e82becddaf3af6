package loop

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/arbbot/goarb/internal/engine/fees"
	"github.com/arbbot/goarb/internal/engine/orders"
	"github.com/arbbot/goarb/internal/engine/sim"
	"github.com/arbbot/goarb/internal/engine/strategy"
	"github.com/arbbot/goarb/internal/metrics"
)

// MarketInput 一次市场评估的输入。FallbackBid/Ask 来自信号携带的
// 快照，实时盘口缺失时兜底。
type MarketInput struct {
	Ticker       string
	EventKey     string
	Sport        string
	Source       string // "score_feed" 或赔率源名
	FairValue    int
	FallbackBid  int
	FallbackAsk  int
	MarketStatus string
	CloseTime    string // RFC3339，空串表示场内未给出
	IsStale      bool
}

// EvalResult 一次评估的结果，供展示与测试断言。
type EvalResult struct {
	Ticker        string
	Action        string // TAKER / MAKER / SKIP / STALE
	Edge          int
	MomentumScore float64
	Executed      bool
	FillPrice     int
	Quantity      int
	Reason        string
}

// EvaluateMarket 对一个已解析的市场跑完整决策序列：
// 定价已由调用方完成（FairValue），这里依次执行动量合成、
// 策略评估、动量闸门、保本校验、风险闸门、登记与执行。
func (e *Engine) EvaluateMarket(ctx context.Context, in MarketInput) EvalResult {
	result := EvalResult{Ticker: in.Ticker, Action: "SKIP"}
	metrics.SignalsEvaluated.Add(1)

	if e.Killed() {
		result.Reason = "kill-switch engaged"
		return result
	}

	if !marketOpen(in.MarketStatus, in.CloseTime, time.Now()) {
		result.Reason = "market not open"
		return result
	}

	// 过期信号在策略评估之前拦截
	if in.IsStale {
		result.Action = "STALE"
		result.Reason = "signal stale"
		return result
	}

	bid, ask := e.liveBidAsk(in.Ticker, in.FallbackBid, in.FallbackAsk)
	score := e.momentumScore(in.EventKey, in.Ticker)
	result.MomentumScore = score

	strategyCfg := e.cfg.ResolveStrategy(in.Sport)
	momentumCfg := e.cfg.ResolveMomentum(in.Sport)

	params := strategy.Params{
		TakerThreshold:   strategyCfg.TakerEdgeThreshold,
		MakerThreshold:   strategyCfg.MakerEdgeThreshold,
		MinEdgeAfterFees: strategyCfg.MinEdgeAfterFees,
		BankrollCents:    e.cfg.Risk.BankrollCents,
		KellyFraction:    e.cfg.Risk.KellyFraction,
		MaxContracts:     e.cfg.Risk.MaxContractsPerMarket,
	}
	signal := strategy.EvaluateWithSlippage(in.FairValue, bid, ask, params, strategyCfg.SlippageBufferCents)
	result.Edge = signal.Edge

	// 比分信号可配置绕过动量闸门：速度本身就是优势
	bypass := e.cfg.Momentum.BypassForScoreSignals && in.Source == "score_feed"
	if !bypass {
		signal = strategy.MomentumGate(signal, score,
			momentumCfg.MakerMomentumThreshold, momentumCfg.TakerMomentumThreshold)
	}

	if signal.Action.Kind == strategy.ActionSkip {
		result.Reason = "below threshold"
		return result
	}

	fillPrice := signal.Price
	isTaker := signal.Action.Kind == strategy.ActionTakerBuy
	if isTaker {
		result.Action = "TAKER"
	} else {
		result.Action = "MAKER"
	}
	result.Quantity = signal.Quantity
	result.FillPrice = fillPrice

	entryFee := fees.Calculate(fillPrice, signal.Quantity, isTaker)
	totalCost := signal.Quantity*fillPrice + entryFee

	// 入场前先验证保本可达：taker 退出都回不了本的仓位不开
	breakEven, ok := fees.BreakEvenSellPrice(totalCost, signal.Quantity, true)
	if !ok {
		result.Reason = "impossible to break even"
		loopLog.WithFields(logrus.Fields{"ticker": in.Ticker, "cost": totalCost}).Warn("放弃: 无法保本")
		return result
	}
	if breakEven > 95 {
		result.Reason = "break-even too high"
		loopLog.WithFields(logrus.Fields{"ticker": in.Ticker, "break_even": breakEven}).Warn("放弃: 保本价过高")
		return result
	}

	sellTarget := in.FairValue
	if e.cfg.Simulation.UseBreakEvenExit {
		target, ok := fees.BreakEvenSellPrice(totalCost, signal.Quantity, false)
		if !ok {
			result.Reason = "no viable sell target"
			return result
		}
		sellTarget = target
	}

	// 已持仓的市场不再加仓
	if e.positions.Has(in.Ticker) {
		result.Reason = "position already open"
		return result
	}

	if !e.riskMgr.CanTrade(in.Ticker, signal.Quantity, totalCost) {
		result.Reason = "risk limits"
		return result
	}

	// 登记成功才取得该市场的提交权，这里是防重复下单的唯一机制
	if !e.registry.TryRegister(in.Ticker, orders.SideEntry, signal.Quantity, fillPrice, isTaker) {
		result.Reason = "order already pending"
		return result
	}

	loopLog.WithFields(logrus.Fields{
		"ticker":   in.Ticker,
		"action":   result.Action,
		"price":    fillPrice,
		"edge":     signal.Edge,
		"net":      signal.NetProfitEstimate,
		"momentum": int(score),
		"source":   in.Source,
	}).Warn("交易信号")

	if e.submitter != nil {
		e.submitLive(ctx, in.Ticker, signal.Quantity, fillPrice, isTaker, &result)
	} else {
		e.executeSim(in.Ticker, signal.Quantity, fillPrice, ask, isTaker, sellTarget, entryFee, &result)
	}
	return result
}

// submitLive 实盘提交。成交确认由 OnOrderFilled 异步回报。
func (e *Engine) submitLive(ctx context.Context, ticker string, quantity, price int, isTaker bool, result *EvalResult) {
	order, err := e.submitter.SubmitOrder(ctx, ticker, quantity, price, true, isTaker)
	if err != nil {
		e.registry.Complete(ticker, orders.SideEntry)
		result.Reason = "submit failed"
		loopLog.WithError(err).WithField("ticker", ticker).Error("下单失败")
		return
	}
	e.registry.AttachOrderID(ticker, orders.SideEntry, order.OrderID)
	metrics.OrdersSubmitted.Add(1)
	result.Executed = true
}

// executeSim 纸面执行：立即向模拟器询问成交结果。
func (e *Engine) executeSim(ticker string, quantity, price, signalAsk int, isTaker bool, sellTarget, entryFee int, result *EvalResult) {
	currentAsk := signalAsk
	if book, ok := e.books[ticker]; ok && book.YesAsk > 0 {
		currentAsk = book.YesAsk
	}

	var fill int
	if isTaker {
		r := e.simulator.TryTakerEntry(signalAsk, currentAsk)
		if r.Outcome != sim.OutcomeFilled {
			e.registry.Complete(ticker, orders.SideEntry)
			result.Reason = r.Outcome.String()
			return
		}
		fill = r.Price
	} else {
		r := e.simulator.TryMakerEntry(price)
		if r.Outcome != sim.OutcomeFilled {
			e.registry.Complete(ticker, orders.SideEntry)
			result.Reason = r.Outcome.String()
			return
		}
		fill = r.Price
	}

	// 成交价偏离信号价会改变实际成本，费用按成交价重算
	actualFee := fees.Calculate(fill, quantity, isTaker)
	actualCost := quantity*fill + actualFee
	if int64(actualCost) > e.simBalanceCents {
		e.registry.Complete(ticker, orders.SideEntry)
		result.Reason = "insufficient sim balance"
		return
	}

	e.registry.Complete(ticker, orders.SideEntry)
	e.simBalanceCents -= int64(actualCost)
	e.riskMgr.RecordBuy(ticker, quantity)
	e.positions.RecordEntry(orders.Position{
		Ticker:         ticker,
		Quantity:       quantity,
		EntryPrice:     fill,
		EntryCostCents: actualCost,
		SellTarget:     sellTarget,
		FilledAt:       time.Now(),
		IsTakerEntry:   isTaker,
	})
	result.Executed = true
	result.FillPrice = fill
	metrics.OrdersSubmitted.Add(1)
	metrics.SimFills.Add(1)

	loopLog.WithFields(logrus.Fields{
		"ticker":      ticker,
		"qty":         quantity,
		"fill":        fill,
		"slippage":    fill - signalAsk,
		"sell_target": sellTarget,
	}).Info("纸面买入")
}

// OnOrderFilled 实盘成交回报：完成登记表转换并建仓。
func (e *Engine) OnOrderFilled(ticker string, fillPrice, quantity int, isTaker bool, sellTarget int) {
	pending, ok := e.registry.Complete(ticker, orders.SideEntry)
	if !ok {
		loopLog.WithField("ticker", ticker).Warn("成交回报没有对应的在途订单")
	} else if pending.Quantity != quantity {
		loopLog.WithFields(logrus.Fields{
			"ticker":   ticker,
			"expected": pending.Quantity,
			"filled":   quantity,
		}).Warn("部分成交")
	}

	entryFee := fees.Calculate(fillPrice, quantity, isTaker)
	e.riskMgr.RecordBuy(ticker, quantity)
	e.positions.RecordEntry(orders.Position{
		Ticker:         ticker,
		Quantity:       quantity,
		EntryPrice:     fillPrice,
		EntryCostCents: quantity*fillPrice + entryFee,
		SellTarget:     sellTarget,
		FilledAt:       time.Now(),
		IsTakerEntry:   isTaker,
	})
}

// CheckExits 扫描全部持仓，尝试按 sell target 做 maker 平仓。
// 纸面模式下成交由模拟器裁决；Pending 的仓位下轮再试。
func (e *Engine) CheckExits(ctx context.Context) {
	for _, pos := range e.positions.All() {
		book, ok := e.books[pos.Ticker]
		if !ok {
			continue
		}

		if e.submitter == nil {
			r := e.simulator.TryMakerExit(pos.SellTarget, book.YesBid)
			if r.Outcome == sim.OutcomeFilled {
				e.settleExit(pos, r.Price, false)
			}
			continue
		}

		// 实盘：到价且没有在途平仓单时挂限价卖单
		if book.YesBid < pos.SellTarget {
			continue
		}
		if !e.registry.TryRegister(pos.Ticker, orders.SideExit, pos.Quantity, pos.SellTarget, false) {
			continue
		}
		order, err := e.submitter.SubmitOrder(ctx, pos.Ticker, pos.Quantity, pos.SellTarget, false, false)
		if err != nil {
			e.registry.Complete(pos.Ticker, orders.SideExit)
			loopLog.WithError(err).WithField("ticker", pos.Ticker).Error("平仓下单失败")
			continue
		}
		e.registry.AttachOrderID(pos.Ticker, orders.SideExit, order.OrderID)
	}
}

func exitFee(priceCents, quantity int, isTaker bool) int {
	return fees.Calculate(priceCents, quantity, isTaker)
}

// marketOpen 判断市场是否可交易：状态必须是 open/active，
// 且 close_time（能解析时）在当前时间之后。
func marketOpen(status, closeTime string, now time.Time) bool {
	if status != "open" && status != "active" {
		return false
	}
	if closeTime == "" {
		return true
	}
	t, err := time.Parse(time.RFC3339, closeTime)
	if err != nil {
		return true
	}
	return t.After(now)
}
