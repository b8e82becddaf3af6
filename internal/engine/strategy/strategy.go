// Package strategy 实现交易决策：把公允价、盘口报价、费用模型
// 与阈值组合成 taker/maker/放弃 三态决定。
//
// 决策编码了延迟与确定性的取舍：taker 立即成交但费率更高，
// 因此要求更严格的 edge；maker 便宜但成交不确定。
package strategy

import (
	"github.com/arbbot/goarb/internal/engine/fees"
	"github.com/arbbot/goarb/internal/engine/kelly"
)

// ActionKind 决策类型。
type ActionKind int

const (
	// ActionSkip 本轮不交易。
	ActionSkip ActionKind = iota
	// ActionTakerBuy 以 taker 吃掉卖一。
	ActionTakerBuy
	// ActionMakerBuy 以 maker 在 bid+1 挂单。
	ActionMakerBuy
)

func (k ActionKind) String() string {
	switch k {
	case ActionTakerBuy:
		return "TakerBuy"
	case ActionMakerBuy:
		return "MakerBuy"
	default:
		return "Skip"
	}
}

// TradeAction 带载荷的决策变体。MakerBuy 携带挂单价。
type TradeAction struct {
	Kind     ActionKind
	BidPrice int // 仅 ActionMakerBuy 有意义
}

// Signal 一次评估的完整结果。
type Signal struct {
	Action            TradeAction
	Price             int
	Edge              int
	NetProfitEstimate int
	Quantity          int
}

func skipSignal(edge int) Signal {
	return Signal{Action: TradeAction{Kind: ActionSkip}, Edge: edge}
}

// Params 评估参数。
type Params struct {
	TakerThreshold   int
	MakerThreshold   int
	MinEdgeAfterFees int
	BankrollCents    int64
	KellyFraction    float64
	MaxContracts     int
}

// Evaluate 评估一个市场是否值得交易。
//
//   - fairValue: 去水概率（分）
//   - bestBid / bestAsk: 场内盘口（分）
//
// edge = fairValue - bestAsk。低于 maker 阈值直接放弃；
// taker 路径与 maker 路径分别按凯利定量并扣除两端费用，
// taker 只有在 edge 过 taker 阈值且净利过 MinEdgeAfterFees 时才被选中。
func Evaluate(fairValue, bestBid, bestAsk int, p Params) Signal {
	return evaluate(fairValue, bestBid, bestAsk, p, 0)
}

// EvaluateWithSlippage 带滑点缓冲的评估。
// 缓冲只参与阈值比较与 taker 净利扣减，Signal.Edge 仍报告原始 edge。
func EvaluateWithSlippage(fairValue, bestBid, bestAsk int, p Params, slippageBufferCents int) Signal {
	return evaluate(fairValue, bestBid, bestAsk, p, slippageBufferCents)
}

func evaluate(fairValue, bestBid, bestAsk int, p Params, slippageBuffer int) Signal {
	if bestAsk <= 0 || fairValue <= 0 {
		return skipSignal(0)
	}

	rawEdge := fairValue - bestAsk
	effectiveEdge := rawEdge - slippageBuffer

	if effectiveEdge < p.MakerThreshold {
		return skipSignal(rawEdge)
	}

	// taker 路径：按卖一入场，按公允价 maker 退出
	takerQty := kelly.Size(fairValue, bestAsk, p.BankrollCents, p.KellyFraction)
	if takerQty > p.MaxContracts {
		takerQty = p.MaxContracts
	}
	takerProfit := (fairValue-bestAsk)*takerQty -
		fees.Calculate(bestAsk, takerQty, true) -
		fees.Calculate(fairValue, takerQty, false) -
		slippageBuffer*takerQty

	// maker 路径：bid+1 挂单入场，相同退出
	makerBuyPrice := bestBid + 1
	if makerBuyPrice > 99 {
		makerBuyPrice = 99
	}
	makerQty := kelly.Size(fairValue, makerBuyPrice, p.BankrollCents, p.KellyFraction)
	if makerQty > p.MaxContracts {
		makerQty = p.MaxContracts
	}
	makerProfit := (fairValue-makerBuyPrice)*makerQty -
		fees.Calculate(makerBuyPrice, makerQty, false) -
		fees.Calculate(fairValue, makerQty, false)

	switch {
	case effectiveEdge >= p.TakerThreshold && takerProfit >= p.MinEdgeAfterFees:
		return Signal{
			Action:            TradeAction{Kind: ActionTakerBuy},
			Price:             bestAsk,
			Edge:              rawEdge,
			NetProfitEstimate: takerProfit,
			Quantity:          takerQty,
		}
	case effectiveEdge >= p.MakerThreshold && makerProfit >= p.MinEdgeAfterFees:
		return Signal{
			Action:            TradeAction{Kind: ActionMakerBuy, BidPrice: makerBuyPrice},
			Price:             makerBuyPrice,
			Edge:              rawEdge,
			NetProfitEstimate: makerProfit,
			Quantity:          makerQty,
		}
	default:
		return skipSignal(rawEdge)
	}
}

// DualSideSignal 双侧评估结果，Side 为 "yes" 或 "no"。
type DualSideSignal struct {
	Signal Signal
	Side   string
}

// EvaluateBestSide 同时评估 yes 与 no 两侧，返回更优者。
// no 侧公允价取补值。两侧都放弃时返回 yes 侧结果。
func EvaluateBestSide(fairValue, yesBid, yesAsk, noBid, noAsk int, p Params, slippageBufferCents int) DualSideSignal {
	yesSignal := EvaluateWithSlippage(fairValue, yesBid, yesAsk, p, slippageBufferCents)

	noFair := 100 - fairValue
	if noFair < 0 {
		noFair = 0
	}
	noSignal := EvaluateWithSlippage(noFair, noBid, noAsk, p, slippageBufferCents)

	yesScore := yesSignal.Edge
	if yesSignal.Action.Kind != ActionSkip {
		yesScore = yesSignal.NetProfitEstimate
	}
	noScore := noSignal.Edge
	if noSignal.Action.Kind != ActionSkip {
		noScore = noSignal.NetProfitEstimate
	}

	if noScore > yesScore && noSignal.Action.Kind != ActionSkip {
		return DualSideSignal{Signal: noSignal, Side: "no"}
	}
	return DualSideSignal{Signal: yesSignal, Side: "yes"}
}

// MomentumGate 按动量评分给信号降级：
//   - 低于 maker 动量阈值：强制放弃（有 edge 但没有动量）
//   - 介于两阈值之间：taker 降级为 maker
//   - 达到 taker 动量阈值：保持原样
//
// 已是放弃的信号原样通过。
func MomentumGate(signal Signal, momentumScore float64, makerMomentumThreshold, takerMomentumThreshold int) Signal {
	switch signal.Action.Kind {
	case ActionSkip:
		return signal
	case ActionTakerBuy:
		if momentumScore < float64(makerMomentumThreshold) {
			signal.Action = TradeAction{Kind: ActionSkip}
			signal.Quantity = 0
			return signal
		}
		if momentumScore < float64(takerMomentumThreshold) {
			// 降级为 maker：此处拿不到 best_bid，用 ask-1 近似，
			// 降级信号的净利估计随之变为近似值
			bidPrice := signal.Price - 1
			if bidPrice < 1 {
				bidPrice = 1
			}
			signal.Action = TradeAction{Kind: ActionMakerBuy, BidPrice: bidPrice}
			signal.Price = bidPrice
			return signal
		}
		return signal
	default: // ActionMakerBuy
		if momentumScore < float64(makerMomentumThreshold) {
			signal.Action = TradeAction{Kind: ActionSkip}
			signal.Quantity = 0
		}
		return signal
	}
}
