// Package sim 在纸面交易模式下以概率模型替代真实场内撮合，
// 用于对策略做贴近实盘的成交与滑点估计。
package sim

import (
	"math"
	"math/rand"
	"time"
)

// Outcome 一次撮合尝试的结果类型。
type Outcome int

const (
	// OutcomeFilled 成交。
	OutcomeFilled Outcome = iota
	// OutcomeMissed 延迟后机会已消失。
	OutcomeMissed
	// OutcomeRejected 概率性未成交（队列位置等），本次尝试终止。
	OutcomeRejected
	// OutcomePending 本轮未成交，下轮重试（仅退出路径）。
	OutcomePending
)

func (o Outcome) String() string {
	switch o {
	case OutcomeFilled:
		return "Filled"
	case OutcomeMissed:
		return "Missed"
	case OutcomeRejected:
		return "Rejected"
	default:
		return "Pending"
	}
}

// FillResult 撮合结果，Price 仅在 Filled 时有意义。
type FillResult struct {
	Outcome Outcome
	Price   int
}

func filled(price int) FillResult { return FillResult{Outcome: OutcomeFilled, Price: price} }

// RealismConfig 成交真实度参数。
type RealismConfig struct {
	Enabled                  bool
	TakerFillRate            float64
	TakerSlippageMeanCents   int
	TakerSlippageStdCents    int
	MakerFillRate            float64
	MakerRequirePriceThrough bool
	ApplyLatency             bool
	MaxHoldSeconds           int64
	TimeoutExitSlippageCents int
}

// Simulator 概率撮合模拟器。非并发安全，由单一决策循环持有。
type Simulator struct {
	config RealismConfig
	rng    *rand.Rand
}

// NewSimulator 创建模拟器。rng 传 nil 时用时间种子；
// 测试中传入固定种子可获得确定性结果。
func NewSimulator(config RealismConfig, rng *rand.Rand) *Simulator {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Simulator{config: config, rng: rng}
}

// Enabled 返回真实度模拟是否开启。关闭时成交是确定性的。
func (s *Simulator) Enabled() bool {
	return s.config.Enabled
}

// TryTakerEntry 尝试一笔 taker 开仓。
// signalPrice 是信号触发时的卖一价，currentAsk 是延迟后的卖一价。
// 价格已经跑掉返回 Missed；掷中拒绝率返回 Rejected；
// 否则按截断正态采样滑点成交，成交价夹在 [1, 99] 且不超过 ask+3。
func (s *Simulator) TryTakerEntry(signalPrice, currentAsk int) FillResult {
	if !s.config.Enabled {
		return filled(signalPrice)
	}

	if s.config.ApplyLatency && currentAsk > signalPrice {
		return FillResult{Outcome: OutcomeMissed}
	}

	if s.rng.Float64() > s.config.TakerFillRate {
		return FillResult{Outcome: OutcomeRejected}
	}

	fillPrice := currentAsk + s.sampleSlippage()
	if fillPrice < 1 {
		fillPrice = 1
	}
	if fillPrice > 99 {
		fillPrice = 99
	}
	if fillPrice > currentAsk+3 {
		fillPrice = currentAsk + 3
	}
	return filled(fillPrice)
}

// TryMakerEntry 尝试一笔 maker 开仓。maker 按挂单价足额成交，
// 不吃滑点，但因队列位置有更低的成交率。
func (s *Simulator) TryMakerEntry(signalPrice int) FillResult {
	if !s.config.Enabled {
		return filled(signalPrice)
	}
	if s.rng.Float64() > s.config.MakerFillRate {
		return FillResult{Outcome: OutcomeRejected}
	}
	return filled(signalPrice)
}

// TryMakerExit 尝试一笔 maker 平仓。价格条件不满足或掷中未成交
// 都返回 Pending（永不 Rejected，退出单假定最终能排到队首）。
// 配置要求 price-through 时，bid 必须严格高于限价。
func (s *Simulator) TryMakerExit(sellPrice, currentBid int) FillResult {
	if !s.config.Enabled {
		if currentBid >= sellPrice {
			return filled(sellPrice)
		}
		return FillResult{Outcome: OutcomePending}
	}

	if s.config.MakerRequirePriceThrough {
		if currentBid <= sellPrice {
			return FillResult{Outcome: OutcomePending}
		}
	} else if currentBid < sellPrice {
		return FillResult{Outcome: OutcomePending}
	}

	if s.rng.Float64() > s.config.MakerFillRate {
		return FillResult{Outcome: OutcomePending}
	}
	return filled(sellPrice)
}

// ForceTakerExit 超时强平：按当前买一减去固定滑点成交，最低 1 分。
func (s *Simulator) ForceTakerExit(currentBid int) FillResult {
	fillPrice := currentBid - s.config.TimeoutExitSlippageCents
	if fillPrice < 1 {
		fillPrice = 1
	}
	return filled(fillPrice)
}

// MaxHoldSeconds 返回超时强平的持仓时限（秒）。
func (s *Simulator) MaxHoldSeconds() int64 {
	return s.config.MaxHoldSeconds
}

// sampleSlippage 从截断正态分布采样滑点（Box-Muller），
// 夹在 [0, mean+3σ]，避免负滑点或极端值。
func (s *Simulator) sampleSlippage() int {
	mean := float64(s.config.TakerSlippageMeanCents)
	std := float64(s.config.TakerSlippageStdCents)
	if std == 0 {
		return int(mean)
	}

	u1 := s.rng.Float64()
	u2 := s.rng.Float64()
	z := math.Sqrt(-2.0*math.Log(u1)) * math.Cos(2.0*math.Pi*u2)
	sample := mean + std*z

	if sample < 0 {
		sample = 0
	}
	if upper := mean + 3.0*std; sample > upper {
		sample = upper
	}
	return int(sample)
}
