// Package momentum 跟踪赔率变化速度与订单簿压力，产出 0–100 的动量评分。
// 评分用于给策略信号降级：动量不足时 taker 降为 maker，再不足直接放弃。
package momentum

import "time"

// snapshot 单个事件的一次赔率快照。
type snapshot struct {
	impliedProb float64
	at          time.Time
}

// VelocityTracker 用有界窗口跟踪单个事件的赔率变化速度。
type VelocityTracker struct {
	snapshots  []snapshot
	windowSize int
}

// NewVelocityTracker 创建速度跟踪器，windowSize 为窗口内最多保留的快照数。
func NewVelocityTracker(windowSize int) *VelocityTracker {
	if windowSize < 2 {
		windowSize = 2
	}
	return &VelocityTracker{
		snapshots:  make([]snapshot, 0, windowSize),
		windowSize: windowSize,
	}
}

// Push 记录一次快照。与上一条在 1e-9 内不可区分的快照视为
// 缓存复读，不入库并返回 false；窗口满时先逐出最旧一条。
func (t *VelocityTracker) Push(impliedProb float64, at time.Time) bool {
	if n := len(t.snapshots); n > 0 {
		last := t.snapshots[n-1]
		if diff := last.impliedProb - impliedProb; diff < 1e-9 && diff > -1e-9 {
			return false
		}
	}
	if len(t.snapshots) >= t.windowSize {
		copy(t.snapshots, t.snapshots[1:])
		t.snapshots = t.snapshots[:len(t.snapshots)-1]
	}
	t.snapshots = append(t.snapshots, snapshot{impliedProb: impliedProb, at: at})
	return true
}

// maxVelocity 10 个百分点/分钟对应满分 100。
const maxVelocity = 10.0

// Score 计算速度评分（0–100）。
// 取窗口内最旧与最新快照：|Δprob|（百分点）除以流逝分钟数，
// 再按 maxVelocity 归一。少于 2 条快照返回 0；时间跨度 <1ms 返回 0。
func (t *VelocityTracker) Score() float64 {
	if len(t.snapshots) < 2 {
		return 0
	}
	oldest := t.snapshots[0]
	newest := t.snapshots[len(t.snapshots)-1]
	dtSecs := newest.at.Sub(oldest.at).Seconds()
	if dtSecs < 0.001 {
		return 0
	}
	deltaPP := (newest.impliedProb - oldest.impliedProb) * 100.0
	if deltaPP < 0 {
		deltaPP = -deltaPP
	}
	velocityPerMin := deltaPP / (dtSecs / 60.0)
	score := velocityPerMin / maxVelocity * 100.0
	if score > 100 {
		return 100
	}
	return score
}

// BookPressureTracker 跟踪单个市场盘口附近的买卖深度压力。
type BookPressureTracker struct {
	ratios []struct {
		ratio float64
		at    time.Time
	}
	windowSize int
}

// NewBookPressureTracker 创建压力跟踪器。
func NewBookPressureTracker(windowSize int) *BookPressureTracker {
	if windowSize < 1 {
		windowSize = 1
	}
	return &BookPressureTracker{windowSize: windowSize}
}

// Push 记录一次深度观测。卖侧为空时压力比封顶 10 倍。
func (t *BookPressureTracker) Push(bidDepth, askDepth int64, at time.Time) {
	var ratio float64
	switch {
	case askDepth == 0 && bidDepth > 0:
		ratio = 10.0
	case askDepth == 0:
		ratio = 1.0
	default:
		ratio = float64(bidDepth) / float64(askDepth)
	}
	if len(t.ratios) >= t.windowSize {
		copy(t.ratios, t.ratios[1:])
		t.ratios = t.ratios[:len(t.ratios)-1]
	}
	t.ratios = append(t.ratios, struct {
		ratio float64
		at    time.Time
	}{ratio, at})
}

// Score 计算压力评分（0–100）：
// 水平分（比值 1.0 中性 0 分，3.0 以上封顶 50 分）
// 加趋势分（比值每秒 +1.0 记 50 分，裁剪到 [0,50]）。
func (t *BookPressureTracker) Score() float64 {
	if len(t.ratios) == 0 {
		return 0
	}
	current := t.ratios[len(t.ratios)-1].ratio

	level := (current - 1.0) / 2.0 * 50.0
	if level < 0 {
		level = 0
	}
	if level > 50 {
		level = 50
	}

	trend := 0.0
	if len(t.ratios) >= 2 {
		oldest := t.ratios[0]
		newest := t.ratios[len(t.ratios)-1]
		dt := newest.at.Sub(oldest.at).Seconds()
		if dt > 0.001 {
			changePerSec := (newest.ratio - oldest.ratio) / dt
			trend = changePerSec * 50.0
			if trend < 0 {
				trend = 0
			}
			if trend > 50 {
				trend = 50
			}
		}
	}

	total := level + trend
	if total > 100 {
		return 100
	}
	return total
}

// Scorer 加权合成速度与压力评分。
type Scorer struct {
	VelocityWeight     float64
	BookPressureWeight float64
}

// NewScorer 创建合成评分器。
func NewScorer(velocityWeight, bookPressureWeight float64) *Scorer {
	return &Scorer{VelocityWeight: velocityWeight, BookPressureWeight: bookPressureWeight}
}

// Composite 合成评分，裁剪到 [0,100]。
func (s *Scorer) Composite(velocityScore, bookPressureScore float64) float64 {
	raw := s.VelocityWeight*velocityScore + s.BookPressureWeight*bookPressureScore
	if raw < 0 {
		return 0
	}
	if raw > 100 {
		return 100
	}
	return raw
}
