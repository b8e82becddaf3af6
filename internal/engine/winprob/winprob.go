// Package winprob 基于 logistic 模型把实时比分差与已消耗时间映射为主队胜率。
//
// 模型：P(home_win) = 1 / (1 + exp(-k * adjusted_diff))
//   - adjusted_diff = score_diff + home_advantage
//   - k 随已消耗时间按三次方递增，使末段领先接近确定、中段概率保持平缓
//
// 比分差裁剪到 ±40；时间桶为 30 秒一档，常规时间 0–96 桶，加时 0–10 桶。
// 终局桶为确定性结果：领先 100、落后 0、平局 57（平局进加时带轻微主场优势）。
package winprob

import "math"

// Table 参数化的胜率模型。
type Table struct {
	homeAdvantage float64
	kStart        float64
	kRange        float64
	otKStart      float64
	otKRange      float64
}

// New 创建胜率表。
func New(homeAdvantage, kStart, kRange, otKStart, otKRange float64) *Table {
	return &Table{
		homeAdvantage: homeAdvantage,
		kStart:        kStart,
		kRange:        kRange,
		otKStart:      otKStart,
		otKRange:      otKRange,
	}
}

// NewDefault 使用 NBA 标定参数创建胜率表。
func NewDefault() *Table {
	return New(3.0, 0.065, 0.25, 0.10, 1.0)
}

func clampDiff(scoreDiff int) int {
	if scoreDiff > 40 {
		return 40
	}
	if scoreDiff < -40 {
		return -40
	}
	return scoreDiff
}

func terminal(clampedDiff int) int {
	switch {
	case clampedDiff > 0:
		return 100
	case clampedDiff < 0:
		return 0
	default:
		return 57
	}
}

func (t *Table) logistic(clampedDiff int, k float64) int {
	adjusted := float64(clampedDiff) + t.homeAdvantage
	prob := 1.0 / (1.0 + math.Exp(-k*adjusted))
	v := math.Round(prob * 100.0)
	if v < 0 {
		v = 0
	}
	if v > 100 {
		v = 100
	}
	return int(v)
}

// Lookup 常规时间查询。
//
//   - scoreDiff: 主队得分减客队得分
//   - timeBucket: 0 = 开赛，96 = 常规时间结束（每桶 30 秒）
//
// 返回 0–100 的主队胜率。
func (t *Table) Lookup(scoreDiff, timeBucket int) int {
	clamped := clampDiff(scoreDiff)
	if timeBucket >= 96 {
		return terminal(clamped)
	}
	bucket := float64(timeBucket)
	if bucket < 0 {
		bucket = 0
	}
	k := t.kStart + math.Pow(bucket/96.0, 3)*t.kRange
	return t.logistic(clamped, k)
}

// LookupOvertime 加时查询，timeBucket 0 = 加时开始，10 = 加时结束。
func (t *Table) LookupOvertime(scoreDiff, timeBucket int) int {
	clamped := clampDiff(scoreDiff)
	if timeBucket >= 10 {
		return terminal(clamped)
	}
	bucket := float64(timeBucket)
	if bucket < 0 {
		bucket = 0
	}
	k := t.otKStart + math.Pow(bucket/10.0, 3)*t.otKRange
	return t.logistic(clamped, k)
}

// FairValue 把实时比分与已消耗秒数转换为 (home, away) 公允价（分），两者之和为 100。
func (t *Table) FairValue(scoreDiff, totalElapsedSeconds int) (int, int) {
	home := t.Lookup(scoreDiff, totalElapsedSeconds/30)
	return home, 100 - home
}

// FairValueOvertime 加时版本，otElapsedSeconds 为当前加时节内已消耗秒数。
func (t *Table) FairValueOvertime(scoreDiff, otElapsedSeconds int) (int, int) {
	home := t.LookupOvertime(scoreDiff, otElapsedSeconds/30)
	return home, 100 - home
}
