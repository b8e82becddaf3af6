package strategy

import "math"

// AmericanToProbability 把美式赔率换算为隐含概率（含水分）。
func AmericanToProbability(odds float64) float64 {
	if odds > 0 {
		return 100.0 / (odds + 100.0)
	}
	a := math.Abs(odds)
	return a / (a + 100.0)
}

// Devig 对两路美式赔率去水分，返回 (home, away) 公允概率。
// 做法是把两边的朴素隐含概率按其和归一；退化输入返回均匀分布。
func Devig(homeOdds, awayOdds float64) (float64, float64) {
	home := AmericanToProbability(homeOdds)
	away := AmericanToProbability(awayOdds)
	total := home + away
	if total <= 0 {
		return 0.5, 0.5
	}
	return home / total, away / total
}

// Devig3Way 三路市场（足球：胜/负/平）的去水分版本。
func Devig3Way(homeOdds, awayOdds, drawOdds float64) (float64, float64, float64) {
	home := AmericanToProbability(homeOdds)
	away := AmericanToProbability(awayOdds)
	draw := AmericanToProbability(drawOdds)
	total := home + away + draw
	if total <= 0 {
		third := 1.0 / 3.0
		return third, third, third
	}
	return home / total, away / total, draw / total
}

// FairValueCents 把概率换算为合约公允价（分），夹在 [1, 99]。
func FairValueCents(prob float64) int {
	v := int(math.Round(prob * 100.0))
	if v < 1 {
		return 1
	}
	if v > 99 {
		return 99
	}
	return v
}
