// Package kelly 实现二元合约的凯利公式仓位计算。
package kelly

import "math"

// Size 计算凯利最优合约数量。
//
//   - fairValue: 去水概率（分，1–99）
//   - entryPrice: 每张合约的入场价（分，1–99）
//   - bankrollCents: 可用余额（分）
//   - fraction: 缩放系数（例如 0.25 表示四分之一凯利）
//
// 返回建议数量，下限为 1。输入退化（价格 0/100、fair 为 0、
// 余额为 0、系数 <=0）或凯利值非正时直接返回 1，
// 阈值过滤由策略层负责，这里不重复判断。
func Size(fairValue, entryPrice int, bankrollCents int64, fraction float64) int {
	if entryPrice <= 0 || entryPrice >= 100 || fairValue <= 0 || bankrollCents <= 0 || fraction <= 0 {
		return 1
	}

	p := float64(fairValue) / 100.0
	q := 1.0 - p
	b := (100.0 - float64(entryPrice)) / float64(entryPrice)

	// f* = (b*p - q) / b
	fStar := (b*p - q) / b
	if fStar <= 0 {
		return 1
	}

	wagerCents := fStar * fraction * float64(bankrollCents)
	qty := int(math.Floor(wagerCents / float64(entryPrice)))
	if qty < 1 {
		return 1
	}
	return qty
}
