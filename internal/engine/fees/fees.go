// Package fees 实现场内费用的整数精确计算。
//
// Taker 费率 7%：fee = ceil(7 * Q * P * (100-P) / 10_000)
// Maker 费率 1.75%：fee = ceil(175 * Q * P * (100-P) / 1_000_000)
//
// 费用以单分为单位决定盈亏，必须使用整数向上取整，不允许浮点舍入。
package fees

// Calculate 计算一笔订单的费用（分）。
// 价格为 0 或 >=100、数量为 0 时费用为 0。
func Calculate(priceCents, quantity int, isTaker bool) int {
	if quantity <= 0 || priceCents <= 0 || priceCents >= 100 {
		return 0
	}
	p := int64(priceCents)
	q := int64(quantity)
	spreadFactor := p * (100 - p)

	if isTaker {
		numerator := 7 * q * spreadFactor
		const denominator = int64(10_000)
		return int((numerator + denominator - 1) / denominator)
	}
	numerator := 175 * q * spreadFactor
	const denominator = int64(1_000_000)
	return int((numerator + denominator - 1) / denominator)
}

// BreakEvenSellPrice 返回扣除退出费用后不亏损的最低卖价。
// 在 [1,99] 内线性扫描；若 99 分也无法回本则返回 (0, false)，
// 调用方应视为“此刻不可退出”，而不是错误。
func BreakEvenSellPrice(totalEntryCostCents, quantity int, isTakerExit bool) (int, bool) {
	for price := 1; price <= 99; price++ {
		fee := Calculate(price, quantity, isTakerExit)
		gross := price * quantity
		if gross >= fee+totalEntryCostCents {
			return price, true
		}
	}
	return 0, false
}
