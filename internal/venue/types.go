// Package venue 是场内交易所（Kalshi 风格二元合约场）的薄客户端：
// 市场列表、下单/撤单、订单簿推送。核心引擎只消费这里的规范化结构，
// 不接触签名、传输或重试细节。
package venue

import (
	"github.com/shopspring/decimal"
)

// Market 场内一个可交易市场。报价在 API 里是定点美元字符串，
// 入库时统一转为整数分。
type Market struct {
	Ticker       string
	EventTicker  string
	Title        string
	Status       string
	YesBid       int
	YesAsk       int
	NoBid        int
	NoAsk        int
	Volume       int64
	OpenInterest int64
	CloseTime    string
}

// Order 下单结果。
type Order struct {
	OrderID        string
	Status         string
	FillCount      int
	RemainingCount int
}

// marketJSON API 返回的市场原始结构。
type marketJSON struct {
	Ticker        string `json:"ticker"`
	EventTicker   string `json:"event_ticker"`
	Title         string `json:"title"`
	Status        string `json:"status"`
	YesBidDollars string `json:"yes_bid_dollars"`
	YesAskDollars string `json:"yes_ask_dollars"`
	NoBidDollars  string `json:"no_bid_dollars"`
	NoAskDollars  string `json:"no_ask_dollars"`
	Volume        int64  `json:"volume"`
	OpenInterest  int64  `json:"open_interest"`
	CloseTime     string `json:"close_time"`
}

func (m *marketJSON) toMarket() Market {
	return Market{
		Ticker:       m.Ticker,
		EventTicker:  m.EventTicker,
		Title:        m.Title,
		Status:       m.Status,
		YesBid:       DollarsToCents(m.YesBidDollars),
		YesAsk:       DollarsToCents(m.YesAskDollars),
		NoBid:        DollarsToCents(m.NoBidDollars),
		NoAsk:        DollarsToCents(m.NoAskDollars),
		Volume:       m.Volume,
		OpenInterest: m.OpenInterest,
		CloseTime:    m.CloseTime,
	}
}

// DollarsToCents 把定点美元字符串（如 "0.55"）转为整数分。
// 使用 decimal 避免浮点误差；空串或非法输入返回 0。
func DollarsToCents(dollars string) int {
	if dollars == "" {
		return 0
	}
	d, err := decimal.NewFromString(dollars)
	if err != nil {
		return 0
	}
	return int(d.Mul(decimal.NewFromInt(100)).Round(0).IntPart())
}
