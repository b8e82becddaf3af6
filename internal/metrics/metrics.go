// Package metrics 暴露决策引擎的运行计数（expvar）与 pprof 端点。
// 计数器是全局的：引擎单消费者模型下没有竞争热点，expvar 自身并发安全。
package metrics

import "expvar"

var (
	// SignalsEvaluated 跑完决策序列的市场评估次数（含 skip）。
	SignalsEvaluated = expvar.NewInt("signals_evaluated")
	// OrdersSubmitted 实际提交（实盘）或模拟成交受理（纸面）的订单数。
	OrdersSubmitted = expvar.NewInt("orders_submitted")
	// OrdersExpired 超时被移出在途登记表的订单数。
	OrdersExpired = expvar.NewInt("orders_expired")
	// SimFills 纸面模式成交笔数（入场与出场都计）。
	SimFills = expvar.NewInt("sim_fills")
	// FeedErrors 赔率/比分拉取失败次数。
	FeedErrors = expvar.NewInt("feed_errors")
)
