package loop

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/arbbot/goarb/internal/engine/fees"
	"github.com/arbbot/goarb/internal/engine/kelly"
	"github.com/arbbot/goarb/internal/engine/orders"
	"github.com/arbbot/goarb/internal/engine/sim"
	"github.com/arbbot/goarb/internal/venue"
	"github.com/arbbot/goarb/pkg/config"
)

func testConfig() *config.Config {
	return &config.Config{
		Strategy: config.StrategyConfig{
			TakerEdgeThreshold: 5,
			MakerEdgeThreshold: 2,
			MinEdgeAfterFees:   1,
		},
		Risk: config.RiskConfig{
			MaxContractsPerMarket: 100,
			MaxTotalExposureCents: 1_000_000,
			MaxConcurrentMarkets:  5,
			KellyFraction:         0.25,
			BankrollCents:         100_000,
		},
		Momentum: config.MomentumConfig{
			MakerMomentumThreshold: 30,
			TakerMomentumThreshold: 60,
			VelocityWeight:         0.6,
			BookPressureWeight:     0.4,
			VelocityWindowSize:     5,
			BypassForScoreSignals:  true,
		},
		Execution: config.ExecutionConfig{
			MakerTimeoutMs:       5000,
			StaleOddsThresholdMs: 3000,
		},
	}
}

func newSimEngine(cfg *config.Config, realism sim.RealismConfig) *Engine {
	return New(cfg, nil, sim.NewSimulator(realism, rand.New(rand.NewSource(7))))
}

func takerInput() MarketInput {
	return MarketInput{
		Ticker:       "KXNBAGAME-26JAN01-BOSLAL-BOS",
		EventKey:     "basketball:LAL@BOS",
		Sport:        "basketball",
		Source:       "score_feed",
		FairValue:    65,
		FallbackBid:  58,
		FallbackAsk:  60,
		MarketStatus: "open",
	}
}

func TestSimTakerEntryOpensPosition(t *testing.T) {
	cfg := testConfig()
	e := newSimEngine(cfg, sim.RealismConfig{})
	in := takerInput()

	result := e.EvaluateMarket(context.Background(), in)
	if result.Action != "TAKER" {
		t.Fatalf("action = %s, want TAKER (reason %q)", result.Action, result.Reason)
	}
	if !result.Executed {
		t.Fatalf("not executed: %s", result.Reason)
	}
	if result.FillPrice != 60 {
		t.Errorf("fill price = %d, want 60", result.FillPrice)
	}

	wantQty := kelly.Size(65, 60, cfg.Risk.BankrollCents, cfg.Risk.KellyFraction)
	if wantQty > cfg.Risk.MaxContractsPerMarket {
		wantQty = cfg.Risk.MaxContractsPerMarket
	}
	if result.Quantity != wantQty {
		t.Errorf("quantity = %d, want %d", result.Quantity, wantQty)
	}

	pos, ok := e.Positions().Get(in.Ticker)
	if !ok {
		t.Fatal("position not recorded")
	}
	if pos.EntryPrice != 60 || pos.Quantity != wantQty || !pos.IsTakerEntry {
		t.Errorf("unexpected position: %+v", pos)
	}
	// break-even exit disabled, sell target is fair value
	if pos.SellTarget != 65 {
		t.Errorf("sell target = %d, want 65", pos.SellTarget)
	}

	wantCost := wantQty*60 + fees.Calculate(60, wantQty, true)
	if pos.EntryCostCents != wantCost {
		t.Errorf("entry cost = %d, want %d", pos.EntryCostCents, wantCost)
	}
	if got := e.SimBalanceCents(); got != cfg.Risk.BankrollCents-int64(wantCost) {
		t.Errorf("sim balance = %d, want %d", got, cfg.Risk.BankrollCents-int64(wantCost))
	}
	if got := e.Risk().PositionCount(in.Ticker); got != wantQty {
		t.Errorf("risk position count = %d, want %d", got, wantQty)
	}
	if e.Registry().IsPending(in.Ticker, orders.SideEntry) {
		t.Error("entry still pending after fill")
	}
}

func TestClosedMarketSkipped(t *testing.T) {
	e := newSimEngine(testConfig(), sim.RealismConfig{})

	cases := []struct {
		status    string
		closeTime string
	}{
		{"closed", ""},
		{"settled", ""},
		{"open", time.Now().Add(-time.Hour).Format(time.RFC3339)},
	}
	for _, tc := range cases {
		in := takerInput()
		in.MarketStatus = tc.status
		in.CloseTime = tc.closeTime
		result := e.EvaluateMarket(context.Background(), in)
		if result.Executed || result.Reason != "market not open" {
			t.Errorf("status=%q close=%q: executed=%v reason=%q",
				tc.status, tc.closeTime, result.Executed, result.Reason)
		}
	}

	// active 且未到 close_time 的市场可以交易
	in := takerInput()
	in.MarketStatus = "active"
	in.CloseTime = time.Now().Add(time.Hour).Format(time.RFC3339)
	if result := e.EvaluateMarket(context.Background(), in); !result.Executed {
		t.Errorf("active market blocked: %s", result.Reason)
	}
}

func TestStaleSignalSkipped(t *testing.T) {
	e := newSimEngine(testConfig(), sim.RealismConfig{})
	in := takerInput()
	in.IsStale = true

	result := e.EvaluateMarket(context.Background(), in)
	if result.Action != "STALE" {
		t.Errorf("action = %s, want STALE", result.Action)
	}
	if e.Positions().Count() != 0 {
		t.Error("stale signal opened a position")
	}
}

func TestMomentumGateBlocksColdOddsSignal(t *testing.T) {
	e := newSimEngine(testConfig(), sim.RealismConfig{})
	in := takerInput()
	in.Source = "draftkings" // 不在绕过名单内，动量 0 被闸门拦下

	result := e.EvaluateMarket(context.Background(), in)
	if result.Action != "SKIP" {
		t.Errorf("action = %s, want SKIP", result.Action)
	}
	if e.Positions().Count() != 0 {
		t.Error("gated signal opened a position")
	}
}

func TestMomentumGatePassesWhenThresholdsZero(t *testing.T) {
	cfg := testConfig()
	cfg.Momentum.MakerMomentumThreshold = 0
	cfg.Momentum.TakerMomentumThreshold = 0
	e := newSimEngine(cfg, sim.RealismConfig{})
	in := takerInput()
	in.Source = "draftkings"

	result := e.EvaluateMarket(context.Background(), in)
	if result.Action != "TAKER" || !result.Executed {
		t.Errorf("action = %s executed = %v, want executed TAKER", result.Action, result.Executed)
	}
}

func TestBreakEvenTooHighSkipped(t *testing.T) {
	e := newSimEngine(testConfig(), sim.RealismConfig{})
	in := takerInput()
	in.FairValue = 99
	in.FallbackBid = 94
	in.FallbackAsk = 95

	result := e.EvaluateMarket(context.Background(), in)
	if result.Executed {
		t.Fatal("position opened despite unreachable break-even")
	}
	if result.Reason != "break-even too high" {
		t.Errorf("reason = %q, want break-even too high", result.Reason)
	}
	if e.Positions().Count() != 0 {
		t.Error("position recorded")
	}
}

func TestPendingOrderBlocksResubmit(t *testing.T) {
	e := newSimEngine(testConfig(), sim.RealismConfig{})
	in := takerInput()
	e.Registry().TryRegister(in.Ticker, orders.SideEntry, 1, 50, true)

	result := e.EvaluateMarket(context.Background(), in)
	if result.Executed {
		t.Fatal("executed while an entry order was pending")
	}
	if result.Reason != "order already pending" {
		t.Errorf("reason = %q", result.Reason)
	}
}

func TestOpenPositionBlocksReentry(t *testing.T) {
	e := newSimEngine(testConfig(), sim.RealismConfig{})
	in := takerInput()

	first := e.EvaluateMarket(context.Background(), in)
	if !first.Executed {
		t.Fatalf("first entry failed: %s", first.Reason)
	}
	second := e.EvaluateMarket(context.Background(), in)
	if second.Executed {
		t.Fatal("second entry executed on an open position")
	}
	if second.Reason != "position already open" {
		t.Errorf("reason = %q", second.Reason)
	}
}

func TestRiskLimitBlocksEntry(t *testing.T) {
	cfg := testConfig()
	cfg.Risk.MaxTotalExposureCents = 100
	e := newSimEngine(cfg, sim.RealismConfig{})

	result := e.EvaluateMarket(context.Background(), takerInput())
	if result.Executed {
		t.Fatal("executed past exposure cap")
	}
	if result.Reason != "risk limits" {
		t.Errorf("reason = %q", result.Reason)
	}
}

func TestKillSwitchDrainsAndBlocks(t *testing.T) {
	e := newSimEngine(testConfig(), sim.RealismConfig{})
	e.Registry().TryRegister("KXNBAGAME-26JAN01-BOSLAL-BOS", orders.SideEntry, 5, 50, false)

	drained := e.Kill(context.Background())
	if len(drained) != 1 {
		t.Fatalf("drained %d orders, want 1", len(drained))
	}
	if !e.Killed() {
		t.Error("Killed() = false after Kill")
	}
	select {
	case <-e.KillC():
	default:
		t.Error("kill channel did not fire")
	}

	result := e.EvaluateMarket(context.Background(), takerInput())
	if result.Executed || result.Reason != "kill-switch engaged" {
		t.Errorf("post-kill evaluation: executed=%v reason=%q", result.Executed, result.Reason)
	}
}

func TestHousekeepExpiresStalePending(t *testing.T) {
	cfg := testConfig()
	cfg.Execution.MakerTimeoutMs = 0
	e := newSimEngine(cfg, sim.RealismConfig{})
	e.Registry().TryRegister("KXNBAGAME-26JAN01-BOSLAL-BOS", orders.SideEntry, 5, 50, false)

	time.Sleep(2 * time.Millisecond)
	expired := e.Housekeep(time.Now())
	if len(expired) != 1 {
		t.Fatalf("expired %d orders, want 1", len(expired))
	}
	if e.Registry().IsPending("KXNBAGAME-26JAN01-BOSLAL-BOS", orders.SideEntry) {
		t.Error("order still pending after expiry")
	}
}

func TestTimeoutForceExit(t *testing.T) {
	cfg := testConfig()
	realism := sim.RealismConfig{
		Enabled:                  true,
		TakerFillRate:            1.0,
		MakerFillRate:            1.0,
		MaxHoldSeconds:           300,
		TimeoutExitSlippageCents: 2,
	}
	e := newSimEngine(cfg, realism)

	ticker := "KXNBAGAME-26JAN01-BOSLAL-BOS"
	e.Positions().RecordEntry(orders.Position{
		Ticker:         ticker,
		Quantity:       10,
		EntryPrice:     50,
		EntryCostCents: 520,
		SellTarget:     60,
		FilledAt:       time.Now().Add(-400 * time.Second),
		IsTakerEntry:   true,
	})
	e.Risk().RecordBuy(ticker, 10)
	e.OnBookUpdate(venue.BookUpdate{Ticker: ticker, YesBid: 50, YesAsk: 52, ReceivedAt: time.Now()})

	e.Housekeep(time.Now())

	if e.Positions().Has(ticker) {
		t.Fatal("position survived timeout exit")
	}
	if got := e.Risk().PositionCount(ticker); got != 0 {
		t.Errorf("risk count = %d after forced exit", got)
	}
	// 强平价 50-2=48，taker 平仓费 ceil(7*10*48*52/10000)=18
	wantBalance := cfg.Risk.BankrollCents + 48*10 - 18
	if got := e.SimBalanceCents(); got != wantBalance {
		t.Errorf("sim balance = %d, want %d", got, wantBalance)
	}
}

func TestCheckExitsFillsAtTarget(t *testing.T) {
	cfg := testConfig()
	e := newSimEngine(cfg, sim.RealismConfig{})

	ticker := "KXNBAGAME-26JAN01-BOSLAL-BOS"
	e.Positions().RecordEntry(orders.Position{
		Ticker:         ticker,
		Quantity:       10,
		EntryPrice:     50,
		EntryCostCents: 520,
		SellTarget:     60,
		FilledAt:       time.Now(),
	})
	e.Risk().RecordBuy(ticker, 10)

	// 买一没到目标价，持仓保留
	e.OnBookUpdate(venue.BookUpdate{Ticker: ticker, YesBid: 59, YesAsk: 62, ReceivedAt: time.Now()})
	e.CheckExits(context.Background())
	if !e.Positions().Has(ticker) {
		t.Fatal("position exited below sell target")
	}

	e.OnBookUpdate(venue.BookUpdate{Ticker: ticker, YesBid: 61, YesAsk: 63, ReceivedAt: time.Now()})
	e.CheckExits(context.Background())
	if e.Positions().Has(ticker) {
		t.Fatal("position not exited at sell target")
	}
	// 成交价 60，maker 平仓费 ceil(175*10*60*40/1e6)=5
	wantBalance := cfg.Risk.BankrollCents + 60*10 - 5
	if got := e.SimBalanceCents(); got != wantBalance {
		t.Errorf("sim balance = %d, want %d", got, wantBalance)
	}
}
