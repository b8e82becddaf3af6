package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"sync"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/arbbot/goarb/internal/engine/diag"
	"github.com/arbbot/goarb/internal/engine/loop"
	"github.com/arbbot/goarb/internal/engine/matcher"
	"github.com/arbbot/goarb/internal/engine/sim"
	"github.com/arbbot/goarb/internal/engine/strategy"
	"github.com/arbbot/goarb/internal/engine/winprob"
	"github.com/arbbot/goarb/internal/feed"
	"github.com/arbbot/goarb/internal/metrics"
	"github.com/arbbot/goarb/internal/venue"
	"github.com/arbbot/goarb/pkg/config"
	"github.com/arbbot/goarb/pkg/logger"
	"github.com/arbbot/goarb/pkg/shutdown"
	"github.com/arbbot/goarb/pkg/syncgroup"
)

// activeSport 一个启用的运动及其配置，key 排序后保证启动顺序稳定。
type activeSport struct {
	key string
	cfg config.SportConfig
}

// oddsBatch 一轮赔率拉取的结果。
type oddsBatch struct {
	sport     string
	source    string
	updates   []feed.OddsUpdate
	fetchedAt time.Time
}

// scoreBatch 一轮比分拉取的结果。
type scoreBatch struct {
	sport     string
	updates   []feed.ScoreUpdate
	fetchedAt time.Time
}

func main() {
	configPath := flag.String("config", "config.yaml", "配置文件路径")
	simMode := flag.Bool("sim", false, "纸面交易模式：不提交真实订单，成交由模拟器裁决")
	diagMode := flag.Bool("diag", false, "诊断模式：拉一轮数据打印市场配对情况后退出")
	flag.Parse()

	if err := logger.InitDefault(); err != nil {
		panic(fmt.Sprintf("初始化日志失败: %v", err))
	}

	// .env 不存在不算错误，密钥也可以直接来自环境变量
	_ = godotenv.Load()

	cfg, err := config.LoadFromFile(*configPath)
	if err != nil {
		logrus.Errorf("加载配置失败: %v", err)
		os.Exit(1)
	}

	if err := logger.Init(logger.Config{
		Level:      cfg.LogLevel,
		OutputFile: cfg.LogFile,
		MaxSize:    100,
		MaxBackups: 10,
		MaxAge:     30,
		Compress:   true,
	}); err != nil {
		logrus.Errorf("重新初始化日志失败: %v", err)
		os.Exit(1)
	}

	venueKey := config.VenueAPIKey()
	if venueKey == "" && !*simMode && !*diagMode {
		logrus.Error("缺少 VENUE_API_KEY，实盘模式无法启动")
		os.Exit(1)
	}
	client := venue.NewClient(cfg.Venue.APIBase, venueKey)

	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

	sports := enabledSports(cfg)
	if len(sports) == 0 {
		logrus.Error("没有启用任何运动，检查配置的 sports 段")
		os.Exit(1)
	}

	// 赔率源客户端
	oddsClients := make(map[string]*feed.OddsClient)
	for name, sc := range cfg.OddsSources {
		if sc.Type != "the-odds-api" {
			logrus.Warnf("未知赔率源类型 %s（%s），跳过", sc.Type, name)
			continue
		}
		oc := feed.NewOddsClient(sc.BaseURL, config.OddsAPIKey(), sc.Bookmakers)
		if quota, err := oc.CheckQuota(rootCtx); err != nil {
			logrus.Warnf("赔率源 %s 配额检查失败: %v", name, err)
		} else {
			logrus.Infof("赔率源 %s 剩余配额: %d", name, quota.RequestsRemaining)
		}
		oddsClients[name] = oc
	}

	// 构建市场索引
	index := matcher.Index{}
	var allTickers []string
	for _, s := range sports {
		markets, err := client.Markets(rootCtx, s.cfg.VenueSeries)
		if err != nil {
			logrus.Warnf("拉取 %s 市场失败: %v", s.key, err)
			continue
		}
		for k, v := range matcher.BuildIndex(s.key, markets) {
			index[k] = v
		}
		for _, m := range markets {
			allTickers = append(allTickers, m.Ticker)
		}
		logrus.Infof("已索引 %s 市场: %d 个", s.key, len(markets))
	}

	if *diagMode {
		runDiagnostics(rootCtx, sports, index, oddsClients)
		return
	}

	// 可选：通过环境变量开启 expvar/pprof 调试端点
	if addr := os.Getenv("ARB_PPROF_ADDR"); addr != "" {
		if _, err := metrics.StartAsync(rootCtx, addr); err != nil {
			logrus.Errorf("metrics/pprof 启动失败: %v", err)
		} else {
			logrus.Infof("📊 metrics/pprof 启用: listen=%s", addr)
		}
	}

	simulator := sim.NewSimulator(realismFromConfig(cfg.Simulation.Realism), nil)
	var submitter loop.OrderSubmitter
	if *simMode {
		logrus.Warn("📝 纸面交易模式已启用：不会提交真实订单")
	} else {
		submitter = client
		if balance, err := client.Balance(rootCtx); err != nil {
			logrus.Errorf("查询余额失败: %v", err)
		} else {
			logrus.Warnf("场内余额: %d 分 ($%.2f)", balance, float64(balance)/100.0)
		}
	}
	engine := loop.New(cfg, submitter, simulator)

	// 订单簿推送
	stream := venue.NewBookStream(cfg.Venue.WSURL, venueKey, allTickers, 512)
	if err := stream.Connect(rootCtx); err != nil {
		logrus.Errorf("连接订单簿推送失败: %v", err)
		os.Exit(1)
	}
	defer stream.Close()

	// 信号源 goroutine：每个运动一个拉取循环，经有界 channel 汇入决策循环
	oddsC := make(chan oddsBatch, 16)
	scoreC := make(chan scoreBatch, 16)
	tables := make(map[string]*winprob.Table)
	pollers := syncgroup.NewSyncGroup()
	for _, s := range sports {
		tables[s.key] = winProbTable(s.cfg.WinProb)

		if s.cfg.FairValue == "odds" || s.cfg.OddsSource != "" {
			oc, ok := oddsClients[s.cfg.OddsSource]
			if !ok {
				logrus.Warnf("%s 配置的赔率源 %s 不存在", s.key, s.cfg.OddsSource)
			} else {
				interval := pollInterval(cfg.OddsSources[s.cfg.OddsSource].LivePollS, 60)
				sport, source := s.key, s.cfg.OddsSource
				pollers.Add(func() { pollOdds(rootCtx, oc, sport, source, interval, oddsC) })
			}
		}
		if s.cfg.ScoreFeed != nil {
			poller := feed.NewScorePoller(s.cfg.ScoreFeed.PrimaryURL, s.cfg.ScoreFeed.FallbackURL)
			interval := pollInterval(s.cfg.ScoreFeed.LivePollS, 3)
			sport := s.key
			pollers.Add(func() { pollScores(rootCtx, poller, sport, interval, scoreC) })
		}
	}
	pollers.Run()

	// 关闭顺序：先 kill-switch 排空在途订单，再断开推送
	shutdownMgr := shutdown.NewManager()
	shutdownMgr.OnShutdown(func(ctx context.Context, _ *sync.WaitGroup) {
		drained := engine.Kill(ctx)
		logrus.Infof("排空在途订单 %d 笔", len(drained))
	})
	shutdownMgr.OnShutdown(func(_ context.Context, _ *sync.WaitGroup) {
		_ = stream.Close()
	})

	sigC := make(chan os.Signal, 1)
	signal.Notify(sigC, os.Interrupt, syscall.SIGTERM)
	housekeep := time.NewTicker(time.Second)
	defer housekeep.Stop()

	logrus.Info("🚀 决策引擎已启动，按 Ctrl+C 停止")

	for {
		select {
		case update := <-stream.Updates():
			engine.OnBookUpdate(update)
		case batch := <-oddsC:
			handleOddsBatch(rootCtx, engine, cfg, index, batch)
		case batch := <-scoreC:
			handleScoreBatch(rootCtx, engine, index, tables[batch.sport], cfg.Sports[batch.sport], batch)
		case now := <-housekeep.C:
			engine.Housekeep(now)
			engine.CheckExits(rootCtx)
		case <-sigC:
			logrus.Info("收到停止信号，正在关闭...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			shutdownMgr.Shutdown(shutdownCtx)
			cancel()
			rootCancel()
			pollers.Wait()
			logrus.Info("✅ 已停止")
			return
		}
	}
}

func enabledSports(cfg *config.Config) []activeSport {
	var out []activeSport
	for key, sc := range cfg.Sports {
		if sc.Enabled {
			out = append(out, activeSport{key: key, cfg: sc})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].key < out[j].key })
	return out
}

func winProbTable(wp *config.WinProbConfig) *winprob.Table {
	if wp == nil {
		return winprob.NewDefault()
	}
	return winprob.New(wp.HomeAdvantage, wp.KStart, wp.KRange, wp.OTKStart, wp.OTKRange)
}

func pollInterval(seconds int64, fallback int64) time.Duration {
	if seconds <= 0 {
		seconds = fallback
	}
	return time.Duration(seconds) * time.Second
}

func realismFromConfig(rc config.RealismConfig) sim.RealismConfig {
	return sim.RealismConfig{
		Enabled:                  rc.Enabled,
		TakerFillRate:            rc.TakerFillRate,
		TakerSlippageMeanCents:   rc.TakerSlippageMeanCents,
		TakerSlippageStdCents:    rc.TakerSlippageStdCents,
		MakerFillRate:            rc.MakerFillRate,
		MakerRequirePriceThrough: rc.MakerRequirePriceThrough,
		ApplyLatency:             rc.ApplyLatency,
		MaxHoldSeconds:           rc.MaxHoldSeconds,
		TimeoutExitSlippageCents: rc.TimeoutExitSlippageCents,
	}
}

func pollOdds(ctx context.Context, oc feed.Source, sport, source string, interval time.Duration, out chan<- oddsBatch) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		updates, err := oc.FetchOdds(ctx, sport)
		if err != nil {
			metrics.FeedErrors.Add(1)
			logrus.Warnf("拉取 %s 赔率失败: %v", sport, err)
		} else {
			select {
			case out <- oddsBatch{sport: sport, source: source, updates: updates, fetchedAt: time.Now()}:
			case <-ctx.Done():
				return
			}
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return
		}
	}
}

func pollScores(ctx context.Context, poller feed.Scoreboard, sport string, interval time.Duration, out chan<- scoreBatch) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		updates, err := poller.Fetch(ctx)
		if err != nil {
			metrics.FeedErrors.Add(1)
			logrus.Warnf("拉取 %s 比分失败: %v", sport, err)
		} else {
			select {
			case out <- scoreBatch{sport: sport, updates: updates, fetchedAt: time.Now()}:
			case <-ctx.Done():
				return
			}
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return
		}
	}
}

// 场内 ticker 的日期段编码的是美东日历日，配对前统一换算到美东。
var eastern = time.FixedZone("ET", -5*3600)

// matchGame 在市场索引里查找可交易市场。晚场比赛的 UTC 开赛时间
// 往往已经落到第二天，直接用 UTC 日期会错配到一天后的 ticker。
func matchGame(index matcher.Index, sport, home, away string, at time.Time) (matcher.MatchedMarket, bool) {
	return matcher.FindMatch(index, sport, home, away, at.In(eastern))
}

// scoreFairValue 按分差和比赛进程查胜率表。
// 常规时段结构因运动而异，打满常规节数之后按加时表取价。
func scoreFairValue(table *winprob.Table, sc config.SportConfig, u feed.ScoreUpdate) int {
	diff := u.HomeScore - u.AwayScore
	if u.Period > sc.RegulationPeriods {
		fair, _ := table.FairValueOvertime(diff, u.TotalElapsedSeconds-sc.RegulationSeconds)
		return fair
	}
	fair, _ := table.FairValue(diff, u.TotalElapsedSeconds)
	return fair
}

// handleOddsBatch 把一轮赔率更新转成逐市场评估：
// 共识赔率去水得到公允概率，再在索引中找到可交易市场。
func handleOddsBatch(ctx context.Context, engine *loop.Engine, cfg *config.Config, index matcher.Index, batch oddsBatch) {
	for _, update := range batch.updates {
		home, away, draw, lastUpdate, ok := feed.AverageOdds(update.Bookmakers)
		if !ok {
			continue
		}

		var homeProb float64
		if draw != nil {
			homeProb, _, _ = strategy.Devig3Way(home, away, *draw)
		} else {
			homeProb, _ = strategy.Devig(home, away)
		}

		eventKey := batch.sport + ":" + update.AwayTeam + "@" + update.HomeTeam
		engine.PushProbability(eventKey, homeProb, batch.fetchedAt)

		commence, err := time.Parse(time.RFC3339, update.CommenceTime)
		if err != nil {
			continue
		}
		matched, found := matchGame(index, batch.sport, update.HomeTeam, update.AwayTeam, commence)
		if !found {
			continue
		}

		stale := false
		if t, err := time.Parse(time.RFC3339, lastUpdate); err == nil {
			stale = time.Since(t).Milliseconds() > cfg.Execution.StaleOddsThresholdMs
		}

		engine.EvaluateMarket(ctx, loop.MarketInput{
			Ticker:       matched.Ticker,
			EventKey:     eventKey,
			Sport:        batch.sport,
			Source:       batch.source,
			FairValue:    strategy.FairValueCents(homeProb),
			FallbackBid:  matched.BestBid,
			FallbackAsk:  matched.BestAsk,
			MarketStatus: matched.Status,
			CloseTime:    matched.CloseTime,
			IsStale:      stale,
		})
	}
}

// handleScoreBatch 把一轮比分更新转成逐市场评估：
// 分差加剩余时间查胜率表得到公允价。只评估进行中的比赛。
func handleScoreBatch(ctx context.Context, engine *loop.Engine, index matcher.Index, table *winprob.Table, sc config.SportConfig, batch scoreBatch) {
	for _, update := range batch.updates {
		if update.Status != feed.StatusLive && update.Status != feed.StatusHalftime {
			continue
		}

		fairHome := scoreFairValue(table, sc, update)

		eventKey := batch.sport + ":" + update.AwayTeam + "@" + update.HomeTeam
		engine.PushProbability(eventKey, float64(fairHome)/100.0, batch.fetchedAt)

		matched, found := matchGame(index, batch.sport, update.HomeTeam, update.AwayTeam, time.Now())
		if !found {
			continue
		}

		engine.EvaluateMarket(ctx, loop.MarketInput{
			Ticker:       matched.Ticker,
			EventKey:     eventKey,
			Sport:        batch.sport,
			Source:       "score_feed",
			FairValue:    fairHome,
			FallbackBid:  matched.BestBid,
			FallbackAsk:  matched.BestAsk,
			MarketStatus: matched.Status,
			CloseTime:    matched.CloseTime,
		})
	}
}

// runDiagnostics 对每个启用的运动拉一轮数据，打印信号与场内市场的
// 配对情况，用于排查队名规范化或索引缺失问题。
func runDiagnostics(ctx context.Context, sports []activeSport, index matcher.Index, oddsClients map[string]*feed.OddsClient) {
	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SPORT\tMATCHUP\tCOMMENCE\tSTATUS\tTICKER\tMARKET\tREASON\tSOURCE")

	for _, s := range sports {
		var rows []diag.Row
		if s.cfg.ScoreFeed != nil {
			poller := feed.NewScorePoller(s.cfg.ScoreFeed.PrimaryURL, s.cfg.ScoreFeed.FallbackURL)
			updates, err := poller.Fetch(ctx)
			if err != nil {
				logrus.Warnf("诊断: 拉取 %s 比分失败: %v", s.key, err)
				continue
			}
			rows = diag.FromScores(updates, s.key, index, "score_feed")
		} else if oc, ok := oddsClients[s.cfg.OddsSource]; ok {
			updates, err := oc.FetchOdds(ctx, s.key)
			if err != nil {
				logrus.Warnf("诊断: 拉取 %s 赔率失败: %v", s.key, err)
				continue
			}
			rows = diag.FromOdds(updates, s.key, index, s.cfg.OddsSource)
		} else {
			continue
		}

		for _, r := range rows {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				r.Sport, r.Matchup, r.CommenceTime, r.GameStatus,
				r.Ticker, r.MarketStatus, r.Reason, r.Source)
		}
	}
	w.Flush()
}
