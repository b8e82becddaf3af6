// Package config 加载并校验 YAML 配置。
// 敏感凭据（场内 API key、赔率源 API key）不进配置文件，
// 只从环境变量读取，.env 由入口程序通过 godotenv 预载。
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config 应用配置
type Config struct {
	Venue       VenueConfig                 `yaml:"venue"`
	OddsSources map[string]OddsSourceConfig `yaml:"odds_sources"`
	Strategy    StrategyConfig              `yaml:"strategy"`
	Risk        RiskConfig                  `yaml:"risk"`
	Momentum    MomentumConfig              `yaml:"momentum"`
	Execution   ExecutionConfig             `yaml:"execution"`
	Simulation  SimulationConfig            `yaml:"simulation"`
	Sports      map[string]SportConfig      `yaml:"sports"`
	LogLevel    string                      `yaml:"log_level"`
	LogFile     string                      `yaml:"log_file"`
}

// VenueConfig 场内接入配置
type VenueConfig struct {
	APIBase string `yaml:"api_base"`
	WSURL   string `yaml:"ws_url"`
}

// StrategyConfig 策略全局阈值（分）
type StrategyConfig struct {
	TakerEdgeThreshold  int `yaml:"taker_edge_threshold"`
	MakerEdgeThreshold  int `yaml:"maker_edge_threshold"`
	MinEdgeAfterFees    int `yaml:"min_edge_after_fees"`
	SlippageBufferCents int `yaml:"slippage_buffer_cents"`
}

// RiskConfig 风险限额
type RiskConfig struct {
	MaxContractsPerMarket int     `yaml:"max_contracts_per_market"`
	MaxTotalExposureCents int64   `yaml:"max_total_exposure_cents"`
	MaxConcurrentMarkets  int     `yaml:"max_concurrent_markets"`
	KellyFraction         float64 `yaml:"kelly_fraction"`
	BankrollCents         int64   `yaml:"bankroll_cents"`
}

// ExecutionConfig 执行时序参数
type ExecutionConfig struct {
	MakerTimeoutMs       int64 `yaml:"maker_timeout_ms"`
	StaleOddsThresholdMs int64 `yaml:"stale_odds_threshold_ms"`
}

// MomentumConfig 动量闸门参数
type MomentumConfig struct {
	MakerMomentumThreshold int     `yaml:"maker_momentum_threshold"`
	TakerMomentumThreshold int     `yaml:"taker_momentum_threshold"`
	CancelThreshold        int     `yaml:"cancel_threshold"`
	VelocityWeight         float64 `yaml:"velocity_weight"`
	BookPressureWeight     float64 `yaml:"book_pressure_weight"`
	VelocityWindowSize     int     `yaml:"velocity_window_size"`
	CancelCheckIntervalMs  int64   `yaml:"cancel_check_interval_ms"`
	// BypassForScoreSignals 比分信号绕过动量闸门（速度本身就是优势）
	BypassForScoreSignals bool `yaml:"bypass_for_score_signals"`
}

// SimulationConfig 纸面交易配置
type SimulationConfig struct {
	LatencyMs        int64         `yaml:"latency_ms"`
	UseBreakEvenExit bool          `yaml:"use_break_even_exit"`
	Realism          RealismConfig `yaml:"realism"`
}

// RealismConfig 成交真实度参数
type RealismConfig struct {
	Enabled                  bool    `yaml:"enabled"`
	TakerFillRate            float64 `yaml:"taker_fill_rate"`
	TakerSlippageMeanCents   int     `yaml:"taker_slippage_mean_cents"`
	TakerSlippageStdCents    int     `yaml:"taker_slippage_std_cents"`
	MakerFillRate            float64 `yaml:"maker_fill_rate"`
	MakerRequirePriceThrough bool    `yaml:"maker_require_price_through"`
	ApplyLatency             bool    `yaml:"apply_latency"`
	MaxHoldSeconds           int64   `yaml:"max_hold_seconds"`
	TimeoutExitSlippageCents int     `yaml:"timeout_exit_slippage_cents"`
}

// OddsSourceConfig 一个赔率源
type OddsSourceConfig struct {
	Type                  string `yaml:"type"`
	BaseURL               string `yaml:"base_url"`
	Bookmakers            string `yaml:"bookmakers"`
	LivePollS             int64  `yaml:"live_poll_s"`
	PreGamePollS          int64  `yaml:"pre_game_poll_s"`
	QuotaWarningThreshold int64  `yaml:"quota_warning_threshold"`
	RequestTimeoutMs      int64  `yaml:"request_timeout_ms"`
	MaxRetries            int    `yaml:"max_retries"`
}

// SportConfig 一个运动的接入配置。
// Strategy/Momentum 为该运动的局部覆盖，空字段沿用全局值。
type SportConfig struct {
	Enabled     bool              `yaml:"enabled"`
	VenueSeries string            `yaml:"venue_series"`
	Label       string            `yaml:"label"`
	FairValue   string            `yaml:"fair_value"` // score | odds
	OddsSource  string            `yaml:"odds_source"`
	ScoreFeed   *ScoreFeedConfig  `yaml:"score_feed"`
	WinProb     *WinProbConfig    `yaml:"win_prob"`
	Strategy    *StrategyOverride `yaml:"strategy"`
	Momentum    *MomentumOverride `yaml:"momentum"`

	// 常规时段结构。超过 RegulationPeriods 的节数按加时计价，
	// 加时已进行秒数 = 总秒数 - RegulationSeconds。
	// 默认 NBA 四节 2880 秒；两半场运动配 2 / 2400。
	RegulationPeriods int `yaml:"regulation_periods"`
	RegulationSeconds int `yaml:"regulation_seconds"`
}

// ScoreFeedConfig 比分源配置
type ScoreFeedConfig struct {
	PrimaryURL        string `yaml:"primary_url"`
	FallbackURL       string `yaml:"fallback_url"`
	LivePollS         int64  `yaml:"live_poll_s"`
	PreGamePollS      int64  `yaml:"pre_game_poll_s"`
	FailoverThreshold int    `yaml:"failover_threshold"`
	RequestTimeoutMs  int64  `yaml:"request_timeout_ms"`
}

// WinProbConfig 胜率模型参数
type WinProbConfig struct {
	HomeAdvantage float64 `yaml:"home_advantage"`
	KStart        float64 `yaml:"k_start"`
	KRange        float64 `yaml:"k_range"`
	OTKStart      float64 `yaml:"ot_k_start"`
	OTKRange      float64 `yaml:"ot_k_range"`
}

// StrategyOverride 运动局部策略覆盖，nil 字段沿用全局
type StrategyOverride struct {
	TakerEdgeThreshold *int `yaml:"taker_edge_threshold"`
	MakerEdgeThreshold *int `yaml:"maker_edge_threshold"`
	MinEdgeAfterFees   *int `yaml:"min_edge_after_fees"`
}

// MomentumOverride 运动局部动量覆盖，nil 字段沿用全局
type MomentumOverride struct {
	TakerMomentumThreshold *int     `yaml:"taker_momentum_threshold"`
	MakerMomentumThreshold *int     `yaml:"maker_momentum_threshold"`
	CancelThreshold        *int     `yaml:"cancel_threshold"`
	VelocityWeight         *float64 `yaml:"velocity_weight"`
	BookPressureWeight     *float64 `yaml:"book_pressure_weight"`
	VelocityWindowSize     *int     `yaml:"velocity_window_size"`
	CancelCheckIntervalMs  *int64   `yaml:"cancel_check_interval_ms"`
}

// LoadFromFile 从 YAML 文件加载配置并填默认值
func LoadFromFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Simulation.LatencyMs == 0 {
		c.Simulation.LatencyMs = 500
	}
	if c.Execution.StaleOddsThresholdMs == 0 {
		c.Execution.StaleOddsThresholdMs = 30_000
	}
	if c.Momentum.VelocityWindowSize == 0 {
		c.Momentum.VelocityWindowSize = 10
	}
	for name, src := range c.OddsSources {
		if src.LivePollS == 0 {
			src.LivePollS = 20
		}
		if src.PreGamePollS == 0 {
			src.PreGamePollS = 120
		}
		if src.RequestTimeoutMs == 0 {
			src.RequestTimeoutMs = 5000
		}
		if src.MaxRetries == 0 {
			src.MaxRetries = 2
		}
		c.OddsSources[name] = src
	}
	for name, sport := range c.Sports {
		if sport.RegulationPeriods == 0 {
			sport.RegulationPeriods = 4
		}
		if sport.RegulationSeconds == 0 {
			sport.RegulationSeconds = 2880
		}
		if sport.ScoreFeed != nil {
			if sport.ScoreFeed.LivePollS == 0 {
				sport.ScoreFeed.LivePollS = 1
			}
			if sport.ScoreFeed.PreGamePollS == 0 {
				sport.ScoreFeed.PreGamePollS = 60
			}
			if sport.ScoreFeed.FailoverThreshold == 0 {
				sport.ScoreFeed.FailoverThreshold = 3
			}
			if sport.ScoreFeed.RequestTimeoutMs == 0 {
				sport.ScoreFeed.RequestTimeoutMs = 5000
			}
		}
		c.Sports[name] = sport
	}
}

// Validate 校验配置
func (c *Config) Validate() error {
	if c.Venue.APIBase == "" {
		return fmt.Errorf("venue.api_base 不能为空")
	}
	if c.Strategy.TakerEdgeThreshold < c.Strategy.MakerEdgeThreshold {
		return fmt.Errorf("strategy.taker_edge_threshold 不能小于 maker_edge_threshold")
	}
	if c.Risk.KellyFraction <= 0 || c.Risk.KellyFraction > 1 {
		return fmt.Errorf("risk.kelly_fraction 必须在 (0, 1] 范围内")
	}
	if c.Risk.MaxContractsPerMarket <= 0 {
		return fmt.Errorf("risk.max_contracts_per_market 必须大于 0")
	}
	if c.Risk.MaxConcurrentMarkets <= 0 {
		return fmt.Errorf("risk.max_concurrent_markets 必须大于 0")
	}
	if c.Momentum.TakerMomentumThreshold < c.Momentum.MakerMomentumThreshold {
		return fmt.Errorf("momentum.taker_momentum_threshold 不能小于 maker_momentum_threshold")
	}
	for name, sport := range c.Sports {
		if !sport.Enabled {
			continue
		}
		if sport.VenueSeries == "" {
			return fmt.Errorf("sports.%s.venue_series 不能为空", name)
		}
		switch sport.FairValue {
		case "score":
			if sport.ScoreFeed == nil {
				return fmt.Errorf("sports.%s 使用比分定价但没有配置 score_feed", name)
			}
		case "odds":
			if sport.OddsSource == "" {
				return fmt.Errorf("sports.%s 使用赔率定价但没有配置 odds_source", name)
			}
			if _, ok := c.OddsSources[sport.OddsSource]; !ok {
				return fmt.Errorf("sports.%s 引用了未定义的赔率源 %q", name, sport.OddsSource)
			}
		default:
			return fmt.Errorf("sports.%s.fair_value 必须是 score 或 odds", name)
		}
	}
	return nil
}

// ResolveStrategy 把运动局部覆盖合并到全局策略配置上
func (c *Config) ResolveStrategy(sport string) StrategyConfig {
	resolved := c.Strategy
	sc, ok := c.Sports[sport]
	if !ok || sc.Strategy == nil {
		return resolved
	}
	ov := sc.Strategy
	if ov.TakerEdgeThreshold != nil {
		resolved.TakerEdgeThreshold = *ov.TakerEdgeThreshold
	}
	if ov.MakerEdgeThreshold != nil {
		resolved.MakerEdgeThreshold = *ov.MakerEdgeThreshold
	}
	if ov.MinEdgeAfterFees != nil {
		resolved.MinEdgeAfterFees = *ov.MinEdgeAfterFees
	}
	return resolved
}

// ResolveMomentum 把运动局部覆盖合并到全局动量配置上
func (c *Config) ResolveMomentum(sport string) MomentumConfig {
	resolved := c.Momentum
	sc, ok := c.Sports[sport]
	if !ok || sc.Momentum == nil {
		return resolved
	}
	ov := sc.Momentum
	if ov.TakerMomentumThreshold != nil {
		resolved.TakerMomentumThreshold = *ov.TakerMomentumThreshold
	}
	if ov.MakerMomentumThreshold != nil {
		resolved.MakerMomentumThreshold = *ov.MakerMomentumThreshold
	}
	if ov.CancelThreshold != nil {
		resolved.CancelThreshold = *ov.CancelThreshold
	}
	if ov.VelocityWeight != nil {
		resolved.VelocityWeight = *ov.VelocityWeight
	}
	if ov.BookPressureWeight != nil {
		resolved.BookPressureWeight = *ov.BookPressureWeight
	}
	if ov.VelocityWindowSize != nil {
		resolved.VelocityWindowSize = *ov.VelocityWindowSize
	}
	if ov.CancelCheckIntervalMs != nil {
		resolved.CancelCheckIntervalMs = *ov.CancelCheckIntervalMs
	}
	return resolved
}

// VenueAPIKey 场内 API key，只从环境变量读取
func VenueAPIKey() string {
	return os.Getenv("VENUE_API_KEY")
}

// OddsAPIKey 赔率源 API key，只从环境变量读取
func OddsAPIKey() string {
	return os.Getenv("ODDS_API_KEY")
}
