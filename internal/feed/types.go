// Package feed 拉取外部信号：博彩公司赔率与实时比分。
// 产出的更新通过有界 channel 交给决策循环，feed 侧只负责规范化。
package feed

import "context"

// Source 能按运动拉取赔率的来源。消费方只依赖这个接口，
// 不关心具体供应商。
type Source interface {
	FetchOdds(ctx context.Context, sport string) ([]OddsUpdate, error)
}

// Scoreboard 能拉取实时比分的来源。
type Scoreboard interface {
	Fetch(ctx context.Context) ([]ScoreUpdate, error)
}

// OddsUpdate 一场比赛的规范化赔率快照。
type OddsUpdate struct {
	EventID      string
	Sport        string
	HomeTeam     string
	AwayTeam     string
	CommenceTime string
	Bookmakers   []BookmakerOdds
}

// BookmakerOdds 单个博彩公司的美式赔率。DrawOdds 仅三路市场有值。
type BookmakerOdds struct {
	Name       string
	HomeOdds   float64
	AwayOdds   float64
	DrawOdds   *float64
	LastUpdate string
}

// AverageOdds 对全部博彩公司的美式赔率取均值，作为共识赔率。
// 平局赔率只在所有公司都报价时才参与（部分缺失视为两路市场）。
// 返回的 lastUpdate 取各家中最新的时间戳。
func AverageOdds(bookmakers []BookmakerOdds) (home, away float64, draw *float64, lastUpdate string, ok bool) {
	if len(bookmakers) == 0 {
		return 0, 0, nil, "", false
	}
	count := float64(len(bookmakers))
	allDraw := true
	var drawSum float64
	for _, b := range bookmakers {
		home += b.HomeOdds
		away += b.AwayOdds
		if b.DrawOdds == nil {
			allDraw = false
		} else {
			drawSum += *b.DrawOdds
		}
		if b.LastUpdate > lastUpdate {
			lastUpdate = b.LastUpdate
		}
	}
	home /= count
	away /= count
	if allDraw {
		avg := drawSum / count
		draw = &avg
	}
	return home, away, draw, lastUpdate, true
}

// GameStatus 比赛状态。
type GameStatus int

const (
	StatusPreGame GameStatus = iota
	StatusLive
	StatusHalftime
	StatusFinished
)

func (s GameStatus) String() string {
	switch s {
	case StatusPreGame:
		return "PreGame"
	case StatusLive:
		return "Live"
	case StatusHalftime:
		return "Halftime"
	default:
		return "Finished"
	}
}

// ScoreSource 比分来源。
type ScoreSource string

const (
	SourceNBA  ScoreSource = "nba"
	SourceESPN ScoreSource = "espn"
)

// ScoreUpdate 一场比赛的实时比分快照。
type ScoreUpdate struct {
	GameID              string
	HomeTeam            string
	AwayTeam            string
	HomeScore           int
	AwayScore           int
	Period              int
	ClockSeconds        int
	TotalElapsedSeconds int
	Status              GameStatus
	Source              ScoreSource
}

// ComputeElapsed 由节数和节内剩余秒数推算已进行的总秒数。
// NBA 常规 4 节每节 720 秒，加时每节 300 秒。
func ComputeElapsed(period, clockSeconds int) int {
	if period <= 4 {
		completed := period - 1
		return completed*720 + (720 - clockSeconds)
	}
	otPeriod := period - 5
	return 2880 + otPeriod*300 + (300 - clockSeconds)
}
