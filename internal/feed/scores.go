package feed

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
)

// ScorePoller 轮询实时比分。主源是 NBA CDN 的当日计分板，
// 主源失败时降级到 ESPN，下一轮仍先试主源。
type ScorePoller struct {
	http        *resty.Client
	primaryURL  string
	fallbackURL string
}

func NewScorePoller(primaryURL, fallbackURL string) *ScorePoller {
	http := resty.New().
		SetTimeout(10 * time.Second).
		SetRetryCount(1).
		SetRetryWaitTime(500 * time.Millisecond)
	return &ScorePoller{http: http, primaryURL: primaryURL, fallbackURL: fallbackURL}
}

// Fetch 拉取一轮比分。主源失败且配置了备源时自动降级。
func (p *ScorePoller) Fetch(ctx context.Context) ([]ScoreUpdate, error) {
	updates, err := p.fetchNBA(ctx)
	if err == nil {
		return updates, nil
	}
	if p.fallbackURL == "" {
		return nil, err
	}
	feedLog.WithError(err).Warn("primary score feed failed, falling back")
	return p.fetchESPN(ctx)
}

// NBA CDN todaysScoreboard 载荷的相关子集。
type nbaScoreboard struct {
	Scoreboard struct {
		Games []struct {
			GameID         string       `json:"gameId"`
			GameStatus     int          `json:"gameStatus"` // 1 未开赛 2 进行中 3 结束
			GameStatusText string       `json:"gameStatusText"`
			Period         int          `json:"period"`
			GameClock      string       `json:"gameClock"` // ISO 时长，如 "PT11M32.00S"
			HomeTeam       nbaTeamScore `json:"homeTeam"`
			AwayTeam       nbaTeamScore `json:"awayTeam"`
		} `json:"games"`
	} `json:"scoreboard"`
}

type nbaTeamScore struct {
	TeamCity string `json:"teamCity"`
	TeamName string `json:"teamName"`
	Score    int    `json:"score"`
}

func (t nbaTeamScore) fullName() string {
	return strings.TrimSpace(t.TeamCity + " " + t.TeamName)
}

func (p *ScorePoller) fetchNBA(ctx context.Context) ([]ScoreUpdate, error) {
	var board nbaScoreboard
	resp, err := p.http.R().
		SetContext(ctx).
		SetResult(&board).
		Get(p.primaryURL)
	if err != nil {
		return nil, errors.Wrap(err, "fetch nba scoreboard")
	}
	if resp.IsError() {
		return nil, errors.Errorf("nba scoreboard %s", resp.Status())
	}

	updates := make([]ScoreUpdate, 0, len(board.Scoreboard.Games))
	for _, g := range board.Scoreboard.Games {
		clock := parseISOClock(g.GameClock)
		status := nbaStatus(g.GameStatus, g.GameStatusText)
		updates = append(updates, ScoreUpdate{
			GameID:              g.GameID,
			HomeTeam:            g.HomeTeam.fullName(),
			AwayTeam:            g.AwayTeam.fullName(),
			HomeScore:           g.HomeTeam.Score,
			AwayScore:           g.AwayTeam.Score,
			Period:              g.Period,
			ClockSeconds:        clock,
			TotalElapsedSeconds: elapsedFor(status, g.Period, clock),
			Status:              status,
			Source:              SourceNBA,
		})
	}
	return updates, nil
}

func nbaStatus(code int, text string) GameStatus {
	switch code {
	case 1:
		return StatusPreGame
	case 3:
		return StatusFinished
	default:
		if strings.Contains(strings.ToLower(text), "half") {
			return StatusHalftime
		}
		return StatusLive
	}
}

// ESPN scoreboard 载荷的相关子集。
type espnScoreboard struct {
	Events []struct {
		ID           string `json:"id"`
		Competitions []struct {
			Competitors []struct {
				HomeAway string `json:"homeAway"`
				Score    string `json:"score"`
				Team     struct {
					DisplayName string `json:"displayName"`
				} `json:"team"`
			} `json:"competitors"`
			Status espnStatus `json:"status"`
		} `json:"competitions"`
	} `json:"events"`
}

type espnStatus struct {
	Period       int    `json:"period"`
	DisplayClock string `json:"displayClock"` // "11:32"
	Type         struct {
		State string `json:"state"` // pre / in / post
		Name  string `json:"name"`
	} `json:"type"`
}

func (p *ScorePoller) fetchESPN(ctx context.Context) ([]ScoreUpdate, error) {
	var board espnScoreboard
	resp, err := p.http.R().
		SetContext(ctx).
		SetResult(&board).
		Get(p.fallbackURL)
	if err != nil {
		return nil, errors.Wrap(err, "fetch espn scoreboard")
	}
	if resp.IsError() {
		return nil, errors.Errorf("espn scoreboard %s", resp.Status())
	}

	var updates []ScoreUpdate
	for _, ev := range board.Events {
		if len(ev.Competitions) == 0 {
			continue
		}
		comp := ev.Competitions[0]
		update := ScoreUpdate{GameID: ev.ID, Source: SourceESPN}
		for _, c := range comp.Competitors {
			score, _ := strconv.Atoi(c.Score)
			if c.HomeAway == "home" {
				update.HomeTeam = c.Team.DisplayName
				update.HomeScore = score
			} else {
				update.AwayTeam = c.Team.DisplayName
				update.AwayScore = score
			}
		}
		update.Period = comp.Status.Period
		update.ClockSeconds = parseDisplayClock(comp.Status.DisplayClock)
		update.Status = espnGameStatus(comp.Status)
		update.TotalElapsedSeconds = elapsedFor(update.Status, update.Period, update.ClockSeconds)
		updates = append(updates, update)
	}
	return updates, nil
}

func espnGameStatus(st espnStatus) GameStatus {
	switch st.Type.State {
	case "pre":
		return StatusPreGame
	case "post":
		return StatusFinished
	default:
		if strings.Contains(strings.ToLower(st.Type.Name), "halftime") {
			return StatusHalftime
		}
		return StatusLive
	}
}

func elapsedFor(status GameStatus, period, clock int) int {
	if status == StatusPreGame || period < 1 {
		return 0
	}
	return ComputeElapsed(period, clock)
}

// parseISOClock 解析 NBA CDN 的 ISO 时长钟（"PT11M32.00S"）为秒。
// 解析失败返回 0。
func parseISOClock(clock string) int {
	clock = strings.TrimPrefix(clock, "PT")
	mIdx := strings.Index(clock, "M")
	if mIdx < 0 {
		return 0
	}
	minutes, err := strconv.Atoi(clock[:mIdx])
	if err != nil {
		return 0
	}
	secPart := strings.TrimSuffix(clock[mIdx+1:], "S")
	seconds, err := strconv.ParseFloat(secPart, 64)
	if err != nil {
		return minutes * 60
	}
	return minutes*60 + int(seconds)
}

// parseDisplayClock 解析 ESPN 的 "11:32" 或 "45.3" 格式钟为秒。
func parseDisplayClock(clock string) int {
	clock = strings.TrimSpace(clock)
	if m, s, ok := strings.Cut(clock, ":"); ok {
		minutes, err1 := strconv.Atoi(m)
		seconds, err2 := strconv.Atoi(s)
		if err1 != nil || err2 != nil {
			return 0
		}
		return minutes*60 + seconds
	}
	f, err := strconv.ParseFloat(clock, 64)
	if err != nil {
		return 0
	}
	return int(f)
}
