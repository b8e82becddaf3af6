package feed

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var feedLog = logrus.WithField("module", "feed")

// Quota the-odds-api 按请求计费，配额随响应头返回。
type Quota struct {
	RequestsUsed      int64
	RequestsRemaining int64
}

// sportKeys 内部运动键到 the-odds-api 运动键的映射。
var sportKeys = map[string]string{
	"basketball":                "basketball_nba",
	"american-football":         "americanfootball_nfl",
	"baseball":                  "baseball_mlb",
	"ice-hockey":                "icehockey_nhl",
	"college-basketball":        "basketball_ncaab",
	"college-basketball-womens": "basketball_wncaab",
	"soccer-epl":                "soccer_epl",
	"mma":                       "mma_mixed_martial_arts",
}

// APISportKey 映射内部运动键，未知键原样返回。
func APISportKey(sport string) string {
	if key, ok := sportKeys[sport]; ok {
		return key
	}
	return sport
}

// OddsClient the-odds-api 的赔率拉取客户端。
type OddsClient struct {
	http       *resty.Client
	apiKey     string
	bookmakers string
	lastQuota  *Quota
}

func NewOddsClient(baseURL, apiKey, bookmakers string) *OddsClient {
	http := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(15 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(8 * time.Second)
	return &OddsClient{http: http, apiKey: apiKey, bookmakers: bookmakers}
}

type oddsAPIOutcome struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

type oddsAPIMarket struct {
	Key      string           `json:"key"`
	Outcomes []oddsAPIOutcome `json:"outcomes"`
}

type oddsAPIBookmaker struct {
	Key        string          `json:"key"`
	Title      string          `json:"title"`
	LastUpdate string          `json:"last_update"`
	Markets    []oddsAPIMarket `json:"markets"`
}

type oddsAPIEvent struct {
	ID           string             `json:"id"`
	SportKey     string             `json:"sport_key"`
	HomeTeam     string             `json:"home_team"`
	AwayTeam     string             `json:"away_team"`
	CommenceTime string             `json:"commence_time"`
	Bookmakers   []oddsAPIBookmaker `json:"bookmakers"`
}

// CheckQuota 调免费的 /v4/sports 端点校验 key 并读取配额，
// 不消耗计费额度。配额耗尽视为错误。
func (c *OddsClient) CheckQuota(ctx context.Context) (Quota, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("apiKey", c.apiKey).
		Get("/v4/sports")
	if err != nil {
		return Quota{}, errors.Wrap(err, "reach the-odds-api for quota check")
	}

	quota := Quota{
		RequestsUsed:      parseQuotaHeader(resp.Header().Get("x-requests-used")),
		RequestsRemaining: parseQuotaHeader(resp.Header().Get("x-requests-remaining")),
	}
	c.lastQuota = &quota

	if resp.IsError() {
		return quota, errors.Errorf("odds api key validation failed (%s): %s", resp.Status(), resp.String())
	}
	if quota.RequestsRemaining == 0 {
		return quota, errors.Errorf("odds api quota exhausted (%d used, 0 remaining)", quota.RequestsUsed)
	}
	return quota, nil
}

// FetchOdds 拉取一个运动的全部 h2h（独赢）赔率并规范化。
func (c *OddsClient) FetchOdds(ctx context.Context, sport string) ([]OddsUpdate, error) {
	apiSport := APISportKey(sport)

	var events []oddsAPIEvent
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"apiKey":     c.apiKey,
			"regions":    "us",
			"markets":    "h2h",
			"oddsFormat": "american",
			"bookmakers": c.bookmakers,
		}).
		SetResult(&events).
		Get(fmt.Sprintf("/v4/sports/%s/odds", apiSport))
	if err != nil {
		return nil, errors.Wrapf(err, "fetch odds for %s", apiSport)
	}

	c.lastQuota = &Quota{
		RequestsUsed:      parseQuotaHeader(resp.Header().Get("x-requests-used")),
		RequestsRemaining: parseQuotaHeader(resp.Header().Get("x-requests-remaining")),
	}

	if resp.IsError() {
		return nil, errors.Errorf("odds api %s (%s): %s", apiSport, resp.Status(), resp.String())
	}

	updates := make([]OddsUpdate, 0, len(events))
	for _, ev := range events {
		update := OddsUpdate{
			EventID:      ev.ID,
			Sport:        sport,
			HomeTeam:     ev.HomeTeam,
			AwayTeam:     ev.AwayTeam,
			CommenceTime: ev.CommenceTime,
		}
		for _, bm := range ev.Bookmakers {
			odds, ok := extractMoneyline(bm, ev.HomeTeam, ev.AwayTeam)
			if ok {
				update.Bookmakers = append(update.Bookmakers, odds)
			}
		}
		updates = append(updates, update)
	}

	feedLog.WithFields(logrus.Fields{
		"sport":  apiSport,
		"events": len(updates),
	}).Debug("odds fetched")
	return updates, nil
}

// LastQuota 返回最近一次响应携带的配额信息。
func (c *OddsClient) LastQuota() (Quota, bool) {
	if c.lastQuota == nil {
		return Quota{}, false
	}
	return *c.lastQuota, true
}

// extractMoneyline 从 bookmaker 的 h2h 市场里取主客（及平局）价格。
// 任一侧缺失则整个 bookmaker 作废。
func extractMoneyline(bm oddsAPIBookmaker, homeTeam, awayTeam string) (BookmakerOdds, bool) {
	for _, market := range bm.Markets {
		if market.Key != "h2h" {
			continue
		}
		odds := BookmakerOdds{Name: bm.Title, LastUpdate: bm.LastUpdate}
		var haveHome, haveAway bool
		for i := range market.Outcomes {
			outcome := market.Outcomes[i]
			switch outcome.Name {
			case homeTeam:
				odds.HomeOdds = outcome.Price
				haveHome = true
			case awayTeam:
				odds.AwayOdds = outcome.Price
				haveAway = true
			case "Draw":
				price := outcome.Price
				odds.DrawOdds = &price
			}
		}
		if haveHome && haveAway {
			return odds, true
		}
		return BookmakerOdds{}, false
	}
	return BookmakerOdds{}, false
}

// parseQuotaHeader 配额头可能是整数也可能是浮点（如 "14527.0"）。
func parseQuotaHeader(value string) int64 {
	if value == "" {
		return 0
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0
	}
	return int64(f)
}
