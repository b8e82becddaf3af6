package matcher

import (
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/arbbot/goarb/internal/venue"
)

var matcherLog = logrus.WithField("module", "matcher")

// BuildIndex 从场内市场列表构建比赛索引。
// 标题解析失败或日期缺失的市场直接跳过（本地可恢复，不中断）。
// 日期优先取 ticker 编码；取不到时退回 close_time 的日期部分。
func BuildIndex(sport string, markets []venue.Market) Index {
	index := make(Index)
	for i := range markets {
		m := &markets[i]

		away, home, ok := ParseEventTitle(m.Title)
		if !ok {
			away, home, ok = ParseFightTitle(m.Title)
		}
		if !ok {
			continue
		}

		date, ok := ParseDateFromTicker(m.EventTicker)
		if !ok {
			date, ok = parseRFC3339Date(m.CloseTime)
		}
		if !ok {
			continue
		}

		key, ok := GenerateKey(sport, away, home, date)
		if !ok {
			continue
		}

		game, exists := index[key]
		if !exists {
			game = &IndexedGame{AwayTeam: away, HomeTeam: home}
			index[key] = game
		}

		side := &SideMarket{
			Ticker:    m.Ticker,
			Title:     m.Title,
			YesBid:    m.YesBid,
			YesAsk:    m.YesAsk,
			NoBid:     m.NoBid,
			NoAsk:     m.NoAsk,
			Status:    m.Status,
			CloseTime: m.CloseTime,
		}

		parts := strings.Split(m.Ticker, "-")
		winnerCode := parts[len(parts)-1]
		if strings.EqualFold(winnerCode, "TIE") {
			game.Draw = side
			continue
		}
		if isAway, ok := IsAwayMarket(m.Ticker, away, home); ok {
			if isAway {
				game.Away = side
			} else {
				game.Home = side
			}
			continue
		}
		// 无法判定侧别时按先客后主填充
		if game.Away == nil {
			game.Away = side
		} else {
			game.Home = side
		}
	}
	matcherLog.Debugf("indexed %d games for sport %s from %d markets", len(index), sport, len(markets))
	return index
}

func parseRFC3339Date(ts string) (time.Time, bool) {
	if ts == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return time.Time{}, false
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
}
