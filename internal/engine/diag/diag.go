// Package diag 把多源信号与场内索引对成一张诊断表，
// 用来回答"为什么这场比赛没在交易"。
package diag

import (
	"fmt"
	"strings"
	"time"

	"github.com/arbbot/goarb/internal/engine/matcher"
	"github.com/arbbot/goarb/internal/feed"
)

// Row 诊断表的一行。Ticker 与 MarketStatus 只在配对成功时有值。
type Row struct {
	Sport        string
	Matchup      string
	CommenceTime string
	GameStatus   string
	Ticker       string
	MarketStatus string
	Reason       string
	Source       string
}

// 行情展示统一用美东时区，场内的交易日也按美东划分。
var eastern = time.FixedZone("ET", -5*3600)

// lastName 取全名的最后一个词。MMA 市场标题只写姓氏。
func lastName(fullName string) string {
	fields := strings.Fields(fullName)
	if len(fields) == 0 {
		return fullName
	}
	return fields[len(fields)-1]
}

// lookupNames 返回用于索引查询的主客名。MMA 用姓氏查。
func lookupNames(sport, home, away string) (string, string) {
	if sport == "mma" {
		return lastName(home), lastName(away)
	}
	return home, away
}

// FromOdds 按赔率源的赛事列表构建诊断行。
func FromOdds(updates []feed.OddsUpdate, sport string, index matcher.Index, sourceName string) []Row {
	now := time.Now().UTC()
	rows := make([]Row, 0, len(updates))

	for _, update := range updates {
		row := Row{
			Sport:        sport,
			Matchup:      fmt.Sprintf("%s @ %s", update.AwayTeam, update.HomeTeam),
			CommenceTime: update.CommenceTime,
			Source:       sourceName,
		}

		var gameDate time.Time
		var haveDate bool
		if commence, err := time.Parse(time.RFC3339, update.CommenceTime); err == nil {
			commenceET := commence.In(eastern)
			row.CommenceTime = commenceET.Format("Jan 02 15:04")
			gameDate, haveDate = commenceET, true
			row.GameStatus = describeCommence(commence, now)
		} else {
			row.GameStatus = "Unknown"
		}

		if haveDate {
			home, away := lookupNames(sport, update.HomeTeam, update.AwayTeam)
			fillMatch(&row, index, sport, home, away, gameDate)
		} else {
			row.Reason = "No match found"
		}
		rows = append(rows, row)
	}
	return rows
}

// FromScores 按比分源的赛事列表构建诊断行。
// 比分源没有开赛时间，用当前美东日期查索引。
func FromScores(updates []feed.ScoreUpdate, sport string, index matcher.Index, sourceName string) []Row {
	today := time.Now().In(eastern)
	rows := make([]Row, 0, len(updates))

	for _, update := range updates {
		row := Row{
			Sport:        sport,
			Matchup:      fmt.Sprintf("%s vs %s", update.AwayTeam, update.HomeTeam),
			CommenceTime: "—",
			GameStatus:   describeScore(update),
			Source:       sourceName,
		}
		home, away := lookupNames(sport, update.HomeTeam, update.AwayTeam)
		fillMatch(&row, index, sport, home, away, today)
		rows = append(rows, row)
	}
	return rows
}

func describeCommence(commence, now time.Time) string {
	if !commence.After(now) {
		return "Live"
	}
	diff := commence.Sub(now)
	h := int(diff.Hours())
	m := int(diff.Minutes()) % 60
	if h > 0 {
		return fmt.Sprintf("Upcoming (%dh %02dm)", h, m)
	}
	return fmt.Sprintf("Upcoming (%dm)", m)
}

func describeScore(update feed.ScoreUpdate) string {
	switch update.Status {
	case feed.StatusPreGame:
		return "Pre-Game"
	case feed.StatusHalftime:
		return "Halftime"
	case feed.StatusFinished:
		return "Final"
	default:
		return fmt.Sprintf("Live (P%d %d:%02d %d-%d)",
			update.Period,
			update.ClockSeconds/60, update.ClockSeconds%60,
			update.HomeScore, update.AwayScore)
	}
}

// fillMatch 查索引并填充 ticker、市场状态与原因三列。
func fillMatch(row *Row, index matcher.Index, sport, home, away string, date time.Time) {
	key, ok := matcher.GenerateKey(sport, home, away, date)
	if !ok {
		row.Reason = "No match found"
		return
	}
	game, ok := index[key]
	if !ok {
		row.Reason = "No match found"
		return
	}

	side := game.Home
	if side == nil {
		side = game.Away
	}
	if side == nil {
		side = game.Draw
	}
	if side == nil {
		row.Reason = "No match found"
		return
	}

	row.Ticker = side.Ticker
	if side.Status == "open" || side.Status == "active" {
		row.MarketStatus = "Open"
	} else {
		row.MarketStatus = "Closed"
	}
	if strings.HasPrefix(row.GameStatus, "Live") {
		row.Reason = "Live & tradeable"
	} else {
		row.Reason = "Not started yet"
	}
}
