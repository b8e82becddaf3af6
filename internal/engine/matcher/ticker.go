package matcher

import (
	"strconv"
	"strings"
	"time"
)

var tickerMonths = map[string]time.Month{
	"JAN": time.January,
	"FEB": time.February,
	"MAR": time.March,
	"APR": time.April,
	"MAY": time.May,
	"JUN": time.June,
	"JUL": time.July,
	"AUG": time.August,
	"SEP": time.September,
	"OCT": time.October,
	"NOV": time.November,
	"DEC": time.December,
}

// ParseDateFromTicker 从事件 ticker 中恢复比赛日期。
// 格式如 "KXNBAGAME-26JAN19LACWAS"：跳过 series 段后，
// 取 7 字符的日期段（2 位年 + 3 位月份缩写 + 2 位日）。
func ParseDateFromTicker(ticker string) (time.Time, bool) {
	parts := strings.Split(ticker, "-")
	for _, part := range parts[1:] {
		if len(part) < 7 {
			continue
		}
		year, err := strconv.Atoi(part[0:2])
		if err != nil {
			continue
		}
		month, ok := tickerMonths[part[2:5]]
		if !ok {
			continue
		}
		day, err := strconv.Atoi(part[5:7])
		if err != nil {
			continue
		}
		d := time.Date(2000+year, month, day, 0, 0, 0, 0, time.UTC)
		if d.Day() != day {
			// 如 FEB30 这类非法日期会被 time.Date 归一化
			continue
		}
		return d, true
	}
	return time.Time{}, false
}

// ParseEventTitle 解析 "Team1 at Team2 Winner?" 形式的标题，返回 (away, home)。
// 也接受 " vs " 分隔以及没有 "Winner?" 结尾的标题。
func ParseEventTitle(title string) (away, home string, ok bool) {
	lower := strings.ToLower(title)
	var pos int
	if p := strings.Index(lower, " at "); p >= 0 {
		pos = p
	} else if p := strings.Index(lower, " vs "); p >= 0 {
		pos = p
	} else {
		return "", "", false
	}
	away = title[:pos]
	rest := title[pos+4:]
	home = strings.TrimSuffix(rest, " Winner?")
	home = strings.TrimSuffix(home, "?")
	return away, home, true
}

// ParseFightTitle 从 MMA 市场标题中提取双方选手。
// 标题形如 "Will X win the Fighter1 vs Fighter2 professional MMA fight scheduled for ..."。
func ParseFightTitle(title string) (f1, f2 string, ok bool) {
	start := strings.Index(title, "win the ")
	if start < 0 {
		return "", "", false
	}
	start += len("win the ")
	end := strings.Index(title, " professional MMA fight")
	if end < 0 || start >= end {
		return "", "", false
	}
	event := title[start:end]
	f1, f2, ok = strings.Cut(event, " vs ")
	return f1, f2, ok
}

// IsAwayMarket 通过 ticker 的胜方代码判定市场对应客队还是主队。
// ticker 形如 KXNBAGAME-26JAN19LACWAS-LAC：日期后的队伍段先客后主，
// 末段是本市场的胜方代码。段匹配不明确时退回全名子串匹配；
// 仍不明确则返回 (false, false)。
func IsAwayMarket(ticker, awayTeam, homeTeam string) (isAway, ok bool) {
	parts := strings.Split(ticker, "-")
	if len(parts) < 3 {
		return false, false
	}
	winnerCode := strings.ToUpper(parts[len(parts)-1])

	gamePart := strings.ToUpper(parts[1])
	if len(gamePart) > 7 {
		teamsPart := gamePart[7:]
		if strings.HasPrefix(teamsPart, winnerCode) {
			return true, true // 客队在前
		}
		if strings.HasSuffix(teamsPart, winnerCode) {
			return false, true // 主队在后
		}
	}

	awayUpper := strings.ToUpper(awayTeam)
	homeUpper := strings.ToUpper(homeTeam)
	matchesAway := strings.Contains(awayUpper, winnerCode)
	matchesHome := strings.Contains(homeUpper, winnerCode)
	switch {
	case matchesAway && !matchesHome:
		return true, true
	case matchesHome && !matchesAway:
		return false, true
	default:
		return false, false
	}
}
