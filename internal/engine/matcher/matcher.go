// Package matcher 负责市场身份解析：把赛事双方的队名与场内 ticker
// 规范化为同一个可比对的 key，并在场内市场索引中找到对应的交易标的。
package matcher

import (
	"strings"
	"time"
)

// MarketKey 一场比赛的规范身份。teams 按字典序排序，
// 与输入主客顺序无关。date 为 "2006-01-02" 格式，便于作为 map key。
type MarketKey struct {
	Sport string
	Date  string
	Teams [2]string
}

// SideMarket 场内同一场比赛的一侧市场（主队胜或客队胜）。
type SideMarket struct {
	Ticker    string
	Title     string
	YesBid    int
	YesAsk    int
	NoBid     int
	NoAsk     int
	Status    string
	CloseTime string
}

// IndexedGame 索引中的一场比赛。场内通常为每场比赛开两个市场，
// 某些赛事只挂一侧，消费方需要用反向报价代替缺失侧。
type IndexedGame struct {
	Away     *SideMarket
	Home     *SideMarket
	Draw     *SideMarket
	AwayTeam string
	HomeTeam string
}

// MatchedMarket 索引查询结果。IsInverse 为 true 表示返回的报价
// 来自对手侧的 no 盘口，调用方不得按原侧解读。
type MatchedMarket struct {
	Ticker    string
	Title     string
	IsInverse bool
	BestBid   int
	BestAsk   int
	Status    string
	CloseTime string
}

// Index 比赛 key 到已上市市场的映射。每次刷新重建，消费方只读。
type Index map[MarketKey]*IndexedGame

// NormalizeTeam 把队名规范化为比对用的 key。
// 大写、固定替换（SAINT→ST、&→AND、去句点）、压缩空白，
// 再剥离一个位于末尾且前面有空白的吉祥物后缀（取最长匹配，只剥一次），
// 最后只保留字母数字并截断到 20 个字符。
//
// 后缀表是人工维护的固定清单，不在表内的队名原样保留，
// 这会造成部分比赛无法配对，属于已知行为而非缺陷。
func NormalizeTeam(name string) string {
	s := strings.ToUpper(name)
	s = strings.ReplaceAll(s, "SAINT", "ST")
	s = strings.ReplaceAll(s, "&", "AND")
	s = strings.ReplaceAll(s, ".", "")
	s = strings.Join(strings.Fields(s), " ")

	best := ""
	for _, suffix := range teamSuffixes {
		if len(suffix) <= len(best) {
			continue
		}
		if !strings.HasSuffix(s, suffix) {
			continue
		}
		head := strings.TrimRight(s[:len(s)-len(suffix)], " ")
		if head == "" || head == s[:len(s)-len(suffix)] {
			// 后缀必须独立成词：前面要有被裁掉的空白
			continue
		}
		best = suffix
	}
	if best != "" {
		s = strings.TrimRight(s[:len(s)-len(best)], " ")
	}

	var b strings.Builder
	for _, c := range s {
		if (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') {
			b.WriteRune(c)
		}
	}
	out := b.String()
	if len(out) > 20 {
		out = out[:20]
	}
	return out
}

// GenerateKey 生成确定性的比赛 key。任一队名规范化为空时返回 false。
func GenerateKey(sport, team1, team2 string, date time.Time) (MarketKey, bool) {
	n1 := NormalizeTeam(team1)
	n2 := NormalizeTeam(team2)
	if n1 == "" || n2 == "" {
		return MarketKey{}, false
	}
	if n1 > n2 {
		n1, n2 = n2, n1
	}
	var sb strings.Builder
	for _, c := range strings.ToUpper(sport) {
		if c >= 'A' && c <= 'Z' {
			sb.WriteRune(c)
		}
	}
	return MarketKey{
		Sport: sb.String(),
		Date:  date.Format("2006-01-02"),
		Teams: [2]string{n1, n2},
	}, true
}

// FindMatch 为一场比赛找到可交易的场内市场。
// 优先返回主队侧（直接对应主队胜率报价）；缺失时退回客队侧，
// 用其 no 盘口充当合成的主队 yes 侧，并置 IsInverse。
func FindMatch(index Index, sport, homeTeam, awayTeam string, date time.Time) (MatchedMarket, bool) {
	key, ok := GenerateKey(sport, homeTeam, awayTeam, date)
	if !ok {
		return MatchedMarket{}, false
	}
	game, ok := index[key]
	if !ok {
		return MatchedMarket{}, false
	}

	if game.Home != nil {
		return MatchedMarket{
			Ticker:    game.Home.Ticker,
			Title:     game.Home.Title,
			BestBid:   game.Home.YesBid,
			BestAsk:   game.Home.YesAsk,
			Status:    game.Home.Status,
			CloseTime: game.Home.CloseTime,
		}, true
	}
	if game.Away != nil {
		return MatchedMarket{
			Ticker:    game.Away.Ticker,
			Title:     game.Away.Title,
			IsInverse: true,
			BestBid:   game.Away.NoBid,
			BestAsk:   game.Away.NoAsk,
			Status:    game.Away.Status,
			CloseTime: game.Away.CloseTime,
		}, true
	}
	return MatchedMarket{}, false
}
