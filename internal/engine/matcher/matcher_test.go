package matcher

import (
	"testing"
	"time"

	"github.com/arbbot/goarb/internal/venue"
)

func TestNormalizeTeam(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Oklahoma City Thunder", "OKLAHOMACITY"},
		{"Dallas Mavericks", "DALLAS"},
		{"Los Angeles Lakers", "LOSANGELES"},
		{"St. John's Red Storm", "STJOHNS"},
		{"Saint Mary's Gaels", "STMARYS"},
		{"Texas A&M Aggies", "TEXASAANDM"},
		{"Marquette Golden Eagles", "MARQUETTE"}, // longest suffix wins over EAGLES
	}
	for _, tc := range cases {
		if got := NormalizeTeam(tc.in); got != tc.want {
			t.Fatalf("NormalizeTeam(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeTeamSuffixNeedsWordBoundary(t *testing.T) {
	// A suffix embedded without preceding whitespace must not be stripped.
	if got := NormalizeTeam("Goldenjazz"); got != "GOLDENJAZZ" {
		t.Fatalf("got %q, want GOLDENJAZZ", got)
	}
	// A name that is entirely a suffix stays as-is.
	if got := NormalizeTeam("Jazz"); got != "JAZZ" {
		t.Fatalf("got %q, want JAZZ", got)
	}
}

func TestNormalizeTeamTruncates(t *testing.T) {
	got := NormalizeTeam("Extremely Long University Name Institute")
	if len(got) > 20 {
		t.Fatalf("normalized name too long: %q (%d)", got, len(got))
	}
}

func TestGenerateKeySymmetry(t *testing.T) {
	d := time.Date(2026, 1, 19, 0, 0, 0, 0, time.UTC)
	k1, ok1 := GenerateKey("basketball", "Los Angeles Lakers", "Boston Celtics", d)
	k2, ok2 := GenerateKey("basketball", "Boston Celtics", "Los Angeles Lakers", d)
	if !ok1 || !ok2 {
		t.Fatal("expected both keys to generate")
	}
	if k1 != k2 {
		t.Fatalf("keys differ: %+v vs %+v", k1, k2)
	}
}

func TestGenerateKeyEmptyTeamFails(t *testing.T) {
	d := time.Date(2026, 1, 19, 0, 0, 0, 0, time.UTC)
	if _, ok := GenerateKey("basketball", "", "Boston Celtics", d); ok {
		t.Fatal("expected key generation to fail on empty team")
	}
}

func TestParseDateFromTicker(t *testing.T) {
	d, ok := ParseDateFromTicker("KXNBAGAME-26JAN19LACWAS")
	if !ok {
		t.Fatal("expected date to parse")
	}
	want := time.Date(2026, 1, 19, 0, 0, 0, 0, time.UTC)
	if !d.Equal(want) {
		t.Fatalf("parsed %v, want %v", d, want)
	}
	if _, ok := ParseDateFromTicker("KXNBAGAME"); ok {
		t.Fatal("expected parse failure on ticker without date segment")
	}
}

func TestParseEventTitle(t *testing.T) {
	away, home, ok := ParseEventTitle("Dallas Mavericks at Los Angeles Lakers Winner?")
	if !ok || away != "Dallas Mavericks" || home != "Los Angeles Lakers" {
		t.Fatalf("got (%q, %q, %v)", away, home, ok)
	}
	away, home, ok = ParseEventTitle("Duke vs North Carolina")
	if !ok || away != "Duke" || home != "North Carolina" {
		t.Fatalf("got (%q, %q, %v)", away, home, ok)
	}
	if _, _, ok := ParseEventTitle("Will it rain tomorrow?"); ok {
		t.Fatal("expected failure on non-game title")
	}
}

func TestParseFightTitle(t *testing.T) {
	title := "Will Jon Jones win the Jon Jones vs Stipe Miocic professional MMA fight scheduled for Nov 16?"
	f1, f2, ok := ParseFightTitle(title)
	if !ok || f1 != "Jon Jones" || f2 != "Stipe Miocic" {
		t.Fatalf("got (%q, %q, %v)", f1, f2, ok)
	}
}

func TestIsAwayMarket(t *testing.T) {
	isAway, ok := IsAwayMarket("KXNBAGAME-26JAN19INDPHI-IND", "Indiana Pacers", "Philadelphia 76ers")
	if !ok || !isAway {
		t.Fatalf("IND should be away: (%v, %v)", isAway, ok)
	}
	isAway, ok = IsAwayMarket("KXNBAGAME-26JAN19INDPHI-PHI", "Indiana Pacers", "Philadelphia 76ers")
	if !ok || isAway {
		t.Fatalf("PHI should be home: (%v, %v)", isAway, ok)
	}
	if _, ok := IsAwayMarket("BADTICKER", "A", "B"); ok {
		t.Fatal("expected unknown for malformed ticker")
	}
}

func testMarkets() []venue.Market {
	return []venue.Market{
		{
			Ticker:      "KXNBAGAME-26JAN19INDPHI-IND",
			EventTicker: "KXNBAGAME-26JAN19INDPHI",
			Title:       "Indiana Pacers at Philadelphia 76ers Winner?",
			Status:      "open",
			YesBid:      38, YesAsk: 42, NoBid: 58, NoAsk: 62,
		},
		{
			Ticker:      "KXNBAGAME-26JAN19INDPHI-PHI",
			EventTicker: "KXNBAGAME-26JAN19INDPHI",
			Title:       "Indiana Pacers at Philadelphia 76ers Winner?",
			Status:      "open",
			YesBid:      58, YesAsk: 62, NoBid: 38, NoAsk: 42,
		},
	}
}

func TestBuildIndexAndFindMatchHomeSide(t *testing.T) {
	index := BuildIndex("basketball", testMarkets())
	d := time.Date(2026, 1, 19, 0, 0, 0, 0, time.UTC)

	m, ok := FindMatch(index, "basketball", "Philadelphia 76ers", "Indiana Pacers", d)
	if !ok {
		t.Fatal("expected a match")
	}
	if m.IsInverse {
		t.Fatal("home side should not be inverted")
	}
	if m.Ticker != "KXNBAGAME-26JAN19INDPHI-PHI" {
		t.Fatalf("matched wrong side: %s", m.Ticker)
	}
	if m.BestBid != 58 || m.BestAsk != 62 {
		t.Fatalf("wrong quotes: bid=%d ask=%d", m.BestBid, m.BestAsk)
	}
}

func TestFindMatchFallsBackToInvertedAway(t *testing.T) {
	// Only the away-side market is listed.
	index := BuildIndex("basketball", testMarkets()[:1])
	d := time.Date(2026, 1, 19, 0, 0, 0, 0, time.UTC)

	m, ok := FindMatch(index, "basketball", "Philadelphia 76ers", "Indiana Pacers", d)
	if !ok {
		t.Fatal("expected a match")
	}
	if !m.IsInverse {
		t.Fatal("away-only match must be flagged inverse")
	}
	// Away market's no quotes stand in for the home yes side.
	if m.BestBid != 58 || m.BestAsk != 62 {
		t.Fatalf("wrong inverted quotes: bid=%d ask=%d", m.BestBid, m.BestAsk)
	}
}

func TestFindMatchMissRemainsMiss(t *testing.T) {
	index := BuildIndex("basketball", testMarkets())
	d := time.Date(2026, 1, 20, 0, 0, 0, 0, time.UTC) // wrong date
	if _, ok := FindMatch(index, "basketball", "Philadelphia 76ers", "Indiana Pacers", d); ok {
		t.Fatal("expected no match on a different date")
	}
}

func TestBuildIndexDrawSide(t *testing.T) {
	markets := []venue.Market{{
		Ticker:      "KXEPLGAME-26JAN19ARSCHE-TIE",
		EventTicker: "KXEPLGAME-26JAN19ARSCHE",
		Title:       "Arsenal vs Chelsea Winner?",
		Status:      "open",
		YesBid:      25, YesAsk: 28,
	}}
	index := BuildIndex("soccer_epl", markets)
	if len(index) != 1 {
		t.Fatalf("index size = %d, want 1", len(index))
	}
	for _, game := range index {
		if game.Draw == nil {
			t.Fatal("TIE market should land on the draw side")
		}
	}
}
