package venue

import "testing"

func TestDollarsToCents(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"0.55", 55},
		{"0.01", 1},
		{"0.99", 99},
		{"1.00", 100},
		{"0", 0},
		{"", 0},
		{"abc", 0},
		{"0.555", 56}, // rounds
	}
	for _, tc := range cases {
		if got := DollarsToCents(tc.in); got != tc.want {
			t.Fatalf("DollarsToCents(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestMarketJSONConversion(t *testing.T) {
	raw := marketJSON{
		Ticker:        "KXNBAGAME-26JAN19INDPHI-PHI",
		EventTicker:   "KXNBAGAME-26JAN19INDPHI",
		Title:         "Indiana Pacers at Philadelphia 76ers Winner?",
		Status:        "open",
		YesBidDollars: "0.58",
		YesAskDollars: "0.60",
		NoBidDollars:  "0.40",
		NoAskDollars:  "0.42",
		Volume:        1234,
	}
	m := raw.toMarket()
	if m.YesBid != 58 || m.YesAsk != 60 || m.NoBid != 40 || m.NoAsk != 42 {
		t.Fatalf("cents conversion wrong: %+v", m)
	}
	if m.Ticker != raw.Ticker || m.Volume != 1234 {
		t.Fatalf("fields not carried over: %+v", m)
	}
}
