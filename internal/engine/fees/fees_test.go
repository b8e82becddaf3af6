package fees

import "testing"

func TestTakerFeeAt50Cents(t *testing.T) {
	// 7 * 10 * 50 * 50 / 10_000 = 17.5 -> ceil = 18
	if got := Calculate(50, 10, true); got != 18 {
		t.Fatalf("taker fee = %d, want 18", got)
	}
}

func TestMakerFeeAt50Cents(t *testing.T) {
	// 175 * 10 * 50 * 50 / 1_000_000 = 4.375 -> ceil = 5
	if got := Calculate(50, 10, false); got != 5 {
		t.Fatalf("maker fee = %d, want 5", got)
	}
}

func TestFeeAtBoundaries(t *testing.T) {
	if got := Calculate(0, 10, true); got != 0 {
		t.Fatalf("fee at price 0 = %d, want 0", got)
	}
	if got := Calculate(100, 10, true); got != 0 {
		t.Fatalf("fee at price 100 = %d, want 0", got)
	}
	if got := Calculate(50, 0, true); got != 0 {
		t.Fatalf("fee at qty 0 = %d, want 0", got)
	}
}

func TestSingleContractTaker(t *testing.T) {
	// 7 * 1 * 50 * 50 / 10_000 = 1.75 -> ceil = 2
	if got := Calculate(50, 1, true); got != 2 {
		t.Fatalf("fee = %d, want 2", got)
	}
}

func TestFeeUnimodalPeakNear50(t *testing.T) {
	// Fee rises to a max near price=50 then falls back to 0 at the edges.
	prev := Calculate(1, 10, true)
	for p := 2; p <= 50; p++ {
		cur := Calculate(p, 10, true)
		if cur < prev {
			t.Fatalf("fee decreased on the way up at price %d: %d < %d", p, cur, prev)
		}
		prev = cur
	}
	for p := 51; p <= 99; p++ {
		cur := Calculate(p, 10, true)
		if cur > prev {
			t.Fatalf("fee increased on the way down at price %d: %d > %d", p, cur, prev)
		}
		prev = cur
	}
}

func TestBreakEvenRoundTrip(t *testing.T) {
	// For a range of entries, the break-even price is profitable or flat,
	// and one cent lower is not.
	for entry := 1; entry <= 98; entry++ {
		for _, qty := range []int{1, 5, 40} {
			cost := entry*qty + Calculate(entry, qty, true)
			be, ok := BreakEvenSellPrice(cost, qty, true)
			if !ok {
				continue
			}
			if be*qty < cost+Calculate(be, qty, true) {
				t.Fatalf("entry=%d qty=%d: break-even %d does not break even", entry, qty, be)
			}
			if be > 1 {
				lower := be - 1
				if lower*qty >= cost+Calculate(lower, qty, true) {
					t.Fatalf("entry=%d qty=%d: %d below break-even %d still breaks even", entry, qty, lower, be)
				}
			}
		}
	}
}

func TestBreakEvenImpossible(t *testing.T) {
	// Entry cost above max gross proceeds can never break even.
	if _, ok := BreakEvenSellPrice(100, 1, true); ok {
		t.Fatal("expected no break-even price for cost 100 with qty 1")
	}
}
