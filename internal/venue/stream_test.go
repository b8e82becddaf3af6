package venue

import "testing"

func recvUpdate(t *testing.T, s *BookStream) BookUpdate {
	t.Helper()
	select {
	case u := <-s.Updates():
		return u
	default:
		t.Fatal("no update emitted")
		return BookUpdate{}
	}
}

func TestSnapshotSetsBestQuotes(t *testing.T) {
	s := NewBookStream("", "", nil, 8)
	s.handleMessage([]byte(`{"type":"orderbook_snapshot","msg":{"market_ticker":"T1","yes":[[58,100],[57,50]],"no":[[40,200]]}}`))

	u := recvUpdate(t, s)
	if u.Ticker != "T1" {
		t.Fatalf("ticker = %s", u.Ticker)
	}
	if u.YesBid != 58 || u.YesAsk != 60 {
		t.Fatalf("quotes bid=%d ask=%d, want 58/60", u.YesBid, u.YesAsk)
	}
	if u.BidDepth != 150 || u.AskDepth != 200 {
		t.Fatalf("depth bid=%d ask=%d, want 150/200", u.BidDepth, u.AskDepth)
	}
}

func TestDeltaAdjustsBookIncrementally(t *testing.T) {
	s := NewBookStream("", "", nil, 8)
	s.handleMessage([]byte(`{"type":"orderbook_snapshot","msg":{"market_ticker":"T1","yes":[[58,100],[57,50]],"no":[[40,200]]}}`))
	recvUpdate(t, s)

	// A one-level delta must not wipe the rest of the book.
	s.handleMessage([]byte(`{"type":"orderbook_delta","msg":{"market_ticker":"T1","price":59,"delta":25,"side":"yes"}}`))
	u := recvUpdate(t, s)
	if u.YesBid != 59 || u.BidDepth != 175 {
		t.Fatalf("after add: bid=%d depth=%d, want 59/175", u.YesBid, u.BidDepth)
	}
	if u.YesAsk != 60 || u.AskDepth != 200 {
		t.Fatalf("ask side changed: ask=%d depth=%d", u.YesAsk, u.AskDepth)
	}

	// Removing the full quantity drops the level entirely.
	s.handleMessage([]byte(`{"type":"orderbook_delta","msg":{"market_ticker":"T1","price":59,"delta":-25,"side":"yes"}}`))
	u = recvUpdate(t, s)
	if u.YesBid != 58 || u.BidDepth != 150 {
		t.Fatalf("after remove: bid=%d depth=%d, want 58/150", u.YesBid, u.BidDepth)
	}
}

func TestDeltaOnNoSideMovesAsk(t *testing.T) {
	s := NewBookStream("", "", nil, 8)
	s.handleMessage([]byte(`{"type":"orderbook_snapshot","msg":{"market_ticker":"T1","yes":[[58,100]],"no":[[40,200]]}}`))
	recvUpdate(t, s)

	s.handleMessage([]byte(`{"type":"orderbook_delta","msg":{"market_ticker":"T1","price":41,"delta":10,"side":"no"}}`))
	u := recvUpdate(t, s)
	if u.YesAsk != 59 || u.AskDepth != 210 {
		t.Fatalf("ask=%d depth=%d, want 59/210", u.YesAsk, u.AskDepth)
	}
	if u.YesBid != 58 {
		t.Fatalf("bid changed: %d", u.YesBid)
	}
}

func TestSnapshotReplacesStaleBook(t *testing.T) {
	s := NewBookStream("", "", nil, 8)
	s.handleMessage([]byte(`{"type":"orderbook_snapshot","msg":{"market_ticker":"T1","yes":[[58,100]],"no":[[40,200]]}}`))
	recvUpdate(t, s)
	s.handleMessage([]byte(`{"type":"orderbook_delta","msg":{"market_ticker":"T1","price":60,"delta":30,"side":"yes"}}`))
	recvUpdate(t, s)

	// Fresh snapshot after a reconnect wipes accumulated state.
	s.handleMessage([]byte(`{"type":"orderbook_snapshot","msg":{"market_ticker":"T1","yes":[[55,10]],"no":[[44,20]]}}`))
	u := recvUpdate(t, s)
	if u.YesBid != 55 || u.YesAsk != 56 {
		t.Fatalf("quotes bid=%d ask=%d, want 55/56", u.YesBid, u.YesAsk)
	}
	if u.BidDepth != 10 || u.AskDepth != 20 {
		t.Fatalf("depth bid=%d ask=%d, want 10/20", u.BidDepth, u.AskDepth)
	}
}

func TestDeltaBeforeSnapshotStillTracks(t *testing.T) {
	s := NewBookStream("", "", nil, 8)
	s.handleMessage([]byte(`{"type":"orderbook_delta","msg":{"market_ticker":"T2","price":30,"delta":5,"side":"yes"}}`))
	u := recvUpdate(t, s)
	if u.Ticker != "T2" || u.YesBid != 30 || u.BidDepth != 5 {
		t.Fatalf("ticker=%s bid=%d depth=%d", u.Ticker, u.YesBid, u.BidDepth)
	}
}

func TestUnrelatedMessagesIgnored(t *testing.T) {
	s := NewBookStream("", "", nil, 8)
	s.handleMessage([]byte(`{"type":"subscribed","msg":{"channel":"orderbook_delta"}}`))
	s.handleMessage([]byte(`not json`))
	select {
	case u := <-s.Updates():
		t.Fatalf("unexpected update: %+v", u)
	default:
	}
}

func TestTwoTickersKeepSeparateBooks(t *testing.T) {
	s := NewBookStream("", "", nil, 8)
	s.handleMessage([]byte(`{"type":"orderbook_snapshot","msg":{"market_ticker":"A","yes":[[50,10]],"no":[[45,10]]}}`))
	recvUpdate(t, s)
	s.handleMessage([]byte(`{"type":"orderbook_snapshot","msg":{"market_ticker":"B","yes":[[70,10]],"no":[[25,10]]}}`))
	recvUpdate(t, s)

	s.handleMessage([]byte(`{"type":"orderbook_delta","msg":{"market_ticker":"A","price":51,"delta":5,"side":"yes"}}`))
	u := recvUpdate(t, s)
	if u.Ticker != "A" || u.YesBid != 51 {
		t.Fatalf("ticker=%s bid=%d, want A/51", u.Ticker, u.YesBid)
	}
}
