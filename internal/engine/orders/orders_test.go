package orders

import (
	"testing"
	"time"
)

func TestNewRegistryIsEmpty(t *testing.T) {
	r := NewRegistry()
	if r.Count() != 0 {
		t.Fatalf("count %d, want 0", r.Count())
	}
	if r.IsPending("TEST", SideEntry) {
		t.Fatalf("empty registry should have nothing pending")
	}
}

func TestRegisterNewOrder(t *testing.T) {
	r := NewRegistry()
	if !r.TryRegister("TEST", SideEntry, 10, 50, true) {
		t.Fatalf("should register new order")
	}
	if !r.IsPending("TEST", SideEntry) {
		t.Fatalf("order should be pending after registration")
	}
	if r.Count() != 1 {
		t.Fatalf("count %d, want 1", r.Count())
	}
}

func TestDuplicateRegistrationFails(t *testing.T) {
	r := NewRegistry()
	r.TryRegister("TEST", SideEntry, 10, 50, true)
	if r.TryRegister("TEST", SideEntry, 5, 60, false) {
		t.Fatalf("duplicate registration for same key should fail")
	}
	if r.Count() != 1 {
		t.Fatalf("count %d, want 1", r.Count())
	}
}

func TestEntryAndExitAreSeparateKeys(t *testing.T) {
	r := NewRegistry()
	if !r.TryRegister("TEST", SideEntry, 10, 50, true) {
		t.Fatalf("entry registration should succeed")
	}
	if !r.TryRegister("TEST", SideExit, 10, 70, false) {
		t.Fatalf("exit registration on same ticker should succeed")
	}
	if r.Count() != 2 {
		t.Fatalf("count %d, want 2", r.Count())
	}
}

func TestCompleteRemovesOrder(t *testing.T) {
	r := NewRegistry()
	r.TryRegister("TEST", SideEntry, 10, 50, true)

	removed, ok := r.Complete("TEST", SideEntry)
	if !ok {
		t.Fatalf("complete should return the pending order")
	}
	if removed.Quantity != 10 || removed.Price != 50 || !removed.IsTaker {
		t.Fatalf("unexpected removed order: %+v", removed)
	}
	if r.IsPending("TEST", SideEntry) {
		t.Fatalf("order should be gone after complete")
	}

	// 完成之后同键可以再次登记
	if !r.TryRegister("TEST", SideEntry, 5, 55, false) {
		t.Fatalf("re-registration after complete should succeed")
	}
}

func TestCompleteNonexistent(t *testing.T) {
	r := NewRegistry()
	if _, ok := r.Complete("NONE", SideEntry); ok {
		t.Fatalf("completing a nonexistent order should fail")
	}
}

func TestAttachOrderID(t *testing.T) {
	r := NewRegistry()
	r.TryRegister("TEST", SideEntry, 10, 50, true)

	if !r.AttachOrderID("TEST", SideEntry, "ord-123") {
		t.Fatalf("attach should succeed on pending order")
	}
	removed, _ := r.Complete("TEST", SideEntry)
	if removed.VenueOrderID != "ord-123" {
		t.Fatalf("venue order id %q, want ord-123", removed.VenueOrderID)
	}

	if r.AttachOrderID("GHOST", SideEntry, "ord-999") {
		t.Fatalf("attach on missing key should fail")
	}
}

func TestExpireOlderThan(t *testing.T) {
	r := NewRegistry()
	now := time.Now()
	r.now = func() time.Time { return now }
	r.TryRegister("OLD", SideEntry, 10, 50, true)

	r.now = func() time.Time { return now.Add(30 * time.Second) }
	r.TryRegister("FRESH", SideEntry, 5, 40, false)

	expired := r.ExpireOlderThan(10 * time.Second)
	if len(expired) != 1 || expired[0].Ticker != "OLD" {
		t.Fatalf("expected only OLD to expire, got %+v", expired)
	}
	if !r.IsPending("FRESH", SideEntry) {
		t.Fatalf("fresh order should survive the expiry scan")
	}
	if r.IsPending("OLD", SideEntry) {
		t.Fatalf("expired order should be removed")
	}
}

func TestDrain(t *testing.T) {
	r := NewRegistry()
	r.TryRegister("A", SideEntry, 1, 50, true)
	r.TryRegister("B", SideExit, 2, 60, false)

	drained := r.Drain()
	if len(drained) != 2 {
		t.Fatalf("drained %d orders, want 2", len(drained))
	}
	if r.Count() != 0 {
		t.Fatalf("registry should be empty after drain, have %d", r.Count())
	}
}

func TestPositionTrackerLifecycle(t *testing.T) {
	tracker := NewPositionTracker()
	if tracker.Has("TEST") {
		t.Fatalf("fresh tracker should be flat")
	}

	tracker.RecordEntry(Position{
		Ticker:         "TEST",
		Quantity:       10,
		EntryPrice:     55,
		EntryCostCents: 568,
		SellTarget:     58,
		FilledAt:       time.Now(),
		IsTakerEntry:   true,
	})
	if !tracker.Has("TEST") || tracker.Count() != 1 {
		t.Fatalf("tracker should hold one position")
	}

	p, ok := tracker.Get("TEST")
	if !ok || p.SellTarget != 58 {
		t.Fatalf("get returned %+v, %v", p, ok)
	}

	exited, ok := tracker.RecordExit("TEST")
	if !ok || exited.Quantity != 10 {
		t.Fatalf("exit returned %+v, %v", exited, ok)
	}
	if tracker.Has("TEST") {
		t.Fatalf("position should be gone after exit")
	}
	if _, ok := tracker.RecordExit("TEST"); ok {
		t.Fatalf("second exit should fail")
	}
}

func TestPositionEntryOverwrites(t *testing.T) {
	tracker := NewPositionTracker()
	tracker.RecordEntry(Position{Ticker: "TEST", Quantity: 10, EntryPrice: 50})
	tracker.RecordEntry(Position{Ticker: "TEST", Quantity: 20, EntryPrice: 60})

	p, _ := tracker.Get("TEST")
	if p.Quantity != 20 || p.EntryPrice != 60 {
		t.Fatalf("entry should overwrite, got %+v", p)
	}
	if tracker.Count() != 1 {
		t.Fatalf("count %d, want 1", tracker.Count())
	}
}

func TestAllReturnsSnapshot(t *testing.T) {
	tracker := NewPositionTracker()
	tracker.RecordEntry(Position{Ticker: "A", Quantity: 1})
	tracker.RecordEntry(Position{Ticker: "B", Quantity: 2})

	all := tracker.All()
	if len(all) != 2 {
		t.Fatalf("got %d positions, want 2", len(all))
	}
}
