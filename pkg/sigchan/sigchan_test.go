package sigchan

import "testing"

func TestEmitNeverBlocks(t *testing.T) {
	c := New(1)
	// Second emit lands on a full buffer and must return immediately.
	c.Emit()
	c.Emit()

	select {
	case <-c.C():
	default:
		t.Fatal("expected a buffered signal")
	}
	select {
	case <-c.C():
		t.Fatal("duplicate emits should coalesce")
	default:
	}
}

func TestNoSignalBeforeEmit(t *testing.T) {
	c := New(1)
	select {
	case <-c.C():
		t.Fatal("channel should start empty")
	default:
	}
}
