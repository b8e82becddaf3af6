package venue

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestBalance(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/trade-api/v2/portfolio/balance" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("auth header = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"balance":123456}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key")
	got, err := c.Balance(context.Background())
	if err != nil {
		t.Fatalf("Balance: %v", err)
	}
	if got != 123456 {
		t.Fatalf("balance = %d, want 123456", got)
	}
	// Balance draws from the same token bucket as the other calls.
	if c.limiter.Remaining() >= 10 {
		t.Fatalf("limiter untouched: %d tokens", c.limiter.Remaining())
	}
}

func TestBalanceHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k")
	if _, err := c.Balance(context.Background()); err == nil {
		t.Fatal("expected error on status 500")
	}
}
