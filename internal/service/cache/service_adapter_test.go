package cache

import (
	"testing"
	"time"

	pkgcache "BarTrader/pkg/cache"
)

func TestServiceAdapterRoundTrip(t *testing.T) {
	a := NewServiceAdapter(pkgcache.NewMemoryCache())

	if err := a.SetBytes("k", []byte(`{"x":1}`), time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, ok, err := a.GetBytes("k")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if string(got) != `{"x":1}` {
		t.Fatalf("unexpected value %q", got)
	}
}

func TestServiceAdapterMissIsNotAnError(t *testing.T) {
	a := NewServiceAdapter(pkgcache.NewMemoryCache())

	got, ok, err := a.GetBytes("absent")
	if err != nil {
		t.Fatalf("miss must not error: %v", err)
	}
	if ok || got != nil {
		t.Fatalf("expected miss, got %q", got)
	}
}

func TestServiceAdapterTTLExpiry(t *testing.T) {
	a := NewServiceAdapter(pkgcache.NewMemoryCache())

	if err := a.SetBytes("k", []byte("v"), 10*time.Millisecond); err != nil {
		t.Fatalf("set: %v", err)
	}
	time.Sleep(30 * time.Millisecond)
	if _, ok, _ := a.GetBytes("k"); ok {
		t.Fatalf("expired entry must miss")
	}
}
