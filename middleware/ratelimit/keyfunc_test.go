package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestDefaultKeyFunc_ForwardedForUsesFirstEntry(t *testing.T) {
	fn := DefaultKeyFunc()

	r := httptest.NewRequest(http.MethodGet, "http://example/", nil)
	r.RemoteAddr = "10.0.0.9:5555"
	r.Header.Set("X-Forwarded-For", "203.0.113.5, 10.0.0.1")

	if got := fn(r); got != "203.0.113.5" {
		t.Fatalf("expected first XFF ip, got %q", got)
	}
}

func TestDefaultKeyFunc_RealIPWhenNoForwardedFor(t *testing.T) {
	fn := DefaultKeyFunc()

	r := httptest.NewRequest(http.MethodGet, "http://example/", nil)
	r.RemoteAddr = "10.0.0.9:5555"
	r.Header.Set("X-Real-IP", " 203.0.113.7 ")

	if got := fn(r); got != "203.0.113.7" {
		t.Fatalf("expected X-Real-IP, got %q", got)
	}
}

func TestDefaultKeyFunc_FallsBackToRemoteAddrHost(t *testing.T) {
	fn := DefaultKeyFunc()

	r := httptest.NewRequest(http.MethodGet, "http://example/", nil)
	r.RemoteAddr = "198.51.100.7:5555"

	if got := fn(r); got != "198.51.100.7" {
		t.Fatalf("expected remote host, got %q", got)
	}
}

func TestDefaultKeyFunc_UnknownWhenNothingAvailable(t *testing.T) {
	fn := DefaultKeyFunc()

	r := httptest.NewRequest(http.MethodGet, "http://example/", nil)
	r.RemoteAddr = ""

	if got := fn(r); got != "unknown" {
		t.Fatalf("expected unknown, got %q", got)
	}
}
