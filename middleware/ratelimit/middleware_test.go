package ratelimit

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"portal-ratelimit/middleware/ratelimit/infra"
)

func newLimiter(t *testing.T, name string, maxEvents, windowMinutes int) *infra.SlidingWindow {
	t.Helper()
	lim, err := infra.NewSlidingWindow(name, maxEvents, windowMinutes)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return lim
}

func doRequest(h http.Handler, remoteAddr string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodPost, "http://example/login", nil)
	r.RemoteAddr = remoteAddr
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func TestMiddleware_AllowsUpToMaxThenDeniesWithRetryAfter(t *testing.T) {
	lim := newLimiter(t, "login", 3, 5)

	calls := 0
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, "ok")
	})

	h := Middleware(Options{Limiter: lim})(next)

	for i := 0; i < 3; i++ {
		if w := doRequest(h, "1.2.3.4:1000"); w.Code != http.StatusOK {
			t.Fatalf("expected 200 on call %d, got %d", i+1, w.Code)
		}
	}

	w := doRequest(h, "1.2.3.4:1000")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 on 4th call, got %d", w.Code)
	}
	// janela de 5 minutos => retry_after de 300 segundos
	if got := w.Header().Get("Retry-After"); got != "300" {
		t.Fatalf("expected Retry-After=300, got %q", got)
	}

	var body struct {
		Detail     string `json:"detail"`
		RetryAfter int    `json:"retry_after"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid denial body: %v", err)
	}
	if body.Detail != DefaultMessage {
		t.Fatalf("expected default message, got %q", body.Detail)
	}
	if body.RetryAfter != 300 {
		t.Fatalf("expected retry_after=300, got %d", body.RetryAfter)
	}

	if calls != 3 {
		t.Fatalf("expected next handler called 3 times, got %d", calls)
	}
}

func TestMiddleware_IdentitiesGetSeparateQuotas(t *testing.T) {
	lim := newLimiter(t, "login", 1, 5)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	h := Middleware(Options{Limiter: lim})(next)

	if w := doRequest(h, "1.1.1.1:1"); w.Code != http.StatusOK {
		t.Fatalf("expected 200 for first identity, got %d", w.Code)
	}
	if w := doRequest(h, "1.1.1.1:1"); w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 for exhausted identity, got %d", w.Code)
	}
	if w := doRequest(h, "2.2.2.2:1"); w.Code != http.StatusOK {
		t.Fatalf("expected 200 for other identity, got %d", w.Code)
	}
}

func TestMiddleware_RedirectBranchNotifiesThenRedirects(t *testing.T) {
	lim := newLimiter(t, "login", 1, 5)

	notifications := []string{}
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	h := Middleware(Options{
		Limiter:     lim,
		Message:     "Muitas tentativas de login. Aguarde alguns minutos.",
		RedirectURL: "/login",
		Notify: func(_ *http.Request, message string) {
			notifications = append(notifications, message)
		},
	})(next)

	doRequest(h, "1.2.3.4:1000")
	w := doRequest(h, "1.2.3.4:1000")

	if w.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", w.Code)
	}
	if got := w.Header().Get("Location"); got != "/login" {
		t.Fatalf("expected redirect to /login, got %q", got)
	}
	if len(notifications) != 1 {
		t.Fatalf("expected exactly one warning notification, got %d", len(notifications))
	}
	if notifications[0] != "Muitas tentativas de login. Aguarde alguns minutos." {
		t.Fatalf("unexpected notification: %q", notifications[0])
	}
}

// Fiação quebrada (sem limiter) deixa passar sem limitar — disponibilidade
// ganha de rigor. Comportamento deliberado, não bug.
func TestMiddleware_FailsOpenWithoutLimiter(t *testing.T) {
	calls := 0
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	})

	h := Middleware(Options{})(next)

	for i := 0; i < 5; i++ {
		if w := doRequest(h, "1.2.3.4:1000"); w.Code != http.StatusOK {
			t.Fatalf("expected 200 (fail open), got %d", w.Code)
		}
	}
	if calls != 5 {
		t.Fatalf("expected every request to pass through, got %d", calls)
	}
}

func TestMiddleware_LogDetailsPanicDoesNotAffectDenial(t *testing.T) {
	lim := newLimiter(t, "login", 1, 5)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	h := Middleware(Options{
		Limiter: lim,
		LogDetails: func(string) string {
			panic("callback quebrado")
		},
	})(next)

	doRequest(h, "1.2.3.4:1000")
	w := doRequest(h, "1.2.3.4:1000")

	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected denial to survive a panicking callback, got %d", w.Code)
	}
}

func TestMiddleware_RecordsStatsBestEffort(t *testing.T) {
	lim := newLimiter(t, "login", 1, 5)
	stats := infra.NewMemoryStatsStore()
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	h := Middleware(Options{Limiter: lim, Stats: stats})(next)

	doRequest(h, "1.2.3.4:1000")
	doRequest(h, "1.2.3.4:1000")

	total := stats.Total()
	if total.Allowed != 1 || total.Denied != 1 {
		t.Fatalf("unexpected stats totals: %+v", total)
	}
	if got := stats.ByLimiter()["login"]; got.Allowed != 1 || got.Denied != 1 {
		t.Fatalf("unexpected login counters: %+v", got)
	}
}
