package infra

import (
	"testing"
	"time"
)

func TestWindowLog_PruneDropsOnlyExpired(t *testing.T) {
	w := newWindowLog()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	w.append("k", base)
	w.append("k", base.Add(2*time.Minute))
	w.append("k", base.Add(4*time.Minute))

	// em base+5m, o evento de base tem idade exatamente == janela e sai
	got := w.prune("k", base.Add(5*time.Minute), 5*time.Minute)
	if got != 2 {
		t.Fatalf("expected 2 surviving events, got %d", got)
	}

	oldest, ok := w.oldest("k")
	if !ok {
		t.Fatalf("expected oldest to exist")
	}
	if !oldest.Equal(base.Add(2 * time.Minute)) {
		t.Fatalf("expected oldest at base+2m, got %s", oldest)
	}
}

func TestWindowLog_PruneUnknownIdentityIsZero(t *testing.T) {
	w := newWindowLog()
	if got := w.prune("nunca-vista", time.Now(), time.Minute); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
}

func TestWindowLog_ClearAndActive(t *testing.T) {
	w := newWindowLog()
	now := time.Now()

	w.append("a", now)
	w.append("b", now)
	if got := w.active(); got != 2 {
		t.Fatalf("expected 2 active identities, got %d", got)
	}

	w.clear("a")
	if got := w.active(); got != 1 {
		t.Fatalf("expected 1 active identity after clear, got %d", got)
	}

	// limpar identidade sem estado é no-op
	w.clear("a")

	w.clearAll()
	if got := w.active(); got != 0 {
		t.Fatalf("expected 0 active identities after clearAll, got %d", got)
	}
}

func TestWindowLog_CompactDropsExpiredIdentities(t *testing.T) {
	w := newWindowLog()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	w.append("velha", base)
	w.append("viva", base.Add(4*time.Minute))

	w.compact(base.Add(5*time.Minute), 5*time.Minute)

	if _, ok := w.events["velha"]; ok {
		t.Fatalf("expected expired identity to be removed")
	}
	if got := w.active(); got != 1 {
		t.Fatalf("expected 1 active identity, got %d", got)
	}
}
