package domain

import (
	"context"
	"time"
)

// StatsEvent representa uma decisão (allow/deny) de um limiter.
//
// Ele é propositalmente "agnóstico de HTTP": Method/Path são strings genéricas.
//
// Observação: cuidado com cardinalidade (ex.: salvar Identity/Path sem controle
// pode explodir o número de chaves em uma base como Redis).
type StatsEvent struct {
	Limiter  string
	Identity string
	Allowed  bool

	Method string
	Path   string

	At time.Time
}

// StatsStore é a estratégia de persistência para estatísticas de decisões.
//
// Implementações podem armazenar em Redis, memória, etc.
// O middleware deve tratar erro como best-effort (não derrubar request).
type StatsStore interface {
	Record(ctx context.Context, ev StatsEvent) error
}
