package infra

import (
	"log/slog"
	"sync"

	"portal-ratelimit/middleware/ratelimit/domain"
)

// Registry é o diretório nome -> limiter do processo.
//
// Ele só guarda referências: os limiters continuam utilizáveis fora dele.
// Registro acontece na subida do processo (efetivamente write-once por nome),
// leitura é frequente; o RWMutex cobre a corrida registro/lookup mesmo assim.
//
// Uma instância explícita, injetada por quem declara os limiters — nada de
// singleton de pacote.
type Registry struct {
	mu       sync.RWMutex
	limiters map[string]domain.Limiter
	logger   *slog.Logger
}

type RegistryOption func(*Registry)

func WithRegistryLogger(l *slog.Logger) RegistryOption {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		limiters: make(map[string]domain.Limiter),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register guarda o limiter sob seu nome. Último registro com o mesmo nome
// vence (semântica normal de map).
func (r *Registry) Register(l domain.Limiter) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.limiters[l.Name()] = l
	r.logger.Debug("rate limiter registrado", "limiter", l.Name())
}

// Get devolve o limiter pelo nome, se existir.
func (r *Registry) Get(name string) (domain.Limiter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	l, ok := r.limiters[name]
	return l, ok
}

// Names lista os nomes registrados. A ordem não tem significado.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.limiters))
	for name := range r.limiters {
		names = append(names, name)
	}
	return names
}

// Stats agrega o resumo de todos os limiters registrados.
func (r *Registry) Stats() domain.RegistryStats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := domain.RegistryStats{
		TotalLimiters: len(r.limiters),
		Limiters:      make(map[string]domain.LimiterStats, len(r.limiters)),
	}
	for name, l := range r.limiters {
		stats.Limiters[name] = l.Stats()
	}
	return stats
}

// ClearAll limpa o estado registrado de todos os limiters, sem removê-los do
// registry. Usado para reset administrativo e isolamento entre testes.
func (r *Registry) ClearAll() {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, l := range r.limiters {
		l.ClearAll()
	}
	r.logger.Info("todos os rate limiters foram limpos")
}
