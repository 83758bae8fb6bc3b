package infra

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"portal-ratelimit/middleware/ratelimit/domain"
)

// SlidingWindow é um limiter de janela deslizante: os eventos "recentes" são
// reavaliados em relação ao momento atual, e não zerados em fronteiras fixas.
// Exatamente MaxEvents chamadas passam dentro da janela; quando o evento mais
// antigo envelhece, um slot volta a ficar disponível.
//
// Seguro para uso concorrente: toda a sequência ler-podar-comparar-acrescentar
// roda sob um único mutex.
type SlidingWindow struct {
	name string

	mu     sync.Mutex
	policy domain.Policy
	window time.Duration
	log    *windowLog

	now    func() time.Time
	logger *slog.Logger
}

// Option configura um SlidingWindow (e, por extensão, um Dynamic).
type Option func(*SlidingWindow)

// WithLogger troca o logger padrão (slog.Default).
func WithLogger(l *slog.Logger) Option {
	return func(s *SlidingWindow) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock troca a fonte de tempo. Útil em testes para avançar a janela
// sem dormir.
func WithClock(now func() time.Time) Option {
	return func(s *SlidingWindow) {
		if now != nil {
			s.now = now
		}
	}
}

// NewSlidingWindow cria um limiter com política fixa.
// Falha (erro, não clamp silencioso) se maxEvents <= 0 ou windowMinutes <= 0.
func NewSlidingWindow(name string, maxEvents, windowMinutes int, opts ...Option) (*SlidingWindow, error) {
	policy := domain.Policy{MaxEvents: maxEvents, WindowMinutes: windowMinutes}
	if err := policy.Validate(); err != nil {
		return nil, fmt.Errorf("rate limiter %q: %w", name, err)
	}

	s := &SlidingWindow{
		name:   name,
		policy: policy,
		window: policy.Window(),
		log:    newWindowLog(),
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *SlidingWindow) Name() string { return s.name }

// Check implementa domain.Limiter.
//
// Poda os eventos expirados da identidade e:
//   - se a contagem restante >= MaxEvents: nega, NÃO registra, loga warning;
//   - senão: registra o momento atual e permite.
func (s *SlidingWindow) Check(identity string) bool {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	count := s.log.prune(identity, now, s.window)
	if count >= s.policy.MaxEvents {
		s.logger.Warn("rate limit excedido",
			"limiter", s.name,
			"identity", identity,
			"events", count,
			"max_events", s.policy.MaxEvents,
		)
		return false
	}

	s.log.append(identity, now)
	return true
}

// Remaining devolve max(0, MaxEvents - eventos vivos). Não registra nada.
func (s *SlidingWindow) Remaining(identity string) int {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	count := s.log.prune(identity, now, s.window)
	if count >= s.policy.MaxEvents {
		return 0
	}
	return s.policy.MaxEvents - count
}

// TimeToReset devolve quanto falta para o evento vivo mais antigo sair da
// janela. ok=false quando a identidade está abaixo do limite ou quando o
// resultado seria não positivo.
//
// Atenção à semântica: envelhecer o mais antigo libera exatamente UM slot,
// não a cota inteira. É esse valor que alimenta o retry-after.
func (s *SlidingWindow) TimeToReset(identity string) (time.Duration, bool) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	count := s.log.prune(identity, now, s.window)
	if count < s.policy.MaxEvents {
		return 0, false
	}

	oldest, ok := s.log.oldest(identity)
	if !ok {
		return 0, false
	}
	d := oldest.Add(s.window).Sub(now)
	if d <= 0 {
		return 0, false
	}
	return d, true
}

// Clear descarta os eventos de uma identidade. No-op para identidade sem estado.
func (s *SlidingWindow) Clear(identity string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.log.clear(identity)
	s.logger.Debug("rate limit limpo para identidade", "limiter", s.name, "identity", identity)
}

// ClearAll descarta os eventos de todas as identidades.
func (s *SlidingWindow) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.log.clearAll()
	s.logger.Debug("todos os rate limits limpos", "limiter", s.name)
}

// Policy devolve a política efetiva.
func (s *SlidingWindow) Policy() domain.Policy {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.policy
}

// Stats implementa domain.Limiter.
func (s *SlidingWindow) Stats() domain.LimiterStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.LimiterStats{
		MaxEvents:        s.policy.MaxEvents,
		WindowMinutes:    s.policy.WindowMinutes,
		ActiveIdentities: s.log.active(),
		Kind:             "static",
	}
}

// Compact remove identidades cujos eventos já expiraram todos.
// Não muda nenhuma decisão; só devolve memória.
func (s *SlidingWindow) Compact() {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.log.compact(now, s.window)
}

// StartJanitor inicia uma goroutine que compacta identidades ociosas
// periodicamente. Pare cancelando o contexto.
func (s *SlidingWindow) StartJanitor(ctx DoneContext, every time.Duration) {
	if every <= 0 {
		return
	}

	t := time.NewTicker(every)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				s.Compact()
			}
		}
	}()
}

// DoneContext é o mínimo necessário para aceitar context.Context sem importar
// context aqui. (Permite reuso em libs sem acoplar.)
type DoneContext interface {
	Done() <-chan struct{}
}
