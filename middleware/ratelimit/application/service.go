package application

import (
	"time"

	"portal-ratelimit/middleware/ratelimit/domain"
)

// Service concentra a regra de aplicação do rate limit.
//
// Ele não sabe nada sobre HTTP (headers/status), apenas retorna uma decisão.
type Service struct {
	Limiter domain.Limiter
}

// Decide verifica (e registra) a identidade no limiter.
//
// Limiter nil é fiação quebrada: a decisão é permitir (fail open) — quem
// chama decide se loga. Disponibilidade ganha de rigor quando a integração
// está quebrada.
//
// Na negação, RetryAfter é a janela em minutos convertida para segundos —
// o mesmo valor que vai no corpo JSON de negação.
func (s Service) Decide(identity string) domain.Decision {
	if s.Limiter == nil {
		return domain.Decision{Allowed: true}
	}

	if s.Limiter.Check(identity) {
		return domain.Decision{Allowed: true}
	}

	retryAfter := time.Duration(s.Limiter.Policy().WindowMinutes) * 60 * time.Second
	return domain.Decision{Allowed: false, RetryAfter: retryAfter}
}
