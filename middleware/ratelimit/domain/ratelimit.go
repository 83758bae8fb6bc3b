package domain

import (
	"errors"
	"time"
)

// Erros de validação de política. Construção com valores não positivos falha
// imediatamente: nunca existe um limiter meio-construído.
var (
	ErrInvalidMaxEvents = errors.New("max events must be positive")
	ErrInvalidWindow    = errors.New("window minutes must be positive")
)

// Policy é a política de um limiter: quantos eventos cabem em quantos minutos.
//
// A janela é mantida em minutos inteiros porque é assim que o valor circula
// pela configuração e pelo retry-after (minutos * 60 segundos).
type Policy struct {
	MaxEvents     int
	WindowMinutes int
}

// Validate verifica se ambos os campos são estritamente positivos.
func (p Policy) Validate() error {
	if p.MaxEvents <= 0 {
		return ErrInvalidMaxEvents
	}
	if p.WindowMinutes <= 0 {
		return ErrInvalidWindow
	}
	return nil
}

// Window devolve a duração da janela derivada dos minutos.
func (p Policy) Window() time.Duration {
	return time.Duration(p.WindowMinutes) * time.Minute
}

// Limiter representa um rate limiter por identidade (geralmente IP).
//
// Check é uma operação combinada de verificação E registro: se permitir,
// o evento já foi contabilizado. Não é um predicado puro — chamar duas
// vezes não é idempotente.
type Limiter interface {
	Name() string

	// Check remove eventos expirados da identidade e decide:
	// true (permitido, evento registrado) ou false (negado, nada registrado).
	Check(identity string) bool

	// Remaining devolve quantos eventos ainda cabem na janela (nunca negativo).
	// Não registra nada.
	Remaining(identity string) int

	// TimeToReset devolve quanto falta para o evento mais antigo sair da
	// janela — o que libera exatamente UM slot, não a cota inteira.
	// ok=false quando a identidade está abaixo do limite.
	TimeToReset(identity string) (time.Duration, bool)

	// Clear descarta os eventos registrados de uma identidade.
	// É seguro chamar para identidade sem estado (no-op).
	Clear(identity string)

	// ClearAll descarta os eventos de todas as identidades.
	ClearAll()

	// Policy devolve a política efetiva no momento da chamada.
	Policy() Policy

	// Stats devolve um resumo do limiter para diagnóstico.
	Stats() LimiterStats
}

// LimiterStats é o resumo de um limiter exposto pelo registry.
type LimiterStats struct {
	MaxEvents        int    `json:"max_events"`
	WindowMinutes    int    `json:"window_minutes"`
	ActiveIdentities int    `json:"active_identities"`
	Kind             string `json:"kind"` // "static" ou "dynamic"
}

// RegistryStats agrega os resumos de todos os limiters registrados.
type RegistryStats struct {
	TotalLimiters int                     `json:"total_limiters"`
	Limiters      map[string]LimiterStats `json:"limiters"`
}

// Decision é o resultado de uma avaliação de rate limit.
type Decision struct {
	Allowed bool
	// RetryAfter é o valor a ser retornado em Retry-After quando bloquear.
	// Se 0, não há recomendação.
	RetryAfter time.Duration
}
