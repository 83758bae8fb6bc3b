package infra

import (
	"time"

	"portal-ratelimit/middleware/ratelimit/domain"
)

// Dynamic é um SlidingWindow cuja política é relida do provedor de
// configuração imediatamente antes de CADA operação pública. A garantia de
// frescor é "a leitura é atual no momento da chamada", não "eventualmente
// atual" — trocar um limite em runtime vale já na próxima requisição, sem
// reiniciar o processo.
type Dynamic struct {
	*SlidingWindow

	provider  domain.IntProvider
	keyMax    string
	keyWindow string

	fallbackMax           int
	fallbackWindowMinutes int
}

// NewDynamic cria um limiter dinâmico.
//
// Os fallbacks seguem a mesma regra de validação do limiter base (positivos,
// senão erro). A construção faz uma única leitura inicial do provedor para
// semear a política de partida; provider nil significa que os fallbacks
// valem sempre.
func NewDynamic(name string, provider domain.IntProvider, keyMax, keyWindow string, fallbackMax, fallbackWindowMinutes int, opts ...Option) (*Dynamic, error) {
	base, err := NewSlidingWindow(name, fallbackMax, fallbackWindowMinutes, opts...)
	if err != nil {
		return nil, err
	}

	d := &Dynamic{
		SlidingWindow:         base,
		provider:              provider,
		keyMax:                keyMax,
		keyWindow:             keyWindow,
		fallbackMax:           fallbackMax,
		fallbackWindowMinutes: fallbackWindowMinutes,
	}
	d.refresh()
	return d, nil
}

// NewDynamicForName cria um limiter dinâmico derivando as chaves pela
// convenção "{nome}_max" e "{nome}_window_minutes".
func NewDynamicForName(name string, provider domain.IntProvider, fallbackMax, fallbackWindowMinutes int, opts ...Option) (*Dynamic, error) {
	return NewDynamic(name, provider, name+"_max", name+"_window_minutes", fallbackMax, fallbackWindowMinutes, opts...)
}

// refresh relê a política do provedor e aplica mudanças em vigor.
//
// Valores ausentes (ou provedor nil) caem nos fallbacks de construção: o
// limiter nunca fica com política indefinida. Valores não positivos vindos da
// configuração são ignorados pelo mesmo motivo.
func (d *Dynamic) refresh() {
	maxEvents := d.fallbackMax
	windowMinutes := d.fallbackWindowMinutes
	if d.provider != nil {
		maxEvents = d.provider.GetInt(d.keyMax, d.fallbackMax)
		windowMinutes = d.provider.GetInt(d.keyWindow, d.fallbackWindowMinutes)
	}
	if maxEvents <= 0 {
		maxEvents = d.fallbackMax
	}
	if windowMinutes <= 0 {
		windowMinutes = d.fallbackWindowMinutes
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if maxEvents != d.policy.MaxEvents {
		d.logger.Debug("limiter dinâmico atualizou max_events",
			"limiter", d.name,
			"old", d.policy.MaxEvents,
			"new", maxEvents,
		)
		d.policy.MaxEvents = maxEvents
	}

	if windowMinutes != d.policy.WindowMinutes {
		d.logger.Debug("limiter dinâmico atualizou window_minutes",
			"limiter", d.name,
			"old", d.policy.WindowMinutes,
			"new", windowMinutes,
		)
		d.policy.WindowMinutes = windowMinutes
		d.window = d.policy.Window()
	}
}

// Check relê a configuração e aplica a lógica da janela deslizante.
func (d *Dynamic) Check(identity string) bool {
	d.refresh()
	return d.SlidingWindow.Check(identity)
}

// Remaining relê a configuração antes de calcular.
func (d *Dynamic) Remaining(identity string) int {
	d.refresh()
	return d.SlidingWindow.Remaining(identity)
}

// TimeToReset relê a configuração antes de calcular.
func (d *Dynamic) TimeToReset(identity string) (time.Duration, bool) {
	d.refresh()
	return d.SlidingWindow.TimeToReset(identity)
}

// Stats implementa domain.Limiter com o tipo correto.
func (d *Dynamic) Stats() domain.LimiterStats {
	st := d.SlidingWindow.Stats()
	st.Kind = "dynamic"
	return st
}
