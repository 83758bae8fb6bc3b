package infra

import "time"

// windowLog guarda, por identidade, a sequência ordenada de timestamps dos
// eventos recentes. Ordem de inserção == ordem cronológica.
//
// O tipo NÃO é protegido por lock próprio: o mutex do limiter dono cobre a
// sequência completa ler-podar-comparar-acrescentar como uma única seção
// crítica. Sem isso, duas chamadas concorrentes para a mesma identidade podem
// ambas observar capacidade antes de qualquer uma registrar, estourando o
// limite silenciosamente.
type windowLog struct {
	events map[string][]time.Time
}

func newWindowLog() *windowLog {
	return &windowLog{events: make(map[string][]time.Time)}
}

// prune descarta os eventos da identidade com idade >= janela (ou seja,
// mantém apenas t com now-t < janela) e devolve quantos sobreviveram.
// Identidade ausente e identidade presente-e-vazia são equivalentes.
func (w *windowLog) prune(identity string, now time.Time, window time.Duration) int {
	evs := w.events[identity]
	if len(evs) == 0 {
		return 0
	}

	// eventos estão em ordem cronológica: basta achar o primeiro vivo
	cut := 0
	for cut < len(evs) && now.Sub(evs[cut]) >= window {
		cut++
	}
	if cut > 0 {
		evs = append(evs[:0], evs[cut:]...)
		w.events[identity] = evs
	}
	return len(evs)
}

func (w *windowLog) append(identity string, t time.Time) {
	w.events[identity] = append(w.events[identity], t)
}

// oldest devolve o timestamp sobrevivente mais antigo da identidade —
// o próximo a envelhecer, que é o que libera o próximo slot.
func (w *windowLog) oldest(identity string) (time.Time, bool) {
	evs := w.events[identity]
	if len(evs) == 0 {
		return time.Time{}, false
	}
	return evs[0], true
}

func (w *windowLog) clear(identity string) {
	delete(w.events, identity)
}

func (w *windowLog) clearAll() {
	w.events = make(map[string][]time.Time)
}

// active conta identidades com pelo menos um evento registrado.
func (w *windowLog) active() int {
	n := 0
	for _, evs := range w.events {
		if len(evs) > 0 {
			n++
		}
	}
	return n
}

// compact remove entradas cujos eventos já expiraram todos.
// Puramente higiene de memória: ausente e vazia são equivalentes.
func (w *windowLog) compact(now time.Time, window time.Duration) {
	for identity := range w.events {
		if w.prune(identity, now, window) == 0 {
			delete(w.events, identity)
		}
	}
}
