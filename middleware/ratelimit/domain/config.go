package domain

// IntProvider é o colaborador de configuração lido pelo limiter dinâmico.
//
// GetInt nunca retorna erro e nunca bloqueia: a leitura é de um cache em
// memória, e qualquer indisponibilidade vira o fallback fornecido. Isso
// garante que a troca de limites em runtime jamais derruba uma requisição.
type IntProvider interface {
	GetInt(key string, fallback int) int
}
