package infra

import (
	"strconv"
	"sync"
)

// ConfigCache é o provedor de configuração em memória lido pelos limiters
// dinâmicos. Leitura é um lookup síncrono de map — nunca bloqueia, nunca
// retorna erro: chave ausente ou valor ilegível vira o fallback.
//
// Os valores ficam como string porque é assim que chegam das fontes
// (arquivo dotenv, painel administrativo); a conversão acontece na leitura.
type ConfigCache struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewConfigCache() *ConfigCache {
	return &ConfigCache{values: make(map[string]string)}
}

// GetInt implementa domain.IntProvider.
func (c *ConfigCache) GetInt(key string, fallback int) int {
	c.mu.RLock()
	raw, ok := c.values[key]
	c.mu.RUnlock()

	if !ok {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

// Set grava um valor bruto.
func (c *ConfigCache) Set(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
}

// SetInt grava um valor inteiro.
func (c *ConfigCache) SetInt(key string, value int) {
	c.Set(key, strconv.Itoa(value))
}

// Replace troca o conteúdo inteiro do cache de uma vez (recarga de fonte).
func (c *ConfigCache) Replace(values map[string]string) {
	next := make(map[string]string, len(values))
	for k, v := range values {
		next[k] = v
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.values = next
}
