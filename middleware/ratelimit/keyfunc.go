package ratelimit

import (
	"net"
	"net/http"
	"strings"
)

// KeyFunc resolve a identidade do cliente a partir da requisição.
type KeyFunc func(r *http.Request) string

// DefaultKeyFunc modela um deploy atrás de reverse proxy: o hop confiável
// mais próximo pode reescrever headers. Precedência:
//
//  1. primeira entrada de X-Forwarded-For (IP original do cliente)
//  2. X-Real-IP
//  3. host do RemoteAddr
//  4. "unknown"
//
// Identidade irresolvível NÃO é erro: todos os clientes sem identidade
// dividem o balde "unknown". Imprecisão aceita e documentada — não tratar
// cada um como globalmente único.
func DefaultKeyFunc() KeyFunc {
	return func(r *http.Request) string {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			parts := strings.Split(xff, ",")
			if len(parts) > 0 {
				ip := strings.TrimSpace(parts[0])
				if ip != "" {
					return ip
				}
			}
		}

		if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
			return realIP
		}

		// fallback: RemoteAddr
		host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
		if err == nil && host != "" {
			return host
		}
		if r.RemoteAddr != "" {
			return r.RemoteAddr
		}
		return "unknown"
	}
}
