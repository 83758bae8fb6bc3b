// Package ratelimit fornece o adapter HTTP (net/http) do rate limiting por
// janela deslizante do portal.
//
// Visão geral (camadas):
//
//   - domain: contratos e tipos do domínio (sem dependência de net/http)
//   - application: caso de uso (decisão allow/deny + retry-after) sem net/http
//   - infra: implementações concretas (janela deslizante, limiter dinâmico,
//     registry, cache de configuração, stats), detalhes de infraestrutura
//   - ratelimit (este pacote): middleware HTTP + resolução de identidade +
//     tradução da negação para status/headers/corpo
//
// Fluxo por requisição:
//
//  1. Resolve a identidade do cliente (X-Forwarded-For -> X-Real-IP ->
//     RemoteAddr -> "unknown")
//  2. Chama a camada application para obter a decisão (que relê a
//     configuração, no caso do limiter dinâmico)
//  3. Se negado: com RedirectURL configurada, avisa o usuário (flash) e
//     responde 303; sem RedirectURL, responde 429 com JSON
//     {"detail", "retry_after"}
//  4. Se permitido, chama o próximo handler sem mudanças
//
// Nenhuma falha do rate limiting vira erro não tratado na camada de cima:
// fiação quebrada loga e deixa passar (fail open), callback de diagnóstico
// com pânico é engolido e logado.
package ratelimit
