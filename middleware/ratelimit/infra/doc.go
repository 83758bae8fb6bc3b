// Package infra contém implementações concretas (infraestrutura) para os
// contratos definidos no pacote domain.
//
// Exemplos:
//   - SlidingWindow: limiter de janela deslizante com registro de timestamps
//   - Dynamic: SlidingWindow com política relida da configuração a cada chamada
//   - Registry: diretório nome -> limiter para diagnóstico e reset
//   - ConfigCache/ConfigFile: provedor de configuração em memória, com fonte
//     opcional em arquivo observado via fsnotify
package infra
