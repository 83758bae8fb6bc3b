// Package application contém o caso de uso de decisão do rate limit.
//
// Ele depende apenas do pacote domain e não conhece net/http.
// Ex.: Service.Decide(identity) retorna uma Decision (allow/deny + retry-after).
package application
