package ratelimit

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"portal-ratelimit/middleware/ratelimit/application"
	"portal-ratelimit/middleware/ratelimit/domain"
)

// DefaultMessage é a mensagem de negação mostrada ao usuário quando nenhuma
// mensagem customizada é configurada.
const DefaultMessage = "Muitas requisições. Aguarde um momento antes de tentar novamente."

type Options struct {
	// Limiter a ser aplicado. Nil é fiação quebrada: o middleware loga um
	// erro e deixa a requisição passar sem limitar (fail open).
	Limiter domain.Limiter

	// Message sobrescreve DefaultMessage na negação.
	Message string

	// RedirectURL, quando definida, troca a resposta de negação por um
	// aviso ao usuário (Notify) seguido de redirect 303. Sem ela, a
	// negação é JSON 429 {"detail", "retry_after"} — o formato de API.
	RedirectURL string

	// Notify é o canal de aviso ao usuário (flash message). Só é chamado
	// no ramo de redirect.
	Notify func(r *http.Request, message string)

	// LogDetails, se definida, recebe a identidade e devolve texto extra
	// para a linha de log da negação. Pânico aqui é engolido e logado:
	// diagnóstico jamais muda a decisão já tomada.
	LogDetails func(identity string) string

	// Stats registra decisões em best-effort; erro nunca afeta a resposta.
	Stats domain.StatsStore

	// KeyFn sobrescreve DefaultKeyFunc.
	KeyFn KeyFunc

	Logger *slog.Logger
}

type denialBody struct {
	Detail     string `json:"detail"`
	RetryAfter int    `json:"retry_after"`
}

// Middleware aplica o rate limiting em volta de um handler.
func Middleware(opts Options) func(next http.Handler) http.Handler {
	if opts.Message == "" {
		opts.Message = DefaultMessage
	}
	if opts.KeyFn == nil {
		opts.KeyFn = DefaultKeyFunc()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	svc := application.Service{Limiter: opts.Limiter}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if opts.Limiter == nil {
				opts.Logger.Error("middleware de rate limit sem limiter; seguindo sem limitar (fail open)",
					"method", r.Method,
					"path", r.URL.Path,
				)
				next.ServeHTTP(w, r)
				return
			}

			identity := opts.KeyFn(r)
			dec := svc.Decide(identity)

			if opts.Stats != nil {
				_ = opts.Stats.Record(r.Context(), domain.StatsEvent{
					Limiter:  opts.Limiter.Name(),
					Identity: identity,
					Allowed:  dec.Allowed,
					Method:   r.Method,
					Path:     r.URL.Path,
					At:       time.Now(),
				})
			}

			if dec.Allowed {
				next.ServeHTTP(w, r)
				return
			}

			logDenial(opts, identity)

			if opts.RedirectURL != "" {
				if opts.Notify != nil {
					opts.Notify(r, opts.Message)
				}
				http.Redirect(w, r, opts.RedirectURL, http.StatusSeeOther)
				return
			}

			retryAfter := int(dec.RetryAfter.Seconds())
			w.Header().Set("Retry-After", formatInt(retryAfter))
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(denialBody{
				Detail:     opts.Message,
				RetryAfter: retryAfter,
			})
		})
	}
}

func logDenial(opts Options, identity string) {
	details := safeDetails(opts, identity)

	if details != "" {
		opts.Logger.Warn("rate limit excedido",
			"limiter", opts.Limiter.Name(),
			"identity", identity,
			"details", details,
		)
		return
	}
	opts.Logger.Warn("rate limit excedido",
		"limiter", opts.Limiter.Name(),
		"identity", identity,
	)
}

// safeDetails chama o callback de diagnóstico isolado por recover: a falha
// dele vira log de erro, nunca aborta a negação.
func safeDetails(opts Options, identity string) (details string) {
	if opts.LogDetails == nil {
		return ""
	}
	defer func() {
		if rec := recover(); rec != nil {
			opts.Logger.Error("callback de detalhes do rate limit falhou",
				"limiter", opts.Limiter.Name(),
				"identity", identity,
				"panic", rec,
			)
			details = ""
		}
	}()
	return opts.LogDetails(identity)
}
