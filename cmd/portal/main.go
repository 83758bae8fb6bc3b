package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"portal-ratelimit/middleware/ratelimit"
	"portal-ratelimit/middleware/ratelimit/domain"
	"portal-ratelimit/middleware/ratelimit/infra"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

func main() {
	_ = godotenv.Load()

	cfg, err := readConfig()
	if err != nil {
		slog.Error("config error", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.logLevel)
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Cache de configuração lido pelos limiters dinâmicos. Com CONFIG_FILE
	// definido, o arquivo é observado e trocas de limite valem na próxima
	// requisição, sem reiniciar o processo.
	configCache := infra.NewConfigCache()
	if cfg.configFile != "" {
		source, err := infra.NewConfigFile(cfg.configFile, configCache)
		if err != nil {
			logger.Error("config file error", "error", err)
			os.Exit(1)
		}
		if err := source.Start(ctx); err != nil {
			logger.Error("config watch error", "error", err)
			os.Exit(1)
		}
	}

	loginLimiter, err := infra.NewDynamicForName("login", configCache, cfg.loginMax, cfg.loginWindowMinutes)
	if err != nil {
		logger.Error("login limiter error", "error", err)
		os.Exit(1)
	}
	chatLimiter, err := infra.NewSlidingWindow("chat_api", cfg.chatMax, cfg.chatWindowMinutes)
	if err != nil {
		logger.Error("chat limiter error", "error", err)
		os.Exit(1)
	}
	chatLimiter.StartJanitor(ctx, 2*time.Minute)

	registry := infra.NewRegistry()
	registry.Register(loginLimiter)
	registry.Register(chatLimiter)

	var statsStore domain.StatsStore
	if cfg.statsEnabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.statsRedisAddr,
			Password: cfg.statsRedisPassword,
			DB:       cfg.statsRedisDB,
		})
		defer func() { _ = rdb.Close() }()

		pingCtx, pingCancel := context.WithTimeout(context.Background(), 2*time.Second)
		_, err := rdb.Ping(pingCtx).Result()
		pingCancel()
		if err != nil {
			logger.Error("redis stats ping error", "error", err)
			os.Exit(1)
		}

		statsStore = infra.NewRedisStatsStore(rdb,
			infra.WithStatsPrefix(cfg.statsPrefix),
			infra.WithStatsTTL(cfg.statsTTL),
		)
	}

	r := chi.NewRouter()

	// Fluxo de navegador: negação vira flash + redirect de volta ao form.
	r.With(ratelimit.Middleware(ratelimit.Options{
		Limiter:     loginLimiter,
		Message:     "Muitas tentativas de login. Aguarde alguns minutos.",
		RedirectURL: "/login",
		Notify:      flashWarning,
		Stats:       statsStore,
		Logger:      logger,
	})).Post("/login", loginHandler)

	// Fluxo de API: negação vira JSON 429 com retry_after.
	r.With(ratelimit.Middleware(ratelimit.Options{
		Limiter: chatLimiter,
		Stats:   statsStore,
		Logger:  logger,
	})).Post("/api/chat", chatHandler)

	r.Get("/login", loginFormHandler)
	r.Get("/admin/ratelimits", statsHandler(registry))
	r.Post("/admin/ratelimits/clear", clearHandler(registry, logger))

	srv := &http.Server{
		Addr:              cfg.listenAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("portal listening",
		"addr", cfg.listenAddr,
		"config_file", cfg.configFile,
		"stats_enabled", cfg.statsEnabled,
	)
	logger.Info("login limiter", "max", cfg.loginMax, "window_minutes", cfg.loginWindowMinutes)
	logger.Info("chat limiter", "max", cfg.chatMax, "window_minutes", cfg.chatWindowMinutes)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

func loginFormHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte("<form method=\"post\" action=\"/login\"><button>Entrar</button></form>"))
}

func loginHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("login ok"))
}

func chatHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_, _ = w.Write([]byte(`{"status":"sent"}`))
}

// flashWarning é o canal de aviso ao usuário do ramo de redirect. O portal
// real guarda a mensagem na sessão; este binário de demonstração só loga.
func flashWarning(r *http.Request, message string) {
	if r == nil {
		return
	}
	slog.Warn("aviso ao usuário", "path", r.URL.Path, "message", message)
}

func statsHandler(registry *infra.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_ = json.NewEncoder(w).Encode(registry.Stats())
	}
}

func clearHandler(registry *infra.Registry, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		registry.ClearAll()
		logger.Info("rate limiters limpos via admin")
		w.WriteHeader(http.StatusNoContent)
	}
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}

type config struct {
	listenAddr string
	logLevel   string
	configFile string

	loginMax           int
	loginWindowMinutes int
	chatMax            int
	chatWindowMinutes  int

	statsEnabled       bool
	statsRedisAddr     string
	statsRedisPassword string
	statsRedisDB       int
	statsPrefix        string
	statsTTL           time.Duration
}

func readConfig() (config, error) {
	cfg := config{}
	cfg.listenAddr = getenvDefault("LISTEN_ADDR", ":8080")
	cfg.logLevel = getenvDefault("LOG_LEVEL", "info")
	cfg.configFile = os.Getenv("CONFIG_FILE")

	cfg.loginMax = getenvIntDefault("LOGIN_MAX", 5)
	cfg.loginWindowMinutes = getenvIntDefault("LOGIN_WINDOW_MINUTES", 5)
	cfg.chatMax = getenvIntDefault("CHAT_MAX", 30)
	cfg.chatWindowMinutes = getenvIntDefault("CHAT_WINDOW_MINUTES", 1)

	cfg.statsEnabled = getenvBoolDefault("RATE_STATS_ENABLED", false)
	cfg.statsRedisAddr = getenvDefault("RATE_STATS_REDIS_ADDR", "")
	cfg.statsRedisPassword = os.Getenv("RATE_STATS_REDIS_PASSWORD")
	cfg.statsRedisDB = getenvIntDefault("RATE_STATS_REDIS_DB", 0)
	cfg.statsPrefix = getenvDefault("RATE_STATS_PREFIX", "ratelimit:stats")
	cfg.statsTTL = getenvDurationDefault("RATE_STATS_TTL", 24*time.Hour)

	if cfg.loginMax <= 0 || cfg.loginWindowMinutes <= 0 {
		return config{}, errors.New("LOGIN_MAX and LOGIN_WINDOW_MINUTES must be > 0")
	}
	if cfg.chatMax <= 0 || cfg.chatWindowMinutes <= 0 {
		return config{}, errors.New("CHAT_MAX and CHAT_WINDOW_MINUTES must be > 0")
	}
	if cfg.statsEnabled && strings.TrimSpace(cfg.statsRedisAddr) == "" {
		return config{}, errors.New("RATE_STATS_REDIS_ADDR is required when RATE_STATS_ENABLED=true")
	}
	return cfg, nil
}

func getenvDefault(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvIntDefault(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getenvBoolDefault(k string, def bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getenvDurationDefault(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
