package infra

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
)

// ConfigFile alimenta um ConfigCache a partir de um arquivo no formato dotenv
// (CHAVE=valor) e o recarrega quando o arquivo muda.
//
// É a variante "invalidação por push" da reconfiguração dinâmica: o caminho
// quente (GetInt) continua sendo um lookup em memória; só a recarga toca o
// disco. Falha de recarga mantém os valores anteriores — nunca derruba o
// cache no meio da operação.
type ConfigFile struct {
	path   string
	cache  *ConfigCache
	logger *slog.Logger
}

type ConfigFileOption func(*ConfigFile)

func WithConfigFileLogger(l *slog.Logger) ConfigFileOption {
	return func(f *ConfigFile) {
		if l != nil {
			f.logger = l
		}
	}
}

// NewConfigFile cria a fonte e faz a carga inicial no cache.
func NewConfigFile(path string, cache *ConfigCache, opts ...ConfigFileOption) (*ConfigFile, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("config file path: %w", err)
	}

	f := &ConfigFile{
		path:   abs,
		cache:  cache,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}

	if err := f.Reload(); err != nil {
		return nil, err
	}
	return f, nil
}

// Reload relê o arquivo e troca o conteúdo do cache.
func (f *ConfigFile) Reload() error {
	values, err := godotenv.Read(f.path)
	if err != nil {
		return fmt.Errorf("config file load %s: %w", f.path, err)
	}
	f.cache.Replace(values)
	f.logger.Debug("configuração recarregada", "path", f.path, "keys", len(values))
	return nil
}

// Start observa o arquivo via fsnotify e recarrega em cada escrita.
// Encerra quando o contexto é cancelado.
//
// O watch fica no diretório, não no arquivo: editores que salvam via
// rename/replace trocam o inode e derrubariam um watch direto no arquivo.
func (f *ConfigFile) Start(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("config file watcher: %w", err)
	}

	if err := watcher.Add(filepath.Dir(f.path)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("config file watch %s: %w", f.path, err)
	}

	go func() {
		defer func() { _ = watcher.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if ev.Name != f.path {
					continue
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
					continue
				}
				if err := f.Reload(); err != nil {
					f.logger.Error("falha ao recarregar configuração", "path", f.path, "error", err)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				f.logger.Error("erro no watcher de configuração", "path", f.path, "error", err)
			}
		}
	}()

	return nil
}
