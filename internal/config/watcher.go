package config

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	ferrors "github.com/atopile/dashsync/internal/foundation/errors"
)

// ReloadFunc is called with the freshly loaded configuration after a file
// change has settled. Returning an error keeps the previous configuration.
type ReloadFunc func(ctx context.Context, cfg *Config) error

// Watcher reloads the configuration when the file changes on disk. Changes
// are debounced so editors writing in multiple steps trigger a single reload.
type Watcher struct {
	configPath string
	watcher    *fsnotify.Watcher
	reload     ReloadFunc
	reloadChan chan struct{}
	debounce   time.Duration
}

// NewWatcher creates a watcher for configPath.
func NewWatcher(configPath string, reload ReloadFunc) (*Watcher, error) {
	if reload == nil {
		return nil, ferrors.ValidationError("reload callback is required").Build()
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, ferrors.ConfigError("create file watcher").WithCause(err).Build()
	}

	absPath, err := filepath.Abs(configPath)
	if err != nil {
		_ = fw.Close()
		return nil, ferrors.ConfigError("resolve config path").WithCause(err).Build()
	}

	return &Watcher{
		configPath: absPath,
		watcher:    fw,
		reload:     reload,
		reloadChan: make(chan struct{}, 1),
		debounce:   time.Second,
	}, nil
}

// Run watches until ctx is canceled. Watching the parent directory survives
// the rename-then-replace dance most editors do.
func (w *Watcher) Run(ctx context.Context) error {
	if err := w.watcher.Add(filepath.Dir(w.configPath)); err != nil {
		return ferrors.ConfigError("watch config directory").WithCause(err).Build()
	}
	defer w.watcher.Close()

	slog.Info("watching configuration file", "path", w.configPath)

	go w.reloadLoop(ctx)

	configFile := filepath.Base(w.configPath)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != configFile {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				w.trigger()
			} else if event.Op&fsnotify.Remove != 0 {
				slog.Warn("configuration file removed", "path", event.Name)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("config watcher error", "error", err)
		}
	}
}

func (w *Watcher) trigger() {
	select {
	case w.reloadChan <- struct{}{}:
	default:
	}
}

func (w *Watcher) reloadLoop(ctx context.Context) {
	var timer *time.Timer
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return
		case <-w.reloadChan:
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, func() {
				if err := w.performReload(ctx); err != nil {
					slog.Error("configuration reload failed", "error", err)
				}
			})
		}
	}
}

func (w *Watcher) performReload(ctx context.Context) error {
	cfg, err := Load(w.configPath)
	if err != nil {
		return err
	}
	if err := w.reload(ctx, cfg); err != nil {
		return err
	}
	slog.Info("configuration reloaded", "path", w.configPath)
	return nil
}
