package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/google/uuid"

	"github.com/atopile/dashsync/internal/config"
	"github.com/atopile/dashsync/internal/dispatch"
	"github.com/atopile/dashsync/internal/events"
	"github.com/atopile/dashsync/internal/journal"
	"github.com/atopile/dashsync/internal/metrics"
	"github.com/atopile/dashsync/internal/migration"
	"github.com/atopile/dashsync/internal/mirror"
	"github.com/atopile/dashsync/internal/observability"
	"github.com/atopile/dashsync/internal/sched"
	"github.com/atopile/dashsync/internal/store"
	"github.com/atopile/dashsync/internal/transport"
	"github.com/atopile/dashsync/internal/vcs"
	"github.com/atopile/dashsync/internal/version"
)

var CLI struct {
	Config  string `short:"c" help:"Configuration file path" default:"dashsync.yaml"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	Run struct {
	} `cmd:"" help:"Connect to the dashboard backend and keep local state in sync"`

	Status struct {
		Project string `short:"p" help:"Project directory to inspect" default:"."`
	} `cmd:"" help:"Show version, configuration, and project repository state"`

	Init struct {
		Force bool `help:"Overwrite existing configuration file"`
	} `cmd:"" help:"Initialize a new configuration file"`

	Migrate struct {
		ProjectRoot string `arg:"" help:"Root directory of the project to migrate"`
	} `cmd:"" help:"Run the project migration wizard"`
}

// levelVar lets a config reload adjust the log level without rebuilding the
// handler chain.
var levelVar = new(slog.LevelVar)

func main() {
	ctx := kong.Parse(&CLI)

	switch ctx.Command() {
	case "run":
		if err := runSync(); err != nil {
			slog.Error("sync failed", "error", err)
			os.Exit(1)
		}
	case "status":
		if err := runStatus(); err != nil {
			slog.Error("status failed", "error", err)
			os.Exit(1)
		}
	case "init":
		if err := config.Init(CLI.Config, CLI.Init.Force); err != nil {
			slog.Error("init failed", "error", err)
			os.Exit(1)
		}
		fmt.Printf("Created configuration file: %s\n", CLI.Config)
	case "migrate <project-root>":
		if err := runMigrate(); err != nil {
			slog.Error("migration failed", "error", err)
			os.Exit(1)
		}
	default:
		slog.Error("unknown command", "command", ctx.Command())
		os.Exit(1)
	}
}

func setupLogging(cfg *config.Config) {
	levelVar.Set(cfg.SlogLevel())
	if CLI.Verbose {
		levelVar.Set(slog.LevelDebug)
	}

	opts := &slog.HandlerOptions{Level: levelVar}
	var handler slog.Handler
	if cfg.Logging.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}

func loadConfig() (*config.Config, error) {
	if _, err := os.Stat(CLI.Config); os.IsNotExist(err) {
		slog.Info("no configuration file, using defaults", "path", CLI.Config)
		return config.Default(), nil
	}
	return config.Load(CLI.Config)
}

func runSync() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	setupLogging(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = observability.WithSessionID(ctx, uuid.NewString())

	observability.InfoContext(ctx, "starting dashsync",
		slog.String("version", version.Version),
		slog.String("backend", cfg.Backend.URL))

	bus := events.NewBus()
	defer bus.Close()

	var rec metrics.Recorder = metrics.NoopRecorder{}
	var promRec *metrics.PrometheusRecorder
	if cfg.Metrics.Enabled {
		promRec = metrics.NewPrometheusRecorder(nil)
		rec = promRec
	}

	st := store.New(store.Config{Bus: bus, Recorder: rec, ErrorTTL: cfg.Store.ErrorTTL})
	defer st.Close()

	tr, err := transport.NewWS(transport.WSConfig{
		URL:          cfg.Backend.URL,
		Origin:       cfg.Backend.Origin,
		DialTimeout:  cfg.Backend.DialTimeout,
		PingInterval: cfg.Backend.PingInterval,
		Bus:          bus,
		Recorder:     rec,
	})
	if err != nil {
		return err
	}
	defer tr.Close()

	var jrn *journal.SQLite
	if cfg.Journal.Enabled {
		jrn, err = journal.Open(cfg.Journal.Path)
		if err != nil {
			return err
		}
		defer jrn.Close()
	}

	dispatcherCfg := dispatch.Config{Store: st, Bus: bus, Recorder: rec}
	if jrn != nil {
		dispatcherCfg.Journal = jrn
	}
	dispatcher, err := dispatch.New(dispatcherCfg)
	if err != nil {
		return err
	}

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := tr.Run(ctx); err != nil {
			slog.Error("transport stopped", "error", err)
			stop()
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := dispatcher.Run(ctx, tr.Inbound()); err != nil {
			slog.Error("dispatcher stopped", "error", err)
		}
	}()

	if cfg.Mirror.Enabled {
		mir, merr := mirror.New(mirror.Config{URL: cfg.Mirror.URL, Bus: bus, Recorder: rec})
		if merr != nil {
			return merr
		}
		defer mir.Close()
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := mir.Run(ctx); err != nil {
				slog.Error("mirror stopped", "error", err)
			}
		}()
	}

	if cfg.Metrics.Enabled {
		srv := &http.Server{Addr: cfg.Metrics.Listen, Handler: promRec.Handler()}
		wg.Add(1)
		go func() {
			defer wg.Done()
			slog.Info("metrics endpoint listening", "addr", cfg.Metrics.Listen)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				slog.Error("metrics server stopped", "error", err)
			}
		}()
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	if cfg.Refresh.Enabled {
		scheduler, serr := sched.New(tr)
		if serr != nil {
			return serr
		}
		if err := scheduler.ScheduleRefresh(cfg.Refresh.Projects, cfg.Refresh.Packages); err != nil {
			return err
		}
		scheduler.Start(ctx)
		defer func() {
			if err := scheduler.Stop(ctx); err != nil {
				slog.Error("scheduler shutdown failed", "error", err)
			}
		}()
	}

	if _, err := os.Stat(CLI.Config); err == nil {
		watcher, werr := config.NewWatcher(CLI.Config, applyReload)
		if werr != nil {
			return werr
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := watcher.Run(ctx); err != nil {
				slog.Error("config watcher stopped", "error", err)
			}
		}()
	}

	<-ctx.Done()
	observability.InfoContext(ctx, "shutting down")
	wg.Wait()
	return nil
}

// applyReload applies the safe subset of a changed configuration. Endpoint
// and feature toggles require a restart.
func applyReload(ctx context.Context, cfg *config.Config) error {
	levelVar.Set(cfg.SlogLevel())
	slog.Info("log level updated", "level", cfg.Logging.Level)
	return nil
}

func runStatus() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	setupLogging(cfg)

	fmt.Printf("dashsync %s (commit %s, built %s)\n", version.Version, version.GitCommit, version.BuildTime)
	fmt.Printf("backend:  %s\n", cfg.Backend.URL)
	fmt.Printf("journal:  %s\n", enabledString(cfg.Journal.Enabled, cfg.Journal.Path))
	fmt.Printf("mirror:   %s\n", enabledString(cfg.Mirror.Enabled, cfg.Mirror.URL))
	fmt.Printf("metrics:  %s\n", enabledString(cfg.Metrics.Enabled, cfg.Metrics.Listen))

	info, err := vcs.Probe(CLI.Status.Project)
	if err != nil {
		return err
	}
	if repo, ok := info.Get(); ok {
		branch := repo.Branch.UnwrapOr("(detached)")
		dirty := ""
		if repo.Dirty {
			dirty = " (dirty)"
		}
		fmt.Printf("project:  %s @ %.12s%s\n", branch, repo.Commit, dirty)
	} else {
		fmt.Printf("project:  not a git repository\n")
	}
	return nil
}

func enabledString(enabled bool, detail string) string {
	if !enabled {
		return "disabled"
	}
	return detail
}

func runMigrate() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	setupLogging(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = observability.WithSessionID(ctx, uuid.NewString())
	ctx = observability.WithProjectRoot(ctx, CLI.Migrate.ProjectRoot)

	observability.InfoContext(ctx, "starting migration wizard")

	bus := events.NewBus()
	defer bus.Close()

	st := store.New(store.Config{Bus: bus})
	defer st.Close()

	tr, err := transport.NewWS(transport.WSConfig{
		URL:          cfg.Backend.URL,
		Origin:       cfg.Backend.Origin,
		DialTimeout:  cfg.Backend.DialTimeout,
		PingInterval: cfg.Backend.PingInterval,
		Bus:          bus,
		Recorder:     metrics.NoopRecorder{},
	})
	if err != nil {
		return err
	}
	defer tr.Close()

	dispatcher, err := dispatch.New(dispatch.Config{Store: st, Bus: bus})
	if err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		if err := tr.Run(runCtx); err != nil {
			slog.Error("transport stopped", "error", err)
			cancel()
		}
	}()
	go func() {
		if err := dispatcher.Run(runCtx, tr.Inbound()); err != nil {
			slog.Error("dispatcher stopped", "error", err)
		}
	}()

	wizard, err := migration.New(migration.Config{
		Transport:   tr,
		Bus:         bus,
		ProjectRoot: CLI.Migrate.ProjectRoot,
	})
	if err != nil {
		return err
	}

	outcomes, err := wizard.Run(ctx)
	for _, outcome := range outcomes {
		status := "ok"
		if !outcome.Success {
			status = "failed: " + outcome.Error.UnwrapOr("unknown error")
		}
		fmt.Printf("step %-30s %s\n", outcome.Step, status)
	}
	if err != nil {
		return err
	}
	fmt.Println("migration complete")
	return nil
}
