package main

import (
	"context"
	"log/slog"

	"github.com/leighmacdonald/kmon/internal/cache"
	"github.com/leighmacdonald/kmon/internal/config"
	"github.com/leighmacdonald/kmon/internal/event"
	"github.com/leighmacdonald/kmon/internal/kernel"
	"github.com/leighmacdonald/kmon/internal/session"
	"github.com/leighmacdonald/kmon/internal/store"
	"github.com/leighmacdonald/kmon/internal/ui"
)

// keyBuffer is the number of keystrokes the ui may hand over before the key reader picks
// them up.
const keyBuffer = 64

// App is the main application container. It builds the collaborators, starts the two event
// producers and hands the terminal to the ui until the session ends.
type App struct {
	config        config.Config
	configUpdates chan config.Config
	modules       *kernel.ProcSource
}

func NewApp(conf config.Config, configUpdates chan config.Config) *App {
	return &App{
		config:        conf,
		configUpdates: configUpdates,
		modules:       kernel.NewProcSource(conf.SortOptions()),
	}
}

// Run blocks until the session is quit or fails.
func (app *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	logSource, errLogs := app.openLogSource(ctx)
	if errLogs != nil {
		return errLogs
	}

	defer func() {
		if err := logSource.Close(ctx); err != nil {
			slog.Error("Failed to close kernel log", slog.String("error", err.Error()))
		}
	}()

	app.openInfoCache()

	deps := session.Deps{
		Modules:  app.modules,
		Kernel:   kernel.NewSystemInfo(),
		Executor: kernel.NewShellExecutor(),
	}

	if history, closer := app.openHistory(ctx); history != nil {
		deps.History = history
		defer closer()
	}

	events := event.NewAggregator()
	deps.Emitter = events

	sess, errSession := session.New(ctx, deps)
	if errSession != nil {
		return errSession
	}

	keys := make(event.KeyChan, keyBuffer)
	events.StartKeyReader(ctx, keys)
	events.StartPoller(ctx, app.config.Interval(), logSource)

	program := ui.New(ctx, sess, events, keys, app.reconfigure)
	go app.configSender(ctx, program)

	return program.Run()
}

func (app *App) openLogSource(ctx context.Context) (kernel.LogSource, error) {
	switch app.config.LogSource {
	case config.LogSourceFile:
		tail := kernel.NewTailLog(app.config.LogFile, app.config.LogLines)
		if err := tail.Open(); err != nil {
			return nil, err
		}

		go tail.Start(ctx)

		return tail, nil
	case config.LogSourceDmesg:
		fallthrough
	default:
		return kernel.NewDmesgLog(app.config.LogLines), nil
	}
}

// openInfoCache enables caching of module descriptions for the running kernel.
func (app *App) openInfoCache() {
	release, errRelease := kernel.Release()
	if errRelease != nil {
		slog.Warn("Module info cache disabled", slog.String("error", errRelease.Error()))

		return
	}

	fsCache, errCache := cache.New(config.PathCache(config.CacheDirName))
	if errCache != nil {
		slog.Warn("Module info cache disabled", slog.String("error", errCache.Error()))

		return
	}

	app.modules.Cache = fsCache
	app.modules.Release = release
}

// openHistory opens the command history database. The session runs without history when it
// is disabled or cannot be opened.
func (app *App) openHistory(ctx context.Context) (*store.History, func()) {
	if !app.config.HistoryEnabled {
		return nil, nil
	}

	dbPath, errPath := config.DataPath(config.DefaultDBName)
	if errPath != nil {
		slog.Warn("Command history disabled", slog.String("error", errPath.Error()))

		return nil, nil
	}

	database, errDB := store.Open(ctx, dbPath, true)
	if errDB != nil {
		slog.Warn("Command history disabled", slog.String("error", errDB.Error()))

		return nil, nil
	}

	return store.NewHistory(database), func() {
		if err := database.Close(); err != nil {
			slog.Error("Error closing database", slog.String("error", err.Error()))
		}
	}
}

// reconfigure applies a reloaded config and reports whether the module order changed.
func (app *App) reconfigure(conf config.Config) bool {
	changed := conf.SortOptions() != app.config.SortOptions()
	if conf.Interval() != app.config.Interval() || conf.LogSource != app.config.LogSource {
		slog.Warn("Refresh rate and log source changes apply on the next start")
	}

	app.config = conf
	app.modules.Sort = conf.SortOptions()

	return changed
}

// configSender forwards config file changes to the ui.
func (app *App) configSender(ctx context.Context, program *ui.UI) {
	for {
		select {
		case conf := <-app.configUpdates:
			program.Send(ui.ConfigMsg{Config: conf})
		case <-ctx.Done():
			return
		}
	}
}
