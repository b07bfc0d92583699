package command

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/drawdoc/internal/archive"
	"github.com/yndnr/drawdoc/internal/cli/repl"
	"github.com/yndnr/drawdoc/internal/config"
	"github.com/yndnr/drawdoc/internal/core/domain"
	"github.com/yndnr/drawdoc/internal/core/history"
	"github.com/yndnr/drawdoc/internal/core/service"
	"github.com/yndnr/drawdoc/internal/infra/confloader"
	"github.com/yndnr/drawdoc/internal/infra/shutdown"
	"github.com/yndnr/drawdoc/internal/scene"
	"github.com/yndnr/drawdoc/internal/telemetry/logger"
)

// shutdownTimeout bounds the final flush and store close.
const shutdownTimeout = 10 * time.Second

// EditCommand returns the interactive edit shell command.
func EditCommand() *cli.Command {
	return &cli.Command{
		Name:      "edit",
		Usage:     "Edit a document in an interactive shell with undo and auto-save",
		ArgsUsage: "[FILE.draw]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "recover",
				Value: true,
				Usage: "Restore the auto-save record on start",
			},
			&cli.IntFlag{
				Name:  "width",
				Value: domain.DefaultCanvasWidth,
				Usage: "Canvas width for a new document",
			},
			&cli.IntFlag{
				Name:  "height",
				Value: domain.DefaultCanvasHeight,
				Usage: "Canvas height for a new document",
			},
			&cli.StringFlag{
				Name:  "background",
				Value: domain.DefaultCanvasBackground,
				Usage: "Canvas background for a new document",
			},
		},
		Action: editAction,
	}
}

func editAction(c *cli.Context) error {
	env, err := GetEnv(c)
	if err != nil {
		return err
	}
	if c.NArg() > 1 {
		return fmt.Errorf("usage: drawdoc edit %s", c.Command.ArgsUsage)
	}
	cfg := env.Config
	log := env.Logger

	h := shutdown.NewHandler(shutdownTimeout)
	ctx, stop := h.NotifyContext(c.Context)
	defer stop()

	sc := scene.New(domain.CanvasMeta{
		Width:           c.Int("width"),
		Height:          c.Int("height"),
		BackgroundColor: c.String("background"),
	})
	opts := service.Options{
		Serializer:    env.Serializer(),
		History:       history.New(cfg.History.MaxSize, log, env.Metrics),
		Scheduler:     cfg.Scheduler(),
		Renderer:      scene.NewRenderer(sc),
		RecoverOnOpen: c.Bool("recover") && c.NArg() == 0,
		Logger:        log,
	}

	if cfg.AutoSave.Enabled {
		engine, store, err := env.OpenStore(ctx)
		if err != nil {
			return err
		}
		h.OnShutdown(func(context.Context) error { return engine.Close() })
		opts.AutoSave = store
	}

	doc := service.NewDocumentService(sc, opts)
	h.OnShutdown(doc.Close)

	recovered, err := doc.Open(ctx)
	if err != nil {
		return errors.Join(err, h.Shutdown())
	}
	if recovered {
		fmt.Fprintf(env.Stdout, "recovered %d nodes from auto-save\n", len(sc.Nodes()))
	}

	prompt := repl.DefaultPrompt
	if c.NArg() == 1 {
		path := c.Args().First()
		prompt = "drawdoc:" + filepath.Base(path) + "> "
		blob, err := archive.ReadFile(path)
		if err != nil {
			return errors.Join(err, h.Shutdown())
		}
		if _, err := doc.Import(ctx, blob); err != nil {
			return errors.Join(fmt.Errorf("open %s: %w", path, err), h.Shutdown())
		}
		fmt.Fprintf(env.Stdout, "opened %s (%d nodes)\n", path, len(sc.Nodes()))
	}

	if w := watchConfig(env); w != nil {
		h.OnShutdown(func(context.Context) error { return w.Stop() })
	}

	shell := repl.New(
		repl.NewEditor(repl.EditorOptions{
			Document: doc,
			Scene:    sc,
			Metrics:  env.Metrics,
			Output:   env.Stdout,
			Format:   env.Format,
		}),
		repl.WithIO(env.Stdin, env.Stdout),
		repl.WithHistory(repl.NewHistory(filepath.Join(cfg.Storage.DataDir, repl.HistoryFile), 0)),
		repl.WithLogger(log),
		repl.WithPrompt(prompt),
	)

	runErr := shell.Run(ctx)
	if errors.Is(runErr, context.Canceled) {
		runErr = nil
	}
	return errors.Join(runErr, h.Shutdown())
}

// watchConfig reloads the config file on change and applies its log
// level. It returns nil when there is no file or it cannot be watched.
func watchConfig(env *Env) *confloader.Watcher {
	path := env.Loader.FilePath()
	if path == "" {
		return nil
	}
	w, err := confloader.NewWatcher(confloader.WithWatcherLogger(env.Logger))
	if err != nil {
		env.Logger.Warn("config watcher unavailable", "error", err)
		return nil
	}
	if err := w.Watch(path); err != nil {
		w.Stop()
		return nil
	}

	w.OnChange(func(string) {
		cfg, err := config.Reload(env.Loader)
		if err != nil {
			env.Logger.Warn("config reload rejected", "error", err)
			return
		}
		if err := logger.SetLevel(cfg.Log.Level); err != nil {
			env.Logger.Warn("config reload rejected", "error", err)
			return
		}
		env.Logger.Info("config reloaded", "log_level", cfg.Log.Level)
	})
	w.StartAsync()
	return w
}
