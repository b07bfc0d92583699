package command

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/drawdoc/internal/archive"
	"github.com/yndnr/drawdoc/internal/cli/output"
	"github.com/yndnr/drawdoc/internal/core/domain"
	"github.com/yndnr/drawdoc/internal/scene"
	"github.com/yndnr/drawdoc/internal/storage/autosave"
)

// storeTimeout bounds store access from one-shot commands.
const storeTimeout = 30 * time.Second

// AutoSaveCommand returns the autosave subcommand group.
func AutoSaveCommand() *cli.Command {
	return &cli.Command{
		Name:    "autosave",
		Aliases: []string{"as"},
		Usage:   "Inspect and manage the crash-recovery record",
		Subcommands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Show the saved record",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "scene",
						Usage: "Print the saved scene JSON instead of the summary",
					},
				},
				Action: autoSaveShow,
			},
			{
				Name:      "save",
				Usage:     "Store a scene JSON file as the record",
				ArgsUsage: "SCENE.json|-",
				Action:    autoSaveSave,
			},
			{
				Name:   "keys",
				Usage:  "List the store entries kept for the record",
				Action: autoSaveKeys,
			},
			{
				Name:   "clear",
				Usage:  "Delete the record",
				Action: autoSaveClear,
			},
			{
				Name:      "export",
				Usage:     "Pack the saved scene into a .draw archive",
				ArgsUsage: "OUT.draw",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "title",
						Aliases: []string{"t"},
						Usage:   "Document title",
					},
				},
				Action: autoSaveExport,
			},
		},
	}
}

// recordView is the printable record summary.
type recordView struct {
	Key       string        `json:"key"`
	Engine    string        `json:"engine"`
	SavedAt   time.Time     `json:"savedAt"`
	Age       time.Duration `json:"age"`
	MaxAge    time.Duration `json:"maxAge"`
	ExpiresAt time.Time     `json:"expiresAt"`
	Size      string        `json:"size"`
	Nodes     int           `json:"nodes"`
	Encrypted bool          `json:"encrypted"`
}

// entryView is one row of the keys listing.
type entryView struct {
	Key  string `json:"key"`
	Size string `json:"size"`
}

// withStore opens the store for one command and closes it afterwards.
func withStore(c *cli.Context, fn func(ctx context.Context, env *Env, store *autosave.Store) error) error {
	env, err := GetEnv(c)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Context, storeTimeout)
	defer cancel()

	engine, store, err := env.OpenStore(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := engine.Close(); err != nil {
			env.Logger.Warn("store close failed", "error", err)
		}
	}()
	return fn(ctx, env, store)
}

// loadRecord returns the record, or nil after printing why there is none.
func loadRecord(ctx context.Context, env *Env, store *autosave.Store) (*domain.Snapshot, error) {
	snap, res := store.Load(ctx)
	switch {
	case res.OK():
		return snap, nil
	case res.Outcome == autosave.OutcomeError:
		return nil, res.Err
	case res.Reason == autosave.ReasonAbsent:
		fmt.Fprintln(env.Stdout, "no auto-save record")
	default:
		fmt.Fprintf(env.Stdout, "auto-save record discarded (%s)\n", res.Reason)
	}
	return nil, nil
}

func autoSaveShow(c *cli.Context) error {
	return withStore(c, func(ctx context.Context, env *Env, store *autosave.Store) error {
		snap, err := loadRecord(ctx, env, store)
		if err != nil || snap == nil {
			return err
		}
		if c.Bool("scene") {
			_, err := fmt.Fprintln(env.Stdout, snap.JSON)
			return err
		}

		view := recordView{
			Key:       store.Key(),
			Engine:    env.Config.Storage.Engine,
			SavedAt:   snap.Time().UTC(),
			Age:       time.Since(snap.Time()).Round(time.Second),
			MaxAge:    store.MaxAge(),
			ExpiresAt: snap.Time().Add(store.MaxAge()).UTC(),
			Size:      output.Bytes(int64(len(snap.JSON))),
			Encrypted: env.Config.KeySource().Enabled(),
		}
		if sc, err := scene.Parse(snap.JSON); err == nil {
			view.Nodes = len(sc.Nodes())
		}
		return env.Print(view)
	})
}

func autoSaveSave(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("usage: drawdoc autosave save %s", c.Command.ArgsUsage)
	}
	return withStore(c, func(ctx context.Context, env *Env, store *autosave.Store) error {
		sceneJSON, err := env.readInput(c.Args().First())
		if err != nil {
			return err
		}
		if _, err := scene.Parse(string(sceneJSON)); err != nil {
			return err
		}
		if res := store.Save(ctx, string(sceneJSON)); !res.OK() {
			return fmt.Errorf("save record (%s): %w", res.Reason, res.Err)
		}
		fmt.Fprintf(env.Stdout, "saved %s under %s\n", output.Bytes(int64(len(sceneJSON))), store.Key())
		return nil
	})
}

func autoSaveClear(c *cli.Context) error {
	return withStore(c, func(ctx context.Context, env *Env, store *autosave.Store) error {
		if res := store.Clear(ctx); !res.OK() {
			return fmt.Errorf("clear record: %w", res.Err)
		}
		fmt.Fprintln(env.Stdout, "auto-save record cleared")
		return nil
	})
}

func autoSaveKeys(c *cli.Context) error {
	env, err := GetEnv(c)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Context, storeTimeout)
	defer cancel()

	engine, store, err := env.OpenStore(ctx)
	if err != nil {
		return err
	}
	defer engine.Close()

	var entries []entryView
	err = engine.Scan(ctx, []byte(store.Key()), func(key, value []byte) bool {
		entries = append(entries, entryView{Key: string(key), Size: output.Bytes(int64(len(value)))})
		return true
	})
	if err != nil {
		return fmt.Errorf("scan store: %w", err)
	}
	if len(entries) == 0 {
		fmt.Fprintln(env.Stdout, "no auto-save entries")
		return nil
	}
	return env.Print(entries)
}

func autoSaveExport(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("usage: drawdoc autosave export %s", c.Command.ArgsUsage)
	}
	out := c.Args().First()

	return withStore(c, func(ctx context.Context, env *Env, store *autosave.Store) error {
		snap, err := loadRecord(ctx, env, store)
		if err != nil || snap == nil {
			return err
		}
		sc, err := scene.Parse(snap.JSON)
		if err != nil {
			return err
		}

		res, err := env.Serializer().Pack(ctx, archive.PackRequest{
			SceneJSON: []byte(snap.JSON),
			Raster:    scene.NewRenderer(sc),
			Canvas:    sc.Canvas(),
			Title:     c.String("title"),
		})
		if err != nil {
			return err
		}
		if err := archive.WriteFile(out, res.Data); err != nil {
			return err
		}
		fmt.Fprintf(env.Stdout, "wrote %s (%s)\n", out, output.Bytes(int64(len(res.Data))))
		return nil
	})
}
