package command

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/drawdoc/internal/archive"
	"github.com/yndnr/drawdoc/internal/cli/output"
	"github.com/yndnr/drawdoc/internal/config"
	"github.com/yndnr/drawdoc/internal/infra/confloader"
	"github.com/yndnr/drawdoc/internal/storage"
	"github.com/yndnr/drawdoc/internal/storage/autosave"
	"github.com/yndnr/drawdoc/internal/telemetry/logger"
	"github.com/yndnr/drawdoc/internal/telemetry/metric"
)

const envKey = "env"

// Env is the per-run state shared by commands.
type Env struct {
	Config  *config.Config
	Loader  *confloader.Loader
	Logger  *slog.Logger
	Metrics *metric.Registry
	Format  output.Format
	Wide    bool

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// setup loads configuration and builds the logger before any command.
func setup(c *cli.Context) error {
	flags := ParseGlobalFlags(c)

	format, err := output.ParseFormat(flags.Output)
	if err != nil {
		return err
	}

	cfg, loader, err := config.Load(flags.Config, flags.overrides())
	if err != nil {
		return err
	}

	lc := cfg.Logger()
	lc.Output = c.App.ErrWriter
	log, err := logger.New(lc)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logger.SetDefault(log)
	c.Context = logger.WithLogger(c.Context, log)

	c.App.Metadata[envKey] = &Env{
		Config:  cfg,
		Loader:  loader,
		Logger:  log,
		Metrics: metric.NewRegistry(),
		Format:  format,
		Wide:    flags.Wide,
		Stdin:   c.App.Reader,
		Stdout:  c.App.Writer,
		Stderr:  c.App.ErrWriter,
	}
	return nil
}

func teardown(c *cli.Context) error {
	delete(c.App.Metadata, envKey)
	return nil
}

// GetEnv retrieves the environment built by setup.
func GetEnv(c *cli.Context) (*Env, error) {
	if env, ok := c.App.Metadata[envKey].(*Env); ok {
		return env, nil
	}
	return nil, fmt.Errorf("command environment not initialised")
}

// Print writes data in the selected output format.
func (e *Env) Print(data any) error {
	return output.NewFormatter(e.Format, e.Wide).Format(e.Stdout, data)
}

// Serializer returns an archive serializer built from the configuration.
func (e *Env) Serializer() *archive.Serializer {
	return archive.NewSerializer(e.Config.ArchiveConfig(), e.Logger, e.Metrics)
}

// OpenStore opens the configured engine and the auto-save store over it.
// The caller closes the engine.
func (e *Env) OpenStore(ctx context.Context) (storage.KVEngine, *autosave.Store, error) {
	engine, err := storage.Open(e.Config.KV(), e.Logger, e.Metrics.Prometheus())
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}

	cipher, err := autosave.NewCipher(ctx, engine, e.Config.AutoSave.Key, e.Config.KeySource())
	if err != nil {
		engine.Close()
		return nil, nil, fmt.Errorf("auto-save encryption: %w", err)
	}

	store := autosave.NewStore(engine, autosave.Options{
		Key:     e.Config.AutoSave.Key,
		MaxAge:  e.Config.AutoSave.MaxAge,
		Cipher:  cipher,
		Logger:  e.Logger,
		Metrics: e.Metrics,
	})
	return engine, store, nil
}

// readInput reads a file, or stdin when path is "-".
func (e *Env) readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(e.Stdin)
	}
	return readFile(path)
}
