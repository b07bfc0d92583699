package command

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/drawdoc/internal/archive"
	"github.com/yndnr/drawdoc/internal/cli/output"
	"github.com/yndnr/drawdoc/internal/telemetry/logger"
)

// UnpackCommand returns the unpack command.
func UnpackCommand() *cli.Command {
	return &cli.Command{
		Name:      "unpack",
		Usage:     "Restore the scene JSON (and optionally the assets) from a .draw archive",
		ArgsUsage: "FILE.draw",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "scene",
				Aliases: []string{"s"},
				Usage:   "Write the restored scene here instead of stdout",
			},
			&cli.StringFlag{
				Name:    "assets",
				Aliases: []string{"a"},
				Usage:   "Also extract asset files into this directory",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Indent the scene JSON",
			},
		},
		Action: unpackAction,
	}
}

func unpackAction(c *cli.Context) error {
	env, err := GetEnv(c)
	if err != nil {
		return err
	}
	if c.NArg() != 1 {
		return fmt.Errorf("usage: drawdoc unpack %s", c.Command.ArgsUsage)
	}
	src := c.Args().First()

	blob, err := archive.ReadFile(src)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Context, archiveTimeout)
	defer cancel()

	res := env.Serializer().Unpack(ctx, blob)
	if !res.Success {
		return fmt.Errorf("%s rejected (%s): %w", src, res.Reason, res.Err)
	}
	ctx = logger.WithDocumentID(ctx, res.Manifest.DocumentID)
	for _, id := range res.Unresolved {
		PrintWarning(c, "asset %s is referenced but missing", id)
	}
	logger.L(ctx).Debug("archive unpacked", "path", src, "assets", len(res.Assets), "unresolved", len(res.Unresolved))

	sceneJSON := res.SceneJSON
	if c.Bool("pretty") {
		var buf bytes.Buffer
		if err := json.Indent(&buf, sceneJSON, "", "  "); err != nil {
			return err
		}
		sceneJSON = buf.Bytes()
	}
	sceneJSON = append(sceneJSON, '\n')

	if dest := c.String("scene"); dest != "" {
		if err := os.WriteFile(dest, sceneJSON, 0o644); err != nil {
			return err
		}
	} else if _, err := env.Stdout.Write(sceneJSON); err != nil {
		return err
	}

	if dir := c.String("assets"); dir != "" {
		return extractAssets(env, res, dir)
	}
	return nil
}

// extractAssets writes every asset under dir using its archive filename.
func extractAssets(env *Env, res *archive.UnpackResult, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	progress := output.NewProgress(env.Stderr, "Extracting assets", len(res.Manifest.Assets))
	for _, ref := range res.Manifest.Assets {
		asset, ok := res.Assets[ref.ID]
		if !ok {
			progress.Step()
			continue
		}
		name := filepath.Base(ref.Filename)
		if err := os.WriteFile(filepath.Join(dir, name), asset.Data, 0o644); err != nil {
			return err
		}
		progress.Step()
	}
	progress.Finish()
	return nil
}
