package command

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/drawdoc/internal/archive"
	"github.com/yndnr/drawdoc/internal/scene"
)

// PreviewCommand returns the preview command.
func PreviewCommand() *cli.Command {
	return &cli.Command{
		Name:      "preview",
		Usage:     "Extract the thumbnail of a .draw archive as PNG",
		ArgsUsage: "FILE.draw",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"f"},
				Usage:   "PNG to write (default: FILE.png)",
			},
			&cli.BoolFlag{
				Name:  "render",
				Usage: "Render the scene when the archive has no thumbnail",
			},
		},
		Action: previewAction,
	}
}

func previewAction(c *cli.Context) error {
	env, err := GetEnv(c)
	if err != nil {
		return err
	}
	if c.NArg() != 1 {
		return fmt.Errorf("usage: drawdoc preview %s", c.Command.ArgsUsage)
	}
	src := c.Args().First()

	out := c.String("out")
	if out == "" {
		out = strings.TrimSuffix(src, filepath.Ext(src)) + ".png"
	}

	blob, err := archive.ReadFile(src)
	if err != nil {
		return err
	}
	s := env.Serializer()

	data := s.Preview(blob)
	if data == nil {
		if !c.Bool("render") {
			return fmt.Errorf("%s has no thumbnail (use --render to draw one)", src)
		}
		if data, err = renderPreview(c.Context, env, s, blob); err != nil {
			return err
		}
	}

	if err := os.WriteFile(out, data, 0o644); err != nil {
		return err
	}
	fmt.Fprintf(env.Stdout, "wrote %s\n", out)
	return nil
}

// renderPreview rasterizes the archive's scene at thumbnail size.
func renderPreview(ctx context.Context, env *Env, s *archive.Serializer, blob []byte) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, archiveTimeout)
	defer cancel()

	res := s.Unpack(ctx, blob)
	if !res.Success {
		return nil, fmt.Errorf("archive rejected (%s): %w", res.Reason, res.Err)
	}
	sc, err := scene.Parse(string(res.SceneJSON))
	if err != nil {
		return nil, err
	}
	img, err := scene.NewRenderer(sc).Render()
	if err != nil {
		return nil, fmt.Errorf("render scene: %w", err)
	}
	cfg := env.Config.ArchiveConfig()
	return archive.Thumbnail(img, cfg.ThumbnailWidth, cfg.ThumbnailHeight)
}
