package command

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/drawdoc/internal/archive"
	"github.com/yndnr/drawdoc/internal/cli/output"
	"github.com/yndnr/drawdoc/internal/scene"
)

// archiveTimeout bounds a single pack or unpack.
const archiveTimeout = 2 * time.Minute

// PackCommand returns the pack command.
func PackCommand() *cli.Command {
	return &cli.Command{
		Name:      "pack",
		Usage:     "Pack a scene JSON file into a .draw archive",
		ArgsUsage: "SCENE.json|-",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"f"},
				Usage:   "Archive to write (default: SCENE.draw)",
			},
			&cli.StringFlag{
				Name:    "title",
				Aliases: []string{"t"},
				Usage:   "Document title",
			},
		},
		Action: packAction,
	}
}

// packSummary is printed after a successful pack.
type packSummary struct {
	File       string   `json:"file"`
	Size       string   `json:"size"`
	DocumentID string   `json:"documentId"`
	Title      string   `json:"title"`
	Assets     int      `json:"assets"`
	Thumbnail  bool     `json:"thumbnail"`
	Skipped    []string `json:"skipped,omitempty" table:"wide"`
}

func packAction(c *cli.Context) error {
	env, err := GetEnv(c)
	if err != nil {
		return err
	}
	if c.NArg() != 1 {
		return fmt.Errorf("usage: drawdoc pack %s", c.Command.ArgsUsage)
	}
	src := c.Args().First()

	out := c.String("out")
	if out == "" {
		if src == "-" {
			return fmt.Errorf("--out is required when reading from stdin")
		}
		out = strings.TrimSuffix(src, filepath.Ext(src)) + archive.Extension
	}

	sceneJSON, err := env.readInput(src)
	if err != nil {
		return err
	}
	sc, err := scene.Parse(string(sceneJSON))
	if err != nil {
		return fmt.Errorf("%s: %w", src, err)
	}

	ctx, cancel := context.WithTimeout(c.Context, archiveTimeout)
	defer cancel()

	spin := output.NewSpinner(env.Stderr, "Packing "+src)
	spin.Start()
	res, err := env.Serializer().Pack(ctx, archive.PackRequest{
		SceneJSON: sceneJSON,
		Raster:    scene.NewRenderer(sc),
		Canvas:    sc.Canvas(),
		Title:     c.String("title"),
	})
	if err != nil {
		spin.Fail("pack failed")
		return err
	}
	if err := archive.WriteFile(out, res.Data); err != nil {
		spin.Fail("write failed")
		return err
	}
	spin.Stop()

	if res.ThumbnailErr != nil {
		PrintWarning(c, "archive has no thumbnail: %v", res.ThumbnailErr)
	}
	summary := packSummary{
		File:       out,
		Size:       output.Bytes(int64(len(res.Data))),
		DocumentID: res.Manifest.DocumentID,
		Title:      res.Manifest.Title,
		Assets:     len(res.Manifest.Assets),
		Thumbnail:  res.ThumbnailErr == nil,
	}
	for _, sk := range res.Skipped {
		PrintWarning(c, "%s kept inline: %v", sk.Path, sk.Cause)
		summary.Skipped = append(summary.Skipped, sk.Path)
	}
	return env.Print(summary)
}

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}
