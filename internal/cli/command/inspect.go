package command

import (
	"fmt"
	"sort"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/drawdoc/internal/archive"
	"github.com/yndnr/drawdoc/internal/core/domain"
)

// InspectCommand returns the inspect command.
func InspectCommand() *cli.Command {
	return &cli.Command{
		Name:      "inspect",
		Usage:     "Show the manifest of a .draw archive",
		ArgsUsage: "FILE.draw",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "assets",
				Usage: "List the asset index instead of the summary",
			},
			&cli.StringFlag{
				Name:  "asset",
				Usage: "Show one asset index entry by `ID`",
			},
		},
		Action: inspectAction,
	}
}

// manifestView is the printable manifest summary.
type manifestView struct {
	Format     string    `json:"format"`
	Version    string    `json:"version"`
	DocumentID string    `json:"documentId"`
	Title      string    `json:"title"`
	Generator  string    `json:"generator" table:"wide"`
	Created    time.Time `json:"created"`
	Modified   time.Time `json:"modified"`
	Canvas     string    `json:"canvas"`
	Assets     int       `json:"assets"`
	Thumbnail  bool      `json:"thumbnail"`
	Extensions []string  `json:"extensions,omitempty" table:"wide"`
}

func newManifestView(m *domain.Manifest, hasPreview bool) manifestView {
	v := manifestView{
		Format:     m.Format,
		Version:    m.Version,
		DocumentID: m.DocumentID,
		Title:      m.Title,
		Generator:  m.Generator,
		Canvas:     fmt.Sprintf("%dx%d %s", m.Canvas.Width, m.Canvas.Height, m.Canvas.BackgroundColor),
		Assets:     len(m.Assets),
		Thumbnail:  hasPreview,
	}
	if m.Created > 0 {
		v.Created = time.UnixMilli(m.Created).UTC()
	}
	if m.Modified > 0 {
		v.Modified = time.UnixMilli(m.Modified).UTC()
	}
	for name := range m.Extensions {
		v.Extensions = append(v.Extensions, name)
	}
	sort.Strings(v.Extensions)
	return v
}

func inspectAction(c *cli.Context) error {
	env, err := GetEnv(c)
	if err != nil {
		return err
	}
	if c.NArg() != 1 {
		return fmt.Errorf("usage: drawdoc inspect %s", c.Command.ArgsUsage)
	}

	blob, err := archive.ReadFile(c.Args().First())
	if err != nil {
		return err
	}
	s := env.Serializer()
	m, err := s.ReadManifest(blob)
	if err != nil {
		return err
	}

	if id := c.String("asset"); id != "" {
		ref, ok := m.Asset(id)
		if !ok {
			return fmt.Errorf("asset %q not in manifest", id)
		}
		return env.Print(ref)
	}
	if c.Bool("assets") {
		if m.Assets == nil {
			m.Assets = []domain.AssetRef{}
		}
		return env.Print(m.Assets)
	}
	return env.Print(newManifestView(m, s.Preview(blob) != nil))
}
