package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/alecthomas/kong"
	"github.com/ettle/strcase"
	"gopkg.in/yaml.v3"

	insight "github.com/goliatone/go-insight/components/insight"
	sdk "github.com/goliatone/go-insight/pkg/insight"
)

type cli struct {
	Render   renderCmd   `cmd:"" help:"Hydrate a static HTML page's declarative insight embeds against the backend."`
	Scaffold scaffoldCmd `cmd:"" help:"Add an embed entry to an insight manifest."`
}

type renderCmd struct {
	Input  string `arg:"" type:"path" help:"HTML file containing data-epai-* embed markup."`
	Output string `short:"o" type:"path" help:"Destination file (defaults to stdout)."`
}

type scaffoldCmd struct {
	InsightID      string   `required:"" help:"Insight identifier to embed."`
	ContainerID    string   `help:"Container element id (defaults to insight-<slug>)."`
	Theme          string   `default:"light" help:"Embed theme (light or dark)."`
	Compact        bool     `help:"Render the compact badge layout."`
	HideTitle      bool     `help:"Suppress the title row."`
	HideConfidence bool     `help:"Suppress the confidence badge."`
	Tag            []string `help:"Optional tags to include in the manifest (use multiple --tag flags)."`
	ManifestPath   string   `required:"" type:"path" help:"Path to the embed manifest YAML file to update."`
	Overwrite      bool     `help:"Overwrite an existing entry for the same container."`
}

func main() {
	ctx := kong.Parse(&cli{},
		kong.Description("Embed tooling for go-insight pages and manifests."),
		kong.UsageOnError(),
	)
	err := ctx.Run(context.Background())
	ctx.FatalIfErrorf(err)
}

func (cmd *renderCmd) Run(ctx context.Context) error {
	file, err := os.Open(cmd.Input) //nolint:gosec
	if err != nil {
		return fmt.Errorf("insightctl: open page: %w", err)
	}
	doc, err := insight.ParseDocument(file)
	file.Close()
	if err != nil {
		return err
	}

	_, results, err := sdk.AutoInit(ctx, doc, insight.WithAutoInitChart(insight.NewEChartsTrend()))
	if err != nil {
		return err
	}
	for _, result := range results {
		if result.Err != nil {
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", result.Options.ContainerID, result.Err)
		}
	}

	markup, err := doc.HTML()
	if err != nil {
		return err
	}
	if cmd.Output == "" {
		fmt.Fprint(os.Stdout, markup)
		return nil
	}
	if err := os.WriteFile(cmd.Output, []byte(markup), 0o644); err != nil {
		return fmt.Errorf("insightctl: write page: %w", err)
	}
	fmt.Fprintf(os.Stdout, "✓ Hydrated %d embeds into %s\n", len(results), cmd.Output)
	return nil
}

func (cmd *scaffoldCmd) Run(_ context.Context) error {
	manifestPath, err := filepath.Abs(cmd.ManifestPath)
	if err != nil {
		return fmt.Errorf("insightctl: resolve manifest path: %w", err)
	}
	doc, err := loadOrInitManifest(manifestPath)
	if err != nil {
		return err
	}

	containerID := cmd.ContainerID
	if containerID == "" {
		containerID = "insight-" + strcase.ToKebab(cmd.InsightID)
	}
	if !cmd.Overwrite {
		for _, embed := range doc.Embeds {
			if embed.ContainerID == containerID {
				return fmt.Errorf("insightctl: manifest already defines container %s (use --overwrite to replace)", containerID)
			}
		}
	}

	showTitle := !cmd.HideTitle
	showConfidence := !cmd.HideConfidence
	entry := insight.ManifestEmbed{
		InsightID:      cmd.InsightID,
		ContainerID:    containerID,
		Theme:          cmd.Theme,
		Compact:        cmd.Compact,
		ShowTitle:      &showTitle,
		ShowConfidence: &showConfidence,
		Tags:           cmd.Tag,
	}

	if cmd.Overwrite {
		replaced := false
		for idx := range doc.Embeds {
			if doc.Embeds[idx].ContainerID == containerID {
				doc.Embeds[idx] = entry
				replaced = true
				break
			}
		}
		if !replaced {
			doc.Embeds = append(doc.Embeds, entry)
		}
	} else {
		doc.Embeds = append(doc.Embeds, entry)
	}

	sort.Slice(doc.Embeds, func(i, j int) bool {
		return doc.Embeds[i].ContainerID < doc.Embeds[j].ContainerID
	})

	if err := writeManifest(manifestPath, doc); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "✓ Added %s to %s\n", containerID, manifestPath)
	return nil
}

func loadOrInitManifest(path string) (*insight.EmbedManifestDocument, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &insight.EmbedManifestDocument{
				Version: insight.ManifestVersion,
				Embeds:  []insight.ManifestEmbed{},
				Source:  path,
			}, nil
		}
		return nil, fmt.Errorf("insightctl: stat manifest: %w", err)
	}
	return insight.ReadManifest(path)
}

func writeManifest(path string, doc *insight.EmbedManifestDocument) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("insightctl: mkdir %s: %w", filepath.Dir(path), err)
	}
	tmpDoc := *doc
	tmpDoc.Source = ""

	file, err := os.Create(path) //nolint:gosec
	if err != nil {
		return fmt.Errorf("insightctl: create manifest %s: %w", path, err)
	}
	defer file.Close()

	encoder := yaml.NewEncoder(file)
	encoder.SetIndent(2)
	defer encoder.Close()
	if err := encoder.Encode(tmpDoc); err != nil {
		return fmt.Errorf("insightctl: write manifest: %w", err)
	}
	return nil
}
