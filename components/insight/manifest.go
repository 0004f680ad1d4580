package insight

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	manifestVersionV1 = "1"
	// ManifestVersion exposes the current manifest format version for tooling.
	ManifestVersion = manifestVersionV1
)

// EmbedManifestDocument models a YAML/JSON manifest describing the embeds a
// page should hydrate. Tooling reads these instead of data attributes when
// embeds are managed out of band.
type EmbedManifestDocument struct {
	Version string          `json:"version" yaml:"version"`
	Name    string          `json:"name,omitempty" yaml:"name,omitempty"`
	Theme   string          `json:"theme,omitempty" yaml:"theme,omitempty"`
	Embeds  []ManifestEmbed `json:"embeds" yaml:"embeds"`
	Source  string          `json:"-" yaml:"-"`
}

// ManifestEmbed describes a single embed entry within a manifest.
type ManifestEmbed struct {
	InsightID      string   `json:"insight_id" yaml:"insight_id"`
	ContainerID    string   `json:"container_id" yaml:"container_id"`
	Theme          string   `json:"theme,omitempty" yaml:"theme,omitempty"`
	Compact        bool     `json:"compact,omitempty" yaml:"compact,omitempty"`
	ShowTitle      *bool    `json:"show_title,omitempty" yaml:"show_title,omitempty"`
	ShowConfidence *bool    `json:"show_confidence,omitempty" yaml:"show_confidence,omitempty"`
	Tags           []string `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// RenderOptions converts a manifest entry into widget render options,
// inheriting the document theme when the entry does not set one.
func (e ManifestEmbed) RenderOptions(docTheme string) RenderOptions {
	theme := e.Theme
	if theme == "" {
		theme = docTheme
	}
	return RenderOptions{
		InsightID:      e.InsightID,
		ContainerID:    e.ContainerID,
		Theme:          theme,
		ShowTitle:      e.ShowTitle,
		ShowConfidence: e.ShowConfidence,
		Compact:        e.Compact,
	}
}

// ReadManifest loads a manifest file from disk.
func ReadManifest(path string) (*EmbedManifestDocument, error) {
	f, err := os.Open(path) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("insight: open manifest %s: %w", path, err)
	}
	defer f.Close()
	doc, err := DecodeManifest(f)
	if err != nil {
		return nil, fmt.Errorf("insight: decode manifest %s: %w", path, err)
	}
	doc.Source = path
	return doc, nil
}

// DecodeManifest reads a manifest from any reader.
func DecodeManifest(r io.Reader) (*EmbedManifestDocument, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	var doc EmbedManifestDocument
	if err := decoder.Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("insight: manifest is empty")
		}
		return nil, fmt.Errorf("insight: parse manifest: %w", err)
	}
	doc.applyDefaults()
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Validate ensures the manifest satisfies required fields.
func (doc *EmbedManifestDocument) Validate() error {
	if doc.Version != manifestVersionV1 {
		return fmt.Errorf("insight: unsupported manifest version %q", doc.Version)
	}
	seen := make(map[string]struct{}, len(doc.Embeds))
	for idx, embed := range doc.Embeds {
		if embed.InsightID == "" {
			return fmt.Errorf("insight: manifest embed at index %d is missing insight_id", idx)
		}
		if embed.ContainerID == "" {
			return fmt.Errorf("insight: manifest embed %s missing container_id", embed.InsightID)
		}
		if _, exists := seen[embed.ContainerID]; exists {
			return fmt.Errorf("insight: manifest duplicates container_id %s", embed.ContainerID)
		}
		seen[embed.ContainerID] = struct{}{}
	}
	return nil
}

func (doc *EmbedManifestDocument) applyDefaults() {
	if doc.Version == "" {
		doc.Version = manifestVersionV1
	}
	if doc.Theme == "" {
		doc.Theme = ThemeLight
	}
}
