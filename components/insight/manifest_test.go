package insight

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeManifest(t *testing.T) {
	const payload = `
version: 1
name: partner-portal
theme: dark
embeds:
  - insight_id: ins-churn-q3
    container_id: churn-slot
    compact: true
    show_title: false
    tags: ["churn","quarterly"]
  - insight_id: ins-ltv
    container_id: ltv-slot
    theme: light
`
	doc, err := DecodeManifest(strings.NewReader(payload))
	require.NoError(t, err)
	require.Len(t, doc.Embeds, 2)

	first := doc.Embeds[0]
	assert.Equal(t, "ins-churn-q3", first.InsightID)
	assert.Equal(t, "churn-slot", first.ContainerID)
	assert.True(t, first.Compact)
	require.NotNil(t, first.ShowTitle)
	assert.False(t, *first.ShowTitle)

	opts := first.RenderOptions(doc.Theme)
	assert.Equal(t, "dark", opts.Theme)

	second := doc.Embeds[1].RenderOptions(doc.Theme)
	assert.Equal(t, "light", second.Theme)
}

func TestDecodeManifestRejectsUnknownFields(t *testing.T) {
	_, err := DecodeManifest(strings.NewReader("version: 1\nwidgets: []\n"))
	require.Error(t, err)
}

func TestManifestValidation(t *testing.T) {
	_, err := DecodeManifest(strings.NewReader(`
version: 1
embeds:
  - container_id: slot
`))
	require.ErrorContains(t, err, "missing insight_id")

	_, err = DecodeManifest(strings.NewReader(`
version: 1
embeds:
  - insight_id: a
    container_id: slot
  - insight_id: b
    container_id: slot
`))
	require.ErrorContains(t, err, "duplicates container_id")

	_, err = DecodeManifest(strings.NewReader("version: 9\nembeds: []\n"))
	require.ErrorContains(t, err, "unsupported manifest version")
}

func TestReadManifestRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "embeds.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
version: 1
embeds:
  - insight_id: ins-1
    container_id: slot-1
`), 0o644))

	doc, err := ReadManifest(path)
	require.NoError(t, err)
	assert.Equal(t, path, doc.Source)
	assert.Equal(t, ThemeLight, doc.Theme)
	require.Len(t, doc.Embeds, 1)
}

func TestDecodeManifestEmpty(t *testing.T) {
	_, err := DecodeManifest(strings.NewReader(""))
	require.ErrorContains(t, err, "manifest is empty")
}
