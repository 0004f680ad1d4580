package insight

import "strings"

// Theme names accepted by the widget.
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

// Palette carries the color tokens one theme exposes to templates and the
// trend chart renderer.
type Palette struct {
	Name       string
	Background string
	Surface    string
	Text       string
	Muted      string
	Border     string
	Accent     string
}

var palettes = map[string]Palette{
	ThemeLight: {
		Name:       ThemeLight,
		Background: "#ffffff",
		Surface:    "#f3f4f6",
		Text:       "#1f2937",
		Muted:      "#6b7280",
		Border:     "rgba(229, 231, 235, 0.8)",
		Accent:     "#2563eb",
	},
	ThemeDark: {
		Name:       ThemeDark,
		Background: "#111827",
		Surface:    "#1f2937",
		Text:       "#e5e7eb",
		Muted:      "#9ca3af",
		Border:     "rgba(55, 65, 81, 0.8)",
		Accent:     "#60a5fa",
	},
}

// PaletteFor resolves a theme name to its palette, defaulting to light for
// unknown names.
func PaletteFor(theme string) Palette {
	if p, ok := palettes[normalizeTheme(theme)]; ok {
		return p
	}
	return palettes[ThemeLight]
}

func normalizeTheme(theme string) string {
	theme = strings.ToLower(strings.TrimSpace(theme))
	if theme != ThemeDark {
		return ThemeLight
	}
	return ThemeDark
}

// Tokens returns the palette as a CSS custom-property map.
func (p Palette) Tokens() map[string]string {
	return map[string]string{
		"--epai-background": p.Background,
		"--epai-surface":    p.Surface,
		"--epai-text":       p.Text,
		"--epai-muted":      p.Muted,
		"--epai-border":     p.Border,
		"--epai-accent":     p.Accent,
	}
}

// TokensInline renders the token map as an inline style string.
func (p Palette) TokensInline() string {
	tokens := p.Tokens()
	keys := []string{
		"--epai-background",
		"--epai-surface",
		"--epai-text",
		"--epai-muted",
		"--epai-border",
		"--epai-accent",
	}
	var builder strings.Builder
	for _, key := range keys {
		value := tokens[key]
		if value == "" {
			continue
		}
		builder.WriteString(key)
		builder.WriteString(": ")
		builder.WriteString(value)
		builder.WriteString("; ")
	}
	return strings.TrimSpace(builder.String())
}
