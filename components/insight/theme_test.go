package insight

import (
	"strings"
	"testing"
)

func TestPaletteForFallsBackToLight(t *testing.T) {
	if got := PaletteFor("mystery").Name; got != ThemeLight {
		t.Fatalf("expected light fallback, got %q", got)
	}
	if got := PaletteFor(ThemeDark).Name; got != ThemeDark {
		t.Fatalf("expected dark palette, got %q", got)
	}
}

func TestTokensInlineCarriesEveryToken(t *testing.T) {
	inline := PaletteFor(ThemeDark).TokensInline()
	for _, token := range []string{"--epai-background", "--epai-text", "--epai-accent"} {
		if !strings.Contains(inline, token) {
			t.Fatalf("expected %s in %q", token, inline)
		}
	}
}

func TestStylesheetUsesTokens(t *testing.T) {
	if !strings.Contains(defaultStylesheet, "var(--epai-background") {
		t.Fatalf("expected stylesheet to consume theme tokens")
	}
	if !strings.Contains(defaultStylesheet, ".epai-insight-card") {
		t.Fatalf("expected card rules in stylesheet")
	}
}
