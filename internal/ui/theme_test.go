package ui

import "testing"

func TestStatusColorLookups(t *testing.T) {
	th := GetTheme("Dracula")
	styles := th.Styles()

	if got := styles.StatusColor("  Pending "); got != th.StatusColors["pending"] {
		t.Fatalf("StatusColor = %q, want %q", got, th.StatusColors["pending"])
	}
	if got := styles.StatusColor("unknown"); got != th.Muted {
		t.Fatalf("StatusColor unknown = %q, want %q", got, th.Muted)
	}
}

func TestThemesCoverStatuses(t *testing.T) {
	statuses := []string{"active", "draft", "completed", "cancelled", "pending", "approved", "rejected", "failed", "refunded", "revoked"}
	for _, name := range ThemeNames() {
		th := GetTheme(name)
		for _, s := range statuses {
			if th.StatusColors[s] == "" {
				t.Fatalf("theme %s has no color for %q", name, s)
			}
		}
	}
}

func TestThemeNames(t *testing.T) {
	names := ThemeNames()
	if len(names) != 2 {
		t.Fatalf("ThemeNames() returned %d names, want 2", len(names))
	}
	if names[0] != "Dracula" || names[1] != "Slate" {
		t.Fatalf("ThemeNames() = %v, want [Dracula Slate]", names)
	}
}

func TestNextTheme(t *testing.T) {
	if got := NextTheme("Dracula"); got != "Slate" {
		t.Fatalf("NextTheme(Dracula) = %q, want Slate", got)
	}
	if got := NextTheme("Slate"); got != "Dracula" {
		t.Fatalf("NextTheme(Slate) = %q, want Dracula", got)
	}
	if got := NextTheme("missing"); got != "Dracula" {
		t.Fatalf("NextTheme(missing) = %q, want Dracula", got)
	}
}

func TestGetTheme_FallsBack(t *testing.T) {
	if got := GetTheme("nope").Name; got != "Dracula" {
		t.Fatalf("GetTheme(nope) = %q, want Dracula", got)
	}
	if got := GetTheme("Slate").Name; got != "Slate" {
		t.Fatalf("GetTheme(Slate) = %q", got)
	}
}
