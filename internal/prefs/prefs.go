// Package prefs remembers what backer restores on the next launch: the
// colour theme and the screen to open on.
package prefs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/five82/backer/internal/config"
	"github.com/five82/backer/internal/screens"
)

// DefaultTheme is used when no theme has been saved.
const DefaultTheme = "Dracula"

const defaultPath = "~/.config/backer/prefs.toml"

// ErrUnknownScreen marks a start_screen that names no admin screen.
var ErrUnknownScreen = errors.New("unknown start screen")

// Prefs is the persisted state. An empty StartScreen opens the first screen.
type Prefs struct {
	Theme       string `toml:"theme"`
	StartScreen string `toml:"start_screen,omitempty"`
}

// DefaultPath returns the preferences file used when none is given.
func DefaultPath() string {
	return defaultPath
}

// Load reads the preferences at path ("" for DefaultPath).
//
// A missing file is not an error. An unreadable or malformed file yields the
// defaults together with the error. An unknown start_screen is dropped while
// the rest of the file is kept, and ErrUnknownScreen is returned.
func Load(path string) (Prefs, error) {
	defaults := Prefs{Theme: DefaultTheme}

	file, err := resolve(path)
	if err != nil {
		return defaults, err
	}
	data, err := os.ReadFile(file)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return defaults, nil
	case err != nil:
		return defaults, fmt.Errorf("read prefs: %w", err)
	}

	var p Prefs
	if err := toml.Unmarshal(data, &p); err != nil {
		return defaults, fmt.Errorf("parse prefs %s: %w", file, err)
	}
	return p.normalize()
}

// Save writes p to path ("" for DefaultPath). It refuses a start screen that
// Load would drop.
func Save(path string, p Prefs) error {
	p, err := p.normalize()
	if err != nil {
		return err
	}
	file, err := resolve(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}
	data, err := toml.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode prefs: %w", err)
	}

	// Replace in one step so a crash never leaves half a file.
	tmp := file + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	if err := os.Rename(tmp, file); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace prefs: %w", err)
	}
	return nil
}

func (p Prefs) normalize() (Prefs, error) {
	p.Theme = strings.TrimSpace(p.Theme)
	if p.Theme == "" {
		p.Theme = DefaultTheme
	}
	p.StartScreen = strings.TrimSpace(p.StartScreen)
	if p.StartScreen == "" {
		return p, nil
	}
	if _, ok := screens.ByID(p.StartScreen); !ok {
		unknown := p.StartScreen
		p.StartScreen = ""
		return p, fmt.Errorf("%w %q", ErrUnknownScreen, unknown)
	}
	return p, nil
}

func resolve(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		path = defaultPath
	}
	file, err := config.ExpandPath(path)
	if err != nil {
		return "", fmt.Errorf("resolve prefs path: %w", err)
	}
	return file, nil
}
