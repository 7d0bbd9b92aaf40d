package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/five82/backer/internal/config"
	"github.com/five82/backer/internal/platform"
	"github.com/five82/backer/internal/screens"
)

// ExportOptions configure a one-shot export from the command line.
type ExportOptions struct {
	ConfigPath string
	EnvPath    string
	Screen     string            // screen id, e.g. "finances"
	Filters    map[string]string // sent as query parameters
	Output     string            // file path; "-" writes to Stdout; empty saves under export_dir
	Stdout     io.Writer
}

// Export downloads the CSV export of a screen's resource and returns where
// it was written.
func Export(ctx context.Context, opts ExportOptions) (string, error) {
	screen, ok := screens.ByID(opts.Screen)
	if !ok {
		return "", fmt.Errorf("unknown screen %q", opts.Screen)
	}
	if !screen.Exportable {
		return "", fmt.Errorf("screen %q does not support export", opts.Screen)
	}

	if err := config.LoadDotEnv(opts.EnvPath); err != nil {
		return "", err
	}
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return "", fmt.Errorf("load config: %w", err)
	}
	client, err := platform.NewClient(cfg.APIURL, platform.Options{Token: cfg.Token, Timeout: cfg.RequestTimeout})
	if err != nil {
		return "", fmt.Errorf("init platform client: %w", err)
	}

	data, err := client.Export(ctx, screen.Resource, opts.Filters)
	if err != nil {
		return "", fmt.Errorf("export %s: %w", screen.Resource, err)
	}

	switch opts.Output {
	case "-":
		out := opts.Stdout
		if out == nil {
			out = os.Stdout
		}
		if _, err := out.Write(data); err != nil {
			return "", fmt.Errorf("write export: %w", err)
		}
		return "-", nil
	case "":
		return saveExport(cfg.ExportDir, screen.Resource, data, time.Now())
	default:
		if err := writeFile(opts.Output, data); err != nil {
			return "", err
		}
		return opts.Output, nil
	}
}

// saveExport writes data to dir as <resource>-<timestamp>.csv.
func saveExport(dir string, resource platform.Resource, data []byte, now time.Time) (string, error) {
	name := fmt.Sprintf("%s-%s.csv", resource, now.Format("20060102-150405"))
	path := filepath.Join(dir, name)
	if err := writeFile(path, data); err != nil {
		return "", err
	}
	return path, nil
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	return nil
}
