// Package config handles loading the backer configuration file.
//
// # Overview
//
// This package reads a small TOML file describing how to reach the
// crowdfunding platform API: the REST base URL, the notification WebSocket,
// the bearer token, and where to write logs and exports.
//
// # Configuration Discovery
//
// The Load function follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/backer/config.toml (default)
//  3. If the config file doesn't exist, fall back to hardcoded defaults
//  4. If the file exists but fields are missing/empty, use defaults
//  5. BACKER_TOKEN and BACKER_API_URL override whatever the file says
//
// LoadDotEnv is called by the CLI before Load so a .env file in the working
// directory can provide those variables.
//
// # Default Values
//
//   - Config file: ~/.config/backer/config.toml
//   - API URL: http://127.0.0.1:8000/api
//   - WebSocket URL: derived from the API URL (ws[s]://host/ws/notifications/)
//   - Log file: ~/.local/state/backer/backer.log
//   - Export directory: ~/Downloads
//   - Request timeout: 10s
//   - Statistics poll: 15s
//
// # TOML Format
//
// Example config.toml:
//
//	api_url = "https://admin.example.org/api"
//	token = "..."
//	log_file = "~/.local/state/backer/backer.log"
//	export_dir = "~/exports"
//	request_timeout = "5s"
//	poll_seconds = 30
//
// Every field is optional. Tilde expansion is performed for paths.
//
// # Error Handling
//
// Load returns errors for:
//   - Path expansion failures (e.g., cannot determine home directory)
//   - File read errors (except os.ErrNotExist, which triggers defaults)
//   - TOML parsing errors and unparseable durations
//
// Missing config files are NOT an error - defaults are used instead.
//
// # Usage Example
//
//	if err := config.LoadDotEnv(""); err != nil {
//		return err
//	}
//	cfg, err := config.Load("")
//	if err != nil {
//		return fmt.Errorf("load config: %w", err)
//	}
//	client, err := platform.NewClient(cfg.APIURL, platform.Options{
//		Token:   cfg.Token,
//		Timeout: cfg.RequestTimeout,
//	})
package config
