package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/five82/backer/internal/app"
)

type rootFlags struct {
	configPath string
	prefsPath  string
	envPath    string
	poll       time.Duration
	debug      bool
}

func (f *rootFlags) options() app.Options {
	return app.Options{
		ConfigPath: f.configPath,
		PrefsPath:  f.prefsPath,
		EnvPath:    f.envPath,
		PollEvery:  f.poll,
		Debug:      f.debug,
	}
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:           "backer",
		Short:         "Terminal admin console for the crowdfunding platform.",
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.Run(cmd.Context(), flags.options())
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "config file (default ~/.config/backer/config.toml)")
	pf.StringVar(&flags.prefsPath, "prefs", "", "preferences file (default ~/.config/backer/prefs.toml)")
	pf.StringVar(&flags.envPath, "env", "", "dotenv file (default ./.env)")
	pf.DurationVar(&flags.poll, "poll", 0, "statistics refresh interval (default from config, 15s)")
	pf.BoolVar(&flags.debug, "debug", false, "log at debug level")

	root.AddCommand(newDemoCmd(flags), newExportCmd(flags))
	return root
}

func newDemoCmd(flags *rootFlags) *cobra.Command {
	var latency time.Duration
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run the console against an in-memory demo API.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts := flags.options()
			opts.Demo = true
			opts.DemoLatency = latency
			return app.Run(cmd.Context(), opts)
		},
	}
	cmd.Flags().DurationVar(&latency, "latency", 150*time.Millisecond, "delay added to every demo API request")
	return cmd
}

func newExportCmd(flags *rootFlags) *cobra.Command {
	var (
		filters map[string]string
		output  string
	)
	cmd := &cobra.Command{
		Use:   "export <screen>",
		Short: "Download a screen's CSV export.",
		Example: "  backer export finances --filter status=flagged --output -\n" +
			"  backer export campaigns --filter search=solar",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			where, err := app.Export(cmd.Context(), app.ExportOptions{
				ConfigPath: flags.configPath,
				EnvPath:    flags.envPath,
				Screen:     args[0],
				Filters:    filters,
				Output:     output,
				Stdout:     cmd.OutOrStdout(),
			})
			if err != nil {
				return err
			}
			if where != "-" {
				fmt.Fprintf(cmd.ErrOrStderr(), "saved %s\n", where)
			}
			return nil
		},
	}
	cmd.Flags().StringToStringVar(&filters, "filter", nil, "filter as key=value (repeatable)")
	cmd.Flags().StringVarP(&output, "output", "o", "", `output file, "-" for stdout (default: export_dir)`)
	return cmd
}
