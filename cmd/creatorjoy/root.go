package main

import (
	"fmt"
	"os"
	"runtime"

	"creatorjoy/pkg/config"
	"creatorjoy/pkg/logger"
	"creatorjoy/pkg/ui"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
	noColor    bool
	quiet      bool

	// Set by the root pre-run
	cfg     *config.Config
	log     logger.Logger
	printer *ui.Printer
)

// configFlags are the flag names config.MergeCommandLineFlags understands.
var configFlags = map[string]bool{
	"host": true, "port": true, "session-file": true, "browser-url": true,
	"launch-browser": true, "keeper": true, "ytdlp": true, "workers": true,
	"output": true, "log-level": true,
}

var rootCmd = &cobra.Command{
	Use:   "creatorjoy",
	Short: "Instagram reel and YouTube channel metrics",
	Long: `creatorjoy collects recent short-form videos of a creator and summarizes
their performance.

Instagram reels are read from the web API with a cookie session that is
renewed through browser automation. YouTube uploads are listed and enriched
with yt-dlp.

Run 'creatorjoy serve' for the HTTP API or 'creatorjoy crawl' for one-off
crawls from the terminal.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		printer = ui.Stdout(noColor, quiet)

		loaded, err := config.Load(configFile, collectFlags(cmd))
		if err != nil {
			return err
		}
		if err := logger.Initialize(&loaded.Logging); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		cfg = loaded
		log = logger.GetLogger()
		return nil
	},
}

// collectFlags returns the changed flags that map onto configuration.
func collectFlags(cmd *cobra.Command) map[string]interface{} {
	flags := make(map[string]interface{})
	cmd.Flags().Visit(func(f *pflag.Flag) {
		if !configFlags[f.Name] {
			return
		}
		switch f.Value.Type() {
		case "int":
			if v, err := cmd.Flags().GetInt(f.Name); err == nil {
				flags[f.Name] = v
			}
		case "bool":
			if v, err := cmd.Flags().GetBool(f.Name); err == nil {
				flags[f.Name] = v
			}
		default:
			flags[f.Name] = f.Value.String()
		}
	})
	return flags
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if printer == nil {
			printer = ui.Stdout(noColor, false)
		}
		printer.Error("Error", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is .creatorjoy.yaml or ~/.config/creatorjoy/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress all output except errors and results")
	rootCmd.PersistentFlags().String("session-file", "", "path of the Instagram session file")
	rootCmd.PersistentFlags().String("browser-url", "", "remote browser DevTools URL used for session refresh")
	rootCmd.PersistentFlags().Bool("launch-browser", false, "launch a local Chrome for session refresh")
	rootCmd.PersistentFlags().String("ytdlp", "", "path of the yt-dlp executable")

	rootCmd.SetVersionTemplate(`creatorjoy {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}
