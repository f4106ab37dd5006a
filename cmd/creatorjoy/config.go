package main

import (
	"fmt"
	"net/url"
	"os"
	"os/exec"

	"creatorjoy/pkg/browser"
	"creatorjoy/pkg/config"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage creatorjoy configuration files.

Configuration is loaded from, in order of priority:
  - Command line flags
  - Environment variables (CREATORJOY_*, plus PORT, SELENIUM_REMOTE_URL,
    INSTAGRAM_SESSION_FILE and YTDLP_COOKIES_FILE)
  - .env files
  - Configuration file
  - Default values`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a configuration file with the default values",
	Long: `Write a configuration file with all options set to their defaults.

The file is created as '.creatorjoy.yaml' in the current directory unless a
different path is given with --config.`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration and check external backends",
	Args:  cobra.NoArgs,
	RunE:  runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := configFile
	if path == "" {
		path = ".creatorjoy.yaml"
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("configuration file already exists: %s", path)
	}

	if err := config.DefaultConfig().Save(path); err != nil {
		return err
	}

	printer.Success("Configuration file created: " + path)
	fmt.Println("\nNext steps:")
	fmt.Println("1. Set browser.remote_url or browser.launch_local for session refresh")
	fmt.Println("2. Run 'creatorjoy auth login' to store the Instagram login account")
	fmt.Println("3. Run 'creatorjoy config validate' to check the setup")
	return nil
}

// redacted returns a copy of c safe to print.
func redacted(c *config.Config) config.Config {
	out := *c
	if u, err := url.Parse(out.Browser.RemoteURL); err == nil && u.User != nil {
		u.User = url.User("***")
		out.Browser.RemoteURL = u.String()
	}
	return out
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	display := redacted(cfg)
	data, err := yaml.Marshal(&display)
	if err != nil {
		return fmt.Errorf("failed to format configuration: %w", err)
	}

	printer.Highlight("Current Configuration")
	fmt.Println()
	fmt.Print(string(data))
	return nil
}

// setupWarnings lists backends that are missing for some operations.
func setupWarnings(c *config.Config) []string {
	var warnings []string
	if !c.Browser.Configured() {
		warnings = append(warnings, "no browser backend configured: expired Instagram sessions cannot be refreshed")
	}
	if c.Browser.RemoteURL != "" {
		if err := browser.CheckRemoteURL(c.Browser.RemoteURL); err != nil {
			warnings = append(warnings, err.Error())
		}
	}
	if _, err := exec.LookPath(c.YouTube.YTDLPPath); err != nil {
		warnings = append(warnings, fmt.Sprintf("yt-dlp not found at %q: YouTube crawls will fail", c.YouTube.YTDLPPath))
	}
	if c.YouTube.CookiesFile != "" {
		if _, err := os.Stat(c.YouTube.CookiesFile); err != nil {
			warnings = append(warnings, fmt.Sprintf("yt-dlp cookies file %q is not readable", c.YouTube.CookiesFile))
		}
	}
	if _, err := os.Stat(c.Session.File); err != nil {
		warnings = append(warnings, fmt.Sprintf("session file %q does not exist yet", c.Session.File))
	}
	return warnings
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	if warnings := setupWarnings(cfg); len(warnings) > 0 {
		printer.Warning("Configuration warnings")
		for _, w := range warnings {
			fmt.Printf("  - %s\n", w)
		}
		fmt.Println()
	}

	printer.Success("Configuration is valid")
	fmt.Println("\nConfiguration summary:")
	fmt.Printf("  Listen address: %s:%d\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Printf("  Session file: %s\n", cfg.Session.File)
	fmt.Printf("  Rate limit: %d requests/minute\n", cfg.RateLimit.RequestsPerMinute)
	fmt.Printf("  Max retries: %d\n", cfg.Retry.MaxAttempts)
	fmt.Printf("  Enrichment workers: %d\n", cfg.YouTube.MaxWorkers)
	fmt.Printf("  Log level: %s\n", cfg.Logging.Level)
	return nil
}
