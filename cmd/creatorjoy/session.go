package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var sessionJSON bool

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Inspect and refresh the Instagram session",
}

var sessionStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether the stored session is valid",
	Long: `Show the stored Instagram session: validity, expiry and cookie names.
Cookie values are never printed.`,
	Args: cobra.NoArgs,
	RunE: runSessionStatus,
}

var sessionRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Log in through the browser and store a new session",
	Long: `Log in through the configured browser backend and store a new session.

The login account is read from the account store ('creatorjoy auth login')
or INSTAGRAM_USERNAME / INSTAGRAM_PASSWORD. Without one, complete the login
by hand in the browser window.`,
	Example: `  creatorjoy session refresh --launch-browser
  creatorjoy session refresh --browser-url ws://localhost:9222`,
	Args: cobra.NoArgs,
	RunE: runSessionRefresh,
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionStatusCmd)
	sessionCmd.AddCommand(sessionRefreshCmd)
	sessionStatusCmd.Flags().BoolVar(&sessionJSON, "json", false, "print the status as JSON")
}

func runSessionStatus(cmd *cobra.Command, args []string) error {
	st := newApp(cfg, log).sessions.Status(time.Now())

	if sessionJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(st)
	}

	printer.Info("Session file", st.Path)
	if st.Valid {
		printer.Success("Session is valid")
	} else {
		printer.Warning("Session is missing or about to expire")
	}
	if st.ExpiresAt != nil {
		printer.Info("Expires at", st.ExpiresAt.Format(time.RFC3339))
	}
	if len(st.Cookies) > 0 {
		printer.Info("Cookies", strings.Join(st.Cookies, ", "))
	}
	printer.Info("Refresh backend", fmt.Sprint(st.RefreshConfigured))
	return nil
}

func runSessionRefresh(cmd *cobra.Command, args []string) error {
	a := newApp(cfg, log)

	printer.Highlight("Refreshing Instagram session...")
	creds, err := a.sessions.Refresh(cmd.Context(), "cli")
	if err != nil {
		return fmt.Errorf("failed to refresh session: %w", err)
	}

	printer.Success("Session refreshed")
	printer.Info("Expires at", creds.ExpiresAt.Format(time.RFC3339))
	printer.Info("Saved to", a.store.Path())
	return nil
}
