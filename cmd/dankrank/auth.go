package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"dankrank/pkg/auth"
	"dankrank/pkg/logger"

	"github.com/spf13/cobra"
)

var (
	loginUsername  string
	loginSessionID string
	loginCSRFToken string
	loginUserAgent string
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage stored sessions",
	Long: `Store, list and remove feed sessions. Sessions are kept in the system
keychain when one is available and in an encrypted file otherwise.`,
}

var loginCmd = &cobra.Command{
	Use:   "login [username]",
	Short: "Store session cookies for an account",
	Long: `Store the sessionid and csrftoken cookies of a logged in browser session.
Values not given as flags are prompted for without echo.`,
	Example: `  # Interactive
  dankrank auth login myuser

  # Non-interactive
  dankrank auth login myuser --session-id "$SID" --csrf-token "$CSRF"`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout <username>",
	Short: "Remove a stored session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		manager, err := credentialManager()
		if err != nil {
			return err
		}
		if err := manager.Delete(args[0]); err != nil {
			return fmt.Errorf("removing %s: %w", args[0], err)
		}
		printer(cmd).Success(fmt.Sprintf("Removed session for %s", args[0]))
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored sessions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		manager, err := credentialManager()
		if err != nil {
			return err
		}
		accounts, err := manager.List()
		if err != nil {
			return err
		}
		if len(accounts) == 0 {
			printer(cmd).Info("No stored sessions", "use 'dankrank auth login' to add one")
			return nil
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "USERNAME\tSESSION\tCSRF\tUPDATED")
		for _, a := range accounts {
			s := auth.SanitizeAccount(a)
			updated := "-"
			if !a.LastModified.IsZero() {
				updated = a.LastModified.Format(time.DateTime)
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", s.Username, s.SessionID, s.CSRFToken, updated)
		}
		return tw.Flush()
	},
}

var guideCmd = &cobra.Command{
	Use:   "guide",
	Short: "Explain how to copy session cookies from a browser",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		auth.WriteCookieGuide(cmd.OutOrStdout())
	},
}

func init() {
	loginCmd.Flags().StringVarP(&loginUsername, "username", "u", "", "account the session belongs to")
	loginCmd.Flags().StringVar(&loginSessionID, "session-id", "", "sessionid cookie value")
	loginCmd.Flags().StringVar(&loginCSRFToken, "csrf-token", "", "csrftoken cookie value")
	loginCmd.Flags().StringVar(&loginUserAgent, "user-agent", "", "user agent of the browser the cookies came from")

	authCmd.AddCommand(loginCmd, logoutCmd, listCmd, guideCmd)
	rootCmd.AddCommand(authCmd)
}

func credentialManager() (*auth.Manager, error) {
	dir, err := auth.DefaultConfigDir()
	if err != nil {
		return nil, err
	}
	return auth.NewManager(dir, logger.GetLogger())
}

func runLogin(cmd *cobra.Command, args []string) error {
	manager, err := credentialManager()
	if err != nil {
		return err
	}
	p := printer(cmd)
	prompt := cmd.ErrOrStderr()

	username := loginUsername
	if username == "" && len(args) > 0 {
		username = args[0]
	}
	if username == "" {
		fmt.Fprint(prompt, "Username: ")
		if username, err = readLine(os.Stdin); err != nil {
			return fmt.Errorf("reading username: %w", err)
		}
	}
	username = strings.TrimPrefix(strings.TrimSpace(username), "@")
	if username == "" {
		return fmt.Errorf("%w: username is required", auth.ErrInvalidCredentials)
	}

	if loginSessionID == "" || loginCSRFToken == "" {
		auth.WriteCookieGuide(prompt)
		fmt.Fprintln(prompt)
	}
	sessionID := loginSessionID
	if sessionID == "" {
		if sessionID, err = readSecret(prompt, "sessionid: "); err != nil {
			return fmt.Errorf("reading session id: %w", err)
		}
	}
	csrfToken := loginCSRFToken
	if csrfToken == "" {
		if csrfToken, err = readSecret(prompt, "csrftoken: "); err != nil {
			return fmt.Errorf("reading CSRF token: %w", err)
		}
	}

	account := &auth.Account{
		Username:     username,
		SessionID:    sessionID,
		CSRFToken:    csrfToken,
		UserAgent:    loginUserAgent,
		LastModified: time.Now(),
	}
	if err := manager.Store(account); err != nil {
		return fmt.Errorf("storing session: %w", err)
	}

	s := auth.SanitizeAccount(account)
	p.Success(fmt.Sprintf("Session stored for %s", username))
	p.Info("Session ID", s.SessionID)
	p.Info("CSRF token", s.CSRFToken)
	return nil
}
