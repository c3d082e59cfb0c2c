package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"dankrank/pkg/config"
	"dankrank/pkg/scheduler"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var forceInit bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Create, show and check configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a config file with the default settings",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "~/.config/dankrank/config.yaml"
		if len(args) > 0 {
			path = args[0]
		}
		path, err := homedir.Expand(path)
		if err != nil {
			return err
		}
		if _, err := os.Stat(path); err == nil && !forceInit {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}

		if err := config.DefaultConfig().Save(path); err != nil {
			return err
		}
		printer(cmd).Success(fmt.Sprintf("Config written to %s", filepath.Clean(path)))
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(nil)
		if err != nil {
			return err
		}
		shown := *cfg
		shown.Session.SessionID = mask(shown.Session.SessionID)
		shown.Session.CSRFToken = mask(shown.Session.CSRFToken)

		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(&shown)
	},
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configuration for errors",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(nil)
		if err != nil {
			return err
		}
		p := printer(cmd)
		if cfg.Session.SessionID == "" {
			p.Warning("No session id configured; stored sessions or DANKRANK_SESSION_ID will be needed for private data")
		}
		next, err := scheduler.NextRun(cfg.Schedule.Cron, time.Now())
		if err != nil {
			return err
		}
		p.Success("Configuration is valid")
		p.Info("Next scheduled run", next.Format(time.RFC1123))
		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&forceInit, "force", false, "overwrite an existing file")
	configCmd.AddCommand(configInitCmd, configShowCmd, configValidateCmd)
	rootCmd.AddCommand(configCmd)
}

func mask(s string) string {
	switch {
	case s == "":
		return ""
	case len(s) <= 8:
		return "****"
	default:
		return s[:4] + "****" + s[len(s)-4:]
	}
}
