package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dankrank/pkg/config"
	"dankrank/pkg/harvester"
	"dankrank/pkg/logger"
	"dankrank/pkg/ui"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

// runFlags are the flags shared by harvest and schedule
type runFlags struct {
	file      string
	account   string
	loginUser string

	sessionID      string
	csrfToken      string
	destination    string
	manifest       string
	strategy       string
	workers        int
	topK           int
	rpm            int
	window         time.Duration
	stopOnNonImage bool
}

func (f *runFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVarP(&f.file, "file", "f", "", "read accounts from a file, one or more per line")
	fs.StringVarP(&f.account, "account", "a", "", "use this stored session instead of the default")
	fs.StringVar(&f.loginUser, "login", "", "log in as this user for the run (password from DANKRANK_PASSWORD or prompt)")
	fs.StringVar(&f.sessionID, "session-id", "", "session id cookie")
	fs.StringVar(&f.csrfToken, "csrf-token", "", "CSRF token cookie")
	fs.StringVarP(&f.destination, "destination", "d", "", "download directory")
	fs.StringVarP(&f.manifest, "manifest", "m", "", "manifest output path")
	fs.StringVar(&f.strategy, "strategy", "", "rank strategy (front, heap)")
	fs.IntVarP(&f.workers, "workers", "w", 0, "concurrent downloads")
	fs.IntVarP(&f.topK, "top-k", "k", 0, "number of items to download")
	fs.IntVar(&f.rpm, "requests-per-minute", 0, "request budget shared by paging and downloads")
	fs.DurationVar(&f.window, "window", 0, "maximum age of a ranked item")
	fs.BoolVar(&f.stopOnNonImage, "stop-on-non-image", false, "stop walking an account at its first non-image item")
}

// configFlags returns the flags that were set, keyed the way the
// configuration merges them
func (f *runFlags) configFlags(cmd *cobra.Command) map[string]interface{} {
	values := map[string]interface{}{
		"session-id":          f.sessionID,
		"csrf-token":          f.csrfToken,
		"destination":         f.destination,
		"manifest":            f.manifest,
		"strategy":            f.strategy,
		"workers":             f.workers,
		"top-k":               f.topK,
		"requests-per-minute": f.rpm,
		"window":              f.window,
		"stop-on-non-image":   f.stopOnNonImage,
	}
	return lo.PickBy(values, func(name string, _ interface{}) bool {
		return cmd.Flags().Changed(name)
	})
}

// accounts collects handles from args and --file, falling back to the
// configured schedule accounts
func (f *runFlags) accounts(args []string, cfg *config.Config) ([]string, error) {
	var accounts []string
	for _, a := range args {
		accounts = append(accounts, harvester.ParseAccounts(a)...)
	}
	if f.file != "" {
		fromFile, err := harvester.ParseAccountsFile(f.file)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, fromFile...)
	}
	if len(accounts) == 0 {
		accounts = cfg.Schedule.Accounts
	}
	accounts = lo.Uniq(accounts)
	if len(accounts) == 0 {
		return nil, errors.New("no accounts given: pass them as arguments, with --file, or set schedule.accounts")
	}
	return accounts, nil
}

var harvestFlags runFlags

var harvestCmd = &cobra.Command{
	Use:   "harvest [accounts...]",
	Short: "Rank recent images of the given accounts and download the best",
	Long: `Walk the recent media of every account, score each image by its dankRank
(engagement relative to the account's followers) and download the top
ranked ones. A JSON manifest of the ranking is written when the run ends.

Accounts may be separated by spaces, commas or semicolons and may carry a
leading @. Files already present in the destination are not downloaded
again.`,
	Example: `  # Harvest two accounts with the defaults
  dankrank harvest memes dankmemes

  # Read accounts from a file and keep the 20 best images
  dankrank harvest --file accounts.txt --top-k 20

  # Use the last 12 hours only and a different destination
  dankrank harvest memes --window 12h -d ~/Pictures/dank`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(harvestFlags.configFlags(cmd))
		if err != nil {
			return err
		}
		accounts, err := harvestFlags.accounts(args, cfg)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		p := printer(cmd)
		_, err = harvestOnce(ctx, cfg, &harvestFlags, accounts, p, logger.GetLogger())
		return err
	},
}

func init() {
	harvestFlags.register(harvestCmd)
	rootCmd.AddCommand(harvestCmd)
}

// harvestOnce opens a session, runs the harvester and prints what it did
func harvestOnce(ctx context.Context, cfg *config.Config, f *runFlags, accounts []string, p *ui.Printer, log logger.Logger) (*harvester.Result, error) {
	client, closeSession, err := openSession(ctx, cfg, f.account, f.loginUser, log)
	if err != nil {
		return nil, err
	}
	defer closeSession()

	h, err := harvester.New(cfg, client, log)
	if err != nil {
		return nil, err
	}

	if !quiet {
		p.Info("Accounts", fmt.Sprintf("%d", len(accounts)))
		p.Info("Destination", cfg.Download.Destination)
	}

	res, err := h.Run(ctx, accounts)
	if res != nil && !quiet {
		p.Accounts(res.Accounts)
		p.Ranking(res.Manifest)
		if res.Manifest != nil {
			p.Info("Manifest", res.ManifestPath)
		}
	}
	return res, err
}
