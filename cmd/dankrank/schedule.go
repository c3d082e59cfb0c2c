package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dankrank/pkg/logger"
	"dankrank/pkg/scheduler"
	"dankrank/pkg/ui"

	"github.com/spf13/cobra"
)

var (
	scheduleFlags runFlags
	cronExpr      string
	runNow        bool
	notify        bool
	runTimeout    time.Duration
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule [accounts...]",
	Short: "Harvest on a cron schedule until interrupted",
	Long: `Run the harvest repeatedly on a cron schedule. Runs never overlap; a run
that is due while the previous one is still going is skipped.

The expression comes from --cron or schedule.cron in the config file and
uses the standard five fields, or six with a leading seconds field.`,
	Example: `  # Every morning at nine, with accounts from the config file
  dankrank schedule

  # Every six hours, starting right away, with desktop notifications
  dankrank schedule memes dankmemes --cron "0 */6 * * *" --now --notify`,
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := scheduleFlags.configFlags(cmd)
		if cmd.Flags().Changed("cron") {
			flags["cron"] = cronExpr
		}
		cfg, err := loadConfig(flags)
		if err != nil {
			return err
		}
		accounts, err := scheduleFlags.accounts(args, cfg)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		log := logger.GetLogger()
		p := printer(cmd)
		var notifier *ui.Notifier
		if notify {
			notifier = ui.NewNotifier(p)
		}

		run := func(ctx context.Context) error {
			res, err := harvestOnce(ctx, cfg, &scheduleFlags, accounts, p, log)
			if notifier != nil {
				if err != nil {
					notifier.Failure("dankrank", err.Error())
				} else {
					notifier.Success("dankrank", fmt.Sprintf("%d items ranked from %d accounts", len(res.Top), len(res.Accounts)))
				}
			}
			return err
		}

		s := scheduler.New(cfg.Schedule.Cron, run, scheduler.Options{
			Immediately: runNow,
			RunTimeout:  runTimeout,
		}, log)

		if !quiet {
			p.Info("Schedule", cfg.Schedule.Cron)
		}
		if err := s.Start(ctx); err != nil {
			return err
		}
		if !quiet {
			p.Info("Runs", fmt.Sprintf("%d (%d failed)", s.Runs(), s.Failures()))
		}
		return nil
	},
}

func init() {
	scheduleFlags.register(scheduleCmd)
	scheduleCmd.Flags().StringVar(&cronExpr, "cron", "", "cron expression (default from config, \"0 9 * * *\")")
	scheduleCmd.Flags().BoolVar(&runNow, "now", false, "run once immediately before following the schedule")
	scheduleCmd.Flags().BoolVar(&notify, "notify", false, "send a desktop notification after each run")
	scheduleCmd.Flags().DurationVar(&runTimeout, "run-timeout", 0, "abort a run that takes longer than this")
	rootCmd.AddCommand(scheduleCmd)
}
