package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
)

// cronParser uses standard 5-field cron expressions (minute, hour, dom, month, dow).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// nextCronDuration parses a 5-field cron expression and returns the
// duration until the next fire time.
func nextCronDuration(expr string, now time.Time) (time.Duration, error) {
	sched, err := cronParser.Parse(expr)
	if err != nil {
		return 0, fmt.Errorf("parse schedule %q: %w", expr, err)
	}
	d := sched.Next(now).Sub(now)
	if d < 0 {
		d = 0
	}
	return d, nil
}

func newWatchCmd() *cobra.Command {
	var (
		configPath string
		schedule   string
		once       bool
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Analyze the configured workloads on a cron schedule",
		Long:  "Runs the configured watch.components batch on the configured cron schedule, recording each run in history and notifying Slack when configured. Use --once to run a single batch immediately and exit.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatchLoop(cmd, configPath, schedule, once)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "kubesift.yaml", "path to kubesift config file")
	cmd.Flags().StringVar(&schedule, "schedule", "", "cron expression override (default from config)")
	cmd.Flags().BoolVar(&once, "once", false, "run one batch immediately and exit")
	return cmd
}

func runWatchLoop(cmd *cobra.Command, configPath, schedule string, once bool) error {
	a, err := loadApp(configPath)
	if err != nil {
		return err
	}

	requests, err := a.watchRequests()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runOnce := func() {
		summary := a.coord.RunBatch(ctx, requests)
		printSummary(out, summary)
		a.notifier.BatchFinished(summary)
	}

	if once {
		runOnce()
		return nil
	}

	if schedule == "" {
		schedule = a.cfg.Watch.Schedule
	}
	if schedule == "" {
		return fmt.Errorf("no schedule configured; set watch.schedule or pass --schedule")
	}
	// Validate before entering the loop so a bad expression fails fast.
	if _, err := nextCronDuration(schedule, time.Now()); err != nil {
		return err
	}

	fmt.Fprintf(out, "Watching %d workloads on schedule %q... (Ctrl+C to stop)\n",
		len(requests), schedule)

	for {
		wait, err := nextCronDuration(schedule, time.Now())
		if err != nil {
			return err
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
			runOnce()
		}
	}
}
