package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"pomodoro/internal/stats"
)

type statsOptions struct {
	days int
}

func newStatsCmd(env *environment) *cobra.Command {
	options := &statsOptions{}
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print worked minutes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStats(cmd, env, options)
		},
	}
	cmd.Flags().IntVar(&options.days, "days", 7, "number of days of history to print (0 for none)")
	return cmd
}

func runStats(cmd *cobra.Command, env *environment, options *statsOptions) error {
	if options.days < 0 {
		return fmt.Errorf("--days: %w", stats.ErrInvalidDays)
	}

	store, err := stats.Open(env.settings.StatsBackend, env.fs, env.configDir, stats.Options{
		Logger: env.newLogger("stats"),
	})
	if err != nil {
		return fmt.Errorf("open statistics: %w", err)
	}
	defer store.Close()

	ctx := cmd.Context()
	summary, err := store.Summary(ctx)
	if err != nil {
		return fmt.Errorf("read statistics: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Today:    %d min\n", summary.TodayMinutes)
	fmt.Fprintf(out, "Total:    %d min\n", summary.TotalMinutes)
	fmt.Fprintf(out, "Sessions: %d\n", summary.TotalSessions)
	fmt.Fprintf(out, "Average:  %.1f min\n", summary.AverageSession)

	if options.days == 0 {
		return nil
	}
	history, err := store.History(ctx, options.days)
	if err != nil {
		return fmt.Errorf("read history: %w", err)
	}
	fmt.Fprintf(out, "\nLast %d days:\n", options.days)
	for _, day := range history {
		fmt.Fprintf(out, "  %s  %4d min\n", day.Date, day.Minutes)
	}
	totals := stats.Totals(history)
	fmt.Fprintf(out, "  %d min over %d active days, %d min per active day\n",
		totals.TotalMinutes, totals.ActiveDays, totals.AveragePerDay)
	return nil
}
