package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"travel-ledger/internal/period"
)

var periodCmd = &cobra.Command{
	Use:   "period [date]",
	Short: "Show the accounting month of a date",
	Example: `  ledgerctl period 2024-02-29
  ledgerctl period --locale en --shift -1`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPeriod,
}

var monthsCmd = &cobra.Command{
	Use:   "months",
	Short: "List the most recent accounting months, newest first",
	Args:  cobra.NoArgs,
	RunE:  runMonths,
}

func init() {
	rootCmd.AddCommand(periodCmd, monthsCmd)

	periodCmd.Flags().String("locale", "", "Label locale (default from PERIOD_LOCALE)")
	periodCmd.Flags().Int("shift", 0, "Months to move before resolving")
	monthsCmd.Flags().String("locale", "", "Label locale (default from PERIOD_LOCALE)")
	monthsCmd.Flags().IntP("count", "n", period.DefaultAvailableMonths, "Number of months")
}

func resolver(cmd *cobra.Command) (*period.Resolver, error) {
	loc, err := cfg.Period.Location()
	if err != nil {
		return nil, err
	}
	locale, _ := cmd.Flags().GetString("locale")
	if locale == "" {
		locale = cfg.Period.Locale
	}
	return period.NewResolver(locale, loc)
}

func printPeriod(cmd *cobra.Command, p period.Period) {
	fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s .. %s\n", p.MonthKey, p.DisplayLabel, p.StartDay(), p.EndDay())
}

func runPeriod(cmd *cobra.Command, args []string) error {
	r, err := resolver(cmd)
	if err != nil {
		return err
	}

	t := time.Now()
	if len(args) == 1 {
		if t, err = r.ParseDate(args[0]); err != nil {
			return err
		}
	}

	shift, _ := cmd.Flags().GetInt("shift")
	for ; shift > 0; shift-- {
		t = r.NextMonth(t)
	}
	for ; shift < 0; shift++ {
		t = r.PreviousMonth(t)
	}

	printPeriod(cmd, r.Resolve(t))
	return nil
}

func runMonths(cmd *cobra.Command, args []string) error {
	r, err := resolver(cmd)
	if err != nil {
		return err
	}
	n, _ := cmd.Flags().GetInt("count")
	for _, p := range r.AvailablePeriods(time.Now(), n) {
		printPeriod(cmd, p)
	}
	return nil
}
