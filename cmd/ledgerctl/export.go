package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"travel-ledger/internal/app"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Record or list monthly exports",
}

var exportRecordCmd = &cobra.Command{
	Use:     "record",
	Short:   "Record that a month was sent",
	Example: `  ledgerctl export record --month 2024-03`,
	Args:    cobra.NoArgs,
	RunE:    runExportRecord,
}

var exportListCmd = &cobra.Command{
	Use:   "list",
	Short: "List export rows, optionally for one month",
	Args:  cobra.NoArgs,
	RunE:  runExportList,
}

var importCmd = &cobra.Command{
	Use:   "import <statement.csv>",
	Short: "Import a bank statement CSV",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

func init() {
	rootCmd.AddCommand(exportCmd, importCmd)
	exportCmd.AddCommand(exportRecordCmd, exportListCmd)

	exportRecordCmd.Flags().String("month", "", "Month as YYYY-MM (required)")
	_ = exportRecordCmd.MarkFlagRequired("month")
	exportListCmd.Flags().String("month", "", "Month as YYYY-MM")
	importCmd.Flags().Duration("timeout", 5*time.Minute, "Abort the import after this long")
}

func openApp(ctx context.Context) (*app.App, error) {
	return app.New(ctx, cfg)
}

func runExportRecord(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	month, _ := cmd.Flags().GetString("month")
	p, err := a.Resolver.ResolveMonthKey(month)
	if err != nil {
		return err
	}
	log, err := a.Exports.Record(ctx, p)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\tpackages=%d\tinvoices=%d\n",
		log.MonthYear, log.SentAt.Format(time.RFC3339), log.PackagesIncluded, log.InvoicesIncluded)
	return nil
}

func runExportList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	month, _ := cmd.Flags().GetString("month")
	logs, err := a.Exports.List(ctx, month)
	if err != nil {
		return err
	}
	for _, l := range logs {
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\tpackages=%d\tinvoices=%d\n",
			l.MonthYear, l.SentAt.Format(time.RFC3339), l.PackagesIncluded, l.InvoicesIncluded)
	}
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	timeout, _ := cmd.Flags().GetDuration("timeout")
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	file, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open statement: %w", err)
	}
	defer file.Close()

	result, err := a.Transactions.Import(ctx, file)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "rows=%d created=%d failed=%d skipped=%d\n",
		result.Rows, result.Created, result.Failed, result.Skipped)
	for _, e := range result.Errors {
		fmt.Fprintln(cmd.ErrOrStderr(), e)
	}
	return nil
}
