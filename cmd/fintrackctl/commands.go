package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"fintrack/internal/core"
	"fintrack/internal/export"
	"fintrack/internal/importer"
	"fintrack/internal/insights"
	"fintrack/internal/series"
	"fintrack/internal/services"
)

func (a *app) importCmd() *cobra.Command {
	var (
		target  string
		confirm bool
	)
	cmd := &cobra.Command{
		Use:   "import <history|year|month> <file>",
		Short: "Parse a pasted table and optionally store it",
		Long: "Parse a history, year or single-month table. Without --confirm the parsed\n" +
			"records are only printed. Use - as file to read standard input.",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{string(importer.ScopeHistory), string(importer.ScopeYear), string(importer.ScopeMonth)},
		RunE: func(cmd *cobra.Command, args []string) error {
			scope, ok := importer.ParseScope(args[0])
			if !ok {
				return fmt.Errorf("unknown import scope %q", args[0])
			}
			if scope != importer.ScopeHistory && target == "" {
				return fmt.Errorf("scope %s requires --target", scope)
			}
			if confirm {
				if err := a.requirePersistent(); err != nil {
					return err
				}
			}
			text, err := readInput(cmd.InOrStdin(), args[1])
			if err != nil {
				return err
			}

			svc, cleanup, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			res, err := svc.Import(cmd.Context(), scope, text, target, confirm)
			if err != nil {
				if ie, ok := importer.AsError(err); ok {
					return fmt.Errorf("%w [%s]", err, ie.Kind)
				}
				return err
			}

			out := cmd.OutOrStdout()
			writeSnapshots(out, res.Records)
			if res.Applied {
				fmt.Fprintf(out, "\nimported %d record(s), batch %s\n", len(res.Records), res.BatchID)
			} else {
				fmt.Fprintf(out, "\npreview of %d record(s); rerun with --confirm to store them\n", len(res.Records))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&target, "target", "", "Selected year (YYYY) or month (YYYY-MM)")
	cmd.Flags().BoolVar(&confirm, "confirm", false, "Store the parsed records")
	return cmd
}

func (a *app) exportCmd(defaultLocale string) *cobra.Command {
	var (
		locale  string
		outPath string
	)
	cmd := &cobra.Command{
		Use:       "export <csv|sql>",
		Short:     "Export every stored snapshot",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"csv", "sql"},
		RunE: func(cmd *cobra.Command, args []string) error {
			format := strings.ToLower(args[0])
			if format != "csv" && format != "sql" {
				return fmt.Errorf("unknown export format %q", args[0])
			}

			svc, cleanup, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			snaps, err := svc.Snapshots(cmd.Context())
			if err != nil {
				return err
			}
			content := export.SQLDump(snaps)
			if format == "csv" {
				content = export.CSV(snaps, locale)
			}

			if outPath == "" {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), content)
				return err
			}
			if err := os.WriteFile(outPath, []byte(content+"\n"), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", outPath, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported %d snapshot(s) to %s\n", len(snaps), outPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&locale, "locale", defaultLocale, "CSV header language and decimal separator (es|en)")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Write to a file instead of standard output")
	return cmd
}

type reportFlags struct {
	sort    string
	dir     string
	visible string
}

func (f reportFlags) parse() (services.SortOptions, insights.Visible, error) {
	key, ok := series.ParseKey(f.sort)
	if !ok {
		return services.SortOptions{}, nil, fmt.Errorf("unknown sort key %q", f.sort)
	}
	dir, ok := series.ParseDirection(f.dir)
	if !ok {
		return services.SortOptions{}, nil, fmt.Errorf("unknown sort direction %q", f.dir)
	}
	return services.SortOptions{Key: key, Direction: dir}, insights.ParseVisible(f.visible), nil
}

func (a *app) reportCmd() *cobra.Command {
	var flags reportFlags

	reportCmd := &cobra.Command{
		Use:   "report",
		Short: "Print year or history reports with trends and insights",
	}
	reportCmd.PersistentFlags().StringVar(&flags.sort, "sort", "", "Sort key (period|income|expense|balance|benefit)")
	reportCmd.PersistentFlags().StringVar(&flags.dir, "dir", "asc", "Sort direction (asc|desc)")
	reportCmd.PersistentFlags().StringVar(&flags.visible, "visible", "", "Comma separated metrics used for insights (default all)")

	yearCmd := &cobra.Command{
		Use:   "year <YYYY>",
		Short: "Twelve month series of a year",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sortOpts, visible, err := flags.parse()
			if err != nil {
				return err
			}
			svc, cleanup, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			view, err := svc.YearView(cmd.Context(), args[0], sortOpts, visible)
			if err != nil {
				return err
			}
			writeYearReport(cmd.OutOrStdout(), view)
			return nil
		},
	}

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Per-year rollup of every stored month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sortOpts, visible, err := flags.parse()
			if err != nil {
				return err
			}
			svc, cleanup, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			view, err := svc.HistoryView(cmd.Context(), sortOpts, visible)
			if err != nil {
				return err
			}
			writeHistoryReport(cmd.OutOrStdout(), view)
			return nil
		},
	}

	reportCmd.AddCommand(yearCmd, historyCmd)
	return reportCmd
}

// readInput reads path, or r when path is "-".
func readInput(r io.Reader, path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(r)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	return string(data), nil
}

func amount(cents int64) string {
	return core.FormatDecimal(cents, '.')
}
