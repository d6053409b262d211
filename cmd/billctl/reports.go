package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"billreminder/internal/core"
)

func init() {
	rootCmd.AddCommand(dashboardCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(exportCmd)

	for _, c := range []*cobra.Command{dashboardCmd, reportCmd, exportCmd} {
		c.Flags().String("owner", "", "Owner ID")
		_ = c.MarkFlagRequired("owner")
	}
	for _, c := range []*cobra.Command{reportCmd, exportCmd} {
		c.Flags().String("from", "", "First due date to include (YYYY-MM-DD, default one month ago)")
		c.Flags().String("to", "", "Last due date to include (YYYY-MM-DD, default today)")
	}
	exportCmd.Flags().StringP("out", "o", ".", "Directory to write the PDF into")
}

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Print an owner's dashboard",
	RunE: func(cmd *cobra.Command, args []string) error {
		owner, _ := cmd.Flags().GetString("owner")
		svc, err := openService(cmd.Context())
		if err != nil {
			return err
		}
		defer svc.Close()

		t := today()
		d, err := svc.Dashboard(cmd.Context(), owner, t)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Bills: %d  Overdue: %d  Due soon: %d  Paid: %d\n",
			d.TotalCount, d.OverdueCount, d.DueSoonCount, d.PaidCount)
		for _, b := range d.Upcoming {
			fmt.Fprintf(out, "  %s  %-30s %12s %s  [%s]\n",
				b.DueDate, b.Title, core.FormatAmount(b.Amount), b.Currency, b.ReminderState(t))
		}
		return nil
	},
}

type reportLine struct {
	Category string `json:"category"`
	Total    string `json:"total"`
	Paid     string `json:"paid"`
	Pending  string `json:"pending"`
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print an owner's spending report as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		owner, _ := cmd.Flags().GetString("owner")
		rng, err := rangeFlags(cmd)
		if err != nil {
			return err
		}
		svc, err := openService(cmd.Context())
		if err != nil {
			return err
		}
		defer svc.Close()

		r, err := svc.Report(cmd.Context(), owner, rng)
		if err != nil {
			return err
		}

		lines := make([]reportLine, 0, len(r.Categories))
		for _, c := range r.Categories {
			lines = append(lines, reportLine{
				Category: c.Category,
				Total:    core.FormatAmount(c.Total),
				Paid:     core.FormatAmount(c.Paid),
				Pending:  core.FormatAmount(c.Pending),
			})
		}
		return printJSON(cmd.OutOrStdout(), map[string]any{
			"from":         r.Range.From.String(),
			"to":           r.Range.To.String(),
			"totalAmount":  core.FormatAmount(r.TotalAmount),
			"totalPaid":    core.FormatAmount(r.TotalPaid),
			"totalPending": core.FormatAmount(r.TotalPending),
			"billCount":    r.BillCount,
			"categories":   lines,
		})
	},
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write an owner's spending report as PDF",
	RunE: func(cmd *cobra.Command, args []string) error {
		owner, _ := cmd.Flags().GetString("owner")
		dir, _ := cmd.Flags().GetString("out")
		rng, err := rangeFlags(cmd)
		if err != nil {
			return err
		}
		svc, err := openService(cmd.Context())
		if err != nil {
			return err
		}
		defer svc.Close()

		exported, err := svc.ExportReport(cmd.Context(), owner, rng, time.Now().In(appConfig.Location()))
		if err != nil {
			return err
		}

		path := filepath.Join(dir, exported.Filename)
		if err := os.WriteFile(path, exported.Data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}
