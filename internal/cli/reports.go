package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/kappapiana/sentinel-solo/internal/services"
)

// report prints the per-client/per-matter aggregation.
func (a *App) report(ctx context.Context) error {
	modeText, err := getSimpleText(a.reader, "Sort by (u)ninvoiced or (t)otal time [u]", os.Stdout)
	if err != nil {
		return err
	}
	mode := services.SortByUninvoiced
	if modeText == "t" || modeText == "total" {
		mode = services.SortByTotal
	}

	clients, err := a.reports.TimeByClientAndMatter(ctx, a.scope, mode)
	if err != nil {
		fmt.Println("Error:", err)
		return err
	}
	if len(clients) == 0 {
		fmt.Println("Nothing to report.")
		return nil
	}

	for _, c := range clients {
		fmt.Printf("%s  (total %s, uninvoiced %s)\n",
			c.Client, formatSeconds(c.TotalSeconds), formatSeconds(c.UninvoicedSeconds))
		for _, m := range c.Matters {
			fmt.Printf("  %-40s total %6s / %8s   uninvoiced %6s / %8s   (rate: %s)\n",
				m.Path,
				formatSeconds(m.TotalSeconds), formatAmount(m.TotalAmount),
				formatSeconds(m.UninvoicedSeconds), formatAmount(m.UninvoicedAmount),
				m.RateSource)
		}
	}
	return nil
}

// timesheet exports the entries of selected matters and optionally marks
// them invoiced.
func (a *App) timesheet(ctx context.Context) error {
	idsText, err := getSimpleText(a.reader, "Matter ids (comma-separated; descendants are included)", os.Stdout)
	if err != nil {
		return err
	}
	ids, err := parseIDList(idsText)
	if err != nil {
		fmt.Println("Error:", err)
		return err
	}

	lines, err := a.reports.ExportTimesheet(ctx, a.scope, ids, nil, nil, false)
	if err != nil {
		fmt.Println("Error:", err)
		return err
	}
	if len(lines) == 0 {
		fmt.Println("No entries under the selected matters.")
		return nil
	}

	var totalSeconds float64
	for _, l := range lines {
		invoiced := ""
		if l.Invoiced {
			invoiced = " [invoiced]"
		}
		fmt.Printf("  [%d] %s  %6s  %8s  %s%s\n",
			l.EntryID, l.StartTime.Local().Format("2006-01-02 15:04"),
			formatSeconds(l.Seconds), formatAmount(l.Amount), l.Path, invoiced)
		totalSeconds += l.Seconds
	}
	fmt.Printf("Total: %s over %d entries.\n", formatSeconds(totalSeconds), len(lines))

	confirm, err := getSimpleText(a.reader, "Mark these entries as invoiced? (yes/no)", os.Stdout)
	if err != nil {
		return err
	}
	if confirm != "yes" {
		return nil
	}
	if _, err := a.reports.ExportTimesheet(ctx, a.scope, ids, nil, nil, true); err != nil {
		fmt.Println("Error:", err)
		return err
	}
	fmt.Println("Marked as invoiced.")
	return nil
}
