package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/kappapiana/sentinel-solo/internal/common"
	"github.com/kappapiana/sentinel-solo/internal/services"
)

// startTimer picks a matter and opens a running entry.
func (a *App) startTimer(ctx context.Context) error {
	list, err := a.matters.ListWithPaths(ctx, a.scope, true)
	if err != nil {
		fmt.Println("Error:", err)
		return err
	}
	if len(list) == 0 {
		fmt.Println("No loggable matters. Use 'addmatter' first.")
		return nil
	}
	client := ""
	for _, m := range list {
		if m.Client != client {
			client = m.Client
			fmt.Printf("%s\n", client)
		}
		fmt.Printf("  [%d] %s\n", m.Matter.ID, m.Path)
	}

	idText, err := getSimpleText(a.reader, "Matter id", os.Stdout)
	if err != nil {
		return err
	}
	id, err := parseID(idText)
	if err != nil {
		fmt.Println("Error:", err)
		return err
	}
	description, err := getSimpleText(a.reader, "Description (optional)", os.Stdout)
	if err != nil {
		return err
	}

	entry, err := a.timers.StartTimer(ctx, a.scope, id, description)
	if err != nil {
		fmt.Println("Error:", err)
		return err
	}
	fmt.Printf("Timer started (entry %d).\n", entry.ID)
	return nil
}

// stopTimer closes the running entry.
func (a *App) stopTimer(ctx context.Context) error {
	entry, err := a.timers.StopTimer(ctx, a.scope)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			fmt.Println("No timer is running.")
			return nil
		}
		fmt.Println("Error:", err)
		return err
	}
	fmt.Printf("Timer stopped after %s (entry %d).\n", formatSeconds(entry.DurationSeconds), entry.ID)
	return nil
}

// timerStatus prints the running entry, if any.
func (a *App) timerStatus(ctx context.Context) error {
	entry, err := a.timers.GetRunningEntry(ctx, a.scope)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			fmt.Println("No timer is running.")
			return nil
		}
		fmt.Println("Error:", err)
		return err
	}
	path, err := a.matters.FullPath(ctx, a.scope, entry.MatterID)
	if err != nil {
		return err
	}
	elapsed := time.Since(entry.StartTime).Seconds()
	fmt.Printf("Running: %s - %s (%s elapsed)\n", path, entry.Description, formatSeconds(elapsed))
	return nil
}

// continueEntry opens a new timer segment linked to a previous entry.
func (a *App) continueEntry(ctx context.Context) error {
	idText, err := getSimpleText(a.reader, "Entry id to continue", os.Stdout)
	if err != nil {
		return err
	}
	id, err := parseID(idText)
	if err != nil {
		fmt.Println("Error:", err)
		return err
	}

	entry, err := a.timers.ContinueEntry(ctx, a.scope, id)
	if err != nil {
		fmt.Println("Error:", err)
		return err
	}
	fmt.Printf("Continuing as entry %d.\n", entry.ID)
	return nil
}

// addManualEntry records a past time span.
func (a *App) addManualEntry(ctx context.Context) error {
	idText, err := getSimpleText(a.reader, "Matter id", os.Stdout)
	if err != nil {
		return err
	}
	matterID, err := parseID(idText)
	if err != nil {
		fmt.Println("Error:", err)
		return err
	}
	startText, err := getSimpleText(a.reader, "Start (YYYY-MM-DD HH:MM)", os.Stdout)
	if err != nil {
		return err
	}
	start, err := parseTimestamp(startText)
	if err != nil {
		fmt.Println("Error:", err)
		return err
	}
	endText, err := getSimpleText(a.reader, "End (YYYY-MM-DD HH:MM, empty to give minutes instead)", os.Stdout)
	if err != nil {
		return err
	}

	var end *time.Time
	var duration *float64
	if endText != "" {
		t, err := parseTimestamp(endText)
		if err != nil {
			fmt.Println("Error:", err)
			return err
		}
		end = &t
	} else {
		minText, err := getSimpleText(a.reader, "Duration in minutes", os.Stdout)
		if err != nil {
			return err
		}
		var minutes float64
		if _, err := fmt.Sscanf(minText, "%f", &minutes); err != nil {
			fmt.Println("Error: invalid duration")
			return err
		}
		seconds := minutes * 60
		duration = &seconds
	}

	description, err := getSimpleText(a.reader, "Description (optional)", os.Stdout)
	if err != nil {
		return err
	}

	entry, err := a.timers.AddManualEntry(ctx, a.scope, matterID, start, end, duration, description)
	if err != nil {
		fmt.Println("Error:", err)
		return err
	}
	fmt.Printf("Recorded entry %d (%s).\n", entry.ID, formatSeconds(entry.DurationSeconds))
	return nil
}

// dayView lists the entries of one calendar day.
func (a *App) dayView(ctx context.Context) error {
	dayText, err := getSimpleText(a.reader, "Day (YYYY-MM-DD, empty for today)", os.Stdout)
	if err != nil {
		return err
	}
	day, err := parseDay(dayText)
	if err != nil {
		fmt.Println("Error:", err)
		return err
	}

	entries, err := a.timers.EntriesForDay(ctx, a.scope, day)
	if err != nil {
		fmt.Println("Error:", err)
		return err
	}
	if len(entries) == 0 {
		fmt.Println("No entries.")
		return nil
	}

	var total float64
	for _, e := range entries {
		path, err := a.matters.FullPath(ctx, a.scope, e.MatterID)
		if err != nil {
			return err
		}
		span := "running"
		if e.EndTime != nil {
			span = formatSeconds(e.DurationSeconds)
			total += e.DurationSeconds
		}
		invoiced := ""
		if e.Invoiced {
			invoiced = " [invoiced]"
		}
		fmt.Printf("  [%d] %s  %s  %s%s\n", e.ID, e.StartTime.Local().Format("15:04"), span, path, invoiced)
		if e.Description != "" {
			fmt.Printf("       %s\n", e.Description)
		}
	}
	fmt.Printf("Total: %s\n", formatSeconds(total))
	return nil
}

// editEntry edits description or invoiced flag of an entry.
func (a *App) editEntry(ctx context.Context) error {
	idText, err := getSimpleText(a.reader, "Entry id", os.Stdout)
	if err != nil {
		return err
	}
	id, err := parseID(idText)
	if err != nil {
		fmt.Println("Error:", err)
		return err
	}
	description, err := getSimpleText(a.reader, "New description (empty to keep)", os.Stdout)
	if err != nil {
		return err
	}

	params := services.UpdateEntryParams{}
	if description != "" {
		params.Description = &description
	}
	if err := a.timers.UpdateEntry(ctx, a.scope, id, params); err != nil {
		fmt.Println("Error:", err)
		return err
	}
	fmt.Println("Updated.")
	return nil
}

// deleteEntry removes an entry.
func (a *App) deleteEntry(ctx context.Context) error {
	idText, err := getSimpleText(a.reader, "Entry id to delete", os.Stdout)
	if err != nil {
		return err
	}
	id, err := parseID(idText)
	if err != nil {
		fmt.Println("Error:", err)
		return err
	}
	if err := a.timers.DeleteEntry(ctx, a.scope, id); err != nil {
		fmt.Println("Error:", err)
		return err
	}
	fmt.Println("Deleted.")
	return nil
}
