package cli

import (
	"context"
	"fmt"
	"os"
)

// listMatters prints the user's matters grouped by client, full paths and
// codes included.
func (a *App) listMatters(ctx context.Context) error {
	list, err := a.matters.ListWithPaths(ctx, a.scope, false)
	if err != nil {
		fmt.Println("Error:", err)
		return err
	}
	if len(list) == 0 {
		fmt.Println("No matters yet. Use 'addmatter' to create one.")
		return nil
	}

	client := ""
	for _, m := range list {
		if m.Client != client {
			client = m.Client
			fmt.Printf("%s\n", client)
		}
		rate := "-"
		if m.Matter.HourlyRate != nil {
			rate = fmt.Sprintf("%.2f", *m.Matter.HourlyRate)
		}
		fmt.Printf("  [%d] %-14s %s  (rate %s)\n", m.Matter.ID, m.Matter.Code, m.Path, rate)
	}
	return nil
}

// addMatter prompts for a new matter or client and creates it.
func (a *App) addMatter(ctx context.Context) error {
	name, err := getSimpleText(a.reader, "Matter name", os.Stdout)
	if err != nil {
		return err
	}
	parentText, err := getSimpleText(a.reader, "Parent matter id (empty for a new client)", os.Stdout)
	if err != nil {
		return err
	}
	parentID, err := parseOptionalID(parentText)
	if err != nil {
		fmt.Println("Error:", err)
		return err
	}
	codeText, err := getSimpleText(a.reader, "Code (empty to auto-suggest)", os.Stdout)
	if err != nil {
		return err
	}
	rateText, err := getSimpleText(a.reader, "Hourly rate (empty to inherit)", os.Stdout)
	if err != nil {
		return err
	}
	rate, err := parseOptionalRate(rateText)
	if err != nil {
		fmt.Println("Error:", err)
		return err
	}

	var code *string
	if codeText != "" {
		code = &codeText
	}
	m, err := a.matters.Add(ctx, a.scope, name, parentID, code, rate)
	if err != nil {
		fmt.Println("Error:", err)
		return err
	}
	fmt.Printf("Created matter [%d] %s (code %s).\n", m.ID, m.Name, m.Code)
	return nil
}

// editMatter edits name, code and rate of a matter.
func (a *App) editMatter(ctx context.Context) error {
	idText, err := getSimpleText(a.reader, "Matter id", os.Stdout)
	if err != nil {
		return err
	}
	id, err := parseID(idText)
	if err != nil {
		fmt.Println("Error:", err)
		return err
	}
	m, err := a.matters.Get(ctx, a.scope, id)
	if err != nil {
		fmt.Println("Error:", err)
		return err
	}

	name, err := getSimpleText(a.reader, fmt.Sprintf("Name [%s]", m.Name), os.Stdout)
	if err != nil {
		return err
	}
	if name == "" {
		name = m.Name
	}
	code, err := getSimpleText(a.reader, fmt.Sprintf("Code [%s]", m.Code), os.Stdout)
	if err != nil {
		return err
	}
	if code == "" {
		code = m.Code
	}
	current := "-"
	if m.HourlyRate != nil {
		current = fmt.Sprintf("%.2f", *m.HourlyRate)
	}
	rateText, err := getSimpleText(a.reader, fmt.Sprintf("Hourly rate [%s] ('-' to clear)", current), os.Stdout)
	if err != nil {
		return err
	}
	rate := m.HourlyRate
	switch rateText {
	case "":
	case "-":
		rate = nil
	default:
		if rate, err = parseOptionalRate(rateText); err != nil {
			fmt.Println("Error:", err)
			return err
		}
	}

	if err := a.matters.Update(ctx, a.scope, id, name, code, rate); err != nil {
		fmt.Println("Error:", err)
		return err
	}
	fmt.Println("Updated.")
	return nil
}

// moveMatter reparents a matter (empty target makes it a client).
func (a *App) moveMatter(ctx context.Context) error {
	idText, err := getSimpleText(a.reader, "Matter id to move", os.Stdout)
	if err != nil {
		return err
	}
	id, err := parseID(idText)
	if err != nil {
		fmt.Println("Error:", err)
		return err
	}
	parentText, err := getSimpleText(a.reader, "New parent id (empty to make it a client)", os.Stdout)
	if err != nil {
		return err
	}
	parentID, err := parseOptionalID(parentText)
	if err != nil {
		fmt.Println("Error:", err)
		return err
	}

	if err := a.matters.Move(ctx, a.scope, id, parentID); err != nil {
		fmt.Println("Error:", err)
		return err
	}
	path, err := a.matters.FullPath(ctx, a.scope, id)
	if err != nil {
		return err
	}
	fmt.Printf("Moved. New path: %s\n", path)
	return nil
}

// mergeMatter folds one matter into another.
func (a *App) mergeMatter(ctx context.Context) error {
	srcText, err := getSimpleText(a.reader, "Source matter id (will be deleted)", os.Stdout)
	if err != nil {
		return err
	}
	srcID, err := parseID(srcText)
	if err != nil {
		fmt.Println("Error:", err)
		return err
	}
	dstText, err := getSimpleText(a.reader, "Target matter id", os.Stdout)
	if err != nil {
		return err
	}
	dstID, err := parseID(dstText)
	if err != nil {
		fmt.Println("Error:", err)
		return err
	}

	if err := a.matters.Merge(ctx, a.scope, srcID, dstID); err != nil {
		fmt.Println("Error:", err)
		return err
	}
	fmt.Println("Merged.")
	return nil
}

// showRate prints the effective rate of a matter and where it came from.
func (a *App) showRate(ctx context.Context) error {
	idText, err := getSimpleText(a.reader, "Matter id", os.Stdout)
	if err != nil {
		return err
	}
	id, err := parseID(idText)
	if err != nil {
		fmt.Println("Error:", err)
		return err
	}

	rate, source, err := a.matters.EffectiveRate(ctx, a.scope, id)
	if err != nil {
		fmt.Println("Error:", err)
		return err
	}
	if rate == nil {
		fmt.Println("No rate defined at any level; amounts will be undefined.")
		return nil
	}
	fmt.Printf("Effective rate: %.2f/h (from %s)\n", *rate, source)
	return nil
}
