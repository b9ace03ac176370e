package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/kappapiana/sentinel-solo/internal/models"
	"github.com/kappapiana/sentinel-solo/internal/services"
)

// listUsers prints every account. Admin only.
func (a *App) listUsers(ctx context.Context) error {
	userList, err := a.users.ListUsers(ctx, a.scope)
	if err != nil {
		fmt.Println("Error:", err)
		return err
	}
	for _, u := range userList {
		role := "user"
		if u.IsAdmin {
			role = "admin"
		}
		rate := "-"
		if u.DefaultHourlyRate != nil {
			rate = fmt.Sprintf("%.2f", *u.DefaultHourlyRate)
		}
		fmt.Printf("  [%d] %-16s %-5s default rate %s\n", u.ID, u.Username, role, rate)
	}
	return nil
}

// addUser provisions an account. Admin only.
func (a *App) addUser(ctx context.Context) error {
	username, err := getSimpleText(a.reader, "Username", os.Stdout)
	if err != nil {
		return err
	}
	password, err := getPassword(os.Stdout, "Password")
	if err != nil {
		return err
	}
	adminText, err := getSimpleText(a.reader, "Admin? (yes/no)", os.Stdout)
	if err != nil {
		return err
	}
	rateText, err := getSimpleText(a.reader, "Default hourly rate (optional)", os.Stdout)
	if err != nil {
		return err
	}
	rate, err := parseOptionalRate(rateText)
	if err != nil {
		fmt.Println("Error:", err)
		return err
	}

	user, err := a.users.CreateUser(ctx, a.scope, username, password, adminText == "yes", rate)
	if err != nil {
		fmt.Println("Error:", err)
		return err
	}
	fmt.Printf("Created user [%d] %s.\n", user.ID, user.Username)
	return nil
}

// editUser edits an account's username, role, default rate and optionally
// its password. Admin only.
func (a *App) editUser(ctx context.Context) error {
	idText, err := getSimpleText(a.reader, "User id", os.Stdout)
	if err != nil {
		return err
	}
	id, err := parseID(idText)
	if err != nil {
		fmt.Println("Error:", err)
		return err
	}
	userList, err := a.users.ListUsers(ctx, a.scope)
	if err != nil {
		fmt.Println("Error:", err)
		return err
	}
	var current *models.User
	for _, u := range userList {
		if u.ID == id {
			current = u
			break
		}
	}
	if current == nil {
		fmt.Println("Error: no user with that id")
		return nil
	}

	username, err := getSimpleText(a.reader, fmt.Sprintf("Username [%s]", current.Username), os.Stdout)
	if err != nil {
		return err
	}
	if username == "" {
		username = current.Username
	}
	role := "no"
	if current.IsAdmin {
		role = "yes"
	}
	adminText, err := getSimpleText(a.reader, fmt.Sprintf("Admin? (yes/no) [%s]", role), os.Stdout)
	if err != nil {
		return err
	}
	isAdmin := current.IsAdmin
	switch adminText {
	case "yes":
		isAdmin = true
	case "no":
		isAdmin = false
	}
	currentRate := "-"
	if current.DefaultHourlyRate != nil {
		currentRate = fmt.Sprintf("%.2f", *current.DefaultHourlyRate)
	}
	rateText, err := getSimpleText(a.reader, fmt.Sprintf("Default hourly rate [%s] ('-' to clear)", currentRate), os.Stdout)
	if err != nil {
		return err
	}
	rate := current.DefaultHourlyRate
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
	passwordText, err := getPassword(os.Stdout, "New password (empty to keep)")
	if err != nil {
		return err
	}
	var newPassword *string
	if passwordText != "" {
		newPassword = &passwordText
	}

	if err := a.users.UpdateUser(ctx, a.scope, id, username, isAdmin, rate, newPassword); err != nil {
		fmt.Println("Error:", err)
		return err
	}
	fmt.Println("Updated.")
	return nil
}

// deleteUser removes an account and everything it owns. Admin only.
func (a *App) deleteUser(ctx context.Context) error {
	idText, err := getSimpleText(a.reader, "User id to delete", os.Stdout)
	if err != nil {
		return err
	}
	id, err := parseID(idText)
	if err != nil {
		fmt.Println("Error:", err)
		return err
	}
	confirm, err := getSimpleText(a.reader, "This deletes the user's matters and entries too. Type 'yes' to confirm", os.Stdout)
	if err != nil {
		return err
	}
	if confirm != "yes" {
		return nil
	}
	if err := a.users.DeleteUser(ctx, a.scope, id); err != nil {
		fmt.Println("Error:", err)
		return err
	}
	fmt.Println("Deleted.")
	return nil
}

// changePassword replaces the current user's password.
func (a *App) changePassword(ctx context.Context) error {
	current, err := getPassword(os.Stdout, "Current password")
	if err != nil {
		return err
	}
	updated, err := getPassword(os.Stdout, "New password")
	if err != nil {
		return err
	}
	if err := a.users.ChangePassword(ctx, a.scope, current, updated); err != nil {
		fmt.Println("Error:", err)
		return err
	}
	fmt.Println("Password changed.")
	return nil
}

// setDefaultRate edits the current user's default hourly rate.
func (a *App) setDefaultRate(ctx context.Context) error {
	rateText, err := getSimpleText(a.reader, "Default hourly rate (empty to clear)", os.Stdout)
	if err != nil {
		return err
	}
	rate, err := parseOptionalRate(rateText)
	if err != nil {
		fmt.Println("Error:", err)
		return err
	}
	if err := a.users.SetDefaultRate(ctx, a.scope, rate); err != nil {
		fmt.Println("Error:", err)
		return err
	}
	fmt.Println("Default rate updated.")
	return nil
}

// exportSnapshot writes the full dataset to a JSON file. Admin only.
func (a *App) exportSnapshot(ctx context.Context) error {
	path, err := getSimpleText(a.reader, "Export file path", os.Stdout)
	if err != nil {
		return err
	}
	doc, err := a.snapshot.ExportAll(ctx, a.scope)
	if err != nil {
		fmt.Println("Error:", err)
		return err
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		fmt.Println("Error:", err)
		return err
	}
	fmt.Printf("Exported %d users, %d matters, %d entries to %s.\n",
		len(doc.Users), len(doc.Matters), len(doc.TimeEntries), path)
	return nil
}

// importSnapshot replaces the dataset from a JSON file. Admin only. The
// import revokes every session, the importer's included, so the shell
// drops its login state afterwards.
func (a *App) importSnapshot(ctx context.Context) error {
	path, err := getSimpleText(a.reader, "Import file path", os.Stdout)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Println("Error:", err)
		return err
	}
	doc := &models.Snapshot{}
	if err := json.Unmarshal(data, doc); err != nil {
		fmt.Println("Error: not a valid snapshot document:", err)
		return err
	}

	confirm, err := getSimpleText(a.reader, "This REPLACES the entire dataset. Type 'yes' to confirm", os.Stdout)
	if err != nil {
		return err
	}
	if confirm != "yes" {
		return nil
	}

	if err := a.snapshot.ImportAll(ctx, a.scope, doc); err != nil {
		fmt.Println("Error:", err)
		return err
	}
	fmt.Println("Imported. All sessions were revoked; please log in again.")
	a.token = ""
	a.currentUser = nil
	a.scope = services.Scope{}
	return nil
}

// backupSnapshot uploads the dataset to the configured bucket. Admin only.
func (a *App) backupSnapshot(ctx context.Context) error {
	key, err := a.snapshot.UploadSnapshot(ctx, a.scope)
	if err != nil {
		fmt.Println("Error:", err)
		return err
	}
	fmt.Printf("Uploaded snapshot as %s.\n", key)
	return nil
}
