package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/kappapiana/sentinel-solo/internal/services"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Bootstrap creates the first admin account when the store is empty. It is
// called once on startup; on a populated store it does nothing.
func (a *App) Bootstrap(ctx context.Context) error {
	has, err := a.users.HasUsers(ctx)
	if err != nil {
		return err
	}
	if has {
		return nil
	}

	fmt.Println("No users found. Let's create the first admin account.")
	username, err := getSimpleText(a.reader, "Choose a username", os.Stdout)
	if err != nil {
		return err
	}
	password, err := getPassword(os.Stdout, "Choose a password")
	if err != nil {
		return err
	}

	user, err := a.users.CreateFirstAdmin(ctx, username, password)
	if err != nil {
		return err
	}
	if user == nil {
		// Another process won the bootstrap race; proceed to normal login.
		return nil
	}
	fmt.Printf("Admin account %q created. You can now log in.\n", user.Username)
	return nil
}

// Login prompts for credentials and opens a session.
func (a *App) Login(ctx context.Context) error {
	username, err := getSimpleText(a.reader, "Username", os.Stdout)
	if err != nil {
		return err
	}
	password, err := getPassword(os.Stdout, "Password")
	if err != nil {
		return err
	}

	token, user, err := a.users.Authenticate(ctx, username, password)
	if err != nil {
		fmt.Println("Login failed:", err)
		return err
	}

	a.token = token
	a.currentUser = user
	a.scope, _, err = a.users.ResolveSession(ctx, token)
	if err != nil {
		a.token = ""
		a.currentUser = nil
		return err
	}

	fmt.Printf("Logged in as %s.\n", user.Username)
	return nil
}

// Logout revokes the session and clears the shell state.
func (a *App) Logout(ctx context.Context) error {
	if a.token != "" {
		if err := a.users.Logout(ctx, a.token); err != nil {
			return err
		}
	}
	a.token = ""
	a.currentUser = nil
	a.scope = services.Scope{}
	fmt.Println("Logged out.")
	return nil
}
