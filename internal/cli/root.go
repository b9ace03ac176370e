package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
)

func (a *App) getStatus() string {
	if a.currentUser == nil {
		return ""
	}
	return fmt.Sprintf("(%s)", a.currentUser.Username)
}

// Run starts the shell: first-run bootstrap, login, then the command loop.
func (a *App) Run(ctx context.Context) {
	defer a.Close()

	fmt.Println("Welcome to Sentinel Solo (type 'help' for commands)")

	if err := a.Bootstrap(ctx); err != nil {
		fmt.Println("Startup error:", err)
		return
	}
	_ = a.Login(ctx)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Printf("sentinel %s> ", a.getStatus())
		if !scanner.Scan() {
			break
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]

		if cmd == "exit" || cmd == "quit" {
			fmt.Println("Bye!")
			return
		}
		if cmd == "help" {
			a.printHelp()
			continue
		}

		if !a.isLoggedIn() {
			if cmd == "login" {
				_ = a.Login(ctx)
			} else {
				fmt.Println("Please log in first.")
			}
			continue
		}

		switch cmd {
		case "login":
			_ = a.Login(ctx)
		case "logout":
			_ = a.Logout(ctx)

		case "start":
			_ = a.startTimer(ctx)
		case "stop":
			_ = a.stopTimer(ctx)
		case "status":
			_ = a.timerStatus(ctx)
		case "continue":
			_ = a.continueEntry(ctx)
		case "add":
			_ = a.addManualEntry(ctx)
		case "day":
			_ = a.dayView(ctx)
		case "editentry":
			_ = a.editEntry(ctx)
		case "delentry":
			_ = a.deleteEntry(ctx)

		case "matters":
			_ = a.listMatters(ctx)
		case "addmatter":
			_ = a.addMatter(ctx)
		case "editmatter":
			_ = a.editMatter(ctx)
		case "move":
			_ = a.moveMatter(ctx)
		case "merge":
			_ = a.mergeMatter(ctx)
		case "rate":
			_ = a.showRate(ctx)

		case "report":
			_ = a.report(ctx)
		case "timesheet":
			_ = a.timesheet(ctx)

		case "passwd":
			_ = a.changePassword(ctx)
		case "setrate":
			_ = a.setDefaultRate(ctx)

		case "users":
			_ = a.listUsers(ctx)
		case "adduser":
			_ = a.addUser(ctx)
		case "edituser":
			_ = a.editUser(ctx)
		case "deluser":
			_ = a.deleteUser(ctx)
		case "export":
			_ = a.exportSnapshot(ctx)
		case "import":
			_ = a.importSnapshot(ctx)
		case "backup":
			_ = a.backupSnapshot(ctx)

		default:
			fmt.Println("Unknown command:", cmd)
		}
	}
}

func (a *App) printHelp() {
	if !a.isLoggedIn() {
		fmt.Println("Available commands: login, exit")
		return
	}
	fmt.Println("Timers:   start, stop, status, continue, add, day, editentry, delentry")
	fmt.Println("Matters:  matters, addmatter, editmatter, move, merge, rate")
	fmt.Println("Reports:  report, timesheet")
	fmt.Println("Account:  passwd, setrate, logout")
	if a.scope.Admin {
		fmt.Println("Admin:    users, adduser, edituser, deluser, export, import, backup")
	}
	fmt.Println("Other:    help, exit")
}
