// Package cli implements the interactive shell over the time-tracking
// engine. It is a thin I/O layer: every command prompts, calls one service
// operation and prints the result; all rules live in the services.
package cli

import (
	"bufio"
	"database/sql"
	"os"

	"github.com/kappapiana/sentinel-solo/internal/config"
	"github.com/kappapiana/sentinel-solo/internal/logging"
	"github.com/kappapiana/sentinel-solo/internal/models"
	"github.com/kappapiana/sentinel-solo/internal/repositories/repomanager"
	"github.com/kappapiana/sentinel-solo/internal/services"
)

// App holds the shell's state: the engine services plus the current session.
type App struct {
	config *config.Config
	db     *sql.DB

	users    *services.UserService
	matters  *services.MatterService
	timers   *services.TimeEntryService
	reports  *services.ReportService
	snapshot *services.SnapshotService

	token       string
	currentUser *models.User
	scope       services.Scope

	reader *bufio.Reader
}

// NewApp opens the configured store, runs migrations and wires the services.
func NewApp(cfg *config.Config, logger logging.Logger) (*App, error) {
	m, db, err := repomanager.Open(cfg.DatabaseDSN)
	if err != nil {
		return nil, err
	}

	return &App{
		config:   cfg,
		db:       db,
		users:    services.NewUserService(db, m, cfg, logger),
		matters:  services.NewMatterService(db, m, logger),
		timers:   services.NewTimeEntryService(db, m, logger),
		reports:  services.NewReportService(db, m, logger),
		snapshot: services.NewSnapshotService(db, m, cfg, logger),
		reader:   bufio.NewReader(os.Stdin),
	}, nil
}

// Close releases the store connection.
func (a *App) Close() error {
	return a.db.Close()
}

func (a *App) isLoggedIn() bool {
	return a.currentUser != nil
}
