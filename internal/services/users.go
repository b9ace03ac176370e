package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kappapiana/sentinel-solo/internal/auth"
	"github.com/kappapiana/sentinel-solo/internal/common"
	"github.com/kappapiana/sentinel-solo/internal/config"
	"github.com/kappapiana/sentinel-solo/internal/dbx"
	"github.com/kappapiana/sentinel-solo/internal/logging"
	"github.com/kappapiana/sentinel-solo/internal/models"
	"github.com/kappapiana/sentinel-solo/internal/repositories/repomanager"
)

// UserService handles authentication, session resolution and the admin-only
// user administration operations.
type UserService struct {
	db                      *sql.DB
	repomanager             repomanager.RepositoryManager
	jwtSecret               []byte
	sessionValidityDuration time.Duration
	logger                  logging.Logger
}

// NewUserService constructs a UserService using repositories and config.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, logger logging.Logger) *UserService {
	return &UserService{
		db:                      db,
		repomanager:             m,
		jwtSecret:               []byte(cfg.SecretKey),
		sessionValidityDuration: cfg.SessionValidityDuration,
		logger:                  logger,
	}
}

// HasUsers reports whether any account exists (false means first-run).
func (s *UserService) HasUsers(ctx context.Context) (bool, error) {
	n, err := s.repomanager.Users(s.db).Count(ctx)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// CreateFirstAdmin provisions the initial admin account. It succeeds only on
// an empty store: when any user already exists it returns (nil, nil) and
// creates nothing. The count check and the insert share one transaction so
// two racing bootstraps cannot both create an admin.
func (s *UserService) CreateFirstAdmin(ctx context.Context, username, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, common.Validationf("username must not be empty")
	}
	if password == "" {
		return nil, common.Validationf("password must not be empty")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	var created *models.User
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)
		n, err := repo.Count(ctx)
		if err != nil {
			return err
		}
		if n > 0 {
			return nil
		}
		created, err = repo.Create(ctx, &models.User{
			Username:     username,
			PasswordHash: hash,
			IsAdmin:      true,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	if created == nil {
		return nil, nil
	}

	s.logger.Info(ctx, "first admin created", "user", created.ID)
	return created, nil
}

// Authenticate verifies the credentials and, on success, opens a session and
// returns its signed token together with the user. Unknown usernames and
// wrong passwords are reported identically as ErrUnauthorized.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (string, *models.User, error) {
	user, err := s.repomanager.Users(s.db).GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return "", nil, common.ErrUnauthorized
		}
		return "", nil, err
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return "", nil, common.ErrUnauthorized
	}

	sessionID := uuid.NewString()
	expires := now().UTC().Add(s.sessionValidityDuration)
	if err := s.repomanager.Sessions(s.db).Create(ctx, &models.Session{
		ID:      sessionID,
		UserID:  user.ID,
		Expires: expires,
	}); err != nil {
		return "", nil, err
	}

	token, err := auth.GenerateToken(user.ID, sessionID, s.jwtSecret, s.sessionValidityDuration)
	if err != nil {
		return "", nil, err
	}

	s.logger.Info(ctx, "user authenticated", "user", user.ID)
	return token, user, nil
}

// ResolveSession verifies a session token against both its signature and its
// backing session row, and returns the caller's scope with a fresh user
// record. Tokens whose session row is gone (logout, snapshot import, user
// deletion) are invalid regardless of their embedded expiry.
func (s *UserService) ResolveSession(ctx context.Context, token string) (Scope, *models.User, error) {
	claims, err := auth.ParseToken(token, s.jwtSecret)
	if err != nil {
		return Scope{}, nil, err
	}

	session, err := s.repomanager.Sessions(s.db).Get(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return Scope{}, nil, common.ErrInvalidToken
		}
		return Scope{}, nil, err
	}
	if session.Expires.Before(now().UTC()) {
		_ = s.repomanager.Sessions(s.db).Delete(ctx, session.ID)
		return Scope{}, nil, common.ErrInvalidToken
	}

	user, err := s.repomanager.Users(s.db).GetByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return Scope{}, nil, common.ErrInvalidToken
		}
		return Scope{}, nil, err
	}

	return Scope{UserID: user.ID, Admin: user.IsAdmin}, user, nil
}

// Logout revokes the token's session row.
func (s *UserService) Logout(ctx context.Context, token string) error {
	claims, err := auth.ParseToken(token, s.jwtSecret)
	if err != nil {
		return err
	}
	return s.repomanager.Sessions(s.db).Delete(ctx, claims.ID)
}

// ListUsers returns every account. Admin only.
func (s *UserService) ListUsers(ctx context.Context, scope Scope) ([]*models.User, error) {
	if err := scope.RequireAdmin(); err != nil {
		return nil, err
	}
	return s.repomanager.Users(s.db).List(ctx)
}

// CreateUser provisions an account. Admin only.
func (s *UserService) CreateUser(ctx context.Context, scope Scope, username, password string, isAdmin bool, defaultRate *float64) (*models.User, error) {
	if err := scope.RequireAdmin(); err != nil {
		return nil, err
	}
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, common.Validationf("username must not be empty")
	}
	if password == "" {
		return nil, common.Validationf("password must not be empty")
	}
	if defaultRate != nil && *defaultRate < 0 {
		return nil, common.Validationf("default hourly rate must not be negative")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	var created *models.User
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)
		if _, err := repo.GetByUsername(ctx, username); err == nil {
			return common.Validationf("username %q is already taken", username)
		} else if !errors.Is(err, common.ErrNotFound) {
			return err
		}
		created, err = repo.Create(ctx, &models.User{
			Username:          username,
			PasswordHash:      hash,
			IsAdmin:           isAdmin,
			DefaultHourlyRate: defaultRate,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "user created", "user", created.ID, "admin", created.IsAdmin)
	return created, nil
}

// UpdateUser edits an account's username, admin flag, default rate and
// optionally its password. Admin only.
func (s *UserService) UpdateUser(ctx context.Context, scope Scope, id int64, username string, isAdmin bool, defaultRate *float64, newPassword *string) error {
	if err := scope.RequireAdmin(); err != nil {
		return err
	}
	username = strings.TrimSpace(username)
	if username == "" {
		return common.Validationf("username must not be empty")
	}
	if defaultRate != nil && *defaultRate < 0 {
		return common.Validationf("default hourly rate must not be negative")
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)
		user, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if username != user.Username {
			if _, err := repo.GetByUsername(ctx, username); err == nil {
				return common.Validationf("username %q is already taken", username)
			} else if !errors.Is(err, common.ErrNotFound) {
				return err
			}
		}

		user.Username = username
		user.IsAdmin = isAdmin
		user.DefaultHourlyRate = defaultRate
		if err := repo.Update(ctx, user); err != nil {
			return err
		}

		if newPassword != nil {
			if *newPassword == "" {
				return common.Validationf("password must not be empty")
			}
			hash, err := auth.HashPassword(*newPassword)
			if err != nil {
				return err
			}
			if err := repo.UpdatePassword(ctx, id, hash); err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteUser removes an account together with its matters, time entries and
// sessions. Admin only; deleting one's own account fails instead of leaving
// the caller's session dangling.
func (s *UserService) DeleteUser(ctx context.Context, scope Scope, id int64) error {
	if err := scope.RequireAdmin(); err != nil {
		return err
	}
	if id == scope.UserID {
		return fmt.Errorf("%w: cannot delete own account", common.ErrInvalidOperation)
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := s.repomanager.Users(tx).GetByID(ctx, id); err != nil {
			return err
		}
		if err := s.repomanager.TimeEntries(tx).DeleteByOwner(ctx, id); err != nil {
			return err
		}
		if err := s.repomanager.Matters(tx).DeleteByOwner(ctx, id); err != nil {
			return err
		}
		if err := s.repomanager.Sessions(tx).DeleteForUser(ctx, id); err != nil {
			return err
		}
		return s.repomanager.Users(tx).Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	s.logger.Info(ctx, "user deleted", "user", id)
	return nil
}

// ChangePassword lets a user replace their own password after confirming the
// current one.
func (s *UserService) ChangePassword(ctx context.Context, scope Scope, current, updated string) error {
	if updated == "" {
		return common.Validationf("password must not be empty")
	}
	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByID(ctx, scope.UserID)
	if err != nil {
		return err
	}
	if err := auth.ComparePassword(user.PasswordHash, current); err != nil {
		return common.ErrUnauthorized
	}
	hash, err := auth.HashPassword(updated)
	if err != nil {
		return err
	}
	return repo.UpdatePassword(ctx, scope.UserID, hash)
}

// SetDefaultRate lets a user edit their own default hourly rate, the last
// stop of the rate cascade.
func (s *UserService) SetDefaultRate(ctx context.Context, scope Scope, rate *float64) error {
	if rate != nil && *rate < 0 {
		return common.Validationf("default hourly rate must not be negative")
	}
	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByID(ctx, scope.UserID)
	if err != nil {
		return err
	}
	user.DefaultHourlyRate = rate
	return repo.Update(ctx, user)
}
