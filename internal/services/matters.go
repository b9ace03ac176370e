package services

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/kappapiana/sentinel-solo/internal/common"
	"github.com/kappapiana/sentinel-solo/internal/dbx"
	"github.com/kappapiana/sentinel-solo/internal/logging"
	"github.com/kappapiana/sentinel-solo/internal/models"
	"github.com/kappapiana/sentinel-solo/internal/repositories/repomanager"
)

// PathSeparator joins the ancestor names of a matter's full path.
const PathSeparator = " > "

// MatterService implements the hierarchy operations: path derivation,
// listing, add with code suggestion, move and merge.
type MatterService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
}

// NewMatterService constructs a MatterService over the given store.
func NewMatterService(db *sql.DB, m repomanager.RepositoryManager, logger logging.Logger) *MatterService {
	return &MatterService{db: db, repomanager: m, logger: logger}
}

// MatterWithPath pairs a matter with its derived full path and the name of
// its root client.
type MatterWithPath struct {
	Matter *models.Matter
	Path   string
	Client string
}

// loadArena reads every matter of the owner into an id-indexed map. All
// hierarchy walks operate on this snapshot, so one engine call sees one
// consistent tree.
func loadArena(ctx context.Context, repo interface {
	ListByOwner(ctx context.Context, ownerID int64) ([]*models.Matter, error)
}, ownerID int64) (map[int64]*models.Matter, error) {
	list, err := repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	arena := make(map[int64]*models.Matter, len(list))
	for _, m := range list {
		arena[m.ID] = m
	}
	return arena, nil
}

// fullPath derives the matter's path by walking parent links root-ward. The
// walk is bounded by maxDepth; a longer chain means a corrupt parent link
// and is reported as a validation failure, never looped on.
func fullPath(arena map[int64]*models.Matter, id int64) (string, error) {
	names := make([]string, 0, 4)
	cur, ok := arena[id]
	if !ok {
		return "", common.ErrNotFound
	}
	for depth := 0; ; depth++ {
		if depth >= maxDepth {
			return "", common.Validationf("parent chain of matter %d exceeds depth %d", id, maxDepth)
		}
		names = append(names, cur.Name)
		if cur.ParentID == nil {
			break
		}
		next, ok := arena[*cur.ParentID]
		if !ok {
			return "", common.Validationf("matter %d has dangling parent %d", cur.ID, *cur.ParentID)
		}
		cur = next
	}
	for i, j := 0, len(names)-1; i < j; i, j = i+1, j-1 {
		names[i], names[j] = names[j], names[i]
	}
	return strings.Join(names, PathSeparator), nil
}

// rootOf returns the root client of the matter's chain.
func rootOf(arena map[int64]*models.Matter, id int64) (*models.Matter, error) {
	cur, ok := arena[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	for depth := 0; cur.ParentID != nil; depth++ {
		if depth >= maxDepth {
			return nil, common.Validationf("parent chain of matter %d exceeds depth %d", id, maxDepth)
		}
		next, ok := arena[*cur.ParentID]
		if !ok {
			return nil, common.Validationf("matter %d has dangling parent %d", cur.ID, *cur.ParentID)
		}
		cur = next
	}
	return cur, nil
}

// isDescendant reports whether id sits below ancestorID (or equals it).
func isDescendant(arena map[int64]*models.Matter, ancestorID, id int64) (bool, error) {
	cur, ok := arena[id]
	if !ok {
		return false, common.ErrNotFound
	}
	for depth := 0; ; depth++ {
		if depth >= maxDepth {
			return false, common.Validationf("parent chain of matter %d exceeds depth %d", id, maxDepth)
		}
		if cur.ID == ancestorID {
			return true, nil
		}
		if cur.ParentID == nil {
			return false, nil
		}
		next, ok := arena[*cur.ParentID]
		if !ok {
			return false, common.Validationf("matter %d has dangling parent %d", cur.ID, *cur.ParentID)
		}
		cur = next
	}
}

// descendantIDs expands the given ids to include every matter below them.
func descendantIDs(arena map[int64]*models.Matter, ids []int64) ([]int64, error) {
	selected := make(map[int64]bool, len(ids))
	for _, id := range ids {
		if _, ok := arena[id]; !ok {
			return nil, common.ErrNotFound
		}
		selected[id] = true
	}
	out := make([]int64, 0, len(ids))
	for id := range arena {
		for _, root := range ids {
			under, err := isDescendant(arena, root, id)
			if err != nil {
				return nil, err
			}
			if under {
				out = append(out, id)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

// ListWithPaths returns the scope owner's matters with derived paths,
// ordered by client name and then by path. With forTimer set, root clients
// are excluded (time cannot be logged on them); they still appear as the
// Client grouping value of their descendants.
func (s *MatterService) ListWithPaths(ctx context.Context, scope Scope, forTimer bool) ([]*MatterWithPath, error) {
	repo := s.repomanager.Matters(s.db)
	arena, err := loadArena(ctx, repo, scope.UserID)
	if err != nil {
		return nil, err
	}

	out := make([]*MatterWithPath, 0, len(arena))
	for _, m := range arena {
		if forTimer && m.IsRoot() {
			continue
		}
		path, err := fullPath(arena, m.ID)
		if err != nil {
			return nil, err
		}
		root, err := rootOf(arena, m.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, &MatterWithPath{Matter: m, Path: path, Client: root.Name})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Client != out[j].Client {
			return out[i].Client < out[j].Client
		}
		return out[i].Path < out[j].Path
	})
	return out, nil
}

// Get returns one of the scope owner's matters.
func (s *MatterService) Get(ctx context.Context, scope Scope, id int64) (*models.Matter, error) {
	return s.repomanager.Matters(s.db).GetByID(ctx, scope.UserID, id)
}

// FullPath derives the full path of one of the scope owner's matters.
func (s *MatterService) FullPath(ctx context.Context, scope Scope, id int64) (string, error) {
	arena, err := loadArena(ctx, s.repomanager.Matters(s.db), scope.UserID)
	if err != nil {
		return "", err
	}
	return fullPath(arena, id)
}

// EffectiveRate resolves the cascading hourly rate for one of the scope
// owner's matters.
func (s *MatterService) EffectiveRate(ctx context.Context, scope Scope, matterID int64) (*float64, RateSource, error) {
	user, err := s.repomanager.Users(s.db).GetByID(ctx, scope.UserID)
	if err != nil {
		return nil, RateSourceNone, err
	}
	arena, err := loadArena(ctx, s.repomanager.Matters(s.db), scope.UserID)
	if err != nil {
		return nil, RateSourceNone, err
	}
	return resolveRate(arena, user, matterID)
}

// Add creates a matter (or client, when parentID is nil) for the scope
// owner. A missing code is auto-suggested from the name; a supplied code
// must be unused within the owner's matters.
func (s *MatterService) Add(ctx context.Context, scope Scope, name string, parentID *int64, code *string, rate *float64) (*models.Matter, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, common.Validationf("matter name must not be empty")
	}
	if rate != nil && *rate < 0 {
		return nil, common.Validationf("hourly rate must not be negative")
	}

	var created *models.Matter
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Matters(tx)

		if parentID != nil {
			if _, err := repo.GetByID(ctx, scope.UserID, *parentID); err != nil {
				return fmt.Errorf("resolving parent: %w", err)
			}
		}

		matterCode := ""
		if code != nil && strings.TrimSpace(*code) != "" {
			matterCode = strings.TrimSpace(*code)
			taken, err := repo.CodeExists(ctx, scope.UserID, matterCode)
			if err != nil {
				return err
			}
			if taken {
				return common.Validationf("code %q is already in use", matterCode)
			}
		} else {
			suggested, err := suggestCode(ctx, repo, scope.UserID, name)
			if err != nil {
				return err
			}
			matterCode = suggested
		}

		m := &models.Matter{
			OwnerID:    scope.UserID,
			Code:       matterCode,
			Name:       name,
			ParentID:   parentID,
			HourlyRate: rate,
		}
		var err error
		created, err = repo.Create(ctx, m)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "matter added", "id", created.ID, "code", created.Code)
	return created, nil
}

// Update edits name, code and hourly rate of one of the scope owner's
// matters. The parent link is changed only through Move.
func (s *MatterService) Update(ctx context.Context, scope Scope, id int64, name, code string, rate *float64) error {
	name = strings.TrimSpace(name)
	code = strings.TrimSpace(code)
	if name == "" {
		return common.Validationf("matter name must not be empty")
	}
	if code == "" {
		return common.Validationf("matter code must not be empty")
	}
	if rate != nil && *rate < 0 {
		return common.Validationf("hourly rate must not be negative")
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Matters(tx)
		m, err := repo.GetByID(ctx, scope.UserID, id)
		if err != nil {
			return err
		}
		if code != m.Code {
			taken, err := repo.CodeExists(ctx, scope.UserID, code)
			if err != nil {
				return err
			}
			if taken {
				return common.Validationf("code %q is already in use", code)
			}
		}
		m.Name = name
		m.Code = code
		m.HourlyRate = rate
		return repo.Update(ctx, m)
	})
}

// Move reparents a matter (and transitively its subtree) under newParentID;
// nil promotes it to a root client. Cycles and cross-owner targets are
// rejected. Time entries keep their matter references, so derived paths
// update on the next read without touching entry rows.
func (s *MatterService) Move(ctx context.Context, scope Scope, matterID int64, newParentID *int64) error {
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Matters(tx)
		arena, err := loadArena(ctx, repo, scope.UserID)
		if err != nil {
			return err
		}
		if _, ok := arena[matterID]; !ok {
			return common.ErrNotFound
		}
		if newParentID != nil {
			if _, ok := arena[*newParentID]; !ok {
				return common.ErrNotFound
			}
			under, err := isDescendant(arena, matterID, *newParentID)
			if err != nil {
				return err
			}
			if under {
				return fmt.Errorf("%w: move would create a cycle", common.ErrInvalidOperation)
			}
		}
		return repo.UpdateParent(ctx, scope.UserID, matterID, newParentID)
	})
	if err != nil {
		return err
	}

	s.logger.Info(ctx, "matter moved", "id", matterID)
	return nil
}

// Merge folds sourceID into targetID: source's direct children are
// reparented onto target, source's time entries are reassigned to target,
// then source is deleted. The whole fold commits or rolls back as one.
func (s *MatterService) Merge(ctx context.Context, scope Scope, sourceID, targetID int64) error {
	if sourceID == targetID {
		return fmt.Errorf("%w: cannot merge a matter into itself", common.ErrInvalidOperation)
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Matters(tx)
		arena, err := loadArena(ctx, repo, scope.UserID)
		if err != nil {
			return err
		}
		if _, ok := arena[sourceID]; !ok {
			return common.ErrNotFound
		}
		if _, ok := arena[targetID]; !ok {
			return common.ErrNotFound
		}
		under, err := isDescendant(arena, sourceID, targetID)
		if err != nil {
			return err
		}
		if under {
			return fmt.Errorf("%w: cannot merge a matter into its own descendant", common.ErrInvalidOperation)
		}

		for _, m := range arena {
			if m.ParentID != nil && *m.ParentID == sourceID {
				if err := repo.UpdateParent(ctx, scope.UserID, m.ID, &targetID); err != nil {
					return err
				}
			}
		}

		entries := s.repomanager.TimeEntries(tx)
		if err := entries.ReassignMatter(ctx, scope.UserID, sourceID, targetID); err != nil {
			return err
		}

		return repo.Delete(ctx, scope.UserID, sourceID)
	})
	if err != nil {
		return err
	}

	s.logger.Info(ctx, "matter merged", "source", sourceID, "target", targetID)
	return nil
}

// suggestCode derives a slug from the name and disambiguates collisions
// within the owner's matters with -2, -3, ... suffixes.
func suggestCode(ctx context.Context, repo interface {
	CodeExists(ctx context.Context, ownerID int64, code string) (bool, error)
}, ownerID int64, name string) (string, error) {
	base := slugify(name)
	candidate := base
	for n := 2; ; n++ {
		taken, err := repo.CodeExists(ctx, ownerID, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, n)
	}
}

// slugify lowercases the name and collapses every non-alphanumeric run into
// a single dash.
func slugify(name string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	slug := strings.Trim(b.String(), "-")
	if slug == "" {
		return "matter"
	}
	return slug
}
