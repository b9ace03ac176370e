package services

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/kappapiana/sentinel-solo/internal/common"
	"github.com/kappapiana/sentinel-solo/internal/config"
	"github.com/kappapiana/sentinel-solo/internal/dbx"
	"github.com/kappapiana/sentinel-solo/internal/logging"
	"github.com/kappapiana/sentinel-solo/internal/models"
	"github.com/kappapiana/sentinel-solo/internal/repositories/repomanager"
)

// Seams for S3 interactions so tests can intercept the client.
var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	putObject = func(client *s3.Client, ctx context.Context, in *s3.PutObjectInput) (*s3.PutObjectOutput, error) {
		return client.PutObject(ctx, in)
	}
)

// SnapshotService implements whole-database backup and restore, plus the
// optional offsite upload of the backup document.
type SnapshotService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	config      *config.Config
	logger      logging.Logger
}

// NewSnapshotService constructs a SnapshotService over the given store.
func NewSnapshotService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, logger logging.Logger) *SnapshotService {
	return &SnapshotService{db: db, repomanager: m, config: cfg, logger: logger}
}

// ExportAll serializes every user, matter and time entry into a
// self-describing document, ids and parent links carried verbatim. Admin
// only. Credential hashes are included as-is; they are opaque and cannot be
// inverted, and carrying them lets restored users keep their passwords.
func (s *SnapshotService) ExportAll(ctx context.Context, scope Scope) (*models.Snapshot, error) {
	if err := scope.RequireAdmin(); err != nil {
		return nil, err
	}

	doc := &models.Snapshot{
		Version:    models.SnapshotVersion,
		ExportedAt: now().UTC(),
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		userList, err := s.repomanager.Users(tx).List(ctx)
		if err != nil {
			return err
		}
		for _, u := range userList {
			doc.Users = append(doc.Users, models.SnapshotUser{
				ID:                u.ID,
				Username:          u.Username,
				PasswordHash:      u.PasswordHash,
				IsAdmin:           u.IsAdmin,
				DefaultHourlyRate: u.DefaultHourlyRate,
			})
		}

		matterList, err := s.repomanager.Matters(tx).ListAll(ctx)
		if err != nil {
			return err
		}
		for _, m := range matterList {
			doc.Matters = append(doc.Matters, models.SnapshotMatter{
				ID:         m.ID,
				OwnerID:    m.OwnerID,
				Code:       m.Code,
				Name:       m.Name,
				ParentID:   m.ParentID,
				HourlyRate: m.HourlyRate,
			})
		}

		entryList, err := s.repomanager.TimeEntries(tx).ListAll(ctx)
		if err != nil {
			return err
		}
		for _, e := range entryList {
			doc.TimeEntries = append(doc.TimeEntries, models.SnapshotTimeEntry{
				ID:              e.ID,
				OwnerID:         e.OwnerID,
				MatterID:        e.MatterID,
				Description:     e.Description,
				StartTime:       e.StartTime,
				EndTime:         e.EndTime,
				DurationSeconds: e.DurationSeconds,
				Invoiced:        e.Invoiced,
				ActivityGroupID: e.ActivityGroupID,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "snapshot exported",
		"users", len(doc.Users), "matters", len(doc.Matters), "entries", len(doc.TimeEntries))
	return doc, nil
}

// ImportAll replaces the entire dataset with the document's contents. The
// document is validated for referential integrity before any row is touched;
// a corrupt document fails whole with ErrCorruptSnapshot and leaves the
// prior dataset intact. Every session is deleted afterwards, forcing all
// users to re-authenticate against the restored data. Admin only.
func (s *SnapshotService) ImportAll(ctx context.Context, scope Scope, doc *models.Snapshot) error {
	if err := scope.RequireAdmin(); err != nil {
		return err
	}
	ordered, err := validateSnapshot(doc)
	if err != nil {
		return err
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.TimeEntries(tx).DeleteAll(ctx); err != nil {
			return err
		}
		if err := s.repomanager.Matters(tx).DeleteAll(ctx); err != nil {
			return err
		}
		if err := s.repomanager.Sessions(tx).DeleteAll(ctx); err != nil {
			return err
		}
		if err := s.repomanager.Users(tx).DeleteAll(ctx); err != nil {
			return err
		}

		userRepo := s.repomanager.Users(tx)
		for _, u := range doc.Users {
			if err := userRepo.Import(ctx, u); err != nil {
				return err
			}
		}
		matterRepo := s.repomanager.Matters(tx)
		for _, m := range ordered {
			if err := matterRepo.Import(ctx, m); err != nil {
				return err
			}
		}
		entryRepo := s.repomanager.TimeEntries(tx)
		for _, e := range doc.TimeEntries {
			if err := entryRepo.Import(ctx, e); err != nil {
				return err
			}
		}

		return s.repomanager.SyncIDSequences(ctx, tx)
	})
	if err != nil {
		return err
	}

	s.logger.Info(ctx, "snapshot imported",
		"users", len(doc.Users), "matters", len(doc.Matters), "entries", len(doc.TimeEntries))
	return nil
}

// validateSnapshot checks the document's internal consistency and returns
// the matters in parent-before-child insertion order. Every violation is
// reported as ErrCorruptSnapshot.
func validateSnapshot(doc *models.Snapshot) ([]models.SnapshotMatter, error) {
	corrupt := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", common.ErrCorruptSnapshot, fmt.Sprintf(format, args...))
	}

	if doc == nil {
		return nil, corrupt("empty document")
	}
	if doc.Version != models.SnapshotVersion {
		return nil, corrupt("unsupported version %d", doc.Version)
	}

	userIDs := make(map[int64]bool, len(doc.Users))
	usernames := make(map[string]bool, len(doc.Users))
	for _, u := range doc.Users {
		if userIDs[u.ID] {
			return nil, corrupt("duplicate user id %d", u.ID)
		}
		if u.Username == "" {
			return nil, corrupt("user %d has empty username", u.ID)
		}
		if usernames[u.Username] {
			return nil, corrupt("duplicate username %q", u.Username)
		}
		userIDs[u.ID] = true
		usernames[u.Username] = true
	}

	matters := make(map[int64]models.SnapshotMatter, len(doc.Matters))
	for _, m := range doc.Matters {
		if _, dup := matters[m.ID]; dup {
			return nil, corrupt("duplicate matter id %d", m.ID)
		}
		if !userIDs[m.OwnerID] {
			return nil, corrupt("matter %d references unknown owner %d", m.ID, m.OwnerID)
		}
		matters[m.ID] = m
	}
	for _, m := range doc.Matters {
		if m.ParentID == nil {
			continue
		}
		parent, ok := matters[*m.ParentID]
		if !ok {
			return nil, corrupt("matter %d references unknown parent %d", m.ID, *m.ParentID)
		}
		if parent.OwnerID != m.OwnerID {
			return nil, corrupt("matter %d and parent %d have different owners", m.ID, *m.ParentID)
		}
	}

	// Parent-before-child order; a pass that places nothing means a cycle.
	ordered := make([]models.SnapshotMatter, 0, len(doc.Matters))
	placed := make(map[int64]bool, len(doc.Matters))
	for len(ordered) < len(doc.Matters) {
		progressed := false
		for _, m := range doc.Matters {
			if placed[m.ID] {
				continue
			}
			if m.ParentID == nil || placed[*m.ParentID] {
				ordered = append(ordered, m)
				placed[m.ID] = true
				progressed = true
			}
		}
		if !progressed {
			return nil, corrupt("matter parent links contain a cycle")
		}
	}

	entryIDs := make(map[int64]bool, len(doc.TimeEntries))
	openByOwner := make(map[int64]bool)
	for _, e := range doc.TimeEntries {
		if entryIDs[e.ID] {
			return nil, corrupt("duplicate time entry id %d", e.ID)
		}
		entryIDs[e.ID] = true
		if !userIDs[e.OwnerID] {
			return nil, corrupt("time entry %d references unknown owner %d", e.ID, e.OwnerID)
		}
		if _, ok := matters[e.MatterID]; !ok {
			return nil, corrupt("time entry %d references unknown matter %d", e.ID, e.MatterID)
		}
		if e.EndTime == nil {
			if openByOwner[e.OwnerID] {
				return nil, corrupt("owner %d has more than one open time entry", e.OwnerID)
			}
			openByOwner[e.OwnerID] = true
		}
	}

	return ordered, nil
}

// UploadSnapshot exports the dataset and uploads the JSON document to the
// configured S3-compatible bucket. The object key is returned. Admin only;
// fails when no bucket is configured.
func (s *SnapshotService) UploadSnapshot(ctx context.Context, scope Scope) (string, error) {
	if s.config.S3Bucket == "" {
		return "", common.Validationf("no snapshot bucket configured")
	}

	doc, err := s.ExportAll(ctx, scope)
	if err != nil {
		return "", err
	}
	body, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", err
	}

	cfg, err := loadDefaultAWSConfig(ctx,
		awsconfig.WithRegion(s.config.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,
			s.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return "", err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
		o.UsePathStyle = true
	})

	key := snapshotObjectKey()
	contentType := "application/json"
	if _, err := putObject(client, ctx, &s3.PutObjectInput{
		Bucket:      &s.config.S3Bucket,
		Key:         &key,
		Body:        bytes.NewReader(body),
		ContentType: &contentType,
	}); err != nil {
		return "", err
	}

	s.logger.Info(ctx, "snapshot uploaded", "key", key, "bytes", len(body))
	return key, nil
}

// snapshotObjectKey builds a date-partitioned object key for one upload.
func snapshotObjectKey() string {
	d := now()
	return fmt.Sprintf("snapshots/%d/%d/%d/%v.json", d.Year(), d.Month(), d.Day(), uuid.New())
}
