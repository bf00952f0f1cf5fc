package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/playbook-backend/internal/data/repos"
	repoexports "github.com/yungbote/playbook-backend/internal/data/repos/exports"
	"github.com/yungbote/playbook-backend/internal/domain/exports"
	"github.com/yungbote/playbook-backend/internal/export"
	"github.com/yungbote/playbook-backend/internal/platform/dbctx"
	"github.com/yungbote/playbook-backend/internal/platform/gcp"
	"github.com/yungbote/playbook-backend/internal/platform/logger"
)

// ObjectStore is the slice of the bucket service export archiving needs.
type ObjectStore interface {
	Upload(ctx context.Context, key, contentType string, data []byte) error
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	PublicURL(key string) string
}

var _ ObjectStore = (gcp.BucketService)(nil)

type ExportArtifactService interface {
	// ForSession returns the sink a session's export coordinator stores finished exports through.
	ForSession(sessionID uuid.UUID) export.ArtifactSink
	Get(ctx context.Context, key string) (*exports.ExportArtifact, error)
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]*exports.ExportArtifact, error)
	Open(ctx context.Context, a *exports.ExportArtifact) (io.ReadCloser, error)
}

type exportArtifactService struct {
	log   *logger.Logger
	repo  repos.ExportArtifactRepo
	store ObjectStore
}

// NewExportArtifactService records finished exports. store may be nil, in which case only the
// metadata row is written.
func NewExportArtifactService(baseLog *logger.Logger, repo repos.ExportArtifactRepo, store ObjectStore) ExportArtifactService {
	return &exportArtifactService{
		log:   baseLog.With("service", "ExportArtifactService"),
		repo:  repo,
		store: store,
	}
}

func (s *exportArtifactService) ForSession(sessionID uuid.UUID) export.ArtifactSink {
	return &sessionSink{svc: s, sessionID: sessionID}
}

func (s *exportArtifactService) Get(ctx context.Context, key string) (*exports.ExportArtifact, error) {
	return s.repo.GetByKey(dbctx.Context{Ctx: ctx}, key)
}

func (s *exportArtifactService) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]*exports.ExportArtifact, error) {
	return s.repo.ListBySession(dbctx.Context{Ctx: ctx}, sessionID)
}

// ErrArtifactNotStored is returned by Open for artifacts whose bytes were never uploaded.
var ErrArtifactNotStored = errors.New("export artifact has no stored copy")

func (s *exportArtifactService) Open(ctx context.Context, a *exports.ExportArtifact) (io.ReadCloser, error) {
	if a == nil || a.StorageKey == "" || s.store == nil {
		return nil, ErrArtifactNotStored
	}
	return s.store.Download(ctx, a.StorageKey)
}

func (s *exportArtifactService) record(ctx context.Context, sessionID uuid.UUID, art export.Artifact) (*exports.ExportArtifact, error) {
	key, err := repoexports.NewKey()
	if err != nil {
		return nil, fmt.Errorf("artifact key: %w", err)
	}
	row := &exports.ExportArtifact{
		Key:         key,
		SessionID:   sessionID,
		Kind:        art.Kind,
		Filename:    art.Filename,
		ContentType: art.ContentType,
		SizeBytes:   int64(len(art.Data)),
		CreatedAt:   time.Now().UTC(),
	}
	if s.store != nil {
		objectKey := fmt.Sprintf("exports/%s/%s/%s", sessionID, key, art.Filename)
		if err := s.store.Upload(ctx, objectKey, art.ContentType, art.Data); err != nil {
			return nil, fmt.Errorf("upload %s: %w", art.Filename, err)
		}
		row.StorageKey = objectKey
		row.URL = s.store.PublicURL(objectKey)
	}
	if _, err := s.repo.Create(dbctx.Context{Ctx: ctx}, row); err != nil {
		return nil, fmt.Errorf("record artifact: %w", err)
	}
	s.log.Info("Export artifact stored", "session_id", sessionID, "kind", art.Kind, "key", key, "size_bytes", row.SizeBytes)
	return row, nil
}

type sessionSink struct {
	svc       *exportArtifactService
	sessionID uuid.UUID
}

func (k *sessionSink) Store(ctx context.Context, a export.Artifact) (*exports.ExportArtifact, error) {
	return k.svc.record(ctx, k.sessionID, a)
}
