package exports

import (
	"errors"

	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"gorm.io/gorm"

	"github.com/yungbote/playbook-backend/internal/domain/exports"
	"github.com/yungbote/playbook-backend/internal/platform/dbctx"
	"github.com/yungbote/playbook-backend/internal/platform/logger"
)

const keyAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

type ExportArtifactRepo interface {
	Create(dbc dbctx.Context, a *exports.ExportArtifact) (*exports.ExportArtifact, error)
	GetByKey(dbc dbctx.Context, key string) (*exports.ExportArtifact, error)
	ListBySession(dbc dbctx.Context, sessionID uuid.UUID) ([]*exports.ExportArtifact, error)
}

type exportArtifactRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewExportArtifactRepo(db *gorm.DB, baseLog *logger.Logger) ExportArtifactRepo {
	return &exportArtifactRepo{db: db, log: baseLog.With("repo", "ExportArtifactRepo")}
}

// NewKey returns a short URL-safe handle for an artifact.
func NewKey() (string, error) {
	return gonanoid.Generate(keyAlphabet, 12)
}

func (r *exportArtifactRepo) Create(dbc dbctx.Context, a *exports.ExportArtifact) (*exports.ExportArtifact, error) {
	if a == nil {
		return nil, errors.New("nil artifact")
	}
	if a.Key == "" {
		key, err := NewKey()
		if err != nil {
			return nil, err
		}
		a.Key = key
	}
	if err := dbc.Handle(r.db).Create(a).Error; err != nil {
		return nil, err
	}
	return a, nil
}

func (r *exportArtifactRepo) GetByKey(dbc dbctx.Context, key string) (*exports.ExportArtifact, error) {
	if key == "" {
		return nil, nil
	}
	var a exports.ExportArtifact
	if err := dbc.Handle(r.db).Where("artifact_key = ?", key).Limit(1).Find(&a).Error; err != nil {
		return nil, err
	}
	if a.ID == uuid.Nil {
		return nil, nil
	}
	return &a, nil
}

func (r *exportArtifactRepo) ListBySession(dbc dbctx.Context, sessionID uuid.UUID) ([]*exports.ExportArtifact, error) {
	var out []*exports.ExportArtifact
	if sessionID == uuid.Nil {
		return out, nil
	}
	if err := dbc.Handle(r.db).Where("session_id = ?", sessionID).Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
