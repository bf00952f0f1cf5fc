package exports

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ExportArtifact records one finished export. Key is the short public handle; StorageKey and
// URL are only set when the bytes were uploaded to object storage.
type ExportArtifact struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Key         string         `gorm:"column:artifact_key;not null;uniqueIndex" json:"key"`
	SessionID   uuid.UUID      `gorm:"type:uuid;not null;index" json:"session_id"`
	Kind        string         `gorm:"column:kind;not null;index" json:"kind"`
	Filename    string         `gorm:"column:filename;not null" json:"filename"`
	ContentType string         `gorm:"column:content_type;not null" json:"content_type"`
	SizeBytes   int64          `gorm:"column:size_bytes;not null" json:"size_bytes"`
	StorageKey  string         `gorm:"column:storage_key" json:"storage_key,omitempty"`
	URL         string         `gorm:"column:url" json:"url,omitempty"`
	CreatedAt   time.Time      `gorm:"not null;index" json:"created_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (ExportArtifact) TableName() string { return "export_artifact" }

func (a *ExportArtifact) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
