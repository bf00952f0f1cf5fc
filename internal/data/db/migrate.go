package db

import (
	"gorm.io/gorm"

	"github.com/yungbote/playbook-backend/internal/domain/exports"
	"github.com/yungbote/playbook-backend/internal/domain/jobs"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		&jobs.JobRun{},
		&exports.ExportArtifact{},
	)
}
