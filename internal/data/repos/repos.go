package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/playbook-backend/internal/data/repos/exports"
	"github.com/yungbote/playbook-backend/internal/data/repos/jobs"
	"github.com/yungbote/playbook-backend/internal/platform/logger"
)

type JobRunRepo = jobs.JobRunRepo
type ExportArtifactRepo = exports.ExportArtifactRepo

type Repos struct {
	JobRuns         JobRunRepo
	ExportArtifacts ExportArtifactRepo
}

func New(db *gorm.DB, log *logger.Logger) Repos {
	return Repos{
		JobRuns:         jobs.NewJobRunRepo(db, log),
		ExportArtifacts: exports.NewExportArtifactRepo(db, log),
	}
}
