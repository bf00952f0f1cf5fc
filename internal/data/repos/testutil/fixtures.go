package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/playbook-backend/internal/domain/jobs"
)

func SeedJobRun(tb testing.TB, ctx context.Context, tx *gorm.DB, sessionID uuid.UUID, status string, createdAt time.Time) *jobs.JobRun {
	tb.Helper()
	j := &jobs.JobRun{
		ID:        uuid.New(),
		SessionID: sessionID,
		JobType:   "test_job",
		Status:    status,
		Stage:     status,
		Payload:   datatypes.JSON([]byte("{}")),
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
	if err := tx.WithContext(ctx).Create(j).Error; err != nil {
		tb.Fatalf("seed job run: %v", err)
	}
	return j
}
