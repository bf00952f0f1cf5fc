package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/playbook-backend/internal/domain/jobs"
	"github.com/yungbote/playbook-backend/internal/http/response"
	"github.com/yungbote/playbook-backend/internal/platform/dbctx"
)

// JobReader is the read side of the job service.
type JobReader interface {
	Get(dbc dbctx.Context, jobID uuid.UUID) (*jobs.JobRun, error)
}

type JobHandler struct {
	jobs JobReader
}

func NewJobHandler(jobs JobReader) *JobHandler {
	return &JobHandler{jobs: jobs}
}

// GET /api/jobs/:id
func (h *JobHandler) GetJob(c *gin.Context) {
	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "invalid_job_id", err)
		return
	}
	job, err := h.jobs.Get(dbctx.Context{Ctx: c.Request.Context()}, jobID)
	if err != nil {
		respondErr(c, err)
		return
	}
	if job == nil {
		response.RespondError(c, http.StatusNotFound, "job_not_found", errors.New("job not found"))
		return
	}
	response.RespondOK(c, gin.H{"job": job})
}
