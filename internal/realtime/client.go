package realtime

import (
	"github.com/google/uuid"

	"github.com/yungbote/playbook-backend/internal/platform/logger"
)

// SSEClient is one open event stream. A client normally follows a single session channel.
type SSEClient struct {
	ID       uuid.UUID
	Channels map[string]bool
	Outbound chan SSEMessage
	done     chan struct{}
	Logger   *logger.Logger
}
