package app

import (
	"fmt"
	"strings"

	"github.com/yungbote/playbook-backend/internal/platform/gcp"
	"github.com/yungbote/playbook-backend/internal/platform/logger"
	"github.com/yungbote/playbook-backend/internal/platform/openai"
	"github.com/yungbote/playbook-backend/internal/realtime/bus"
)

type Clients struct {
	SSEBus       bus.Bus
	OpenaiClient openai.Client
	// nil when object storage is disabled or no export bucket is configured
	ExportBucket gcp.BucketService
}

func wireClients(log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")

	// Redis
	var sseBus bus.Bus
	if strings.TrimSpace(cfg.RedisAddr) != "" {
		b, err := bus.NewRedisBus(log, cfg.RedisAddr, cfg.RedisChannel)
		if err != nil {
			return Clients{}, fmt.Errorf("init redis SSE bus: %w", err)
		}
		sseBus = b
	}

	// Gcs
	bucket, err := resolveBucketService(log, cfg)
	if err != nil {
		closeBus(sseBus)
		return Clients{}, fmt.Errorf("init export bucket: %w", err)
	}

	// Openai
	openaiClient, err := openai.NewClient(log)
	if err != nil {
		closeBus(sseBus)
		return Clients{}, fmt.Errorf("init openai client: %w", err)
	}

	return Clients{
		SSEBus:       sseBus,
		OpenaiClient: openaiClient,
		ExportBucket: bucket,
	}, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	closeBus(c.SSEBus)
	c.SSEBus = nil
}

func closeBus(b bus.Bus) {
	if b != nil {
		_ = b.Close()
	}
}
