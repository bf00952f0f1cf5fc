package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/playbook-backend/internal/observability"
	"github.com/yungbote/playbook-backend/internal/platform/logger"
	"github.com/yungbote/playbook-backend/internal/realtime"
)

const (
	defaultChannelPrefix = "playbook:sse"
	envelopeVersion      = 1
)

// envelope is the wire form of a session event on the bus.
type envelope struct {
	V       int                 `json:"v"`
	Origin  string              `json:"origin"`
	SentAt  time.Time           `json:"sent_at"`
	Message realtime.SSEMessage `json:"message"`
}

// redisBus publishes each session's events on <prefix>:<session id> and forwards every session
// channel to the local hub through one pattern subscription.
type redisBus struct {
	log    *logger.Logger
	rdb    *goredis.Client
	prefix string
	origin string
}

func NewRedisBus(log *logger.Logger, addr, prefix string) (Bus, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return newRedisBus(log, rdb, prefix), nil
}

func newRedisBus(log *logger.Logger, rdb *goredis.Client, prefix string) *redisBus {
	prefix = strings.TrimRight(strings.TrimSpace(prefix), ":")
	if prefix == "" {
		prefix = defaultChannelPrefix
	}
	origin := uuid.NewString()
	return &redisBus{
		log:    log.With("service", "RedisSSEBus", "origin", origin),
		rdb:    rdb,
		prefix: prefix,
		origin: origin,
	}
}

// channelFor maps a session channel onto its Redis channel.
func (b *redisBus) channelFor(sessionChannel string) string {
	return b.prefix + ":" + sessionChannel
}

func (b *redisBus) Publish(ctx context.Context, msg realtime.SSEMessage) error {
	if b == nil || b.rdb == nil {
		return fmt.Errorf("redis SSE bus not initialized")
	}
	if strings.TrimSpace(msg.Channel) == "" {
		return fmt.Errorf("publish %s: empty session channel", msg.Event)
	}
	raw, err := json.Marshal(envelope{V: envelopeVersion, Origin: b.origin, SentAt: time.Now().UTC(), Message: msg})
	if err != nil {
		observability.Current().IncBus("publish", "encode_error")
		return err
	}
	if err := b.rdb.Publish(ctx, b.channelFor(msg.Channel), raw).Err(); err != nil {
		observability.Current().IncBus("publish", "error")
		return err
	}
	observability.Current().IncBus("publish", "ok")
	return nil
}

func (b *redisBus) StartForwarder(ctx context.Context, onMsg func(m realtime.SSEMessage)) error {
	if b == nil || b.rdb == nil {
		return fmt.Errorf("redis SSE bus not initialized")
	}
	if onMsg == nil {
		return fmt.Errorf("onMsg callback required")
	}

	sub := b.rdb.PSubscribe(ctx, b.channelFor("*"))
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("redis psubscribe: %w", err)
	}

	go func() {
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-ch:
				if !ok || m == nil {
					return
				}
				msg, err := b.decode(m.Channel, m.Payload)
				if err != nil {
					observability.Current().IncBus("forward", "dropped")
					b.log.Warn("bad redis SSE payload", "channel", m.Channel, "error", err)
					continue
				}
				observability.Current().IncBus("forward", "ok")
				onMsg(msg)
			}
		}
	}()
	return nil
}

// decode unwraps an envelope and checks it was published on its own session's channel.
func (b *redisBus) decode(channel, payload string) (realtime.SSEMessage, error) {
	var env envelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		return realtime.SSEMessage{}, err
	}
	if env.V != envelopeVersion {
		return realtime.SSEMessage{}, fmt.Errorf("unsupported envelope version %d", env.V)
	}
	if env.Message.Channel == "" || b.channelFor(env.Message.Channel) != channel {
		return realtime.SSEMessage{}, fmt.Errorf("message for %q arrived on %q", env.Message.Channel, channel)
	}
	return env.Message, nil
}

func (b *redisBus) Close() error {
	if b == nil || b.rdb == nil {
		return nil
	}
	return b.rdb.Close()
}
