package bus

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/yungbote/playbook-backend/internal/platform/logger"
	"github.com/yungbote/playbook-backend/internal/realtime"
)

func encode(t *testing.T, env envelope) string {
	t.Helper()
	raw, err := json.Marshal(env)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return string(raw)
}

func TestRedisBusChannels(t *testing.T) {
	b := newRedisBus(logger.Nop(), nil, " playbook:sse: ")
	if got := b.channelFor("abc"); got != "playbook:sse:abc" {
		t.Fatalf("channelFor: %q", got)
	}
	if got := newRedisBus(logger.Nop(), nil, "").channelFor("*"); got != "playbook:sse:*" {
		t.Fatalf("default pattern: %q", got)
	}
}

func TestRedisBusDecode(t *testing.T) {
	b := newRedisBus(logger.Nop(), nil, "pb")
	msg := realtime.SSEMessage{Channel: "s-1", Event: realtime.SSEEventChatDelta, Data: map[string]any{"delta": "hi"}}
	good := envelope{V: envelopeVersion, Origin: "other", SentAt: time.Now().UTC(), Message: msg}

	got, err := b.decode("pb:s-1", encode(t, good))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Channel != "s-1" || got.Event != realtime.SSEEventChatDelta {
		t.Fatalf("unexpected message %+v", got)
	}

	wrongVersion := good
	wrongVersion.V = 99
	cases := map[string][2]string{
		"not json":        {"pb:s-1", "{"},
		"wrong version":   {"pb:s-1", encode(t, wrongVersion)},
		"wrong channel":   {"pb:s-2", encode(t, good)},
		"missing session": {"pb:", encode(t, envelope{V: envelopeVersion})},
	}
	for name, tc := range cases {
		if _, err := b.decode(tc[0], tc[1]); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestRedisBusRequiresClient(t *testing.T) {
	var nilBus *redisBus
	if err := nilBus.Publish(context.Background(), realtime.SSEMessage{Channel: "s-1"}); err == nil {
		t.Fatalf("nil bus published")
	}
	if err := nilBus.Close(); err != nil {
		t.Fatalf("nil Close: %v", err)
	}
	b := newRedisBus(logger.Nop(), nil, "pb")
	if err := b.Publish(context.Background(), realtime.SSEMessage{Event: realtime.SSEEventChatDone}); err == nil || !strings.Contains(err.Error(), "not initialized") {
		t.Fatalf("unexpected error %v", err)
	}
}
