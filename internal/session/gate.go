package session

import (
	"sync"

	"github.com/yungbote/playbook-backend/internal/chat"
	"github.com/yungbote/playbook-backend/internal/domain/playbook"
)

// eventGate drops events from work that belongs to an earlier epoch. A send in progress holds the
// gate, so once advance returns nothing from the old epoch can reach the channel.
type eventGate struct {
	mu    sync.Mutex
	epoch int64
}

func (g *eventGate) advance(epoch int64) {
	g.mu.Lock()
	g.epoch = epoch
	g.mu.Unlock()
}

func (g *eventGate) send(epoch int64, fn func()) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.epoch == epoch {
		fn()
	}
}

// gatedNotifier forwards transcript changes while its epoch is current.
type gatedNotifier struct {
	gate  *eventGate
	epoch int64
	next  chat.Notifier
}

var _ chat.Notifier = (*gatedNotifier)(nil)

func (n *gatedNotifier) MessageCreated(msg playbook.ChatMessage) {
	n.gate.send(n.epoch, func() { n.next.MessageCreated(msg) })
}

func (n *gatedNotifier) MessageDelta(messageID, delta string) {
	n.gate.send(n.epoch, func() { n.next.MessageDelta(messageID, delta) })
}

func (n *gatedNotifier) MessageDone(msg playbook.ChatMessage) {
	n.gate.send(n.epoch, func() { n.next.MessageDone(msg) })
}

func (n *gatedNotifier) MessageError(messageID, errMsg string) {
	n.gate.send(n.epoch, func() { n.next.MessageError(messageID, errMsg) })
}
