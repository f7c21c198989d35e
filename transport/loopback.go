package transport

import (
	"github.com/opd-ai/simnet/limits"
	"github.com/sirupsen/logrus"
)

type loopMessage struct {
	data [limits.MaxMessageLen]byte
	size int
}

// loopRing is one role's inbound queue. send and get only ever grow; a slot
// is addressed by count modulo LoopbackDepth.
type loopRing struct {
	msgs [limits.LoopbackDepth]loopMessage
	get  uint64
	send uint64
}

// LoopbackChannel delivers datagrams between the client and server roles of
// the same process without touching a socket. Each role owns one inbound ring
// of limits.LoopbackDepth messages; a full ring overwrites its oldest unread
// message rather than blocking.
type LoopbackChannel struct {
	rings    [roleCount]loopRing
	observer Observer
}

// NewLoopbackChannel allocates both rings.
func NewLoopbackChannel() *LoopbackChannel {
	return &LoopbackChannel{observer: nopObserver{}}
}

// Push delivers payload as sent by role, into the ring its peer reads from.
// Payloads larger than limits.MaxMessageLen are dropped.
func (l *LoopbackChannel) Push(role Role, payload []byte) Result {
	if err := limits.ValidateLoopbackMessage(payload); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "LoopbackChannel.Push",
			"role":     role,
			"size":     len(payload),
			"error":    err.Error(),
		}).Warn("Dropping oversized loopback datagram")
		return dropped(ReasonOversized)
	}

	peer := role.Peer()
	ring := &l.rings[peer]
	if ring.send-ring.get >= limits.LoopbackDepth {
		logrus.WithFields(logrus.Fields{
			"function": "LoopbackChannel.Push",
			"role":     peer,
			"unread":   l.Pending(peer),
		}).Debug("Loopback ring full, overwriting oldest unread message")
		l.observer.DatagramReceived(peer, LoopbackAddress(), ring.msgs[ring.send%limits.LoopbackDepth].size, dropped(ReasonLoopbackOverflow))
	}

	msg := &ring.msgs[ring.send%limits.LoopbackDepth]
	msg.size = copy(msg.data[:], payload)
	ring.send++
	return delivered()
}

// Pop returns the oldest unread message in role's inbound ring. The returned
// slice aliases ring storage and is only valid until the next Push toward role.
func (l *LoopbackChannel) Pop(role Role) ([]byte, bool) {
	ring := &l.rings[role]
	if ring.send-ring.get > limits.LoopbackDepth {
		ring.get = ring.send - limits.LoopbackDepth
	}
	if ring.get >= ring.send {
		return nil, false
	}

	msg := &ring.msgs[ring.get%limits.LoopbackDepth]
	ring.get++
	return msg.data[:msg.size], true
}

// Pending returns how many messages role can still Pop.
func (l *LoopbackChannel) Pending(role Role) int {
	ring := &l.rings[role]
	n := ring.send - ring.get
	if n > limits.LoopbackDepth {
		n = limits.LoopbackDepth
	}
	return int(n)
}
