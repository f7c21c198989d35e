package transport

import (
	"fmt"
	"net"

	"github.com/opd-ai/simnet/interfaces"
	"github.com/sirupsen/logrus"
)

// Transport is the single send/receive surface for both roles. It routes
// loopback destinations through the in-process rings and everything else
// through the role's socket. A Transport is owned by one main loop and is not
// safe for concurrent use.
type Transport struct {
	loopback   *LoopbackChannel
	sockets    *SocketManager
	controller *Controller
	observer   Observer
	showNet    bool
}

// Option configures a Transport.
type Option func(*Transport)

// WithObserver reports every datagram outcome and socket change to o.
func WithObserver(o Observer) Option {
	return func(t *Transport) {
		t.observer = o
	}
}

// WithDefaultPorts overrides the ports used for interfaces.PortUnspecified.
func WithDefaultPorts(server, client int) Option {
	return func(t *Transport) {
		t.sockets.SetDefaultPorts(server, client)
	}
}

// WithShowNet enables per-datagram logging.
func WithShowNet(on bool) Option {
	return func(t *Transport) {
		t.showNet = on
	}
}

// New creates a Transport with networking disabled. Sockets come from
// factory once SetEnabled(true, ...) is called; policy decides which roles.
func New(factory SocketFactory, policy interfaces.INetworkPolicy, opts ...Option) *Transport {
	sockets := NewSocketManager(factory)
	t := &Transport{
		loopback:   NewLoopbackChannel(),
		sockets:    sockets,
		controller: NewController(sockets, policy),
		observer:   nopObserver{},
	}
	for _, opt := range opts {
		opt(t)
	}
	t.loopback.observer = t.observer
	t.sockets.observer = t.observer
	return t
}

// SetEnabled switches networking on or off. See Controller.SetEnabled.
func (t *Transport) SetEnabled(want bool, opts EnableOptions) error {
	return t.controller.SetEnabled(want, opts)
}

// Enabled reports whether networking is enabled.
func (t *Transport) Enabled() bool {
	return t.controller.Enabled()
}

// Shutdown closes every socket.
func (t *Transport) Shutdown() {
	t.controller.Shutdown()
}

// SetShowNet toggles per-datagram logging.
func (t *Transport) SetShowNet(on bool) {
	t.showNet = on
}

// LocalAddr returns role's bound socket address, or nil.
func (t *Transport) LocalAddr(role Role) net.Addr {
	return t.sockets.LocalAddr(role)
}

// Send transmits payload as role to dest. It never blocks. Sending to an
// address that is neither loopback, IPv4 nor broadcast is a programming error
// and panics.
func (t *Transport) Send(role Role, payload []byte, dest Address) Result {
	var res Result
	switch dest.Kind {
	case KindLoopback:
		res = t.loopback.Push(role, payload)
	case KindIPv4, KindBroadcast:
		res = t.sockets.SendTo(role, payload, dest)
	default:
		panic(fmt.Sprintf("transport: send to bad address type %s", dest.Kind))
	}

	t.observer.DatagramSent(role, dest, len(payload), res)
	if t.showNet {
		logrus.WithFields(logrus.Fields{
			"function": "Transport.Send",
			"role":     role,
			"dest":     dest.String(),
			"size":     len(payload),
			"result":   res.String(),
		}).Info("send")
	}
	return res
}

// Receive fills buf with the next datagram for role, loopback first, and
// returns its source and length. It never blocks; when nothing is available
// the result status is StatusEmpty. A datagram longer than len(buf) is
// dropped and buf is left untouched.
func (t *Transport) Receive(role Role, buf []byte) (Address, int, Result) {
	from, n, res := t.receive(role, buf)

	t.observer.DatagramReceived(role, from, n, res)
	if t.showNet && res.Status != StatusEmpty {
		logrus.WithFields(logrus.Fields{
			"function": "Transport.Receive",
			"role":     role,
			"from":     from.String(),
			"size":     n,
			"result":   res.String(),
		}).Info("recv")
	}
	return from, n, res
}

func (t *Transport) receive(role Role, buf []byte) (Address, int, Result) {
	if msg, ok := t.loopback.Pop(role); ok {
		if len(msg) > len(buf) {
			logrus.WithFields(logrus.Fields{
				"function": "Transport.Receive",
				"role":     role,
				"size":     len(msg),
				"capacity": len(buf),
			}).Warn("Oversize loopback packet dropped")
			return LoopbackAddress(), 0, dropped(ReasonOversized)
		}
		n := copy(buf, msg)
		return LoopbackAddress(), n, delivered()
	}
	return t.sockets.Recv(role, buf)
}
