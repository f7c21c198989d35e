package transport

import (
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/opd-ai/simnet/interfaces"
	"github.com/opd-ai/simnet/limits"
	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"
)

// Default bind ports applied when a role's requested port is unspecified.
const (
	DefaultServerPort = 27910
	DefaultClientPort = 27901
)

// Socket is an open, non-blocking datagram endpoint. ReadFrom and WriteTo
// must return immediately: ErrWouldBlock when there is nothing to read or no
// room to write, never a parked goroutine.
type Socket interface {
	// ReadFrom reads one datagram into p. A datagram longer than p is
	// truncated and n equals len(p).
	ReadFrom(p []byte) (n int, from Address, err error)

	// WriteTo sends p as one datagram to dest.
	WriteTo(p []byte, dest Address) error

	// LocalAddr returns the bound address.
	LocalAddr() net.Addr

	// Close releases the socket.
	Close() error
}

// SocketFactory creates broadcast-capable, non-blocking sockets bound to
// ip:port. Port 0 requests an ephemeral port.
type SocketFactory interface {
	Open(ip [4]byte, port int) (Socket, error)
}

// SocketManager owns at most one socket per role and applies the port
// selection policy and OS error classification. It is not safe for
// concurrent use.
type SocketManager struct {
	factory    SocketFactory
	sockets    [roleCount]Socket
	scratch    []byte
	serverPort int
	clientPort int
	observer   Observer
}

// NewSocketManager creates a manager with every role closed.
func NewSocketManager(factory SocketFactory) *SocketManager {
	return &SocketManager{
		factory:    factory,
		serverPort: DefaultServerPort,
		clientPort: DefaultClientPort,
		observer:   nopObserver{},
	}
}

// SetDefaultPorts overrides the ports used when Open is asked for
// interfaces.PortUnspecified.
func (m *SocketManager) SetDefaultPorts(server, client int) {
	m.serverPort = server
	m.clientPort = client
}

// IsOpen reports whether role currently has a socket.
func (m *SocketManager) IsOpen(role Role) bool {
	return m.sockets[role] != nil
}

// LocalAddr returns the bound address of role's socket, or nil when closed.
func (m *SocketManager) LocalAddr(role Role) net.Addr {
	if sock := m.sockets[role]; sock != nil {
		return sock.LocalAddr()
	}
	return nil
}

// Open creates and binds role's socket on iface. Opening an open role is a
// no-op. The server binds port, or the default server port when port is
// unspecified. The client does the same with the default client port and
// retries on an ephemeral port if that bind fails.
func (m *SocketManager) Open(role Role, iface string, port int) error {
	if m.sockets[role] != nil {
		return nil
	}

	ip, err := bindIP(iface)
	if err != nil {
		return m.openFailed(&SocketOpenError{Role: role, Interface: iface, Port: port, Err: err})
	}

	bindPort := port
	if bindPort == interfaces.PortUnspecified {
		bindPort = m.clientPort
		if role == RoleServer {
			bindPort = m.serverPort
		}
	}

	sock, err := m.factory.Open(ip, ephemeral(bindPort))
	if err != nil && role == RoleClient && bindPort != interfaces.PortAny {
		logrus.WithFields(logrus.Fields{
			"function":  "SocketManager.Open",
			"role":      role,
			"interface": iface,
			"port":      bindPort,
			"error":     err.Error(),
		}).Debug("Client port unavailable, retrying on an ephemeral port")
		bindPort = interfaces.PortAny
		sock, err = m.factory.Open(ip, 0)
	}
	if err != nil {
		return m.openFailed(&SocketOpenError{Role: role, Interface: iface, Port: bindPort, Err: err})
	}

	m.sockets[role] = sock
	m.observer.SocketStateChanged(role, true)

	logrus.WithFields(logrus.Fields{
		"function":   "SocketManager.Open",
		"role":       role,
		"local_addr": sock.LocalAddr().String(),
	}).Info("Socket opened")
	return nil
}

func (m *SocketManager) openFailed(err *SocketOpenError) error {
	logrus.WithFields(logrus.Fields{
		"function":  "SocketManager.Open",
		"role":      err.Role,
		"interface": err.Interface,
		"port":      err.Port,
		"error":     err.Err.Error(),
	}).Warn("Failed to open socket")
	return err
}

// Close releases role's socket. Closing a closed role is a no-op.
func (m *SocketManager) Close(role Role) error {
	sock := m.sockets[role]
	if sock == nil {
		return nil
	}
	m.sockets[role] = nil
	m.observer.SocketStateChanged(role, false)

	if err := sock.Close(); err != nil {
		return fmt.Errorf("close %s socket: %w", role, err)
	}
	logrus.WithFields(logrus.Fields{
		"function": "SocketManager.Close",
		"role":     role,
	}).Debug("Socket closed")
	return nil
}

// CloseAll releases every open socket and reports all close errors together.
func (m *SocketManager) CloseAll() error {
	var err error
	for _, role := range Roles {
		err = multierr.Append(err, m.Close(role))
	}
	return err
}

// Recv reads one datagram for role into buf without blocking. A datagram
// longer than len(buf) is discarded and buf is left untouched.
func (m *SocketManager) Recv(role Role, buf []byte) (Address, int, Result) {
	sock := m.sockets[role]
	if sock == nil {
		return Address{}, 0, empty(ReasonNoSocket)
	}

	// One spare byte distinguishes "fits exactly" from "was truncated".
	if cap(m.scratch) < len(buf)+1 {
		m.scratch = make([]byte, len(buf)+1)
	}
	scratch := m.scratch[:len(buf)+1]

	n, from, err := sock.ReadFrom(scratch)
	switch {
	case err == nil:
	case errors.Is(err, ErrWouldBlock):
		return Address{}, 0, empty(ReasonWouldBlock)
	case errors.Is(err, ErrOversizedDatagram):
		m.logOversized(role, from, len(buf))
		return from, 0, dropped(ReasonOversized)
	default:
		terr := &TransportError{Op: "recv", Role: role, Err: fmt.Errorf("%w: %w", ErrUnexpectedOS, err)}
		logrus.WithFields(logrus.Fields{
			"function": "SocketManager.Recv",
			"role":     role,
			"error":    err.Error(),
		}).Error("Receive failed")
		return Address{}, 0, failed(terr)
	}

	if n > len(buf) {
		m.logOversized(role, from, len(buf))
		return from, 0, dropped(ReasonOversized)
	}
	copy(buf, scratch[:n])
	return from, n, delivered()
}

func (m *SocketManager) logOversized(role Role, from Address, capacity int) {
	logrus.WithFields(logrus.Fields{
		"function": "SocketManager.Recv",
		"role":     role,
		"from":     from.String(),
		"capacity": capacity,
	}).Warn("Oversize packet dropped")
}

// SendTo writes payload to dest from role's socket without blocking.
// Would-block and broadcasts the link refuses are silent drops; any other
// OS failure is returned in the Result and the socket stays open.
func (m *SocketManager) SendTo(role Role, payload []byte, dest Address) Result {
	sock := m.sockets[role]
	if sock == nil {
		return dropped(ReasonNoSocket)
	}
	if err := limits.ValidateUDPPayload(payload); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "SocketManager.SendTo",
			"role":     role,
			"dest":     dest.String(),
			"error":    err.Error(),
		}).Warn("Refusing oversized datagram")
		return dropped(ReasonOversized)
	}

	err := sock.WriteTo(payload, dest)
	switch {
	case err == nil:
		return delivered()
	case errors.Is(err, ErrWouldBlock):
		return dropped(ReasonWouldBlock)
	case errors.Is(err, ErrAddressNotAvailable) && dest.Kind == KindBroadcast:
		return dropped(ReasonBroadcastUnsupported)
	case errors.Is(err, ErrOversizedDatagram):
		logrus.WithFields(logrus.Fields{
			"function": "SocketManager.SendTo",
			"role":     role,
			"dest":     dest.String(),
			"size":     len(payload),
		}).Warn("OS rejected datagram as too large")
		return dropped(ReasonOversized)
	}

	terr := &TransportError{Op: "send", Role: role, Addr: dest, Err: fmt.Errorf("%w: %w", ErrUnexpectedOS, err)}
	entry := logrus.WithFields(logrus.Fields{
		"function": "SocketManager.SendTo",
		"role":     role,
		"dest":     dest.String(),
		"error":    err.Error(),
	})
	if errors.Is(err, ErrAddressNotAvailable) {
		entry.Debug("Destination not available")
	} else {
		entry.Error("Send failed")
	}
	return failed(terr)
}

// bindIP maps an interface setting to the address to bind. Empty and
// "localhost" bind every interface.
func bindIP(iface string) ([4]byte, error) {
	if iface == "" || strings.EqualFold(iface, LoopbackHost) {
		return [4]byte{}, nil
	}
	addr, err := ParseAddress(iface)
	if err != nil {
		return [4]byte{}, err
	}
	return addr.IP, nil
}

func ephemeral(port int) int {
	if port == interfaces.PortAny {
		return 0
	}
	return port
}
