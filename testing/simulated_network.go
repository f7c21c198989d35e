package testing

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/opd-ai/simnet/transport"
	"github.com/sirupsen/logrus"
)

// firstEphemeralPort is where simulated ephemeral port allocation starts.
const firstEphemeralPort = 49152

// queueDepth bounds each simulated socket's receive queue; further datagrams
// are dropped like a full OS receive buffer.
const queueDepth = 64

// DeliveryRecord represents a datagram event for test verification
type DeliveryRecord struct {
	From      transport.Address
	To        transport.Address
	Size      int
	Timestamp int64
	Success   bool
	Error     error
}

// Stats summarizes simulated network activity.
type Stats struct {
	Opens      int
	Closes     int
	OpenNow    int
	Delivered  int
	Failed     int
	Broadcasts int
}

type datagram struct {
	data []byte
	from transport.Address
}

// SimulatedNetwork implements transport.SocketFactory entirely in memory.
// Sockets bound through it exchange datagrams with each other by address,
// so full client/server flows can be tested without OS networking.
type SimulatedNetwork struct {
	mu          sync.Mutex
	bound       map[uint16]*SimulatedSocket
	failPorts   map[int]error
	nextPort    uint16
	deliveryLog []DeliveryRecord
	stats       Stats
}

// NewSimulatedNetwork creates an empty simulated network.
func NewSimulatedNetwork() *SimulatedNetwork {
	logrus.WithField("function", "NewSimulatedNetwork").Info("Creating simulated network for testing")

	return &SimulatedNetwork{
		bound:     make(map[uint16]*SimulatedSocket),
		failPorts: make(map[int]error),
		nextPort:  firstEphemeralPort,
	}
}

// FailBind makes every future Open on port fail with err.
func (n *SimulatedNetwork) FailBind(port int, err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.failPorts[port] = err
}

// Open implements transport.SocketFactory. The bind IP is recorded but all
// simulated sockets share one host; ports must be unique.
func (n *SimulatedNetwork) Open(ip [4]byte, port int) (transport.Socket, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if err, ok := n.failPorts[port]; ok {
		return nil, err
	}

	if port == 0 {
		for n.bound[n.nextPort] != nil {
			n.nextPort++
		}
		port = int(n.nextPort)
		n.nextPort++
	}
	if n.bound[uint16(port)] != nil {
		return nil, fmt.Errorf("bind %d: address already in use", port)
	}

	localIP := ip
	if localIP == [4]byte{} {
		localIP = [4]byte{127, 0, 0, 1}
	}
	sock := &SimulatedSocket{
		network: n,
		local:   transport.IPv4Address(localIP[0], localIP[1], localIP[2], localIP[3], uint16(port)),
	}
	n.bound[uint16(port)] = sock
	n.stats.Opens++
	n.stats.OpenNow++

	logrus.WithFields(logrus.Fields{
		"function": "SimulatedNetwork.Open",
		"local":    sock.local.String(),
	}).Debug("Simulated socket bound")
	return sock, nil
}

func (n *SimulatedNetwork) deliver(from transport.Address, p []byte, dest transport.Address) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if dest.Kind == transport.KindBroadcast {
		n.stats.Broadcasts++
		for port, sock := range n.bound {
			if port == dest.Port && !transport.EqualFull(sock.local, from) {
				n.enqueueLocked(sock, from, p)
			}
		}
		return nil
	}

	sock := n.bound[dest.Port]
	if sock == nil {
		// UDP to a closed port vanishes silently.
		n.record(from, dest, len(p), fmt.Errorf("no socket bound on port %d", dest.Port))
		return nil
	}
	n.enqueueLocked(sock, from, p)
	return nil
}

func (n *SimulatedNetwork) enqueueLocked(sock *SimulatedSocket, from transport.Address, p []byte) {
	if len(sock.queue) >= queueDepth {
		n.record(from, sock.local, len(p), fmt.Errorf("receive queue full"))
		return
	}
	sock.queue = append(sock.queue, datagram{data: append([]byte(nil), p...), from: from})
	n.record(from, sock.local, len(p), nil)
}

func (n *SimulatedNetwork) record(from, to transport.Address, size int, err error) {
	n.deliveryLog = append(n.deliveryLog, DeliveryRecord{
		From:      from,
		To:        to,
		Size:      size,
		Timestamp: time.Now().UnixNano(),
		Success:   err == nil,
		Error:     err,
	})
	if err == nil {
		n.stats.Delivered++
	} else {
		n.stats.Failed++
	}
}

func (n *SimulatedNetwork) unbind(sock *SimulatedSocket) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.bound[sock.local.Port] == sock {
		delete(n.bound, sock.local.Port)
		n.stats.Closes++
		n.stats.OpenNow--
	}
}

// GetDeliveryLog returns the complete delivery log for test verification
func (n *SimulatedNetwork) GetDeliveryLog() []DeliveryRecord {
	n.mu.Lock()
	defer n.mu.Unlock()

	log := make([]DeliveryRecord, len(n.deliveryLog))
	copy(log, n.deliveryLog)
	return log
}

// ClearDeliveryLog clears the delivery log for test cleanup
func (n *SimulatedNetwork) ClearDeliveryLog() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.deliveryLog = nil
}

// GetStats returns a snapshot of open/close and delivery counters.
func (n *SimulatedNetwork) GetStats() Stats {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.stats
}

// SimulatedSocket is a transport.Socket bound on a SimulatedNetwork.
type SimulatedSocket struct {
	network *SimulatedNetwork
	local   transport.Address
	queue   []datagram
	closed  bool
	// WriteErr, when set, is returned by every WriteTo.
	WriteErr error
}

// ReadFrom implements transport.Socket.
func (s *SimulatedSocket) ReadFrom(p []byte) (int, transport.Address, error) {
	s.network.mu.Lock()
	defer s.network.mu.Unlock()

	if s.closed {
		return 0, transport.Address{}, net.ErrClosed
	}
	if len(s.queue) == 0 {
		return 0, transport.Address{}, transport.ErrWouldBlock
	}
	d := s.queue[0]
	s.queue = s.queue[1:]
	return copy(p, d.data), d.from, nil
}

// WriteTo implements transport.Socket.
func (s *SimulatedSocket) WriteTo(p []byte, dest transport.Address) error {
	if s.closed {
		return net.ErrClosed
	}
	if s.WriteErr != nil {
		return s.WriteErr
	}
	return s.network.deliver(s.local, p, dest)
}

// LocalAddr implements transport.Socket.
func (s *SimulatedSocket) LocalAddr() net.Addr {
	return s.local.UDPAddr()
}

// Close implements transport.Socket.
func (s *SimulatedSocket) Close() error {
	if s.closed {
		return net.ErrClosed
	}
	s.closed = true
	s.network.unbind(s)
	return nil
}

var _ transport.SocketFactory = (*SimulatedNetwork)(nil)
