package transport

import (
	"errors"
	"net"
)

type fakeRead struct {
	data []byte
	from Address
	err  error
}

// fakeSocket replays queued reads and records writes.
type fakeSocket struct {
	reads    []fakeRead
	writes   [][]byte
	dests    []Address
	writeErr error
	closed   bool
	closeErr error
	port     int
}

func (s *fakeSocket) ReadFrom(p []byte) (int, Address, error) {
	if len(s.reads) == 0 {
		return 0, Address{}, ErrWouldBlock
	}
	r := s.reads[0]
	s.reads = s.reads[1:]
	if r.err != nil {
		return 0, r.from, r.err
	}
	return copy(p, r.data), r.from, nil
}

func (s *fakeSocket) WriteTo(p []byte, dest Address) error {
	if s.writeErr != nil {
		return s.writeErr
	}
	s.writes = append(s.writes, append([]byte(nil), p...))
	s.dests = append(s.dests, dest)
	return nil
}

func (s *fakeSocket) LocalAddr() net.Addr {
	return &net.UDPAddr{IP: net.IPv4zero, Port: s.port}
}

func (s *fakeSocket) Close() error {
	s.closed = true
	return s.closeErr
}

// fakeFactory counts opens and fails binds on selected ports.
type fakeFactory struct {
	opens     int
	attempts  []int
	failPorts map[int]bool
	sockets   []*fakeSocket
}

func newFakeFactory() *fakeFactory {
	return &fakeFactory{failPorts: make(map[int]bool)}
}

func (f *fakeFactory) Open(ip [4]byte, port int) (Socket, error) {
	f.attempts = append(f.attempts, port)
	if f.failPorts[port] {
		return nil, errors.New("address already in use")
	}
	f.opens++
	sock := &fakeSocket{port: port}
	f.sockets = append(f.sockets, sock)
	return sock, nil
}

type observedDatagram struct {
	role Role
	addr Address
	size int
	res  Result
}

type recordingObserver struct {
	sent     []observedDatagram
	received []observedDatagram
	changes  map[Role][]bool
}

func (o *recordingObserver) DatagramSent(role Role, dest Address, size int, res Result) {
	o.sent = append(o.sent, observedDatagram{role, dest, size, res})
}

func (o *recordingObserver) DatagramReceived(role Role, from Address, size int, res Result) {
	o.received = append(o.received, observedDatagram{role, from, size, res})
}

func (o *recordingObserver) SocketStateChanged(role Role, open bool) {
	if o.changes == nil {
		o.changes = make(map[Role][]bool)
	}
	o.changes[role] = append(o.changes[role], open)
}

// staticPolicy is a fixed interfaces.INetworkPolicy.
type staticPolicy struct {
	suppressed bool
	server     bool
	client     bool
}

func (p staticPolicy) NetworkingSuppressed() bool { return p.suppressed }
func (p staticPolicy) HostsServer() bool          { return p.server }
func (p staticPolicy) HostsClient() bool          { return p.client }
