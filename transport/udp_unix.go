//go:build unix

package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"

	"golang.org/x/sys/unix"
)

// UDPFactory opens OS-level IPv4 UDP sockets.
type UDPFactory struct{}

// NewUDPFactory creates a factory for real sockets.
func NewUDPFactory() *UDPFactory {
	return &UDPFactory{}
}

// Open binds a non-blocking, broadcast-capable UDP socket on ip:port.
func (f *UDPFactory) Open(ip [4]byte, port int) (Socket, error) {
	lc := net.ListenConfig{Control: udpControl}
	addr := &net.UDPAddr{IP: net.IPv4(ip[0], ip[1], ip[2], ip[3]), Port: port}

	pc, err := lc.ListenPacket(context.Background(), "udp4", addr.String())
	if err != nil {
		return nil, err
	}
	conn := pc.(*net.UDPConn)

	raw, err := conn.SyscallConn()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("raw conn: %w", err)
	}
	return &udpSocket{conn: conn, raw: raw}, nil
}

// udpControl runs before bind.
func udpControl(_, _ string, c syscall.RawConn) error {
	var opErr error
	err := c.Control(func(fd uintptr) {
		if err := unix.SetNonblock(int(fd), true); err != nil {
			opErr = fmt.Errorf("set non-blocking: %w", err)
			return
		}
		if err := unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_BROADCAST, 1); err != nil {
			opErr = fmt.Errorf("set SO_BROADCAST: %w", err)
		}
	})
	if err != nil {
		return err
	}
	return opErr
}

// udpSocket issues exactly one recvfrom/sendto per call. Returning true from
// the RawConn callback stops the runtime poller from parking on EAGAIN.
type udpSocket struct {
	conn *net.UDPConn
	raw  syscall.RawConn
}

func (s *udpSocket) ReadFrom(p []byte) (int, Address, error) {
	var (
		n     int
		from  unix.Sockaddr
		opErr error
	)
	err := s.raw.Read(func(fd uintptr) bool {
		n, from, opErr = unix.Recvfrom(int(fd), p, 0)
		return true
	})
	if err != nil {
		return 0, Address{}, err
	}
	if opErr != nil {
		return 0, Address{}, classifyErrno(opErr)
	}
	return n, addressFromSockaddr(from), nil
}

func (s *udpSocket) WriteTo(p []byte, dest Address) error {
	sa := &unix.SockaddrInet4{Port: int(dest.Port), Addr: dest.IP}
	var opErr error
	err := s.raw.Write(func(fd uintptr) bool {
		opErr = unix.Sendto(int(fd), p, 0, sa)
		return true
	})
	if err != nil {
		return err
	}
	if opErr != nil {
		return classifyErrno(opErr)
	}
	return nil
}

func (s *udpSocket) LocalAddr() net.Addr {
	return s.conn.LocalAddr()
}

func (s *udpSocket) Close() error {
	return s.conn.Close()
}

func classifyErrno(err error) error {
	switch {
	case errors.Is(err, unix.EAGAIN), errors.Is(err, unix.EWOULDBLOCK), errors.Is(err, unix.EINTR):
		return ErrWouldBlock
	case errors.Is(err, unix.EADDRNOTAVAIL):
		return fmt.Errorf("%w: %w", ErrAddressNotAvailable, err)
	case errors.Is(err, unix.EMSGSIZE):
		return fmt.Errorf("%w: %w", ErrOversizedDatagram, err)
	default:
		return err
	}
}

func addressFromSockaddr(sa unix.Sockaddr) Address {
	if sa4, ok := sa.(*unix.SockaddrInet4); ok {
		return Address{Kind: KindIPv4, IP: sa4.Addr, Port: uint16(sa4.Port)}
	}
	return Address{}
}
