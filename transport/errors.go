package transport

import (
	"errors"
	"fmt"
)

var (
	// ErrAddressParse is wrapped by every address parsing failure.
	ErrAddressParse = errors.New("address parse failed")

	// ErrSocketOpen is wrapped by every socket create or bind failure.
	ErrSocketOpen = errors.New("socket open failed")

	// ErrWouldBlock means no datagram or no send capacity is available right now.
	// It never reaches callers of Transport; it becomes an Empty or Dropped result.
	ErrWouldBlock = errors.New("operation would block")

	// ErrOversizedDatagram means a datagram did not fit the receiving buffer
	// or the OS refused it as too large.
	ErrOversizedDatagram = errors.New("oversized datagram")

	// ErrAddressNotAvailable is the OS refusing a destination, which on a
	// broadcast means the link does not support broadcasting.
	ErrAddressNotAvailable = errors.New("address not available")

	// ErrUnexpectedOS wraps any other OS failure on send or receive.
	ErrUnexpectedOS = errors.New("unexpected os error")

	// ErrPlatformUnsupported is returned by UDPFactory where raw socket access is unavailable.
	ErrPlatformUnsupported = errors.New("udp sockets unsupported on this platform")

	errEmptyAddress = errors.New("empty address")
)

// AddressParseError reports text that could not be turned into an Address.
type AddressParseError struct {
	Text string
	Err  error
}

func (e *AddressParseError) Error() string {
	return fmt.Sprintf("parse address %q: %v", e.Text, e.Err)
}

// Unwrap allows errors.Is to match both ErrAddressParse and the cause.
func (e *AddressParseError) Unwrap() []error {
	return []error{ErrAddressParse, e.Err}
}

// SocketOpenError reports a role whose socket could not be created or bound.
// The role stays closed until the next enable cycle.
type SocketOpenError struct {
	Role      Role
	Interface string
	Port      int
	Err       error
}

func (e *SocketOpenError) Error() string {
	return fmt.Sprintf("open %s socket on %q port %d: %v", e.Role, e.Interface, e.Port, e.Err)
}

// Unwrap allows errors.Is to match both ErrSocketOpen and the cause.
func (e *SocketOpenError) Unwrap() []error {
	return []error{ErrSocketOpen, e.Err}
}

// TransportError reports a failed send or receive. The socket stays open.
type TransportError struct {
	Op   string
	Role Role
	Addr Address
	Err  error
}

func (e *TransportError) Error() string {
	if e.Addr.Kind == KindInvalid {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Role, e.Err)
	}
	return fmt.Sprintf("%s %s %s: %v", e.Op, e.Role, e.Addr, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
