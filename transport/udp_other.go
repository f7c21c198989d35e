//go:build !unix

package transport

// UDPFactory opens OS-level IPv4 UDP sockets. Raw non-blocking access is
// only implemented for unix platforms.
type UDPFactory struct{}

// NewUDPFactory creates a factory for real sockets.
func NewUDPFactory() *UDPFactory {
	return &UDPFactory{}
}

// Open always fails on this platform.
func (f *UDPFactory) Open(ip [4]byte, port int) (Socket, error) {
	return nil, ErrPlatformUnsupported
}
