package transport

// Observer receives the outcome of every send, receive and socket state
// change. Implementations must not call back into the Transport.
type Observer interface {
	DatagramSent(role Role, dest Address, size int, res Result)
	DatagramReceived(role Role, from Address, size int, res Result)
	SocketStateChanged(role Role, open bool)
}

type nopObserver struct{}

func (nopObserver) DatagramSent(Role, Address, int, Result)     {}
func (nopObserver) DatagramReceived(Role, Address, int, Result) {}
func (nopObserver) SocketStateChanged(Role, bool)               {}
