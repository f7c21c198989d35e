// Package transport moves datagrams between the client and server roles of a
// real-time simulation, either in-process through loopback rings or across
// the network through non-blocking IPv4 UDP sockets, behind one API.
//
// # Architecture
//
// A [Transport] composes three parts:
//
//   - [LoopbackChannel]: one ring of limits.LoopbackDepth messages per role.
//     A send "as client" lands in the ring the server reads and vice versa.
//     A full ring overwrites its oldest unread message.
//   - [SocketManager]: at most one [Socket] per role, created by a
//     [SocketFactory]. [UDPFactory] opens real sockets; the testing package
//     provides an in-memory one.
//   - [Controller]: the disabled/enabled state machine that opens and closes
//     sockets according to an interfaces.INetworkPolicy.
//
// # Usage
//
//	tr := transport.New(transport.NewUDPFactory(), cfg)
//	if err := tr.SetEnabled(true, transport.EnableOptions{Interface: cfg.Interface}); err != nil {
//	    // one or more roles failed to bind; they stay closed
//	}
//
//	buf := make([]byte, limits.MaxMessageLen)
//	for {
//	    from, n, res := tr.Receive(transport.RoleServer, buf)
//	    if res.Status == transport.StatusEmpty {
//	        break
//	    }
//	    if res.Delivered() {
//	        handle(from, buf[:n])
//	    }
//	}
//
// # Polling Model
//
// Nothing in this package starts a goroutine or blocks. Receive returns
// immediately with or without data and Send never waits for buffer space.
// Callers drain each role they own once per tick. No locking is done; a
// Transport belongs to a single main loop.
//
// # Results
//
// Every Send and Receive returns a [Result] instead of a bare error:
//
//	StatusDelivered  the datagram was sent or received
//	StatusEmpty      nothing to receive (no data, or no socket)
//	StatusDropped    discarded; Reason is one of ReasonWouldBlock,
//	                 ReasonOversized, ReasonBroadcastUnsupported,
//	                 ReasonLoopbackOverflow, ReasonNoSocket
//	StatusFailed     an unexpected OS error; Err wraps ErrUnexpectedOS
//
// A failed operation never closes the socket. Sending to an [Address] whose
// kind is not loopback, IPv4 or broadcast panics: that is a caller bug.
//
// # Addresses
//
// [ParseAddress] accepts "localhost", a dotted quad, or a resolvable host
// name, each optionally followed by ":port". [EqualFull] compares host and
// port, [EqualBase] only the host. Two loopback addresses are always equal.
package transport
