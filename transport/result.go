package transport

import "fmt"

// Status is the outcome class of a send or receive.
type Status uint8

const (
	// StatusDelivered means the datagram was handed over (sent or received).
	StatusDelivered Status = iota
	// StatusEmpty means nothing was available to receive.
	StatusEmpty
	// StatusDropped means the datagram was discarded; Reason says why.
	StatusDropped
	// StatusFailed means an OS error prevented the operation; Err says which.
	StatusFailed
)

// String returns a human-readable representation of the Status.
func (s Status) String() string {
	switch s {
	case StatusDelivered:
		return "delivered"
	case StatusEmpty:
		return "empty"
	case StatusDropped:
		return "dropped"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("Status(%d)", uint8(s))
	}
}

// DropReason explains a StatusDropped or StatusEmpty result.
type DropReason uint8

const (
	ReasonNone DropReason = iota
	// ReasonWouldBlock: the socket had no data, or no capacity to send.
	ReasonWouldBlock
	// ReasonOversized: the datagram exceeded the buffer or slot capacity.
	ReasonOversized
	// ReasonBroadcastUnsupported: the link refused a broadcast.
	ReasonBroadcastUnsupported
	// ReasonLoopbackOverflow: an unread loopback message was overwritten.
	ReasonLoopbackOverflow
	// ReasonNoSocket: the role has no open socket.
	ReasonNoSocket
)

// String returns a human-readable representation of the DropReason.
func (r DropReason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonWouldBlock:
		return "would_block"
	case ReasonOversized:
		return "oversized"
	case ReasonBroadcastUnsupported:
		return "broadcast_unsupported"
	case ReasonLoopbackOverflow:
		return "loopback_overflow"
	case ReasonNoSocket:
		return "no_socket"
	default:
		return fmt.Sprintf("DropReason(%d)", uint8(r))
	}
}

// Result describes what happened to one datagram.
type Result struct {
	Status Status
	Reason DropReason
	Err    error
}

func delivered() Result {
	return Result{Status: StatusDelivered}
}

func empty(reason DropReason) Result {
	return Result{Status: StatusEmpty, Reason: reason}
}

func dropped(reason DropReason) Result {
	return Result{Status: StatusDropped, Reason: reason}
}

func failed(err error) Result {
	return Result{Status: StatusFailed, Err: err}
}

// Delivered reports whether the datagram was handed over.
func (r Result) Delivered() bool {
	return r.Status == StatusDelivered
}

// Error returns the failure cause, or nil unless Status is StatusFailed.
func (r Result) Error() error {
	if r.Status != StatusFailed {
		return nil
	}
	return r.Err
}

func (r Result) String() string {
	switch r.Status {
	case StatusDropped, StatusEmpty:
		if r.Reason != ReasonNone {
			return fmt.Sprintf("%s(%s)", r.Status, r.Reason)
		}
	case StatusFailed:
		return fmt.Sprintf("failed(%v)", r.Err)
	}
	return r.Status.String()
}
