// Package limits provides centralized datagram size limits for the simnet
// transport. This ensures consistent validation across the loopback and
// socket delivery paths.
package limits

import (
	"errors"
	"fmt"
)

const (
	// MaxMessageLen is the largest payload a loopback slot can hold.
	// It matches the conventional upper bound of a game datagram on the wire.
	MaxMessageLen = 1400

	// LoopbackDepth is the number of slots in each per-role loopback ring.
	// Must be a power of two.
	LoopbackDepth = 4

	// MaxUDPPayload is the largest payload a single IPv4 UDP datagram can carry.
	MaxUDPPayload = 65507
)

var (
	// ErrMessageEmpty indicates an empty datagram was provided
	ErrMessageEmpty = errors.New("empty datagram")

	// ErrMessageTooLarge indicates a datagram exceeds the maximum size
	ErrMessageTooLarge = errors.New("datagram too large")
)

// ValidateMessageSize validates a non-empty datagram against the specified
// maximum size. Returns an error with context including the actual and
// maximum sizes.
func ValidateMessageSize(message []byte, maxSize int) error {
	if len(message) == 0 {
		return ErrMessageEmpty
	}
	return validateCapacity("datagram", message, maxSize)
}

// ValidateLoopbackMessage validates a payload against MaxMessageLen.
// Empty payloads are allowed on the loopback path.
func ValidateLoopbackMessage(message []byte) error {
	return validateCapacity("loopback", message, MaxMessageLen)
}

// ValidateUDPPayload validates a payload against MaxUDPPayload.
// Empty payloads are legal UDP datagrams.
func ValidateUDPPayload(message []byte) error {
	return validateCapacity("udp", message, MaxUDPPayload)
}

func validateCapacity(kind string, message []byte, maxSize int) error {
	if len(message) > maxSize {
		return fmt.Errorf("%w: %s size %d exceeds limit %d", ErrMessageTooLarge, kind, len(message), maxSize)
	}
	return nil
}
