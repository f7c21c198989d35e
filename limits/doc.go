// Package limits provides centralized datagram size constants and validation
// functions for the simnet transport.
//
// # Size Hierarchy
//
//   - MaxMessageLen (1400 bytes): capacity of one loopback slot. Payloads sent
//     over the in-process loopback path must fit.
//
//   - MaxUDPPayload (65507 bytes): the largest payload a single IPv4 UDP
//     datagram can carry. Larger payloads are rejected before reaching the OS.
//
// LoopbackDepth fixes the number of unread messages each role can buffer on
// the loopback path before the oldest is overwritten.
//
// # Validation Functions
//
//	if err := limits.ValidateLoopbackMessage(payload); err != nil {
//	    // errors.Is(err, limits.ErrMessageTooLarge)
//	}
//
// ValidateMessageSize additionally rejects empty datagrams; the command-line
// sender uses it so an empty message argument is reported instead of sent:
//
//	err := limits.ValidateMessageSize(data, limits.MaxUDPPayload)
package limits
