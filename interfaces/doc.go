// Package interfaces defines the contracts between the simnet transport and
// the process that hosts it.
//
// # Network Policy
//
// [INetworkPolicy] is the capability a host injects so the transport knows
// which roles to open sockets for when networking is enabled, and whether
// networking is suppressed entirely (forced offline mode):
//
//	type listenServer struct{}
//
//	func (listenServer) NetworkingSuppressed() bool { return false }
//	func (listenServer) HostsServer() bool          { return true }
//	func (listenServer) HostsClient() bool          { return true }
//
// # Configuration
//
// [TransportConfig] holds the settings a host loads from flags, environment
// or a config file. It implements [INetworkPolicy] directly:
//
//	cfg := &interfaces.TransportConfig{
//	    Interface:    "localhost",
//	    ServerPort:   interfaces.PortUnspecified,
//	    Dedicated:    true,
//	    TickInterval: 50 * time.Millisecond,
//	}
//	if err := cfg.Validate(); err != nil {
//	    log.Fatalf("invalid config: %v", err)
//	}
//
// Port values use two sentinels: [PortUnspecified] selects the role's default
// port and [PortAny] requests an ephemeral port.
package interfaces
