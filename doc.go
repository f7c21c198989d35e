// Package simnet is a connectionless datagram transport for a client/server
// game engine.
//
// A process hosts up to two endpoints, a client and a server. Datagrams
// between them inside one process travel over an in-memory loopback channel;
// datagrams to other hosts travel over non-blocking UDP sockets. Nothing in
// the transport ever blocks: a receive with nothing pending returns
// immediately, and every send or receive reports a transport.Result saying
// whether the datagram was delivered, dropped (and why) or failed.
//
// # Packages
//
//   - transport: addresses, the loopback channel, the socket manager, the
//     enable/disable controller and the Transport facade tying them together.
//   - interfaces: TransportConfig and the network policy the controller follows.
//   - limits: message and payload size bounds.
//   - testing: an in-memory network usable in place of OS sockets.
//   - metrics: a Prometheus observer for transport activity.
//   - config: viper-backed loading from file, environment and flags.
//   - factory: builds a Transport from a TransportConfig.
//   - cmd/simnet: the command-line front end.
//
// # Getting Started
//
//	cfg := &interfaces.TransportConfig{Interface: "localhost", TickInterval: 50 * time.Millisecond}
//	tr, err := factory.NewTransportFactory(cfg).CreateTransport()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer tr.Shutdown()
//
//	if err := tr.SetEnabled(true, transport.EnableOptions{}); err != nil {
//	    log.Print(err)
//	}
//
//	tr.Send(transport.RoleClient, []byte("hello"), transport.LoopbackAddress())
//
//	buf := make([]byte, limits.MaxMessageLen)
//	from, n, res := tr.Receive(transport.RoleServer, buf)
package simnet
