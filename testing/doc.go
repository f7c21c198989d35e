// Package testing provides an in-memory network for deterministic testing of
// the simnet transport.
//
// # Overview
//
// [SimulatedNetwork] implements transport.SocketFactory. Sockets it opens
// exchange datagrams with one another by port, so a complete client/server
// flow (including bind conflicts, broadcasts and oversized datagrams) runs
// without any OS networking:
//
//	sim := testing.NewSimulatedNetwork()
//	tr := transport.New(sim, &interfaces.TransportConfig{})
//	_ = tr.SetEnabled(true, transport.EnableOptions{})
//
//	tr.Send(transport.RoleClient, []byte("hello"), serverAddr)
//	from, n, res := tr.Receive(transport.RoleServer, buf)
//
// # Delivery Logs
//
// Every datagram delivered or lost is recorded as a [DeliveryRecord]:
//
//   - From / To: source and destination addresses
//   - Size: payload size in bytes
//   - Timestamp: Unix nanoseconds when delivery occurred
//   - Success / Error: whether a socket accepted the datagram
//
// [SimulatedNetwork.GetStats] counts opens and closes, which makes socket
// lifecycle side effects easy to assert on. Use ClearDeliveryLog between
// test cases.
//
// # Failure Injection
//
// FailBind makes a port unbindable. SimulatedSocket.WriteErr forces a send
// error on one socket.
package testing
