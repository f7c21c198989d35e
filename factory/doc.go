// Package factory builds transport.Transport values from an
// interfaces.TransportConfig.
//
// The factory hides the choice of socket backend from callers: with
// UseSimulation set, transports bind on an in-memory simulated network
// from the testing package; otherwise they bind real non-blocking UDP
// sockets. The same consuming code runs against either.
//
// # Usage
//
//	cfg, err := config.Load(config.New(), "")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	f := factory.NewTransportFactory(cfg).WithRegisterer(prometheus.DefaultRegisterer)
//	tr, err := f.CreateTransport()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := tr.SetEnabled(true, f.EnableOptions()); err != nil {
//	    log.Warn(err)
//	}
//
// # Testing Support
//
// CreateSimulationForTesting returns a transport together with the simulated
// network it is bound to, so tests can inspect the delivery log:
//
//	tr, sim := factory.NewTransportFactory(nil).CreateSimulationForTesting()
//	_ = tr.SetEnabled(true, transport.EnableOptions{})
//	log := sim.GetDeliveryLog()
//
// # Mode Switching
//
// SwitchToSimulation and SwitchToReal change the backend used by subsequent
// CreateTransport calls. Transports already created keep their sockets.
package factory
