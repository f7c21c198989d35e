package factory

import (
	"fmt"
	"sync"
	"time"

	"github.com/opd-ai/simnet/interfaces"
	"github.com/opd-ai/simnet/metrics"
	simtesting "github.com/opd-ai/simnet/testing"
	"github.com/opd-ai/simnet/transport"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

// TransportFactory creates transports based on configuration.
// It is safe for concurrent use; all methods are protected by an internal mutex.
type TransportFactory struct {
	mu         sync.RWMutex
	config     *interfaces.TransportConfig
	registerer prometheus.Registerer
	collector  *metrics.Collector
}

// TestConfigOption is a functional option for customizing test simulation configuration.
type TestConfigOption func(*interfaces.TransportConfig)

// NewTransportFactory creates a factory that builds transports from config.
// A nil config is rejected by CreateTransport.
func NewTransportFactory(config *interfaces.TransportConfig) *TransportFactory {
	logConfigurationInfo(config)
	return &TransportFactory{config: copyConfig(config)}
}

// logConfigurationInfo logs the configuration settings for debugging purposes.
func logConfigurationInfo(config *interfaces.TransportConfig) {
	if config == nil {
		return
	}
	logrus.WithFields(logrus.Fields{
		"function":       "NewTransportFactory",
		"interface":      config.Interface,
		"server_port":    config.ServerPort,
		"client_port":    config.ClientPort,
		"dedicated":      config.Dedicated,
		"use_simulation": config.UseSimulation,
	}).Info("Created transport factory with configuration")
}

// WithRegisterer reports every transport created to one metrics.Collector
// registered with reg. The collector is registered on first use and shared
// by later transports, so counters accumulate across rebuilds.
func (f *TransportFactory) WithRegisterer(reg prometheus.Registerer) *TransportFactory {
	f.mu.Lock()
	defer f.mu.Unlock()
	if reg != f.registerer {
		f.collector = nil
	}
	f.registerer = reg
	return f
}

// sharedCollector returns the collector for the current registerer, creating
// and registering it once. It returns nil when metrics are disabled.
func (f *TransportFactory) sharedCollector() (*metrics.Collector, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.registerer == nil {
		return nil, nil
	}
	if f.collector == nil {
		collector, err := metrics.NewCollector(f.registerer)
		if err != nil {
			return nil, err
		}
		f.collector = collector
	}
	return f.collector, nil
}

// CreateTransport builds a disabled Transport from the current configuration.
// Real UDP sockets are used unless UseSimulation is set.
func (f *TransportFactory) CreateTransport() (*transport.Transport, error) {
	f.mu.RLock()
	config := copyConfig(f.config)
	f.mu.RUnlock()

	if config == nil {
		return nil, fmt.Errorf("transport config is required")
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid transport config: %w", err)
	}

	var sockets transport.SocketFactory
	if config.UseSimulation {
		logrus.WithFields(logrus.Fields{
			"function": "CreateTransport",
			"type":     "simulation",
		}).Info("Creating transport on simulated network")
		sockets = simtesting.NewSimulatedNetwork()
	} else {
		logrus.WithFields(logrus.Fields{
			"function": "CreateTransport",
			"type":     "udp",
		}).Info("Creating transport on UDP sockets")
		sockets = transport.NewUDPFactory()
	}

	opts := []transport.Option{transport.WithShowNet(config.ShowNet)}
	collector, err := f.sharedCollector()
	if err != nil {
		return nil, fmt.Errorf("register transport metrics: %w", err)
	}
	if collector != nil {
		opts = append(opts, transport.WithObserver(collector))
	}

	return transport.New(sockets, config, opts...), nil
}

// EnableOptions returns the socket settings to pass to Transport.SetEnabled.
func (f *TransportFactory) EnableOptions() transport.EnableOptions {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.config == nil {
		return transport.EnableOptions{}
	}
	return transport.EnableOptions{
		Interface:  f.config.Interface,
		ServerPort: f.config.ServerPort,
		ClientPort: f.config.ClientPort,
	}
}

// WithTickInterval sets a custom poll interval for the test configuration.
func WithTickInterval(d time.Duration) TestConfigOption {
	return func(c *interfaces.TransportConfig) {
		c.TickInterval = d
	}
}

// WithDedicated makes the test host server-only.
func WithDedicated() TestConfigOption {
	return func(c *interfaces.TransportConfig) {
		c.Dedicated = true
	}
}

// WithNoUDP suppresses sockets in the test configuration.
func WithNoUDP() TestConfigOption {
	return func(c *interfaces.TransportConfig) {
		c.NoUDP = true
	}
}

// CreateSimulationForTesting creates a transport on a fresh simulated network
// and returns both. Default test configuration hosts both roles on default
// ports with a 10ms tick.
func (f *TransportFactory) CreateSimulationForTesting(opts ...TestConfigOption) (*transport.Transport, *simtesting.SimulatedNetwork) {
	testConfig := &interfaces.TransportConfig{
		Interface:     "localhost",
		UseSimulation: true,
		TickInterval:  10 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(testConfig)
	}

	logrus.WithFields(logrus.Fields{
		"function":  "CreateSimulationForTesting",
		"dedicated": testConfig.Dedicated,
		"no_udp":    testConfig.NoUDP,
	}).Info("Creating simulation transport for testing")

	sim := simtesting.NewSimulatedNetwork()
	return transport.New(sim, testConfig), sim
}

// SwitchToSimulation switches the configuration to use the simulated network
func (f *TransportFactory) SwitchToSimulation() {
	f.setSimulation(true)
}

// SwitchToReal switches the configuration to use OS sockets
func (f *TransportFactory) SwitchToReal() {
	f.setSimulation(false)
}

func (f *TransportFactory) setSimulation(on bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.config == nil {
		f.config = &interfaces.TransportConfig{}
	}

	logrus.WithFields(logrus.Fields{
		"function": "setSimulation",
		"previous": f.config.UseSimulation,
		"current":  on,
	}).Info("Switching factory socket backend")

	f.config.UseSimulation = on
}

// IsUsingSimulation returns true if the factory is configured for simulation
func (f *TransportFactory) IsUsingSimulation() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.config != nil && f.config.UseSimulation
}

// GetCurrentConfig returns a copy of the current configuration
func (f *TransportFactory) GetCurrentConfig() *interfaces.TransportConfig {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return copyConfig(f.config)
}

// UpdateConfig replaces the factory's configuration
func (f *TransportFactory) UpdateConfig(config *interfaces.TransportConfig) error {
	if config == nil {
		return fmt.Errorf("config cannot be nil")
	}
	if err := config.Validate(); err != nil {
		return fmt.Errorf("invalid transport config: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"function":       "UpdateConfig",
		"old_simulation": f.config != nil && f.config.UseSimulation,
		"new_simulation": config.UseSimulation,
	}).Info("Updating factory configuration")

	f.config = copyConfig(config)
	return nil
}

func copyConfig(c *interfaces.TransportConfig) *interfaces.TransportConfig {
	if c == nil {
		return nil
	}
	dup := *c
	return &dup
}
