package factory

import (
	"strings"
	"testing"
	"time"

	"github.com/opd-ai/simnet/interfaces"
	"github.com/opd-ai/simnet/metrics"
	"github.com/opd-ai/simnet/transport"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func simConfig() *interfaces.TransportConfig {
	return &interfaces.TransportConfig{
		Interface:     "localhost",
		UseSimulation: true,
		TickInterval:  50 * time.Millisecond,
	}
}

func TestNewTransportFactoryCopiesConfig(t *testing.T) {
	cfg := simConfig()
	f := NewTransportFactory(cfg)

	cfg.UseSimulation = false
	assert.True(t, f.IsUsingSimulation(), "factory must not alias the caller's config")

	got := f.GetCurrentConfig()
	got.ServerPort = 1234
	assert.Equal(t, 0, f.GetCurrentConfig().ServerPort)
}

func TestCreateTransportRejectsBadConfig(t *testing.T) {
	_, err := NewTransportFactory(nil).CreateTransport()
	assert.Error(t, err)

	bad := simConfig()
	bad.Dedicated = true
	bad.ClientOnly = true
	_, err = NewTransportFactory(bad).CreateTransport()
	assert.ErrorIs(t, err, interfaces.ErrConflictingRoles)
}

func TestCreateTransportSimulation(t *testing.T) {
	f := NewTransportFactory(simConfig())
	tr, err := f.CreateTransport()
	require.NoError(t, err)
	defer tr.Shutdown()

	require.NoError(t, tr.SetEnabled(true, f.EnableOptions()))
	assert.NotNil(t, tr.LocalAddr(transport.RoleServer))
	assert.NotNil(t, tr.LocalAddr(transport.RoleClient))
}

func TestCreateTransportWithMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	f := NewTransportFactory(simConfig()).WithRegisterer(reg)

	tr, err := f.CreateTransport()
	require.NoError(t, err)
	defer tr.Shutdown()

	res := tr.Send(transport.RoleClient, []byte("ping"), transport.LoopbackAddress())
	require.True(t, res.Delivered())

	count, err := testutil.GatherAndCount(reg, "simnet_datagrams_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestCreateTransportTwiceSharesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	f := NewTransportFactory(simConfig()).WithRegisterer(reg)

	first, err := f.CreateTransport()
	require.NoError(t, err)
	first.Send(transport.RoleClient, []byte("one"), transport.LoopbackAddress())
	first.Shutdown()

	f.SwitchToReal()
	f.SwitchToSimulation()
	second, err := f.CreateTransport()
	require.NoError(t, err)
	defer second.Shutdown()
	second.Send(transport.RoleClient, []byte("two"), transport.LoopbackAddress())

	expected := `
# HELP simnet_datagrams_total Datagrams by role, direction, status and drop reason.
# TYPE simnet_datagrams_total counter
simnet_datagrams_total{direction="send",reason="none",role="client",status="delivered"} 2
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "simnet_datagrams_total"))
}

func TestCreateTransportRegistererInUse(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := metrics.NewCollector(reg)
	require.NoError(t, err)

	_, err = NewTransportFactory(simConfig()).WithRegisterer(reg).CreateTransport()
	assert.Error(t, err)
}

func TestEnableOptions(t *testing.T) {
	cfg := simConfig()
	cfg.Interface = "127.0.0.1"
	cfg.ServerPort = 28000
	cfg.ClientPort = interfaces.PortAny

	opts := NewTransportFactory(cfg).EnableOptions()
	assert.Equal(t, transport.EnableOptions{
		Interface:  "127.0.0.1",
		ServerPort: 28000,
		ClientPort: interfaces.PortAny,
	}, opts)

	assert.Equal(t, transport.EnableOptions{}, NewTransportFactory(nil).EnableOptions())
}

func TestCreateSimulationForTesting(t *testing.T) {
	tests := []struct {
		name       string
		opts       []TestConfigOption
		wantOpens  int
		wantServer bool
		wantClient bool
	}{
		{"both roles", nil, 2, true, true},
		{"dedicated", []TestConfigOption{WithDedicated()}, 1, true, false},
		{"no udp", []TestConfigOption{WithNoUDP()}, 0, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, sim := NewTransportFactory(nil).CreateSimulationForTesting(tt.opts...)
			defer tr.Shutdown()

			require.NoError(t, tr.SetEnabled(true, transport.EnableOptions{}))
			assert.Equal(t, tt.wantOpens, sim.GetStats().Opens)
			assert.Equal(t, tt.wantServer, tr.LocalAddr(transport.RoleServer) != nil)
			assert.Equal(t, tt.wantClient, tr.LocalAddr(transport.RoleClient) != nil)
		})
	}
}

func TestCreateSimulationForTestingTickOption(t *testing.T) {
	// The tick option only shapes configuration; the transport must still work.
	tr, _ := NewTransportFactory(nil).CreateSimulationForTesting(WithTickInterval(time.Millisecond))
	defer tr.Shutdown()

	res := tr.Send(transport.RoleServer, []byte("x"), transport.LoopbackAddress())
	assert.True(t, res.Delivered())
}

func TestModeSwitching(t *testing.T) {
	f := NewTransportFactory(nil)
	assert.False(t, f.IsUsingSimulation())

	f.SwitchToSimulation()
	assert.True(t, f.IsUsingSimulation())

	f.SwitchToReal()
	assert.False(t, f.IsUsingSimulation())
}

func TestUpdateConfig(t *testing.T) {
	f := NewTransportFactory(simConfig())

	assert.Error(t, f.UpdateConfig(nil))

	bad := simConfig()
	bad.TickInterval = 0
	assert.ErrorIs(t, f.UpdateConfig(bad), interfaces.ErrInvalidTickInterval)
	assert.Equal(t, 50*time.Millisecond, f.GetCurrentConfig().TickInterval)

	next := simConfig()
	next.UseSimulation = false
	next.ServerPort = 27911
	require.NoError(t, f.UpdateConfig(next))
	assert.False(t, f.IsUsingSimulation())
	assert.Equal(t, 27911, f.GetCurrentConfig().ServerPort)
}
