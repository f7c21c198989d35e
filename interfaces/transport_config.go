package interfaces

import (
	"errors"
	"fmt"
	"time"
)

// Port sentinels shared by configuration and the socket layer.
const (
	// PortUnspecified asks the socket layer to apply its default port for the role.
	PortUnspecified = 0
	// PortAny asks the socket layer for an ephemeral port.
	PortAny = -1
	// MaxPort is the largest valid UDP port.
	MaxPort = 65535
)

// Tick interval bounds for poll-driven hosts.
const (
	MinTickInterval = time.Millisecond
	MaxTickInterval = time.Second
)

var (
	// ErrInvalidPort indicates a port outside [-1, 65535].
	ErrInvalidPort = errors.New("invalid port")
	// ErrInvalidTickInterval indicates a tick interval outside [MinTickInterval, MaxTickInterval].
	ErrInvalidTickInterval = errors.New("invalid tick interval")
	// ErrConflictingRoles indicates a host that is both dedicated and client-only.
	ErrConflictingRoles = errors.New("dedicated and client-only are mutually exclusive")
)

// INetworkPolicy is the capability a hosting process hands to the transport
// so it can decide which sockets to open when networking is enabled.
type INetworkPolicy interface {
	// NetworkingSuppressed reports forced offline mode. Enabling networking
	// is recorded but no socket is opened.
	NetworkingSuppressed() bool

	// HostsServer reports whether this process runs the server role.
	HostsServer() bool

	// HostsClient reports whether this process runs the client role.
	HostsClient() bool
}

// TransportConfig holds configuration for a transport instance
type TransportConfig struct {
	// Interface is the local address sockets bind to. Empty or "localhost" binds all interfaces.
	Interface string `mapstructure:"interface" yaml:"interface"`

	// ServerPort is the server bind port. PortUnspecified selects the default server port.
	ServerPort int `mapstructure:"server_port" yaml:"server_port"`

	// ClientPort is the client bind port. PortUnspecified selects the default client port.
	ClientPort int `mapstructure:"client_port" yaml:"client_port"`

	// Dedicated hosts only the server role and treats a failed server bind as fatal.
	Dedicated bool `mapstructure:"dedicated" yaml:"dedicated"`

	// ClientOnly hosts only the client role.
	ClientOnly bool `mapstructure:"client_only" yaml:"client_only"`

	// NoUDP forces offline mode: only the loopback path carries traffic.
	NoUDP bool `mapstructure:"no_udp" yaml:"no_udp"`

	// ShowNet logs every datagram sent and received.
	ShowNet bool `mapstructure:"show_net" yaml:"show_net"`

	// UseSimulation replaces OS sockets with an in-memory network.
	UseSimulation bool `mapstructure:"use_simulation" yaml:"use_simulation"`

	// MetricsAddr is the listen address for the Prometheus endpoint. Empty disables it.
	MetricsAddr string `mapstructure:"metrics_addr" yaml:"metrics_addr"`

	// TickInterval is how often a poll-driven host drains the transport.
	TickInterval time.Duration `mapstructure:"tick_interval" yaml:"tick_interval"`
}

// NetworkingSuppressed implements INetworkPolicy.
func (c *TransportConfig) NetworkingSuppressed() bool { return c.NoUDP }

// HostsServer implements INetworkPolicy.
func (c *TransportConfig) HostsServer() bool { return !c.ClientOnly }

// HostsClient implements INetworkPolicy.
func (c *TransportConfig) HostsClient() bool { return !c.Dedicated }

// Validate checks the configuration for values the transport cannot honour.
func (c *TransportConfig) Validate() error {
	if err := validatePort("server_port", c.ServerPort); err != nil {
		return err
	}
	if err := validatePort("client_port", c.ClientPort); err != nil {
		return err
	}
	if c.Dedicated && c.ClientOnly {
		return ErrConflictingRoles
	}
	if c.TickInterval < MinTickInterval || c.TickInterval > MaxTickInterval {
		return fmt.Errorf("%w: %v not in [%v, %v]", ErrInvalidTickInterval, c.TickInterval, MinTickInterval, MaxTickInterval)
	}
	return nil
}

func validatePort(name string, port int) error {
	if port < PortAny || port > MaxPort {
		return fmt.Errorf("%w: %s=%d", ErrInvalidPort, name, port)
	}
	return nil
}
