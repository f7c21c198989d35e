package transport

import (
	"github.com/opd-ai/simnet/interfaces"
	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"
)

// EnableOptions carries the socket settings applied on a Disabled to Enabled
// transition.
type EnableOptions struct {
	// Interface is the local address to bind; empty or "localhost" binds all interfaces.
	Interface string
	// ServerPort is the server bind port, or interfaces.PortUnspecified / interfaces.PortAny.
	ServerPort int
	// ClientPort is the client bind port, or interfaces.PortUnspecified / interfaces.PortAny.
	ClientPort int
}

// Controller switches networking between disabled (loopback only) and
// enabled (sockets open for the roles the host needs). Repeating the current
// state is a no-op; the last applied value is remembered rather than
// inferred from socket state.
type Controller struct {
	sockets *SocketManager
	policy  interfaces.INetworkPolicy
	applied bool
}

// NewController creates a controller in the disabled state.
func NewController(sockets *SocketManager, policy interfaces.INetworkPolicy) *Controller {
	return &Controller{sockets: sockets, policy: policy}
}

// Enabled reports the last applied state.
func (c *Controller) Enabled() bool {
	return c.applied
}

// SetEnabled applies want. Enabling opens the server socket if the host
// runs a server and the client socket if it runs a client, unless the policy
// suppresses networking. Failed opens are returned together; the state is
// still recorded as enabled and the failed roles stay closed until the next
// disable/enable cycle. Disabling closes every socket and always succeeds.
func (c *Controller) SetEnabled(want bool, opts EnableOptions) error {
	if want == c.applied {
		return nil
	}
	c.applied = want

	if !want {
		if err := c.sockets.CloseAll(); err != nil {
			logrus.WithFields(logrus.Fields{
				"function": "Controller.SetEnabled",
				"error":    err.Error(),
			}).Warn("Errors while closing sockets")
		}
		logrus.WithField("function", "Controller.SetEnabled").Info("Networking disabled")
		return nil
	}

	if c.policy.NetworkingSuppressed() {
		logrus.WithField("function", "Controller.SetEnabled").Info("Networking enabled with sockets suppressed")
		return nil
	}

	var err error
	if c.policy.HostsServer() {
		err = multierr.Append(err, c.sockets.Open(RoleServer, opts.Interface, opts.ServerPort))
	}
	if c.policy.HostsClient() {
		err = multierr.Append(err, c.sockets.Open(RoleClient, opts.Interface, opts.ClientPort))
	}

	logrus.WithFields(logrus.Fields{
		"function":    "Controller.SetEnabled",
		"interface":   opts.Interface,
		"server_open": c.sockets.IsOpen(RoleServer),
		"client_open": c.sockets.IsOpen(RoleClient),
	}).Info("Networking enabled")
	return err
}

// Shutdown disables networking.
func (c *Controller) Shutdown() {
	_ = c.SetEnabled(false, EnableOptions{})
}
