// Package metrics exports transport activity as Prometheus metrics.
package metrics

import (
	"github.com/opd-ai/simnet/transport"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "simnet"

// Directions used as the "direction" label.
const (
	DirectionSend = "send"
	DirectionRecv = "recv"
)

// Collector implements transport.Observer and keeps Prometheus counters of
// every datagram outcome. Empty receives are not counted; they happen every
// tick on an idle role.
type Collector struct {
	datagrams   *prometheus.CounterVec
	bytes       *prometheus.CounterVec
	openSockets *prometheus.GaugeVec
}

// NewCollector creates the metrics and registers them with reg.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		datagrams: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "datagrams_total",
				Help:      "Datagrams by role, direction, status and drop reason.",
			},
			[]string{"role", "direction", "status", "reason"},
		),
		bytes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "bytes_total",
				Help:      "Payload bytes delivered by role and direction.",
			},
			[]string{"role", "direction"},
		),
		openSockets: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "open_sockets",
				Help:      "1 when the role has an open socket.",
			},
			[]string{"role"},
		),
	}

	for _, col := range []prometheus.Collector{c.datagrams, c.bytes, c.openSockets} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// DatagramSent implements transport.Observer.
func (c *Collector) DatagramSent(role transport.Role, _ transport.Address, size int, res transport.Result) {
	c.observe(role, DirectionSend, size, res)
}

// DatagramReceived implements transport.Observer.
func (c *Collector) DatagramReceived(role transport.Role, _ transport.Address, size int, res transport.Result) {
	if res.Status == transport.StatusEmpty {
		return
	}
	c.observe(role, DirectionRecv, size, res)
}

// SocketStateChanged implements transport.Observer.
func (c *Collector) SocketStateChanged(role transport.Role, open bool) {
	v := 0.0
	if open {
		v = 1
	}
	c.openSockets.WithLabelValues(role.String()).Set(v)
}

func (c *Collector) observe(role transport.Role, direction string, size int, res transport.Result) {
	c.datagrams.WithLabelValues(role.String(), direction, res.Status.String(), res.Reason.String()).Inc()
	if res.Delivered() {
		c.bytes.WithLabelValues(role.String(), direction).Add(float64(size))
	}
}

var _ transport.Observer = (*Collector)(nil)
