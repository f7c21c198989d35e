package main

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/opd-ai/simnet/limits"
	"github.com/opd-ai/simnet/transport"
	"github.com/sirupsen/logrus"
)

// Handler is called for every datagram a Poller receives. payload is only
// valid for the duration of the call.
type Handler func(role transport.Role, from transport.Address, payload []byte)

// Poller drains a transport on a fixed tick. Transport is not safe for
// concurrent use, so everything that touches it (handlers included) must run
// on the Poller's goroutine.
type Poller struct {
	tr       *transport.Transport
	clock    clock.Clock
	interval time.Duration
	roles    []transport.Role
	handler  Handler
	buf      []byte
}

// NewPoller creates a Poller for roles. With no roles given both are polled.
func NewPoller(tr *transport.Transport, clk clock.Clock, interval time.Duration, handler Handler, roles ...transport.Role) *Poller {
	if len(roles) == 0 {
		roles = transport.Roles[:]
	}
	return &Poller{
		tr:       tr,
		clock:    clk,
		interval: interval,
		roles:    roles,
		handler:  handler,
		buf:      make([]byte, limits.MaxMessageLen),
	}
}

// Drain receives until every polled role reports empty and returns the
// number of datagrams handed to the handler.
func (p *Poller) Drain() int {
	handled := 0
	for _, role := range p.roles {
		for {
			from, n, res := p.tr.Receive(role, p.buf)
			if res.Status == transport.StatusEmpty {
				break
			}
			if res.Status == transport.StatusFailed {
				logrus.WithFields(logrus.Fields{
					"function": "Poller.Drain",
					"role":     role,
					"error":    res.Err,
				}).Warn("Receive failed, skipping role until next tick")
				break
			}
			if res.Delivered() {
				p.handler(role, from, p.buf[:n])
				handled++
			}
		}
	}
	return handled
}

// Run drains on every tick until ctx is done.
func (p *Poller) Run(ctx context.Context) {
	ticker := p.clock.Ticker(p.interval)
	defer ticker.Stop()

	logrus.WithFields(logrus.Fields{
		"function": "Poller.Run",
		"interval": p.interval,
		"roles":    p.roles,
	}).Debug("Polling started")

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Drain()
		}
	}
}
