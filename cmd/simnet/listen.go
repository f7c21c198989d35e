package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/opd-ai/simnet/factory"
	"github.com/opd-ai/simnet/transport"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newListenCmd(st *cliState) *cobra.Command {
	var echo bool

	cmd := &cobra.Command{
		Use:   "listen",
		Short: "Enable networking and print every datagram received",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			f := factory.NewTransportFactory(st.cfg)
			if st.cfg.MetricsAddr != "" {
				reg := prometheus.NewRegistry()
				f.WithRegisterer(reg)
				shutdown := serveMetrics(st.cfg.MetricsAddr, reg)
				defer shutdown()
			}

			tr, err := f.CreateTransport()
			if err != nil {
				return err
			}
			defer tr.Shutdown()

			if err := enableNetworking(tr, f.EnableOptions(), st.cfg.Dedicated); err != nil {
				return err
			}
			for _, role := range transport.Roles {
				if addr := tr.LocalAddr(role); addr != nil {
					fmt.Fprintf(cmd.OutOrStdout(), "%s listening on %s\n", role, addr)
				}
			}

			handler := printHandler(cmd.OutOrStdout())
			if echo {
				handler = echoHandler(tr, handler)
			}
			NewPoller(tr, clock.New(), st.cfg.TickInterval, handler).Run(ctx)
			return nil
		},
	}

	cmd.Flags().BoolVar(&echo, "echo", false, "send every datagram back to its source")
	return cmd
}

// enableNetworking opens the configured sockets. Open failures are logged,
// except on a dedicated host where a server without a port is useless.
func enableNetworking(tr *transport.Transport, opts transport.EnableOptions, dedicated bool) error {
	err := tr.SetEnabled(true, opts)
	if err == nil {
		return nil
	}
	if dedicated && tr.LocalAddr(transport.RoleServer) == nil {
		return fmt.Errorf("couldn't allocate dedicated server IP port: %w", err)
	}
	logrus.WithFields(logrus.Fields{
		"function": "enableNetworking",
		"error":    err,
	}).Warn("Some sockets could not be opened")
	return nil
}

func printHandler(out io.Writer) Handler {
	return func(role transport.Role, from transport.Address, payload []byte) {
		fmt.Fprintf(out, "[%s] %s: %q\n", role, from, payload)
	}
}

func echoHandler(tr *transport.Transport, next Handler) Handler {
	return func(role transport.Role, from transport.Address, payload []byte) {
		next(role, from, payload)
		if res := tr.Send(role, payload, from); sendFailed(res) {
			logrus.WithFields(logrus.Fields{
				"function": "echoHandler",
				"role":     role,
				"to":       from.String(),
				"result":   res.String(),
			}).Warn("Echo failed")
		}
	}
}

// serveMetrics exposes reg on addr and returns a function that stops the server.
func serveMetrics(addr string, reg *prometheus.Registry) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithFields(logrus.Fields{
				"function": "serveMetrics",
				"addr":     addr,
				"error":    err,
			}).Error("Metrics server stopped")
		}
	}()
	logrus.WithFields(logrus.Fields{
		"function": "serveMetrics",
		"addr":     addr,
	}).Info("Serving metrics")

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
