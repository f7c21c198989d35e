package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/opd-ai/simnet/factory"
	"github.com/opd-ai/simnet/limits"
	"github.com/opd-ai/simnet/transport"
	"github.com/spf13/cobra"
)

func newLoopbackCmd(st *cliState) *cobra.Command {
	var count, burst int

	cmd := &cobra.Command{
		Use:   "loopback",
		Short: "Exchange ping/pong datagrams between the in-process client and server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := *st.cfg
			cfg.NoUDP = true
			cfg.UseSimulation = true
			f := factory.NewTransportFactory(&cfg)
			tr, err := f.CreateTransport()
			if err != nil {
				return err
			}
			defer tr.Shutdown()

			if err := tr.SetEnabled(true, f.EnableOptions()); err != nil {
				return err
			}
			return runLoopback(tr, count, burst, cmd.OutOrStdout())
		},
	}

	cmd.Flags().IntVar(&count, "count", 3, "number of ping/pong exchanges")
	cmd.Flags().IntVar(&burst, "burst", 0, "after the exchanges, queue this many datagrams before draining")
	return cmd
}

// runLoopback pings the server from the client count times, waiting for each
// pong, then sends a burst of unread datagrams and reports which survived.
func runLoopback(tr *transport.Transport, count, burst int, out io.Writer) error {
	buf := make([]byte, limits.MaxMessageLen)
	dest := transport.LoopbackAddress()

	exchange := func(from, to transport.Role, msg string) (transport.Address, error) {
		if res := tr.Send(from, []byte(msg), dest); !res.Delivered() {
			return transport.Address{}, fmt.Errorf("%s send %q: %s", from, msg, res)
		}
		src, n, res := tr.Receive(to, buf)
		if !res.Delivered() {
			return transport.Address{}, fmt.Errorf("%s receive: %s", to, res)
		}
		if got := string(buf[:n]); got != msg {
			return transport.Address{}, fmt.Errorf("%s received %q, want %q", to, got, msg)
		}
		return src, nil
	}

	for i := 0; i < count; i++ {
		ping := fmt.Sprintf("ping %d", i)
		src, err := exchange(transport.RoleClient, transport.RoleServer, ping)
		if err != nil {
			return err
		}
		pong := fmt.Sprintf("pong %d", i)
		if _, err := exchange(transport.RoleServer, transport.RoleClient, pong); err != nil {
			return err
		}
		fmt.Fprintf(out, "%s from %s -> %s\n", ping, src, pong)
	}

	if burst <= 0 {
		return nil
	}
	for i := 0; i < burst; i++ {
		tr.Send(transport.RoleClient, []byte(fmt.Sprintf("burst %d", i)), dest)
	}
	var got []string
	for {
		_, n, res := tr.Receive(transport.RoleServer, buf)
		if res.Status == transport.StatusEmpty {
			break
		}
		if res.Delivered() {
			got = append(got, string(buf[:n]))
		}
	}
	fmt.Fprintf(out, "burst of %d: %d delivered [%s]\n", burst, len(got), strings.Join(got, ", "))
	return nil
}
