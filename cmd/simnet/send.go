package main

import (
	"context"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/opd-ai/simnet/factory"
	"github.com/opd-ai/simnet/limits"
	"github.com/opd-ai/simnet/transport"
	"github.com/spf13/cobra"
)

func newSendCmd(st *cliState) *cobra.Command {
	var wait time.Duration

	cmd := &cobra.Command{
		Use:   "send <address> <message>",
		Short: "Send one datagram from the client socket",
		Long: `send opens only the client socket, sends message to address and
optionally waits for replies. address is "localhost", a dotted quad or a
hostname, with an optional :port.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dest, err := transport.ParseAddressContext(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			payload := []byte(args[1])
			if err := limits.ValidateMessageSize(payload, limits.MaxUDPPayload); err != nil {
				return err
			}

			cfg := *st.cfg
			cfg.ClientOnly = true
			cfg.Dedicated = false
			f := factory.NewTransportFactory(&cfg)
			tr, err := f.CreateTransport()
			if err != nil {
				return err
			}
			defer tr.Shutdown()

			if err := tr.SetEnabled(true, f.EnableOptions()); err != nil {
				return err
			}

			res := tr.Send(transport.RoleClient, payload, dest)
			fmt.Fprintf(cmd.OutOrStdout(), "sent %d bytes to %s: %s\n", len(payload), dest, res)
			if sendFailed(res) {
				return fmt.Errorf("send to %s: %s", dest, res)
			}
			if wait <= 0 {
				return nil
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), wait)
			defer cancel()
			NewPoller(tr, clock.New(), cfg.TickInterval, printHandler(cmd.OutOrStdout()), transport.RoleClient).Run(ctx)
			return nil
		},
	}

	cmd.Flags().DurationVar(&wait, "wait", 0, "how long to print replies after sending")
	return cmd
}

// sendFailed reports whether res means the datagram could not be sent at all.
// Would-block, refused broadcasts and oversize drops are silent losses an
// unreliable transport is allowed to have.
func sendFailed(res transport.Result) bool {
	return res.Status == transport.StatusFailed ||
		(res.Status == transport.StatusDropped && res.Reason == transport.ReasonNoSocket)
}
