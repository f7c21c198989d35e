package main

import (
	"fmt"

	"github.com/opd-ai/simnet/config"
	"github.com/opd-ai/simnet/interfaces"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// cliState is shared between the root command and its subcommands. cfg is
// filled in by the root PersistentPreRunE.
type cliState struct {
	v        *viper.Viper
	cfgFile  string
	logLevel string
	cfg      *interfaces.TransportConfig
}

func newRootCmd() *cobra.Command {
	st := &cliState{v: config.New()}

	root := &cobra.Command{
		Use:   "simnet",
		Short: "Datagram transport with loopback and UDP sockets",
		Long: `simnet hosts a client and a server endpoint that exchange datagrams
either through an in-process loopback channel or through non-blocking UDP
sockets. Settings come from defaults, an optional yaml file, SIMNET_*
environment variables and flags, in increasing order of precedence.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := logrus.ParseLevel(st.logLevel)
			if err != nil {
				return fmt.Errorf("invalid log level %q: %w", st.logLevel, err)
			}
			logrus.SetLevel(level)

			if err := config.BindFlags(st.v, cmd.Flags()); err != nil {
				return err
			}
			st.cfg, err = config.Load(st.v, st.cfgFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&st.cfgFile, "config", "c", "", "path to yaml configuration file")
	root.PersistentFlags().StringVar(&st.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	config.RegisterFlags(root.PersistentFlags())

	root.AddCommand(
		newListenCmd(st),
		newSendCmd(st),
		newLoopbackCmd(st),
		newConfigCmd(st),
	)
	return root
}
