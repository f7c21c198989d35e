// Command simnet drives the datagram transport from the command line: it can
// host a listening server, send single datagrams, exercise the in-process
// loopback channel and print the resolved configuration.
package main

import (
	"os"

	"github.com/sirupsen/logrus"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logrus.WithError(err).Error("simnet failed")
		os.Exit(1)
	}
}
