// Package config loads interfaces.TransportConfig from defaults, an optional
// yaml file, SIMNET_* environment variables and command-line flags, in
// increasing order of precedence.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/opd-ai/simnet/interfaces"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix namespaces environment overrides, e.g. SIMNET_SERVER_PORT.
const EnvPrefix = "SIMNET"

// Configuration keys.
const (
	KeyInterface     = "interface"
	KeyServerPort    = "server_port"
	KeyClientPort    = "client_port"
	KeyDedicated     = "dedicated"
	KeyClientOnly    = "client_only"
	KeyNoUDP         = "no_udp"
	KeyShowNet       = "show_net"
	KeyUseSimulation = "use_simulation"
	KeyMetricsAddr   = "metrics_addr"
	KeyTickInterval  = "tick_interval"
)

// DefaultTickInterval is the poll period used when none is configured.
const DefaultTickInterval = 50 * time.Millisecond

// New returns a viper instance with defaults and environment binding set up.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault(KeyInterface, "localhost")
	v.SetDefault(KeyServerPort, interfaces.PortUnspecified)
	v.SetDefault(KeyClientPort, interfaces.PortUnspecified)
	v.SetDefault(KeyDedicated, false)
	v.SetDefault(KeyClientOnly, false)
	v.SetDefault(KeyNoUDP, false)
	v.SetDefault(KeyShowNet, false)
	v.SetDefault(KeyUseSimulation, false)
	v.SetDefault(KeyMetricsAddr, "")
	v.SetDefault(KeyTickInterval, DefaultTickInterval)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// RegisterFlags adds one flag per key to fs. Flag names use dashes.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String(flagName(KeyInterface), "localhost", "local address to bind (localhost binds all interfaces)")
	fs.Int(flagName(KeyServerPort), interfaces.PortUnspecified, "server port (0 = default, -1 = ephemeral)")
	fs.Int(flagName(KeyClientPort), interfaces.PortUnspecified, "client port (0 = default, -1 = ephemeral)")
	fs.Bool(flagName(KeyDedicated), false, "host only the server role; a failed server bind is fatal")
	fs.Bool(flagName(KeyClientOnly), false, "host only the client role")
	fs.Bool(flagName(KeyNoUDP), false, "never open sockets; loopback only")
	fs.Bool(flagName(KeyShowNet), false, "log every datagram")
	fs.Bool(flagName(KeyUseSimulation), false, "use the in-memory network instead of OS sockets")
	fs.String(flagName(KeyMetricsAddr), "", "serve Prometheus metrics on this address")
	fs.Duration(flagName(KeyTickInterval), DefaultTickInterval, "poll interval")
}

// BindFlags makes flags registered by RegisterFlags override other sources,
// but only when set explicitly on the command line.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for _, key := range allKeys() {
		if f := fs.Lookup(flagName(key)); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return fmt.Errorf("bind flag %s: %w", f.Name, err)
			}
		}
	}
	return nil
}

// Load reads file (if non-empty) into v and returns the validated configuration.
func Load(v *viper.Viper, file string) (*interfaces.TransportConfig, error) {
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
		logrus.WithFields(logrus.Fields{
			"function": "config.Load",
			"file":     v.ConfigFileUsed(),
		}).Debug("Loaded configuration file")
	}

	cfg := &interfaces.TransportConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"function":       "config.Load",
		"interface":      cfg.Interface,
		"server_port":    cfg.ServerPort,
		"client_port":    cfg.ClientPort,
		"dedicated":      cfg.Dedicated,
		"client_only":    cfg.ClientOnly,
		"no_udp":         cfg.NoUDP,
		"use_simulation": cfg.UseSimulation,
	}).Debug("Resolved transport configuration")
	return cfg, nil
}

// Dump renders cfg as yaml, in a form Load accepts back.
func Dump(cfg *interfaces.TransportConfig) ([]byte, error) {
	return yaml.Marshal(cfg)
}

func allKeys() []string {
	return []string{
		KeyInterface, KeyServerPort, KeyClientPort, KeyDedicated, KeyClientOnly,
		KeyNoUDP, KeyShowNet, KeyUseSimulation, KeyMetricsAddr, KeyTickInterval,
	}
}

func flagName(key string) string {
	return strings.ReplaceAll(key, "_", "-")
}
