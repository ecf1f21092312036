// Package config loads configuration for the example daemons: which
// transport variant to use and where, how many pool workers to run, and how
// to log.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/codefionn/socks/internal/logging"
	"github.com/codefionn/socks/transport"
)

// Config is the root daemon configuration.
type Config struct {
	Transport TransportConfig `mapstructure:"transport"`
	Pool      PoolConfig      `mapstructure:"pool"`
	Log       logging.Config  `mapstructure:"log"`
}

// TransportConfig selects and addresses a transport variant.
type TransportConfig struct {
	// Kind: unix, udp, tcp or websocket.
	Kind string `mapstructure:"kind"`
	// Path is the socket path for the unix variant.
	Path string `mapstructure:"path"`
	// Host and Port address the networked variants.
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	// WSPath is the HTTP path for the websocket variant.
	WSPath string `mapstructure:"ws_path"`
}

// PoolConfig sizes the server's worker pool. Zero workers disables the pool;
// requests are then processed strictly in order on the serve loop.
type PoolConfig struct {
	Workers int `mapstructure:"workers"`
}

// Default returns a Config populated with sensible defaults: a unix socket
// transport and four workers.
func Default() *Config {
	return &Config{
		Transport: TransportConfig{
			Kind:   "unix",
			Path:   "/tmp/fibo.sock",
			Host:   "127.0.0.1",
			Port:   8080,
			WSPath: "/",
		},
		Pool: PoolConfig{Workers: 4},
		Log: logging.Config{
			Level:   "info",
			Format:  "console",
			Outputs: []string{"stdout"},
		},
	}
}

// Load reads the configuration at path, falling back to ./fibod.yaml and
// SOCKS_* environment variables. A missing implicit config file is not an
// error; defaults apply.
func Load(path string) (*Config, error) {
	v := viper.New()
	seedDefaults(v)

	v.SetEnvPrefix("SOCKS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("fibod")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

func seedDefaults(v *viper.Viper) {
	def := Default()
	v.SetDefault("transport.kind", def.Transport.Kind)
	v.SetDefault("transport.path", def.Transport.Path)
	v.SetDefault("transport.host", def.Transport.Host)
	v.SetDefault("transport.port", def.Transport.Port)
	v.SetDefault("transport.ws_path", def.Transport.WSPath)
	v.SetDefault("pool.workers", def.Pool.Workers)
	v.SetDefault("log.level", def.Log.Level)
	v.SetDefault("log.format", def.Log.Format)
	v.SetDefault("log.outputs", def.Log.Outputs)
}

// New builds the configured transport variant. The same construction serves
// both the daemon and the client.
func (c TransportConfig) New() (transport.Transport, error) {
	switch strings.ToLower(c.Kind) {
	case "unix":
		return transport.Unix(c.Path), nil
	case "udp":
		return transport.UDP(c.Host, c.Port), nil
	case "tcp":
		return transport.TCP(c.Host, c.Port), nil
	case "websocket", "ws":
		return transport.WebSocket(c.Host, c.Port, c.WSPath), nil
	default:
		return nil, fmt.Errorf("unknown transport kind: %s", c.Kind)
	}
}
