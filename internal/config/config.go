// Package config resolves server settings from flags with environment
// fallbacks. A .env file, if present, is loaded by the caller before
// parsing.
package config

import (
	"errors"
	"flag"
	"net"
	"os"
	"strconv"
)

const defaultPort = 8080

type Config struct {
	Bind string
	Port int
	Dev  bool
}

func (c Config) Addr() string {
	return net.JoinHostPort(c.Bind, strconv.Itoa(c.Port))
}

func Load(args []string) (Config, error) {
	var cfg Config

	fs := flag.NewFlagSet("averagegame", flag.ContinueOnError)
	fs.StringVar(&cfg.Bind, "bind", "", "address to bind to (env: BIND)")
	fs.IntVar(&cfg.Port, "port", 0, "port to listen on (env: PORT)")
	fs.BoolVar(&cfg.Dev, "dev", false, "human-readable logging (env: DEV)")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if cfg.Bind == "" {
		cfg.Bind = os.Getenv("BIND")
	}
	if cfg.Port == 0 {
		if portStr := os.Getenv("PORT"); portStr != "" {
			port, err := strconv.Atoi(portStr)
			if err != nil {
				return Config{}, errors.New("invalid PORT env variable")
			}
			cfg.Port = port
		} else {
			cfg.Port = defaultPort
		}
	}
	if !cfg.Dev {
		cfg.Dev = os.Getenv("DEV") != ""
	}

	if cfg.Port < 1 || cfg.Port > 65535 {
		return Config{}, errors.New("port must be between 1 and 65535")
	}

	return cfg, nil
}
