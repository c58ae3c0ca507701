package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"
)

type duration time.Duration

type Config struct {
	Host            string   `json:"host,omitempty"`
	Port            string   `json:"port,omitempty"`
	VirtualHosts    []string `json:"virtual_hosts,omitempty"`
	Timeout         duration `json:"timeout,omitempty"`
	ShutdownTimeout duration `json:"shutdown_timeout,omitempty"`
}

var (
	ErrNoPort      = errors.New("port is empty")
	ErrInvalidPort = errors.New("invalid port")
	ErrEmptyHost   = errors.New("virtual host name is empty")
)

func defaultConfig() Config {
	return Config{
		Port:            "8080",
		Timeout:         duration(100 * time.Millisecond),
		ShutdownTimeout: duration(5 * time.Second),
	}
}

// Address returns the listen address.
func (c *Config) Address() string {
	return net.JoinHostPort(c.Host, c.Port)
}

func (c *Config) validate() error {
	if c.Port == "" {
		return ErrNoPort
	}
	// 0 lets the system pick a port.
	if p, err := strconv.Atoi(c.Port); err != nil || p < 0 || p > 65535 {
		return fmt.Errorf("%w: %q", ErrInvalidPort, c.Port)
	}
	for i, h := range c.VirtualHosts {
		if h == "" {
			return fmt.Errorf("error validating virtual host %d: %w", i, ErrEmptyHost)
		}
	}
	return nil
}

func (d *duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	td, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = duration(td)
	return nil
}

// loadConfig decodes the JSON file at path on top of the values already in
// cfg.
func loadConfig(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	dec := json.NewDecoder(f)
	dec.DisallowUnknownFields()

	if err := dec.Decode(cfg); err != nil {
		return err
	}

	return cfg.validate()
}
