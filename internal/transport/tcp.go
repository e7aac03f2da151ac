// internal/transport/tcp.go
package transport

import (
	"errors"
	"io"
	"net"
	"time"
)

// TCPConfig describes a serial-over-IP terminal server in front of the sign.
type TCPConfig struct {
	Endpoint string
	Timeout  time.Duration
}

// NewTCP builds a Link over a TCP stream.
func NewTCP(cfg TCPConfig) (*Link, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("transport tcp: endpoint required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Second
	}

	dial := func() (io.ReadWriteCloser, error) {
		return net.DialTimeout("tcp", cfg.Endpoint, cfg.Timeout)
	}
	return NewLink(cfg.Endpoint, dial, cfg.Timeout), nil
}
