// internal/transport/serial.go
package transport

import (
	"errors"
	"io"
	"time"

	"github.com/goburrow/serial"
)

// SerialConfig describes an RS232/RS485 line to the sign.
type SerialConfig struct {
	Device   string
	BaudRate int
	DataBits int
	StopBits int
	Parity   string // "N", "E", "O"
	Timeout  time.Duration
	RS485    bool
}

// NewSerial builds a Link over a local serial port.
func NewSerial(cfg SerialConfig) (*Link, error) {
	if cfg.Device == "" {
		return nil, errors.New("transport serial: device required")
	}

	sc := &serial.Config{
		Address:  cfg.Device,
		BaudRate: cfg.BaudRate,
		DataBits: cfg.DataBits,
		StopBits: cfg.StopBits,
		Parity:   cfg.Parity,
		Timeout:  cfg.Timeout,
	}
	if cfg.RS485 {
		sc.RS485 = serial.RS485Config{Enabled: true}
	}

	dial := func() (io.ReadWriteCloser, error) {
		p, err := serial.Open(sc)
		if err != nil {
			return nil, err
		}
		return serialPort{p}, nil
	}
	// Serial ports carry their own read timeout; no deadlines.
	return NewLink(cfg.Device, dial, 0), nil
}

// serialPort reports an expired read timeout as a net-style timeout so the
// link treats silence as "nothing received".
type serialPort struct{ serial.Port }

func (p serialPort) Read(b []byte) (int, error) {
	n, err := p.Port.Read(b)
	if errors.Is(err, serial.ErrTimeout) {
		return n, errReadTimeout
	}
	return n, err
}
