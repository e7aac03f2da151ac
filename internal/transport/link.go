// internal/transport/link.go
package transport

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"
)

// ErrorCodeTransport is the status-block code for transport faults.
const ErrorCodeTransport uint16 = 4

// ErrClosed is returned by a Link after Close.
var ErrClosed = errors.New("transport: link closed")

// Error is a transient I/O fault on the sign link.
type Error struct {
	Op       string // dial, write, read
	Endpoint string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("transport %s %s: %v", e.Op, e.Endpoint, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
func (e *Error) Code() uint16  { return ErrorCodeTransport }

// Transport is the ordered, best-effort byte sink the scheduler writes to.
type Transport interface {
	Send(b []byte) error
	Close() error
}

// Dialer opens one connection to the sign. ONE attempt per call.
type Dialer func() (io.ReadWriteCloser, error)

type writeDeadliner interface{ SetWriteDeadline(time.Time) error }
type readDeadliner interface{ SetReadDeadline(time.Time) error }

// Link is a Transport over a reconnectable byte stream.
// The connection is reused while healthy. On any I/O failure it is
// discarded and the dialer is used again on the next call.
type Link struct {
	endpoint string
	dial     Dialer
	timeout  time.Duration

	mu     sync.Mutex
	rw     io.ReadWriteCloser
	closed bool
}

// NewLink wraps dial. timeout bounds each write (and read) when the
// connection supports deadlines; 0 disables deadlines.
func NewLink(endpoint string, dial Dialer, timeout time.Duration) *Link {
	return &Link{endpoint: endpoint, dial: dial, timeout: timeout}
}

// Endpoint returns the configured address of the link.
func (l *Link) Endpoint() string { return l.endpoint }

// Connect dials eagerly. Send dials lazily, so calling Connect is optional.
func (l *Link) Connect() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, err := l.connLocked()
	return err
}

// Send writes the whole frame or fails.
func (l *Link) Send(b []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	rw, err := l.connLocked()
	if err != nil {
		return err
	}

	if d, ok := rw.(writeDeadliner); ok && l.timeout > 0 {
		_ = d.SetWriteDeadline(time.Now().Add(l.timeout))
	}
	if err := writeAll(rw, b); err != nil {
		l.dropLocked()
		return &Error{Op: "write", Endpoint: l.endpoint, Err: err}
	}
	return nil
}

// Read reads inbound bytes (acknowledgments). A read timeout returns
// (0, nil) so pollers can treat silence as "nothing to report".
func (l *Link) Read(p []byte) (int, error) {
	l.mu.Lock()
	rw, err := l.connLocked()
	l.mu.Unlock()
	if err != nil {
		return 0, err
	}

	if d, ok := rw.(readDeadliner); ok && l.timeout > 0 {
		_ = d.SetReadDeadline(time.Now().Add(l.timeout))
	}
	n, err := rw.Read(p)
	if err == nil {
		return n, nil
	}
	if isTimeout(err) {
		return n, nil
	}

	l.mu.Lock()
	if l.rw == rw {
		l.dropLocked()
	}
	l.mu.Unlock()
	return n, &Error{Op: "read", Endpoint: l.endpoint, Err: err}
}

// Close releases the connection. Further calls fail with ErrClosed.
func (l *Link) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.closed = true
	if l.rw == nil {
		return nil
	}
	err := l.rw.Close()
	l.rw = nil
	return err
}

func (l *Link) connLocked() (io.ReadWriteCloser, error) {
	if l.closed {
		return nil, ErrClosed
	}
	if l.rw != nil {
		return l.rw, nil
	}
	rw, err := l.dial()
	if err != nil {
		return nil, &Error{Op: "dial", Endpoint: l.endpoint, Err: err}
	}
	l.rw = rw
	return rw, nil
}

func (l *Link) dropLocked() {
	if l.rw != nil {
		_ = l.rw.Close()
		l.rw = nil
	}
}

func writeAll(w io.Writer, b []byte) error {
	for len(b) > 0 {
		n, err := w.Write(b)
		if err != nil {
			return err
		}
		b = b[n:]
	}
	return nil
}

type timeoutError struct{}

func (timeoutError) Error() string { return "transport: read timeout" }
func (timeoutError) Timeout() bool { return true }

var errReadTimeout error = timeoutError{}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}
