// internal/protocol/decode.go
package protocol

import (
	"bytes"
	"fmt"
	"strconv"
)

// Frame is a parsed wire frame. Packets hold the bytes between STX and
// ETX (command code first), with checksums already verified.
type Frame struct {
	Type    byte
	Address string
	Packets [][]byte
}

// ParseFrame parses one frame, tolerating leading sync NULs.
func ParseFrame(b []byte) (Frame, error) {
	var f Frame

	b = bytes.TrimLeft(b, "\x00")
	if len(b) < 4 {
		return f, ErrTruncated
	}
	if b[0] != SOH {
		return f, fmt.Errorf("%w: expected SOH, got 0x%02x", ErrBadFraming, b[0])
	}
	f.Type = b[1]
	f.Address = string(b[2:4])
	b = b[4:]

	for {
		if len(b) == 0 {
			return f, ErrTruncated
		}
		switch b[0] {
		case EOT:
			if len(f.Packets) == 0 {
				return f, fmt.Errorf("%w: frame without packets", ErrBadFraming)
			}
			return f, nil
		case STX:
		default:
			return f, fmt.Errorf("%w: expected STX or EOT, got 0x%02x", ErrBadFraming, b[0])
		}

		end := bytes.IndexByte(b, ETX)
		if end < 0 {
			return f, ErrTruncated
		}
		if len(b) < end+1+ChecksumLength {
			return f, ErrTruncated
		}

		want := Checksum(b[:end+1])
		got, err := strconv.ParseUint(string(b[end+1:end+1+ChecksumLength]), 16, 16)
		if err != nil {
			return f, fmt.Errorf("%w: checksum digits: %v", ErrBadFraming, err)
		}
		if uint16(got) != want {
			return f, fmt.Errorf("%w: got %04X want %04X", ErrChecksumMismatch, got, want)
		}

		f.Packets = append(f.Packets, b[1:end])
		b = b[end+1+ChecksumLength:]
	}
}

// WriteText is a decoded "write text file" frame.
type WriteText struct {
	Address    string
	Slot       byte
	Attributes Attributes
	Text       string
}

// DecodeWrite parses a frame produced by Encoder.EncodeWrite.
func DecodeWrite(b []byte) (WriteText, error) {
	var w WriteText

	f, err := ParseFrame(b)
	if err != nil {
		return w, err
	}
	if len(f.Packets) != 1 {
		return w, ErrNotWriteText
	}
	p := f.Packets[0]
	if len(p) < 2 || p[0] != CmdWriteText {
		return w, ErrNotWriteText
	}

	w.Address = f.Address
	w.Slot = p[1]

	attrs, rest, err := DecodeControlCodes(p[2:])
	if err != nil {
		return w, err
	}
	w.Attributes = attrs
	w.Text = string(rest)
	return w, nil
}

// ---- acknowledgments ----

type AckKind int

const (
	// AckNone means nothing recognizable arrived. It is not an error:
	// the protocol is largely fire-and-forget.
	AckNone AckKind = iota
	AckOK
	AckNAK
	AckResponse
)

func (k AckKind) String() string {
	switch k {
	case AckOK:
		return "ack"
	case AckNAK:
		return "nak"
	case AckResponse:
		return "response"
	default:
		return "none"
	}
}

// Ack is the result of DecodeAck.
type Ack struct {
	Kind  AckKind
	Frame *Frame // set for AckResponse
}

// Err maps a NAK to ErrNAK.
func (a Ack) Err() error {
	if a.Kind == AckNAK {
		return ErrNAK
	}
	return nil
}

// DecodeAck recognizes ACK/NAK markers and response frames in bytes read
// back from the sign. Malformed response frames are reported as errors.
func DecodeAck(b []byte) (Ack, error) {
	b = bytes.TrimLeft(b, "\x00")
	if len(b) == 0 {
		return Ack{Kind: AckNone}, nil
	}

	if i := bytes.IndexByte(b, SOH); i >= 0 {
		f, err := ParseFrame(b[i:])
		if err != nil {
			return Ack{Kind: AckNone}, err
		}
		if f.Type != ResponseType {
			return Ack{Kind: AckNone}, fmt.Errorf("%w: response type 0x%02x", ErrBadFraming, f.Type)
		}
		return Ack{Kind: AckResponse, Frame: &f}, nil
	}

	switch {
	case bytes.IndexByte(b, NAK) >= 0:
		return Ack{Kind: AckNAK}, nil
	case bytes.IndexByte(b, ACK) >= 0:
		return Ack{Kind: AckOK}, nil
	}
	return Ack{Kind: AckNone}, nil
}
