// internal/writer/ingest/client.go
package ingest

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"net"
	"time"

	"github.com/tamzrod/sign-controller/internal/status"
)

// Status ingest v1 frame, one per connection:
//
//	0-1  magic "SS"
//	2    version
//	3    unit id
//	4-5  status block (device slot), big-endian
//	6    first register within the block
//	7    register count
//	8+   registers, big-endian
//	end  CRC-32 (IEEE) of everything before it
//
// A write never crosses a block, so the receiver can route it by slot
// alone.
const (
	magic     = "SS"
	versionV1 = 0x01

	headerLen  = 8
	trailerLen = 4
)

// Receiver replies with one status byte.
const (
	respOK byte = iota
	respRejected
	respBadChecksum
	respUnknownSlot
)

var ErrCrossesBlock = errors.New("writer ingest: write crosses a status block")

type EndpointClient struct {
	endpoint string
	timeout  time.Duration
}

type Config struct {
	Endpoint string
	Timeout  time.Duration
}

func NewEndpointClient(cfg Config) (*EndpointClient, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("writer ingest: endpoint required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Second
	}
	return &EndpointClient{endpoint: cfg.Endpoint, timeout: cfg.Timeout}, nil
}

func (c *EndpointClient) Close() error { return nil }

// WriteRegisters sends regs starting at the flat status address addr. The
// range must stay inside one SlotsPerDevice block.
func (c *EndpointClient) WriteRegisters(unitID uint8, addr uint16, regs []uint16) error {
	pkt, err := buildFrame(unitID, addr, regs)
	if err != nil {
		return err
	}

	conn, err := net.DialTimeout("tcp", c.endpoint, c.timeout)
	if err != nil {
		return fmt.Errorf("writer ingest: dial: %w", err)
	}
	defer conn.Close()

	_ = conn.SetDeadline(time.Now().Add(c.timeout))
	if _, err := conn.Write(pkt); err != nil {
		return fmt.Errorf("writer ingest: write: %w", err)
	}

	var resp [1]byte
	if _, err := io.ReadFull(conn, resp[:]); err != nil {
		return fmt.Errorf("writer ingest: read status: %w", err)
	}

	switch resp[0] {
	case respOK:
		return nil
	case respRejected:
		return errors.New("writer ingest: rejected")
	case respBadChecksum:
		return errors.New("writer ingest: receiver saw a bad checksum")
	case respUnknownSlot:
		return fmt.Errorf("writer ingest: receiver has no block %d", addr/status.SlotsPerDevice)
	default:
		return fmt.Errorf("writer ingest: unknown status 0x%02x", resp[0])
	}
}

func buildFrame(unitID uint8, addr uint16, regs []uint16) ([]byte, error) {
	if len(regs) == 0 {
		return nil, errors.New("writer ingest: no registers")
	}
	slot := addr / status.SlotsPerDevice
	offset := int(addr % status.SlotsPerDevice)
	if offset+len(regs) > status.SlotsPerDevice {
		return nil, fmt.Errorf("%w: offset %d count %d", ErrCrossesBlock, offset, len(regs))
	}

	pkt := make([]byte, headerLen, headerLen+2*len(regs)+trailerLen)
	copy(pkt, magic)
	pkt[2] = versionV1
	pkt[3] = unitID
	binary.BigEndian.PutUint16(pkt[4:6], slot)
	pkt[6] = byte(offset)
	pkt[7] = byte(len(regs))

	for _, r := range regs {
		pkt = binary.BigEndian.AppendUint16(pkt, r)
	}
	return binary.BigEndian.AppendUint32(pkt, crc32.ChecksumIEEE(pkt)), nil
}
