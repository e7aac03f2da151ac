// internal/writer/ingest/client_test.go
package ingest

import (
	"encoding/binary"
	"hash/crc32"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tamzrod/sign-controller/internal/status"
)

type frame struct {
	unitID uint8
	slot   uint16
	offset int
	regs   []uint16
}

// readFrame is the receiving side of one status ingest frame.
func readFrame(r io.Reader) (frame, byte, error) {
	head := make([]byte, headerLen)
	if _, err := io.ReadFull(r, head); err != nil {
		return frame{}, 0, err
	}
	if string(head[:2]) != magic || head[2] != versionV1 {
		return frame{}, respRejected, nil
	}

	rest := make([]byte, 2*int(head[7])+trailerLen)
	if _, err := io.ReadFull(r, rest); err != nil {
		return frame{}, 0, err
	}
	body := append(head, rest[:len(rest)-trailerLen]...)
	if crc32.ChecksumIEEE(body) != binary.BigEndian.Uint32(rest[len(rest)-trailerLen:]) {
		return frame{}, respBadChecksum, nil
	}

	f := frame{
		unitID: head[3],
		slot:   binary.BigEndian.Uint16(head[4:6]),
		offset: int(head[6]),
	}
	for i := 0; i < int(head[7]); i++ {
		f.regs = append(f.regs, binary.BigEndian.Uint16(rest[2*i:]))
	}
	return f, respOK, nil
}

func TestBuildFrame(t *testing.T) {
	pkt, err := buildFrame(7, 2*status.SlotsPerDevice+3, []uint16{0xABCD, 1})
	require.NoError(t, err)

	assert.Equal(t, []byte{
		'S', 'S', 0x01, 7,
		0x00, 0x02, // block 2
		3, 2, // offset 3, two registers
		0xAB, 0xCD, 0x00, 0x01,
	}, pkt[:len(pkt)-trailerLen])
	assert.Equal(t, crc32.ChecksumIEEE(pkt[:len(pkt)-trailerLen]),
		binary.BigEndian.Uint32(pkt[len(pkt)-trailerLen:]))
}

func TestBuildFrame_StaysInsideBlock(t *testing.T) {
	full := make([]uint16, status.SlotsPerDevice)
	_, err := buildFrame(1, status.SlotsPerDevice, full)
	assert.NoError(t, err, "a full block at its base fits")

	_, err = buildFrame(1, status.SlotsPerDevice+1, full)
	assert.ErrorIs(t, err, ErrCrossesBlock)

	_, err = buildFrame(1, status.SlotsPerDevice-1, []uint16{1, 2})
	assert.ErrorIs(t, err, ErrCrossesBlock)

	_, err = buildFrame(1, 0, nil)
	assert.Error(t, err)
}

func serveOnce(t *testing.T, reply func(frame, byte) byte) (string, <-chan frame) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	got := make(chan frame, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		f, code, err := readFrame(conn)
		if err != nil {
			return
		}
		got <- f
		_, _ = conn.Write([]byte{reply(f, code)})
	}()

	return ln.Addr().String(), got
}

func TestWriteRegisters_OK(t *testing.T) {
	addr, got := serveOnce(t, func(_ frame, code byte) byte { return code })

	c, err := NewEndpointClient(Config{Endpoint: addr, Timeout: time.Second})
	require.NoError(t, err)

	require.NoError(t, c.WriteRegisters(1, 40+status.SlotState, []uint16{2}))
	assert.Equal(t, frame{unitID: 1, slot: 2, offset: status.SlotState, regs: []uint16{2}}, <-got)
}

func TestWriteRegisters_ReceiverErrors(t *testing.T) {
	cases := []struct {
		code byte
		want string
	}{
		{respRejected, "rejected"},
		{respBadChecksum, "checksum"},
		{respUnknownSlot, "no block 2"},
		{0x7F, "unknown status"},
	}
	for _, tc := range cases {
		addr, _ := serveOnce(t, func(frame, byte) byte { return tc.code })

		c, err := NewEndpointClient(Config{Endpoint: addr, Timeout: time.Second})
		require.NoError(t, err)
		assert.ErrorContains(t, c.WriteRegisters(1, 40, []uint16{2}), tc.want)
	}
}

func TestWriteRegisters_CrossingWriteNeverDials(t *testing.T) {
	c, err := NewEndpointClient(Config{Endpoint: "127.0.0.1:1", Timeout: time.Second})
	require.NoError(t, err)

	err = c.WriteRegisters(1, status.SlotsPerDevice-1, []uint16{1, 2})
	assert.ErrorIs(t, err, ErrCrossesBlock)
}

func TestNewEndpointClient_RequiresEndpoint(t *testing.T) {
	_, err := NewEndpointClient(Config{})
	assert.Error(t, err)
}
