// internal/protocol/protocol_test.go
package protocol

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAttrs() Attributes {
	return Attributes{
		Color:    ColorGreen,
		Mode:     ModeRotate,
		Charset:  Charset7High,
		Position: PositionTop,
		Speed:    3,
	}
}

func newTestEncoder(t *testing.T) *Encoder {
	t.Helper()
	enc, err := NewEncoder(SignAll, "00", 64)
	require.NoError(t, err)
	return enc
}

func TestEncodeWrite_ExactBytes(t *testing.T) {
	enc := newTestEncoder(t)

	got, err := enc.EncodeWrite('C', testAttrs(), "HI")
	require.NoError(t, err)

	body := []byte{
		STX, 'A', 'C',
		ESC, '"', 'a',
		FormatSelectCharset, '3',
		0x17,
		FormatSelectColor, '2',
		'H', 'I',
		ETX,
	}
	var sum uint16
	for _, b := range body {
		sum += uint16(b)
	}

	want := []byte{0, 0, 0, 0, 0, SOH, '?', '0', '0'}
	want = append(want, body...)
	want = append(want, []byte(hex4(sum))...)
	want = append(want, EOT)

	assert.Equal(t, want, got)
}

func hex4(v uint16) string {
	const digits = "0123456789ABCDEF"
	return string([]byte{
		digits[v>>12&0xF], digits[v>>8&0xF], digits[v>>4&0xF], digits[v&0xF],
	})
}

func TestEncodeWrite_EffectForcesSpecialMode(t *testing.T) {
	enc := newTestEncoder(t)

	a := testAttrs()
	a.Effect = EffectFireworks

	frame, err := enc.EncodeWrite('D', a, "boom")
	require.NoError(t, err)

	w, err := DecodeWrite(frame)
	require.NoError(t, err)
	assert.Equal(t, ModeSpecial, w.Attributes.Mode)
	assert.Equal(t, EffectFireworks, w.Attributes.Effect)
	assert.Equal(t, "boom", w.Text)
	assert.Equal(t, byte('D'), w.Slot)
}

func TestEncodeWrite_Rejections(t *testing.T) {
	enc := newTestEncoder(t)

	tests := []struct {
		name  string
		slot  byte
		attrs func(Attributes) Attributes
		text  string
		field string
	}{
		{name: "unknown color", slot: 'A', attrs: func(a Attributes) Attributes { a.Color = 99; return a }, field: "color"},
		{name: "zero mode", slot: 'A', attrs: func(a Attributes) Attributes { a.Mode = 0; return a }, field: "mode"},
		{name: "special without effect", slot: 'A', attrs: func(a Attributes) Attributes { a.Mode = ModeSpecial; return a }, field: "effect"},
		{name: "unknown effect", slot: 'A', attrs: func(a Attributes) Attributes { a.Effect = 200; return a }, field: "effect"},
		{name: "speed too high", slot: 'A', attrs: func(a Attributes) Attributes { a.Speed = 6; return a }, field: "speed"},
		{name: "speed zero", slot: 'A', attrs: func(a Attributes) Attributes { a.Speed = 0; return a }, field: "speed"},
		{name: "bad slot", slot: '1', attrs: func(a Attributes) Attributes { return a }, field: "slot"},
		{name: "oversized text", slot: 'A', attrs: func(a Attributes) Attributes { return a }, text: string(make([]byte, 65)), field: "text"},
		{name: "framing byte in text", slot: 'A', attrs: func(a Attributes) Attributes { return a }, text: "a\x03b", field: "text"},
		{name: "non ascii text", slot: 'A', attrs: func(a Attributes) Attributes { return a }, text: "caf\xc3\xa9", field: "text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := enc.EncodeWrite(tt.slot, tt.attrs(testAttrs()), tt.text)
			var encErr *EncodingError
			require.ErrorAs(t, err, &encErr)
			assert.Equal(t, tt.field, encErr.Field)
			assert.Equal(t, ErrorCodeEncoding, encErr.Code())
		})
	}
}

func TestNewEncoder_Validation(t *testing.T) {
	_, err := NewEncoder(SignAll, "0", 0)
	require.Error(t, err)

	_, err = NewEncoder(SignAll, "zz", 0)
	require.Error(t, err)

	_, err = NewEncoder(0, "00", 0)
	require.Error(t, err)

	enc, err := NewEncoder(SignBetaBrite, "0a", 0)
	require.NoError(t, err)
	assert.Equal(t, "0A", enc.Address())
	assert.Equal(t, DefaultMaxText, enc.MaxText())
}

func TestEncodeVisibleSequence(t *testing.T) {
	enc := newTestEncoder(t)

	frame, err := enc.EncodeVisibleSequence([]byte("CA"))
	require.NoError(t, err)

	f, err := ParseFrame(frame)
	require.NoError(t, err)
	require.Len(t, f.Packets, 1)
	assert.Equal(t, []byte{'E', '.', 'S', 'U', 'C', 'A'}, f.Packets[0])

	single, err := enc.EncodePriorityDisplay('A')
	require.NoError(t, err)
	f, err = ParseFrame(single)
	require.NoError(t, err)
	assert.Equal(t, []byte{'E', '.', 'S', 'U', 'A'}, f.Packets[0])

	_, err = enc.EncodeVisibleSequence(nil)
	require.Error(t, err)
}

func TestEncodeClear(t *testing.T) {
	enc := newTestEncoder(t)

	all, err := enc.EncodeClear(AllSlots)
	require.NoError(t, err)
	f, err := ParseFrame(all)
	require.NoError(t, err)
	assert.Equal(t, []byte{'E', '$'}, f.Packets[0])

	one, err := enc.EncodeClear('B')
	require.NoError(t, err)
	f, err = ParseFrame(one)
	require.NoError(t, err)
	assert.Equal(t, []byte{'A', 'B'}, f.Packets[0])
}

func TestEncodeMemoryConfig(t *testing.T) {
	enc := newTestEncoder(t)

	frame, err := enc.EncodeMemoryConfig([]byte("AB"), 256)
	require.NoError(t, err)

	f, err := ParseFrame(frame)
	require.NoError(t, err)
	assert.Equal(t, "E$AAL0100FF00BAL0100FF00", string(f.Packets[0]))

	_, err = enc.EncodeMemoryConfig([]byte("AB"), 0)
	require.Error(t, err)
}

func TestEncodeSetTime(t *testing.T) {
	enc := newTestEncoder(t)

	// 2026-03-05 was a Thursday.
	at := time.Date(2026, time.March, 5, 14, 7, 0, 0, time.UTC)
	f, err := ParseFrame(enc.EncodeSetTime(at))
	require.NoError(t, err)
	require.Len(t, f.Packets, 3)
	assert.Equal(t, "E 1407", string(f.Packets[0]))
	assert.Equal(t, "E&5", string(f.Packets[1]))
	assert.Equal(t, "E;030526", string(f.Packets[2]))

	f, err = ParseFrame(enc.EncodeTimeFormat(true))
	require.NoError(t, err)
	assert.Equal(t, "E'M", string(f.Packets[0]))
}

func TestParseFrame_ChecksumMismatch(t *testing.T) {
	enc := newTestEncoder(t)
	frame, err := enc.EncodeWrite('A', testAttrs(), "hello")
	require.NoError(t, err)

	// Flip one payload byte; the checksum no longer matches.
	frame[len(frame)-8] = 'X'

	_, err = ParseFrame(frame)
	assert.True(t, errors.Is(err, ErrChecksumMismatch), "got %v", err)
}

func TestDecodeAck(t *testing.T) {
	ack, err := DecodeAck(nil)
	require.NoError(t, err)
	assert.Equal(t, AckNone, ack.Kind)

	ack, err = DecodeAck([]byte{0, 0, ACK})
	require.NoError(t, err)
	assert.Equal(t, AckOK, ack.Kind)
	assert.NoError(t, ack.Err())

	ack, err = DecodeAck([]byte{NAK})
	require.NoError(t, err)
	assert.Equal(t, AckNAK, ack.Kind)
	assert.ErrorIs(t, ack.Err(), ErrNAK)

	resp := &Encoder{signType: ResponseType, address: "00", maxText: DefaultMaxText}
	ack, err = DecodeAck(resp.frame([]byte{'E', '*', '0', '0'}))
	require.NoError(t, err)
	require.Equal(t, AckResponse, ack.Kind)
	assert.Equal(t, "E*00", string(ack.Frame.Packets[0]))

	enc := newTestEncoder(t)
	_, err = DecodeAck(enc.EncodeTimeFormat(false))
	assert.ErrorIs(t, err, ErrBadFraming)

	ack, err = DecodeAck([]byte("garbage"))
	require.NoError(t, err)
	assert.Equal(t, AckNone, ack.Kind)
}

func TestEnumText(t *testing.T) {
	var c Color
	require.NoError(t, c.UnmarshalText([]byte("Amber")))
	assert.Equal(t, ColorAmber, c)
	require.Error(t, c.UnmarshalText([]byte("purple")))

	var e Effect
	require.NoError(t, e.UnmarshalText([]byte("")))
	assert.Equal(t, EffectNone, e)
	require.NoError(t, e.UnmarshalText([]byte("bomb")))
	assert.Equal(t, EffectBomb, e)

	txt, err := ModeWipeIn.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "wipein", string(txt))

	var p Position
	require.NoError(t, p.UnmarshalText([]byte("botline")))
	assert.Equal(t, PositionBottom, p)
}
