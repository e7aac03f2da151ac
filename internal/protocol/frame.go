// internal/protocol/frame.go
package protocol

import (
	"fmt"
	"strings"
	"time"
)

// DefaultMaxText is the text file size configured on the sign when no other
// size is given.
const DefaultMaxText = 256

// AllSlots passed to EncodeClear blanks every slot on the sign.
const AllSlots byte = 0

// Encoder builds addressed, checksummed frames for one sign (or one
// broadcast group). It holds no mutable state and is safe to share.
type Encoder struct {
	signType byte
	address  string
	maxText  int
}

// NewEncoder validates the target and returns an Encoder.
// maxText <= 0 selects DefaultMaxText.
func NewEncoder(t SignType, address string, maxText int) (*Encoder, error) {
	code, err := t.Code()
	if err != nil {
		return nil, err
	}
	if err := ValidateAddress(address); err != nil {
		return nil, err
	}
	if maxText <= 0 {
		maxText = DefaultMaxText
	}
	return &Encoder{
		signType: code,
		address:  strings.ToUpper(address),
		maxText:  maxText,
	}, nil
}

// ValidateAddress checks a 2-character hex sign address ("00" = broadcast).
func ValidateAddress(address string) error {
	if len(address) != 2 {
		return encodingErr("address", "%q must be exactly 2 characters", address)
	}
	for i := 0; i < 2; i++ {
		if !isHex(address[i]) {
			return encodingErr("address", "%q must be hexadecimal", address)
		}
	}
	return nil
}

// ValidSlot reports whether b is a slot letter the sign accepts.
func ValidSlot(b byte) bool { return b >= 'A' && b <= 'Z' }

func (e *Encoder) Address() string { return e.address }
func (e *Encoder) MaxText() int    { return e.maxText }

// ---- text files ----

// EncodeWrite builds a "write text file" frame for slot with the given
// rendering attributes.
func (e *Encoder) EncodeWrite(slot byte, attrs Attributes, text string) ([]byte, error) {
	if !ValidSlot(slot) {
		return nil, encodingErr("slot", "invalid slot label 0x%02x", slot)
	}
	if len(text) > e.maxText {
		return nil, encodingErr("text", "%d bytes exceeds file size %d", len(text), e.maxText)
	}
	if err := validateText(text); err != nil {
		return nil, err
	}

	codes, err := attrs.ControlCodes()
	if err != nil {
		return nil, err
	}

	pkt := make([]byte, 0, 2+len(codes)+len(text))
	pkt = append(pkt, CmdWriteText, slot)
	pkt = append(pkt, codes...)
	pkt = append(pkt, text...)
	return e.frame(pkt), nil
}

// EncodeClear blanks one slot, or the whole sign memory for AllSlots.
// Clearing all slots also drops the memory configuration.
func (e *Encoder) EncodeClear(slot byte) ([]byte, error) {
	if slot == AllSlots {
		return e.frame([]byte{CmdWriteSpecial, SpecialClearMemory}), nil
	}
	if !ValidSlot(slot) {
		return nil, encodingErr("slot", "invalid slot label 0x%02x", slot)
	}
	return e.frame([]byte{CmdWriteText, slot}), nil
}

// ---- visibility ----

// EncodeVisibleSequence selects which slots run, in order.
func (e *Encoder) EncodeVisibleSequence(slots []byte) ([]byte, error) {
	if len(slots) == 0 {
		return nil, encodingErr("sequence", "at least one slot required")
	}
	pkt := []byte{CmdWriteSpecial, SpecialRunSequence, RunSequenceByList, KeyboardUnlocked}
	for _, s := range slots {
		if !ValidSlot(s) {
			return nil, encodingErr("sequence", "invalid slot label 0x%02x", s)
		}
		pkt = append(pkt, s)
	}
	return e.frame(pkt), nil
}

// EncodePriorityDisplay runs slot alone.
func (e *Encoder) EncodePriorityDisplay(slot byte) ([]byte, error) {
	return e.EncodeVisibleSequence([]byte{slot})
}

// ---- special functions ----

// EncodeMemoryConfig clears the sign memory and allocates each slot as a
// locked, always-on text file of size bytes.
func (e *Encoder) EncodeMemoryConfig(slots []byte, size int) ([]byte, error) {
	if len(slots) == 0 {
		return nil, encodingErr("memory", "at least one slot required")
	}
	if size <= 0 || size > 0xFFFF {
		return nil, encodingErr("memory", "file size %d out of range", size)
	}
	pkt := []byte{CmdWriteSpecial, SpecialClearMemory}
	sz := fmt.Sprintf("%04X", size)
	for _, s := range slots {
		if !ValidSlot(s) {
			return nil, encodingErr("memory", "invalid slot label 0x%02x", s)
		}
		pkt = append(pkt, s, FileTypeText, KeyboardLocked)
		pkt = append(pkt, sz...)
		pkt = append(pkt, AlwaysOn...)
	}
	return e.frame(pkt), nil
}

// EncodeTimeFormat selects 24-hour (military) or 12-hour display.
func (e *Encoder) EncodeTimeFormat(h24 bool) []byte {
	f := byte('S')
	if h24 {
		f = 'M'
	}
	return e.frame([]byte{CmdWriteSpecial, SpecialTimeFormat, f})
}

// EncodeSetTime sets the sign's clock, day of week and date in one frame.
func (e *Encoder) EncodeSetTime(t time.Time) []byte {
	yy := t.Year() % 100
	return e.frame(
		append([]byte{CmdWriteSpecial, SpecialSetTime}, fmt.Sprintf("%02d%02d", t.Hour(), t.Minute())...),
		[]byte{CmdWriteSpecial, SpecialDayOfWeek, byte('1' + int(t.Weekday()))},
		append([]byte{CmdWriteSpecial, SpecialSetDate}, fmt.Sprintf("%02d%02d%02d", int(t.Month()), t.Day(), yy)...),
	)
}

// ---- framing ----

// frame wraps one or more packets:
//
//	NUL*5 SOH type addr(2) { STX packet ETX checksum(4) }... EOT
func (e *Encoder) frame(packets ...[]byte) []byte {
	n := SyncLength + 4 + 1
	for _, p := range packets {
		n += len(p) + 2 + ChecksumLength
	}

	out := make([]byte, 0, n)
	for i := 0; i < SyncLength; i++ {
		out = append(out, NUL)
	}
	out = append(out, SOH, e.signType, e.address[0], e.address[1])

	for _, p := range packets {
		start := len(out)
		out = append(out, STX)
		out = append(out, p...)
		out = append(out, ETX)
		out = append(out, fmt.Sprintf("%04X", Checksum(out[start:]))...)
	}

	return append(out, EOT)
}

// Checksum is the 16-bit sum of every byte from STX through ETX inclusive.
func Checksum(b []byte) uint16 {
	var sum uint16
	for _, c := range b {
		sum += uint16(c)
	}
	return sum
}

// validateText rejects bytes that would break framing or that the sign
// cannot render.
func validateText(text string) error {
	for i := 0; i < len(text); i++ {
		c := text[i]
		if c <= EOT || c > 0x7E {
			return encodingErr("text", "byte 0x%02x at offset %d not allowed", c, i)
		}
	}
	return nil
}

func isHex(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
