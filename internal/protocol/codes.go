// internal/protocol/codes.go
package protocol

// Alpha protocol framing and command constants.
// These values define the wire format and MUST NOT be configurable.

// ---- FRAMING ----

const (
	NUL byte = 0x00
	SOH byte = 0x01
	STX byte = 0x02
	ETX byte = 0x03
	EOT byte = 0x04
	ESC byte = 0x1B

	ACK byte = 0x06
	NAK byte = 0x15
)

// SyncLength is the number of NUL bytes sent ahead of every frame so the
// sign can lock its baud rate.
const SyncLength = 5

// ChecksumLength is the number of ASCII hex digits following ETX.
const ChecksumLength = 4

// ---- COMMAND CODES ----

const (
	CmdWriteText      byte = 'A'
	CmdReadText       byte = 'B'
	CmdWriteSpecial   byte = 'E'
	CmdReadSpecial    byte = 'F'
	CmdWriteString    byte = 'G'
	CmdReadString     byte = 'H'
	CmdWriteSmallDots byte = 'I'
)

// ---- SPECIAL FUNCTION LABELS ----

const (
	SpecialSetTime        byte = ' '
	SpecialDayOfWeek      byte = '&'
	SpecialTimeFormat     byte = '\''
	SpecialClearMemory    byte = '$'
	SpecialRunSequence    byte = '.'
	SpecialSetDate        byte = ';'
	SpecialSerialErrorReg byte = '*'
)

// ---- MEMORY CONFIGURATION ----

const (
	FileTypeText      byte = 'A'
	KeyboardLocked    byte = 'L'
	KeyboardUnlocked  byte = 'U'
	RunSequenceByList byte = 'S'

	// AlwaysOn is the start/stop time pair meaning "always run".
	AlwaysOn = "FF00"
)

// ---- FORMAT CODES (inside text payloads) ----

const (
	FormatSelectCharset byte = 0x1A
	FormatSelectColor   byte = 0x1C
	FormatCallTime      byte = 0x13
	FormatCallDate      byte = 0x0B
	FormatNewLine       byte = 0x0D
)

// speedCodes maps speed 1..5 to its format code.
var speedCodes = [...]byte{0x15, 0x16, 0x17, 0x18, 0x19}

// ---- ADDRESSING ----

// BroadcastAddress targets every sign on the bus.
const BroadcastAddress = "00"

// ResponseType is the type code signs use in frames they send back.
const ResponseType byte = '0'
