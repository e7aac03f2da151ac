// internal/status/constants.go
package status

// Sign Status Block layout constants.
// These values define the protocol and MUST NOT be configurable.

// ---- BLOCK GEOMETRY ----

// SlotsPerDevice is the fixed number of registers per sign.
const SlotsPerDevice = 20

// ---- SLOT INDICES ----

// SlotHealthCode holds the sign link health state.
const SlotHealthCode = 0

// SlotLastErrorCode holds the last error code (see ErrorCode*).
const SlotLastErrorCode = 1

// SlotSecondsInError holds the duration (in seconds) the link has been in error.
const SlotSecondsInError = 2

// SlotState holds the scheduler state (StateCode*).
const SlotState = 3

// SlotVisible holds the ASCII letter of the visible slot, 0 if none.
const SlotVisible = 4

// SlotCursor holds the offline rotation index.
const SlotCursor = 5

// SlotOfflineCount holds the number of offline messages.
const SlotOfflineCount = 6

// SlotFramesSent holds the sent frame counter (wraps at 65536).
const SlotFramesSent = 7

// SlotFramesDropped holds the dropped frame counter (wraps at 65536).
const SlotFramesDropped = 8

// SlotPrioritySeconds holds the seconds left on the priority message.
const SlotPrioritySeconds = 9

// SlotLive is the number of leading slots that carry live values.
const SlotLive = 10

// ---- RESERVED RANGE ----

// Slot 10 and slot 19 are reserved for future use; they are written as zero.

// ---- DEVICE NAME ----

// SlotDeviceNameStart is the first slot used for the device name.
const SlotDeviceNameStart = 11

// SlotDeviceNameSlots is the number of slots reserved for the device name.
const SlotDeviceNameSlots = 8

// SlotDeviceNameEnd is the last slot used for the device name (inclusive).
const SlotDeviceNameEnd = SlotDeviceNameStart + SlotDeviceNameSlots - 1

// ---- LIMITS ----

// DeviceNameMaxChars is the maximum number of ASCII characters stored for device name.
const DeviceNameMaxChars = 16

// ---- HEALTH CODES ----

// HealthUnknown represents the boot state, before the first transition.
const HealthUnknown uint16 = 0

// HealthOK means the last transition reached the sign.
const HealthOK uint16 = 1

// HealthError means the last transition dropped a frame.
const HealthError uint16 = 2

// ---- ERROR CODES ----

// ErrorCodeGeneric is used when an error exposes no code.
const ErrorCodeGeneric uint16 = 1

// ---- STATE CODES ----

const (
	StateCodeUnknown  uint16 = 0
	StateCodeDefault  uint16 = 1
	StateCodeRotating uint16 = 2
	StateCodePriority uint16 = 3
	StateCodeClock    uint16 = 4
)
