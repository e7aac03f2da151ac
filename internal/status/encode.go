// internal/status/encode.go
package status

// Encode converts a Snapshot into a full sign status block.
// Layout is protocol-locked. The device name slots are left zero.
// No IO. No side effects.
func Encode(s Snapshot) []uint16 {
	regs := make([]uint16, SlotsPerDevice)

	regs[SlotHealthCode] = s.Health
	regs[SlotLastErrorCode] = s.LastErrorCode
	regs[SlotSecondsInError] = s.SecondsInError
	regs[SlotState] = s.State
	regs[SlotVisible] = s.Visible
	regs[SlotCursor] = s.Cursor
	regs[SlotOfflineCount] = s.OfflineCount
	regs[SlotFramesSent] = s.FramesSent
	regs[SlotFramesDropped] = s.FramesDropped
	regs[SlotPrioritySeconds] = s.PrioritySeconds

	return regs
}
