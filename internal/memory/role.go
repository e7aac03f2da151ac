// internal/memory/role.go
package memory

import "fmt"

type RoleKind uint8

const (
	RoleDefault RoleKind = iota
	RoleOffline
	RolePriority
	RoleClock
)

// Role is the logical purpose bound to a slot. Index is only meaningful
// for RoleOffline.
type Role struct {
	Kind  RoleKind
	Index int
}

func DefaultRole() Role       { return Role{Kind: RoleDefault} }
func OfflineRole(i int) Role  { return Role{Kind: RoleOffline, Index: i} }
func PriorityRole() Role      { return Role{Kind: RolePriority} }
func ClockRole() Role         { return Role{Kind: RoleClock} }
func (r Role) reserved() bool { return r.Kind == RolePriority || r.Kind == RoleClock }

func (r Role) String() string {
	switch r.Kind {
	case RoleDefault:
		return "default"
	case RoleOffline:
		return fmt.Sprintf("offline[%d]", r.Index)
	case RolePriority:
		return "priority"
	case RoleClock:
		return "clock"
	default:
		return fmt.Sprintf("role(%d)", r.Kind)
	}
}
