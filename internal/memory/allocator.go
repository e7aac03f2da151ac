// internal/memory/allocator.go
package memory

import "fmt"

// MaxSlots is the size of the sign's label alphabet (A..Z).
const MaxSlots = 26

// FirstLabel is the label of slot index 0.
const FirstLabel byte = 'A'

// reservedSlots is the number of slots carved out for priority and clock.
const reservedSlots = 2

// ErrorCodeExhausted is the status-block code for ErrAllocatorExhausted.
const ErrorCodeExhausted uint16 = 3

type codedError struct {
	msg  string
	code uint16
}

func (e *codedError) Error() string { return e.msg }
func (e *codedError) Code() uint16  { return e.code }

// ErrAllocatorExhausted means max_files leaves no room for the reserved
// roles plus at least one content slot. It is a configuration-time error.
var ErrAllocatorExhausted error = &codedError{msg: "memory: allocator exhausted", code: ErrorCodeExhausted}

type slot struct {
	used     bool
	role     Role
	lastUsed uint64
	resident string // fingerprint of the content on the sign; "" = unknown
}

// Allocator maps roles to sign-resident slot labels. It is an
// index-addressed table sized by max_files; slot i has label 'A'+i.
// Not safe for concurrent use: the scheduler loop owns it.
type Allocator struct {
	slots [MaxSlots]slot
	n     int
	tick  uint64
}

// New builds an allocator for maxFiles slots, reserving the first two
// labels for the priority and clock roles.
func New(maxFiles int) (*Allocator, error) {
	if maxFiles > MaxSlots {
		return nil, fmt.Errorf("memory: max_files %d exceeds %d", maxFiles, MaxSlots)
	}
	if maxFiles < reservedSlots+1 {
		return nil, fmt.Errorf("%w: max_files %d < %d (priority + clock + one content slot)",
			ErrAllocatorExhausted, maxFiles, reservedSlots+1)
	}

	a := &Allocator{n: maxFiles}
	a.slots[0] = slot{used: true, role: PriorityRole()}
	a.slots[1] = slot{used: true, role: ClockRole()}
	return a, nil
}

// Size returns the configured max_files.
func (a *Allocator) Size() int { return a.n }

// Labels returns every label the allocator manages, in order.
func (a *Allocator) Labels() []byte {
	out := make([]byte, a.n)
	for i := range out {
		out[i] = label(i)
	}
	return out
}

// Assign returns the stable label for a role seen before. A new role gets
// the lowest free slot or, when the pool is full, the least recently used
// content slot (its previous role is forgotten).
func (a *Allocator) Assign(r Role) (byte, error) {
	a.tick++

	if i := a.find(r); i >= 0 {
		a.slots[i].lastUsed = a.tick
		return label(i), nil
	}
	if r.reserved() {
		// Reserved roles are placed by New; reaching here is a bug.
		return 0, fmt.Errorf("memory: reserved role %s not present", r)
	}

	victim := -1
	for i := reservedSlots; i < a.n; i++ {
		if !a.slots[i].used {
			victim = i
			break
		}
		if victim < 0 || a.slots[i].lastUsed < a.slots[victim].lastUsed {
			victim = i
		}
	}
	if victim < 0 {
		return 0, ErrAllocatorExhausted
	}

	a.slots[victim] = slot{used: true, role: r, lastUsed: a.tick}
	return label(victim), nil
}

// Release frees the slot bound to r. Releasing an unknown or reserved role
// is a no-op.
func (a *Allocator) Release(r Role) {
	if r.reserved() {
		return
	}
	if i := a.find(r); i >= 0 {
		a.slots[i] = slot{}
	}
}

// Lookup returns the label bound to r without touching LRU order.
func (a *Allocator) Lookup(r Role) (byte, bool) {
	if i := a.find(r); i >= 0 {
		return label(i), true
	}
	return 0, false
}

// Resident reports the content fingerprint last written to label.
func (a *Allocator) Resident(l byte) string {
	if i, ok := index(l, a.n); ok {
		return a.slots[i].resident
	}
	return ""
}

// SetResident records that label now holds content with fingerprint fp.
func (a *Allocator) SetResident(l byte, fp string) {
	if i, ok := index(l, a.n); ok {
		a.slots[i].resident = fp
	}
}

// ForgetResident marks every slot's content unknown (after a memory clear).
func (a *Allocator) ForgetResident() {
	for i := 0; i < a.n; i++ {
		a.slots[i].resident = ""
	}
}

// Bindings returns the role bound to each used label.
func (a *Allocator) Bindings() map[byte]Role {
	out := make(map[byte]Role, a.n)
	for i := 0; i < a.n; i++ {
		if a.slots[i].used {
			out[label(i)] = a.slots[i].role
		}
	}
	return out
}

func (a *Allocator) find(r Role) int {
	for i := 0; i < a.n; i++ {
		if a.slots[i].used && a.slots[i].role == r {
			return i
		}
	}
	return -1
}

func label(i int) byte { return FirstLabel + byte(i) }

func index(l byte, n int) (int, bool) {
	i := int(l) - int(FirstLabel)
	return i, i >= 0 && i < n
}
