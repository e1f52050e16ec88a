package impulse2d

import "strings"

// ContactFlags is the state bit set of a Contact.
type ContactFlags uint8

const (
	// FlagIsland marks a contact already added to the island being built.
	FlagIsland ContactFlags = 1 << iota
	// FlagTouching is set while the shapes' manifold has points.
	FlagTouching
	// FlagEnabled can be cleared by PreSolve to skip the contact for one step.
	FlagEnabled
	// FlagFilter requests a filter re-check on the next step.
	FlagFilter
	// FlagBulletHit marks a contact hit by a bullet during TOI.
	FlagBulletHit
	// FlagTOI marks a valid cached time of impact.
	FlagTOI
)

func (f ContactFlags) Has(flag ContactFlags) bool { return f&flag != 0 }

func (f *ContactFlags) Set(flag ContactFlags) { *f |= flag }

func (f *ContactFlags) Clear(flag ContactFlags) { *f &^= flag }

// Assign sets or clears flag.
func (f *ContactFlags) Assign(flag ContactFlags, on bool) {
	if on {
		f.Set(flag)
	} else {
		f.Clear(flag)
	}
}

var flagNames = []struct {
	flag ContactFlags
	name string
}{
	{FlagIsland, "island"},
	{FlagTouching, "touching"},
	{FlagEnabled, "enabled"},
	{FlagFilter, "filter"},
	{FlagBulletHit, "bullet_hit"},
	{FlagTOI, "toi"},
}

func (f ContactFlags) String() string {
	if f == 0 {
		return "none"
	}
	var parts []string
	for _, fn := range flagNames {
		if f.Has(fn.flag) {
			parts = append(parts, fn.name)
		}
	}
	return strings.Join(parts, "|")
}
