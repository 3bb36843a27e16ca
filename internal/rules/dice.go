package rules

import "math/rand"

// Roller supplies die rolls to the resolvers. Injected so tests can fix
// outcomes instead of reseeding the global source.
type Roller interface {
	// Roll returns a uniform value in [1, sides].
	Roll(sides int) int
}

type randRoller struct {
	rng *rand.Rand
}

// NewRoller returns a Roller backed by its own rand source.
func NewRoller(seed int64) Roller {
	return &randRoller{rng: rand.New(rand.NewSource(seed))}
}

func (r *randRoller) Roll(sides int) int {
	if sides < 1 {
		return 1
	}
	return r.rng.Intn(sides) + 1
}

// FixedRoller returns the given values in order, repeating the last one
// when exhausted. Test helper.
type FixedRoller struct {
	Values []int
	next   int
}

func (f *FixedRoller) Roll(sides int) int {
	if len(f.Values) == 0 {
		return 1
	}
	v := f.Values[f.next]
	if f.next < len(f.Values)-1 {
		f.next++
	}
	return v
}
