package access

import "encoding/json"

// Set is an immutable set of catalog features. The zero value is empty and
// therefore denies every gated check.
type Set struct {
	bits uint64
}

func newSet(features []Feature) Set {
	var s Set
	for _, f := range features {
		if i, ok := catalogIndex[f]; ok {
			s.bits |= 1 << uint(i)
		}
	}
	return s
}

// NewSet builds a set from features; keys outside the catalog are ignored.
func NewSet(features ...Feature) Set {
	return newSet(features)
}

// ComputeFinalPermissions returns the union of the tier's features and overrides.
// An unknown level resolves as Level1. Duplicate overrides collapse and overrides
// that are not catalog keys are inert.
func ComputeFinalPermissions(level Level, overrides []Feature) Set {
	base := level.Features()
	return base.Union(newSet(overrides))
}

// ForUser resolves the effective set of a stored user record.
func ForUser(u User) Set {
	return ComputeFinalPermissions(u.Level, u.CustomOverrides)
}

func (s Set) Has(f Feature) bool {
	i, ok := catalogIndex[f]
	if !ok {
		return false
	}
	return s.bits&(1<<uint(i)) != 0
}

func (s Set) Union(other Set) Set {
	return Set{bits: s.bits | other.bits}
}

// Contains reports whether every feature of other is also in s.
func (s Set) Contains(other Set) bool {
	return s.bits&other.bits == other.bits
}

func (s Set) Equal(other Set) bool {
	return s.bits == other.bits
}

func (s Set) Len() int {
	n := 0
	for bits := s.bits; bits != 0; bits &= bits - 1 {
		n++
	}
	return n
}

func (s Set) Empty() bool {
	return s.bits == 0
}

// Features lists the members in catalog order.
func (s Set) Features() []Feature {
	out := make([]Feature, 0, s.Len())
	for i, f := range catalog {
		if s.bits&(1<<uint(i)) != 0 {
			out = append(out, f)
		}
	}
	return out
}

func (s Set) Strings() []string {
	return FeatureStrings(s.Features())
}

// Diff returns the features gained and lost going from s to next.
func (s Set) Diff(next Set) (added, removed []Feature) {
	added = Set{bits: next.bits &^ s.bits}.Features()
	removed = Set{bits: s.bits &^ next.bits}.Features()
	return added, removed
}

func (s Set) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Strings())
}

func (s *Set) UnmarshalJSON(data []byte) error {
	var raw []string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = newSet(ParseFeatures(raw))
	return nil
}
