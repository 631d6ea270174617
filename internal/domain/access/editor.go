package access

// Draft is the administrator's working copy of one user's permissions.
type Draft struct {
	UserID    string
	Level     Level
	overrides Set
}

// OverrideOption describes one catalog entry in the editor. Locked entries come
// from the tier and cannot be toggled.
type OverrideOption struct {
	Feature Feature `json:"feature"`
	Label   string  `json:"label"`
	Granted bool    `json:"granted"`
	Locked  bool    `json:"locked"`
}

func NewDraft(u User) *Draft {
	level := u.Level.Normalize()
	return &Draft{
		UserID:    u.ID,
		Level:     level,
		overrides: newSet(normalizeOverrides(level, u.CustomOverrides)),
	}
}

// SetLevel switches tier and discards every override.
func (d *Draft) SetLevel(level Level) {
	d.Level = level.Normalize()
	d.overrides = Set{}
}

// Toggle grants or revokes an override and reports whether the draft changed.
// Tier-implied and unknown features are left alone.
func (d *Draft) Toggle(f Feature) bool {
	i, ok := catalogIndex[f]
	if !ok || d.Level.Includes(f) {
		return false
	}
	d.overrides.bits ^= 1 << uint(i)
	return true
}

func (d *Draft) Overrides() []Feature {
	return d.overrides.Features()
}

// Preview is the effective set the draft would produce if committed.
func (d *Draft) Preview() Set {
	return d.Level.Features().Union(d.overrides)
}

func (d *Draft) Options() []OverrideOption {
	preview := d.Preview()
	out := make([]OverrideOption, 0, len(catalog))
	for _, f := range catalog {
		out = append(out, OverrideOption{
			Feature: f,
			Label:   f.Label(),
			Granted: preview.Has(f),
			Locked:  d.Level.Includes(f),
		})
	}
	return out
}
