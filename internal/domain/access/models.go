package access

import "time"

// User is the permission-relevant part of a user record.
type User struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	Role            string    `json:"role"`
	Level           Level     `json:"level"`
	CustomOverrides []Feature `json:"customOverrides"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// Credentials pairs a user with the secrets checked at login.
type Credentials struct {
	User         User
	PasswordHash string
	MFA          MFAState
}

// MFAState is a user's TOTP enrolment. A secret may exist before it is enabled.
type MFAState struct {
	Secret  string
	Enabled bool
}

// Permissions is the resolved view of one user, computed once per state change and
// shared by every consumer of a request.
type Permissions struct {
	UserID    string    `json:"userId"`
	Level     Level     `json:"level"`
	Overrides []Feature `json:"overrides"`
	Effective Set       `json:"effective"`
}

func (p Permissions) Has(f Feature) bool {
	return HasPermission(p.Effective, f)
}

// Permissions resolves the user's stored level and overrides.
func (u User) Permissions() Permissions {
	return permissionsOf(u)
}

func permissionsOf(u User) Permissions {
	level := u.Level.Normalize()
	return Permissions{
		UserID:    u.ID,
		Level:     level,
		Overrides: normalizeOverrides(level, u.CustomOverrides),
		Effective: ComputeFinalPermissions(level, u.CustomOverrides),
	}
}

// normalizeOverrides keeps catalog keys not already granted by level, once each,
// in catalog order.
func normalizeOverrides(level Level, overrides []Feature) []Feature {
	extra := newSet(overrides)
	return Set{bits: extra.bits &^ level.Features().bits}.Features()
}

// PendingChange is a proposed permission update awaiting confirmation.
type PendingChange struct {
	ID           string    `json:"id"`
	TargetUserID string    `json:"targetUserId"`
	ActorID      string    `json:"actorId"`
	Level        Level     `json:"level"`
	Overrides    []Feature `json:"overrides"`
	Before       Set       `json:"before"`
	After        Set       `json:"after"`
	Added        []Feature `json:"added"`
	Removed      []Feature `json:"removed"`
	CreatedAt    time.Time `json:"createdAt"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// ChangeEvent is published after a permission change is committed.
type ChangeEvent struct {
	UserID    string    `json:"userId"`
	ActorID   string    `json:"actorId"`
	Level     Level     `json:"level"`
	Overrides []Feature `json:"overrides"`
	Effective Set       `json:"effective"`
	ChangedAt time.Time `json:"changedAt"`
}
