package access

import "context"

type Store interface {
	GetUser(ctx context.Context, userID string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
	FindCredentials(ctx context.Context, email string) (Credentials, error)
	SavePermissions(ctx context.Context, userID string, level Level, overrides []Feature) error
	GetMFA(ctx context.Context, userID string) (MFAState, error)
	// SetMFASecret stores a new secret and disables MFA until it is confirmed.
	SetMFASecret(ctx context.Context, userID, secret string) error
	SetMFAEnabled(ctx context.Context, userID string, enabled bool) error
}

type Auditor interface {
	Record(ctx context.Context, actorID, action, entityType, entityID, requestID string, before, after any) error
}

type Publisher interface {
	PublishPermissionsChanged(ctx context.Context, event ChangeEvent) error
}
