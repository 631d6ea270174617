package access

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"hraccess/internal/domain/auth"
	"hraccess/internal/requestctx"
)

const (
	AuditActionPermissionsUpdated = "permissions.updated"
	AuditEntityUser               = "user"

	DefaultPendingTTL = 10 * time.Minute
)

type Service struct {
	store      Store
	Auditor    Auditor
	Events     Publisher
	PendingTTL time.Duration
	Now        func() time.Time
	pending    *pendingRegistry
}

func NewService(store Store, auditor Auditor, events Publisher) *Service {
	return &Service{
		store:      store,
		Auditor:    auditor,
		Events:     events,
		PendingTTL: DefaultPendingTTL,
		Now:        time.Now,
		pending:    newPendingRegistry(),
	}
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}

// Resolve loads a user and computes their effective permissions.
func (s *Service) Resolve(ctx context.Context, userID string) (Permissions, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return Permissions{}, err
	}
	return permissionsOf(user), nil
}

func (s *Service) User(ctx context.Context, userID string) (User, error) {
	return s.store.GetUser(ctx, userID)
}

func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	return s.store.ListUsers(ctx)
}

func (s *Service) FindCredentials(ctx context.Context, email string) (Credentials, error) {
	return s.store.FindCredentials(ctx, email)
}

// Editor returns a draft seeded from the user's stored permissions.
func (s *Service) Editor(ctx context.Context, userID string) (User, *Draft, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return User{}, nil, err
	}
	return user, NewDraft(user), nil
}

// ProposeChange validates an update and parks it until the same actor confirms it.
// Unknown levels and features are rejected here; stored data is never rejected.
func (s *Service) ProposeChange(ctx context.Context, actorID, userID, rawLevel string, rawOverrides []string) (PendingChange, error) {
	level := Level(strings.ToUpper(strings.TrimSpace(rawLevel)))
	if !level.Valid() {
		return PendingChange{}, fmt.Errorf("%w: %q", ErrUnknownLevel, rawLevel)
	}
	overrides := make([]Feature, 0, len(rawOverrides))
	for _, raw := range rawOverrides {
		f, ok := ParseFeature(raw)
		if !ok {
			return PendingChange{}, fmt.Errorf("%w: %q", ErrUnknownFeature, raw)
		}
		overrides = append(overrides, f)
	}

	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return PendingChange{}, err
	}

	draft := NewDraft(user)
	draft.SetLevel(level)
	for _, f := range overrides {
		if !draft.overrides.Has(f) {
			draft.Toggle(f)
		}
	}

	before := ForUser(user)
	after := draft.Preview()
	added, removed := before.Diff(after)
	if actorID == user.ID && len(added) > 0 {
		return PendingChange{}, ErrSelfElevation
	}
	now := s.now()
	change := PendingChange{
		ID:           uuid.NewString(),
		TargetUserID: user.ID,
		ActorID:      actorID,
		Level:        draft.Level,
		Overrides:    draft.Overrides(),
		Before:       before,
		After:        after,
		Added:        added,
		Removed:      removed,
		CreatedAt:    now,
		ExpiresAt:    now.Add(s.pendingTTL()),
	}
	s.pending.put(change)
	return change, nil
}

func (s *Service) pendingTTL() time.Duration {
	if s.PendingTTL <= 0 {
		return DefaultPendingTTL
	}
	return s.PendingTTL
}

// PendingChange looks up a proposal that has not been confirmed, cancelled or expired.
func (s *Service) PendingChange(changeID string) (PendingChange, error) {
	change, ok := s.pending.get(changeID, s.now())
	if !ok {
		return PendingChange{}, ErrChangeNotFound
	}
	return change, nil
}

// ConfirmChange commits a proposal and returns the target user's new permissions.
// Actors with MFA enabled must use ConfirmChangeWithCode.
func (s *Service) ConfirmChange(ctx context.Context, actorID, changeID string) (Permissions, error) {
	return s.ConfirmChangeWithCode(ctx, actorID, changeID, "")
}

// ConfirmChangeWithCode is ConfirmChange with a TOTP step-up code for actors who
// enrolled in MFA.
func (s *Service) ConfirmChangeWithCode(ctx context.Context, actorID, changeID, code string) (Permissions, error) {
	change, err := s.pending.take(changeID, actorID, s.now())
	if err != nil {
		return Permissions{}, err
	}

	if err := s.checkStepUp(ctx, actorID, code); err != nil {
		s.pending.put(change)
		return Permissions{}, err
	}

	if err := s.store.SavePermissions(ctx, change.TargetUserID, change.Level, change.Overrides); err != nil {
		// keep the proposal so the actor can retry
		s.pending.put(change)
		return Permissions{}, err
	}

	before := map[string]any{"effective": change.Before}
	after := map[string]any{"level": change.Level, "overrides": change.Overrides, "effective": change.After}
	if s.Auditor != nil {
		if err := s.Auditor.Record(ctx, actorID, AuditActionPermissionsUpdated, AuditEntityUser, change.TargetUserID, requestctx.GetRequestID(ctx), before, after); err != nil {
			slog.Warn("permission audit failed", "err", err, "userId", change.TargetUserID)
		}
	}

	if s.Events != nil {
		event := ChangeEvent{
			UserID:    change.TargetUserID,
			ActorID:   actorID,
			Level:     change.Level,
			Overrides: change.Overrides,
			Effective: change.After,
			ChangedAt: s.now(),
		}
		if err := s.Events.PublishPermissionsChanged(ctx, event); err != nil {
			slog.Warn("permission change publish failed", "err", err, "userId", change.TargetUserID)
		}
	}

	slog.Info("permissions updated", "userId", change.TargetUserID, "actorId", actorID, "level", change.Level, "added", FeatureStrings(change.Added), "removed", FeatureStrings(change.Removed))

	return Permissions{
		UserID:    change.TargetUserID,
		Level:     change.Level,
		Overrides: change.Overrides,
		Effective: change.After,
	}, nil
}

// PurgeExpiredChanges drops proposals past their deadline and reports how many.
func (s *Service) PurgeExpiredChanges() int {
	return s.pending.sweep(s.now())
}

func (s *Service) CancelChange(actorID, changeID string) error {
	_, err := s.pending.take(changeID, actorID, s.now())
	return err
}

// checkStepUp treats actors without a user record as not enrolled. HTTP callers
// always reach here as a resolved user.
func (s *Service) checkStepUp(ctx context.Context, actorID, code string) error {
	state, err := s.store.GetMFA(ctx, actorID)
	if errors.Is(err, ErrUserNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return auth.CheckMFA(state.Enabled, state.Secret, code)
}

func (s *Service) GetMFA(ctx context.Context, userID string) (MFAState, error) {
	return s.store.GetMFA(ctx, userID)
}

func (s *Service) SetMFASecret(ctx context.Context, userID, secret string) error {
	return s.store.SetMFASecret(ctx, userID, secret)
}

func (s *Service) SetMFAEnabled(ctx context.Context, userID string, enabled bool) error {
	return s.store.SetMFAEnabled(ctx, userID, enabled)
}
