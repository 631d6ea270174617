package access

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryStore keeps user records in process. It backs the demo mode and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Credentials
	now     func() time.Time
}

func NewMemoryStore(seed ...Credentials) *MemoryStore {
	s := &MemoryStore{records: make(map[string]Credentials, len(seed)), now: time.Now}
	for _, rec := range seed {
		rec.User = cloneUser(rec.User)
		s.records[rec.User.ID] = rec
	}
	return s
}

func cloneUser(u User) User {
	u.CustomOverrides = append([]Feature(nil), u.CustomOverrides...)
	return u
}

func (s *MemoryStore) GetUser(_ context.Context, userID string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[userID]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return cloneUser(rec.User), nil
}

func (s *MemoryStore) ListUsers(_ context.Context) ([]User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]User, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, cloneUser(rec.User))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name == out[j].Name {
			return out[i].Email < out[j].Email
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (s *MemoryStore) FindCredentials(_ context.Context, email string) (Credentials, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, rec := range s.records {
		if strings.EqualFold(rec.User.Email, strings.TrimSpace(email)) {
			rec.User = cloneUser(rec.User)
			return rec, nil
		}
	}
	return Credentials{}, ErrUserNotFound
}

func (s *MemoryStore) SavePermissions(_ context.Context, userID string, level Level, overrides []Feature) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[userID]
	if !ok {
		return ErrUserNotFound
	}
	rec.User.Level = level.Normalize()
	rec.User.CustomOverrides = append([]Feature(nil), overrides...)
	rec.User.UpdatedAt = s.now().UTC()
	s.records[userID] = rec
	return nil
}

func (s *MemoryStore) GetMFA(_ context.Context, userID string) (MFAState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[userID]
	if !ok {
		return MFAState{}, ErrUserNotFound
	}
	return rec.MFA, nil
}

func (s *MemoryStore) SetMFASecret(_ context.Context, userID, secret string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[userID]
	if !ok {
		return ErrUserNotFound
	}
	rec.MFA = MFAState{Secret: secret}
	s.records[userID] = rec
	return nil
}

func (s *MemoryStore) SetMFAEnabled(_ context.Context, userID string, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[userID]
	if !ok {
		return ErrUserNotFound
	}
	rec.MFA.Enabled = enabled
	s.records[userID] = rec
	return nil
}
