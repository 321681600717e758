// Package auth contains simple hand-written test doubles for auth ports.
// These are lightweight and suitable for unit tests without codegen.
package auth

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	domainauth "github.com/sajansharmanz/accountd/internal/domain/auth"
	"github.com/sajansharmanz/accountd/internal/domain/model"
	apperrors "github.com/sajansharmanz/accountd/internal/errors"
	"github.com/sajansharmanz/accountd/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.UserStore        = (*MemoryUserStore)(nil)
	_ ports.TokenStore       = (*MemoryTokenStore)(nil)
	_ ports.Notifier         = (*RecordingNotifier)(nil)
	_ ports.IdentityVerifier = (*MockIdentityVerifier)(nil)
)

// MemoryUserStore is an in-memory UserStore with the same error
// semantics as the database implementation.
type MemoryUserStore struct {
	mu    sync.Mutex
	users map[string]model.User

	// RolesByName supplies role definitions connected at Create time.
	RolesByName map[string]domainauth.Role
}

// NewMemoryUserStore creates an empty store seeded with the default roles.
func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{
		users: make(map[string]model.User),
		RolesByName: map[string]domainauth.Role{
			"User": {Name: "User", Permissions: []domainauth.Permission{
				{Name: "user:read"}, {Name: "user:update"}, {Name: "user:delete"},
			}},
			"Administrator": {Name: "Administrator", Permissions: []domainauth.Permission{
				{Name: "user:read"}, {Name: "user:update"}, {Name: "user:delete"},
			}},
		},
	}
}

// normalizeEmail matches the repository's canonical email form.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *MemoryUserStore) Create(_ context.Context, params model.CreateUserParams) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := normalizeEmail(params.Email)
	for _, u := range s.users {
		if u.Email == email {
			return model.User{}, &apperrors.AppError{
				Code: apperrors.ErrCodeConflict, Message: "Record already exists", Field: "email",
			}
		}
	}

	var roles []domainauth.Role
	for _, name := range params.RoleNames {
		if r, ok := s.RolesByName[name]; ok {
			roles = append(roles, r)
		}
	}

	u := model.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: params.PasswordHash,
		Status:       domainauth.StatusEnabled,
		Roles:        roles,
	}
	s.users[u.ID] = u
	return u, nil
}

func (s *MemoryUserStore) FindByEmail(_ context.Context, email string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	email = normalizeEmail(email)
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, apperrors.NotFound("user not found")
}

func (s *MemoryUserStore) FindByID(_ context.Context, id string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findLocked(id)
}

func (s *MemoryUserStore) FindPrincipalByID(ctx context.Context, id string) (domainauth.Principal, error) {
	u, err := s.FindByID(ctx, id)
	if err != nil {
		return domainauth.Principal{}, err
	}
	return u.Principal(), nil
}

func (s *MemoryUserStore) UpdateLoginAttempts(_ context.Context, id string, attempts int, status domainauth.UserStatus) error {
	return s.update(id, func(u *model.User) {
		u.FailedLoginAttempts = attempts
		u.Status = status
	})
}

func (s *MemoryUserStore) UpdatePassword(_ context.Context, id, passwordHash string) error {
	return s.update(id, func(u *model.User) { u.PasswordHash = passwordHash })
}

func (s *MemoryUserStore) UpdateEmailPassword(_ context.Context, id, email, passwordHash string) (model.User, error) {
	err := s.update(id, func(u *model.User) {
		if email != "" {
			u.Email = normalizeEmail(email)
		}
		if passwordHash != "" {
			u.PasswordHash = passwordHash
		}
	})
	if err != nil {
		return model.User{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users[id], nil
}

func (s *MemoryUserStore) SetOTPSecret(_ context.Context, id string, secret model.EncryptedSecret) error {
	return s.update(id, func(u *model.User) { u.OTPSecret = secret })
}

func (s *MemoryUserStore) MarkOTPVerified(_ context.Context, id string) error {
	return s.update(id, func(u *model.User) { u.OTPEnabled = true })
}

func (s *MemoryUserStore) DisableOTP(_ context.Context, id string) error {
	return s.update(id, func(u *model.User) {
		u.OTPEnabled = false
		u.OTPSecret = model.EncryptedSecret{}
	})
}

func (s *MemoryUserStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return apperrors.NotFound("user not found")
	}
	delete(s.users, id)
	return nil
}

func (s *MemoryUserStore) findLocked(id string) (model.User, error) {
	u, ok := s.users[id]
	if !ok {
		return model.User{}, apperrors.NotFound("user not found")
	}
	return u, nil
}

func (s *MemoryUserStore) update(id string, fn func(*model.User)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, err := s.findLocked(id)
	if err != nil {
		return err
	}
	fn(&u)
	s.users[id] = u
	return nil
}

// MemoryTokenStore is an in-memory TokenStore keyed by (type, hash).
type MemoryTokenStore struct {
	mu      sync.Mutex
	records map[string]model.TokenRecord
}

// NewMemoryTokenStore creates an empty store.
func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{records: make(map[string]model.TokenRecord)}
}

func tokenKey(typ domainauth.TokenType, hash string) string {
	return string(typ) + ":" + hash
}

func (s *MemoryTokenStore) Create(_ context.Context, userID, tokenHash string, typ domainauth.TokenType) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[tokenKey(typ, tokenHash)] = model.TokenRecord{
		ID:        uuid.NewString(),
		UserID:    userID,
		TokenHash: tokenHash,
		Type:      typ,
	}
	return nil
}

func (s *MemoryTokenStore) FindByHash(_ context.Context, tokenHash string, typ domainauth.TokenType) (model.TokenRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[tokenKey(typ, tokenHash)]
	if !ok {
		return model.TokenRecord{}, apperrors.NotFound("token not found")
	}
	return rec, nil
}

func (s *MemoryTokenStore) DeleteByHash(_ context.Context, tokenHash string, typ domainauth.TokenType) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, tokenKey(typ, tokenHash))
	return nil
}

func (s *MemoryTokenStore) DeleteForUser(_ context.Context, userID string, typ domainauth.TokenType) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for k, rec := range s.records {
		if rec.UserID == userID && rec.Type == typ {
			delete(s.records, k)
		}
	}
	return nil
}

// CountForUser reports live records of a type for assertions.
func (s *MemoryTokenStore) CountForUser(userID string, typ domainauth.TokenType) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, rec := range s.records {
		if rec.UserID == userID && rec.Type == typ {
			n++
		}
	}
	return n
}

// RecordingNotifier captures outbound notifications for assertions.
type RecordingNotifier struct {
	mu sync.Mutex

	// Err, when set, is returned from every call.
	Err error

	LockedEmails []string
	ResetEmails  []string
	ResetTokens  []string
}

func (n *RecordingNotifier) AccountLocked(_ context.Context, email string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.Err != nil {
		return n.Err
	}
	n.LockedEmails = append(n.LockedEmails, email)
	return nil
}

func (n *RecordingNotifier) PasswordReset(_ context.Context, email, token string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.Err != nil {
		return n.Err
	}
	n.ResetEmails = append(n.ResetEmails, email)
	n.ResetTokens = append(n.ResetTokens, token)
	return nil
}

// SortedLockedEmails returns captured lockout recipients in stable order.
func (n *RecordingNotifier) SortedLockedEmails() []string {
	n.mu.Lock()
	defer n.mu.Unlock()

	out := append([]string(nil), n.LockedEmails...)
	sort.Strings(out)
	return out
}

// MockIdentityVerifier returns a fixed identity or error.
type MockIdentityVerifier struct {
	Identity domainauth.Identity
	Err      error

	// Assertions captures the raw values passed to Verify.
	Assertions []string
}

func (m *MockIdentityVerifier) Verify(_ context.Context, assertion string) (domainauth.Identity, error) {
	m.Assertions = append(m.Assertions, assertion)
	if m.Err != nil {
		return domainauth.Identity{}, m.Err
	}
	return m.Identity, nil
}
