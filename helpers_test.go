package webauth

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-webauth/webauth/password"
	"github.com/go-webauth/webauth/token"
)

// fakePrincipal implements AuthenticableEntity for tests.
type fakePrincipal struct {
	id           string
	username     string
	displayName  string
	passwordHash string
	tempPassword string
	active       bool
	mustReset    bool
	twoFactor    bool
}

func (p *fakePrincipal) ID() string              { return p.id }
func (p *fakePrincipal) Username() string        { return p.username }
func (p *fakePrincipal) DisplayName() string     { return p.displayName }
func (p *fakePrincipal) PasswordHash() string    { return p.passwordHash }
func (p *fakePrincipal) Active() bool            { return p.active }
func (p *fakePrincipal) MustResetPassword() bool { return p.mustReset }
func (p *fakePrincipal) TwoFactorEnabled() bool  { return p.twoFactor }

// memPrincipals is an in-memory PrincipalRepository.
type memPrincipals struct {
	mu   sync.Mutex
	byID map[string]*fakePrincipal
}

func newMemPrincipals(ps ...*fakePrincipal) *memPrincipals {
	m := &memPrincipals{byID: make(map[string]*fakePrincipal)}
	for _, p := range ps {
		m.byID[p.id] = p
	}
	return m
}

func (m *memPrincipals) GetByID(_ context.Context, id string) (AuthenticableEntity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.byID[id]; ok {
		return p, nil
	}
	return nil, ErrPrincipalNotFound
}

func (m *memPrincipals) GetByUsername(_ context.Context, username string) (AuthenticableEntity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.byID {
		if strings.EqualFold(p.username, username) {
			return p, nil
		}
	}
	return nil, ErrPrincipalNotFound
}

func (m *memPrincipals) GetByCredentials(_ context.Context, username, encodedPassword string) (AuthenticableEntity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.byID {
		if strings.EqualFold(p.username, username) && strings.EqualFold(p.passwordHash, encodedPassword) {
			return p, nil
		}
	}
	return nil, ErrPrincipalNotFound
}

func (m *memPrincipals) GetWithTemporaryPassword(_ context.Context, username, pass string) (AuthenticableEntity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.byID {
		if strings.EqualFold(p.username, username) && p.mustReset && p.tempPassword != "" && p.tempPassword == pass {
			return p, nil
		}
	}
	return nil, ErrPrincipalNotFound
}

func (m *memPrincipals) HasToken(_ context.Context, _, _ string) (bool, error) {
	return false, nil
}

func (m *memPrincipals) UpdatePassword(_ context.Context, id, encodedPassword string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[id]
	if !ok {
		return ErrPrincipalNotFound
	}
	p.passwordHash = encodedPassword
	p.tempPassword = ""
	p.mustReset = false
	return nil
}

// memTokens is an in-memory TokenRepository keyed principal -> issuer.
type memTokens struct {
	mu      sync.Mutex
	recs    map[string]map[string]*token.Token
	removed int
}

func newMemTokens() *memTokens {
	return &memTokens{recs: make(map[string]map[string]*token.Token)}
}

func (m *memTokens) GetToken(_ context.Context, principalID, refreshToken string) (*token.Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	slots := m.recs[principalID]
	if len(slots) == 0 {
		return nil, nil
	}
	var newest *token.Token
	for _, rec := range slots {
		if rec.RefreshToken == refreshToken {
			cp := *rec
			return &cp, nil
		}
		if newest == nil || rec.ExpiresAt.After(newest.ExpiresAt) {
			newest = rec
		}
	}
	cp := *newest
	return &cp, nil
}

func (m *memTokens) AddToken(_ context.Context, rec *token.Token) error {
	return m.put(rec)
}

func (m *memTokens) UpdateToken(_ context.Context, rec *token.Token) error {
	return m.put(rec)
}

func (m *memTokens) put(rec *token.Token) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	slots := m.recs[rec.PrincipalID]
	if slots == nil {
		slots = make(map[string]*token.Token)
		m.recs[rec.PrincipalID] = slots
	}
	cp := *rec
	slots[rec.Issuer] = &cp
	return nil
}

func (m *memTokens) RemoveExistingToken(_ context.Context, principalID, issuer string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removed++
	delete(m.recs[principalID], issuer)
	return nil
}

func (m *memTokens) stored(principalID, issuer string) *token.Token {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.recs[principalID][issuer]
	if !ok {
		return nil
	}
	cp := *rec
	return &cp
}

// memCodes is an in-memory ValidationCodeRepository.
type memCodes struct {
	mu    sync.Mutex
	codes map[string]*ValidationCode
}

func newMemCodes() *memCodes {
	return &memCodes{codes: make(map[string]*ValidationCode)}
}

func codeKey(principalID string, purpose CodePurpose) string {
	return principalID + "/" + string(purpose)
}

func (m *memCodes) GetExistingValidCode(_ context.Context, principalID, code string, purpose CodePurpose) (*ValidationCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	vc, ok := m.codes[codeKey(principalID, purpose)]
	if !ok || vc.Code != code || vc.Expired(time.Now()) {
		return nil, nil
	}
	cp := *vc
	return &cp, nil
}

func (m *memCodes) GetLastCode(_ context.Context, principalID string) (*ValidationCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var last *ValidationCode
	for _, vc := range m.codes {
		if vc.PrincipalID != principalID {
			continue
		}
		if last == nil || vc.CreatedAt.After(last.CreatedAt) {
			last = vc
		}
	}
	if last == nil {
		return nil, nil
	}
	cp := *last
	return &cp, nil
}

func (m *memCodes) SaveNewCode(_ context.Context, vc *ValidationCode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *vc
	m.codes[codeKey(vc.PrincipalID, vc.Purpose)] = &cp
	return nil
}

func (m *memCodes) DeleteExistingCode(_ context.Context, principalID string, purpose CodePurpose) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.codes, codeKey(principalID, purpose))
	return nil
}

func (m *memCodes) DeleteCode(_ context.Context, vc *ValidationCode) error {
	return m.DeleteExistingCode(nil, vc.PrincipalID, vc.Purpose)
}

func (m *memCodes) stored(principalID string, purpose CodePurpose) *ValidationCode {
	m.mu.Lock()
	defer m.mu.Unlock()
	vc, ok := m.codes[codeKey(principalID, purpose)]
	if !ok {
		return nil
	}
	cp := *vc
	return &cp
}

// memDevices is an in-memory DeviceManager handing out sequential ids.
type memDevices struct {
	mu      sync.Mutex
	seq     int
	current map[string]string
}

func newMemDevices() *memDevices {
	return &memDevices{current: make(map[string]string)}
}

func (m *memDevices) CreateNewDevice(_ context.Context, principalID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	id := fmt.Sprintf("device-%03d", m.seq)
	m.current[principalID] = id
	return id, nil
}

func (m *memDevices) GetCurrentDevice(_ context.Context, principalID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current[principalID], nil
}

// captureSender records dispatched codes.
type captureSender struct {
	mu    sync.Mutex
	sent  []string
	codes []string
	err   error
}

func (s *captureSender) SendCode(_ context.Context, principal AuthenticableEntity, code string, _ time.Time, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, principal.ID())
	s.codes = append(s.codes, code)
	return nil
}

func (s *captureSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

func (s *captureSender) lastCode() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.codes) == 0 {
		return ""
	}
	return s.codes[len(s.codes)-1]
}

// stubValidator is a canned external CodeValidator.
type stubValidator struct {
	ok    bool
	calls int
}

func (v *stubValidator) IsCodeValid(_ context.Context, _ AuthenticableEntity, _ string) (bool, error) {
	v.calls++
	return v.ok, nil
}

// stubPerms grants a fixed permission set to everyone.
type stubPerms struct {
	granted map[string]bool
}

func (p *stubPerms) HasPermission(_ context.Context, _ AuthenticableEntity, name string) (bool, error) {
	return p.granted[name], nil
}

func testConfig() Config {
	return Config{
		Issuer:              "https://auth.example.com",
		Audience:            "example.app",
		Secret:              "test-signing-secret",
		RefreshTokensExpire: true,
		MultiFactorEnabled:  true,
	}
}

func encode(cfg Config, plaintext string) string {
	secret := cfg.PasswordSecret
	if secret == "" {
		secret = cfg.Secret
	}
	return password.NewEncoder(secret).Encode(plaintext)
}

func alice(cfg Config) *fakePrincipal {
	return &fakePrincipal{
		id:           "principal-1",
		username:     "alice@example.com",
		displayName:  "Alice",
		passwordHash: encode(cfg, "correct-horse"),
		active:       true,
	}
}
