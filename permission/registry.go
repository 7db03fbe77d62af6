package permission

import (
	"context"
	"errors"
	"sync"

	"github.com/go-webauth/webauth"
)

// Set is a bitset of granted permissions. The zero value grants nothing.
type Set uint64

// Has reports whether the bit is set.
func (s Set) Has(bit int) bool {
	if bit < 0 || bit >= 64 {
		return false
	}
	return s&(1<<bit) != 0
}

// With returns the set with the bit granted.
func (s Set) With(bit int) Set {
	if bit < 0 || bit >= 64 {
		return s
	}
	return s | 1<<bit
}

// Without returns the set with the bit revoked.
func (s Set) Without(bit int) Set {
	if bit < 0 || bit >= 64 {
		return s
	}
	return s &^ (1 << bit)
}

// Registry maps permission names to bit positions and principals to their
// granted sets. It implements webauth.PermissionChecker.
type Registry struct {
	mu     sync.RWMutex
	bits   map[string]int
	grants map[string]Set
	frozen bool
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		bits:   make(map[string]int),
		grants: make(map[string]Set),
	}
}

// Register assigns the next free bit to the named permission and returns
// its index. At most 64 permissions can be registered.
func (r *Registry) Register(name string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return -1, errors.New("registry frozen")
	}
	if name == "" {
		return -1, errors.New("permission name cannot be empty")
	}
	if _, exists := r.bits[name]; exists {
		return -1, errors.New("permission already registered")
	}
	if len(r.bits) >= 64 {
		return -1, errors.New("permission limit exceeded")
	}

	bit := len(r.bits)
	r.bits[name] = bit
	return bit, nil
}

// Grant adds the named permission to the principal's set. The permission
// must have been registered.
func (r *Registry) Grant(principalID, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return errors.New("registry frozen")
	}
	bit, ok := r.bits[name]
	if !ok {
		return errors.New("permission not registered")
	}
	r.grants[principalID] = r.grants[principalID].With(bit)
	return nil
}

// Freeze prevents further registrations and grants. Call it once setup is
// complete, before the registry serves lookups.
func (r *Registry) Freeze() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frozen = true
}

// HasPermission reports whether the principal holds the named permission.
// Unknown permissions and unknown principals both report false.
func (r *Registry) HasPermission(_ context.Context, principal webauth.AuthenticableEntity, name string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	bit, ok := r.bits[name]
	if !ok {
		return false, nil
	}
	return r.grants[principal.ID()].Has(bit), nil
}

var _ webauth.PermissionChecker = (*Registry)(nil)
