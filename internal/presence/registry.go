// Package presence tracks which nickname is reachable through which live connection.
package presence

import (
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Handle identifies one live connection. It is assigned when the connection opens and
// never reused.
type Handle = uuid.UUID

var ErrDuplicateRegistration = errors.New("nickname already registered")

// Policy decides what happens when a nickname that is already online registers again.
type Policy int

const (
	// ReplaceExisting lets the last registration win. The previous connection stays open
	// but is no longer addressable; Register returns its handle so the caller can notify it.
	ReplaceExisting Policy = iota

	// RejectDuplicate keeps the existing entry and fails the new registration with
	// ErrDuplicateRegistration.
	RejectDuplicate
)

// ParsePolicy maps a config value onto a Policy. Unknown values fall back to ReplaceExisting.
func ParsePolicy(s string) Policy {
	if s == "reject" {
		return RejectDuplicate
	}
	return ReplaceExisting
}

// Registry maps nicknames to connection handles. A nickname has at most one handle and a
// handle belongs to at most one nickname. All access goes through one mutex, so a Lookup
// racing a Remove sees the entry either fully present or gone.
type Registry struct {
	mu       sync.Mutex
	policy   Policy
	byNick   map[string]Handle
	byHandle map[Handle]string
}

func NewRegistry(policy Policy) *Registry {
	return &Registry{
		policy:   policy,
		byNick:   make(map[string]Handle, 10),
		byHandle: make(map[Handle]string, 10),
	}
}

// Register binds nickname to handle. If the handle was registered under another nickname,
// that entry is dropped first. When the nickname was held by a different handle, that
// handle is returned with replaced set (ReplaceExisting) or ErrDuplicateRegistration is
// returned (RejectDuplicate).
func (r *Registry) Register(nickname string, handle Handle) (previous Handle, replaced bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev, taken := r.byNick[nickname]
	if taken && prev == handle {
		return uuid.Nil, false, nil
	}
	if taken && r.policy == RejectDuplicate {
		return uuid.Nil, false, ErrDuplicateRegistration
	}

	if oldNick, ok := r.byHandle[handle]; ok {
		delete(r.byNick, oldNick)
	}
	if taken {
		delete(r.byHandle, prev)
	}

	r.byNick[nickname] = handle
	r.byHandle[handle] = nickname
	if taken {
		return prev, true, nil
	}
	return uuid.Nil, false, nil
}

// Lookup returns the handle registered for nickname.
func (r *Registry) Lookup(nickname string) (Handle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.byNick[nickname]
	return h, ok
}

// NicknameOf returns the nickname a handle is registered under.
func (r *Registry) NicknameOf(handle Handle) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	nick, ok := r.byHandle[handle]
	return nick, ok
}

// Remove deletes whatever entry handle owns. It is a no-op for handles that were never
// registered or were already replaced.
func (r *Registry) Remove(handle Handle) (nickname string, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	nickname, ok = r.byHandle[handle]
	if !ok {
		return "", false
	}
	delete(r.byHandle, handle)
	delete(r.byNick, nickname)
	return nickname, true
}

// Online returns a sorted snapshot of registered nicknames.
func (r *Registry) Online() []string {
	r.mu.Lock()
	nicks := make([]string, 0, len(r.byNick))
	for nick := range r.byNick {
		nicks = append(nicks, nick)
	}
	r.mu.Unlock()

	sort.Strings(nicks)
	return nicks
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byNick)
}
