package guard

import "errors"

// ErrReentered is returned when a privileged entry point is re-entered from
// outside the system before the outer invocation finished.
var ErrReentered = errors.New("guard: reentrant call")

// Guard is the call-depth lock taken by any operation that transfers control
// to untrusted code (marketplace, token, price feed) before finishing its own
// bookkeeping. The lock lives for a single top-level invocation and never
// persists across transactions.
//
// Re-entry by the system's own address is exempt: a module may legitimately
// compose another privileged entry point of the same system mid-call. Only
// re-entry from outside is forbidden.
//
// The surrounding execution model serialises whole operations (one logical
// transaction at a time), so Guard deliberately carries no mutex; it guards
// against reentrancy within one call chain, not goroutine races.
type Guard struct {
	self   [20]byte
	locked bool
}

// New creates a guard exempting the supplied self address.
func New(self [20]byte) *Guard {
	return &Guard{self: self}
}

// Enter acquires the lock for the caller. The returned release must run on
// every exit path, normal or failing; callers defer it immediately. When the
// lock is already held by an outer frame of the same system the call
// succeeds with a no-op release so the outer frame keeps ownership.
func (g *Guard) Enter(caller [20]byte) (func(), error) {
	if g == nil {
		return func() {}, nil
	}
	if g.locked {
		if caller == g.self {
			return func() {}, nil
		}
		return nil, ErrReentered
	}
	g.locked = true
	released := false
	return func() {
		if released {
			return
		}
		released = true
		g.locked = false
	}, nil
}

// Held reports whether the lock is currently taken.
func (g *Guard) Held() bool {
	return g != nil && g.locked
}
