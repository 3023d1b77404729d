package access

import (
	"errors"
	"strings"

	"custodia/core/events"
)

// Well-known access-control roles. Domain counterparties (sellers, verifiers,
// custodians, facilitators) are data on their offers, not roles.
const (
	RoleAdmin        = "ROLE_ADMIN"
	RolePauser       = "ROLE_PAUSER"
	RoleUpgrader     = "ROLE_UPGRADER"
	RoleFeeCollector = "ROLE_FEE_COLLECTOR"
)

// operationalRoles are the predefined roles administered by RoleAdmin after
// initialization. No role reachable from initialization is ever left without
// an administrating role.
var operationalRoles = []string{RolePauser, RoleUpgrader, RoleFeeCollector}

var (
	ErrAlreadyInitialized = errors.New("access: already initialised")
	ErrNotDeployed        = errors.New("access: logic template cannot be initialised")
	ErrInvalidPrincipal   = errors.New("access: invalid principal")
	ErrUnauthorized       = errors.New("access: caller lacks required role")
	ErrRoleAdminUnset     = errors.New("access: role has no administrating role")
	ErrEmptyRole          = errors.New("access: role must not be empty")
)

// State is the registry surface the module persists through.
type State interface {
	RoleAdminSet(role, admin string) error
	RoleAdmin(role string) (string, bool, error)
	RoleGrant(role string, principal [20]byte) error
	RoleRevoke(role string, principal [20]byte) error
	HasRole(role string, principal [20]byte) bool
	SetInitialized() error
	Initialized() (bool, error)
	SetPaused(paused bool) error
	Paused() (bool, error)
}

// Module gates privileged protocol operations behind the role graph. A module
// constructed without bound state is the logic template staged for upgrades;
// it refuses initialization so the template can never masquerade as the live
// deployment.
type Module struct {
	state   State
	emitter events.Emitter
}

// NewModule binds the access-control module to the live registry state.
func NewModule(state State) *Module {
	return &Module{state: state, emitter: events.NoopEmitter{}}
}

// NewTemplate returns an unbound logic template.
func NewTemplate() *Module {
	return &Module{emitter: events.NoopEmitter{}}
}

// SetEmitter configures the event emitter. Passing nil resets to a no-op.
func (m *Module) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		m.emitter = events.NoopEmitter{}
		return
	}
	m.emitter = emitter
}

func (m *Module) emit(evt *events.Event) {
	if m == nil || m.emitter == nil || evt == nil {
		return
	}
	m.emitter.Emit(evt)
}

// Initialize grants the root administrative role to admin and wires every
// predefined operational role under the root role. One-time: a second call
// fails regardless of arguments.
func (m *Module) Initialize(admin [20]byte) error {
	if m == nil || m.state == nil {
		return ErrNotDeployed
	}
	if admin == ([20]byte{}) {
		return ErrInvalidPrincipal
	}
	done, err := m.state.Initialized()
	if err != nil {
		return err
	}
	if done {
		return ErrAlreadyInitialized
	}
	// The root role administers itself so the admin relation is total.
	if err := m.state.RoleAdminSet(RoleAdmin, RoleAdmin); err != nil {
		return err
	}
	for _, role := range operationalRoles {
		if err := m.state.RoleAdminSet(role, RoleAdmin); err != nil {
			return err
		}
	}
	if err := m.state.RoleGrant(RoleAdmin, admin); err != nil {
		return err
	}
	if err := m.state.SetInitialized(); err != nil {
		return err
	}
	m.emit(NewInitializedEvent(admin))
	return nil
}

func (m *Module) authorizeAdminOf(role string, caller [20]byte) error {
	admin, ok, err := m.state.RoleAdmin(role)
	if err != nil {
		return err
	}
	if !ok {
		return ErrRoleAdminUnset
	}
	if !m.state.HasRole(admin, caller) {
		return ErrUnauthorized
	}
	return nil
}

// GrantRole assigns role to principal. Only callable by a holder of the
// role's administrating role. Granting an already-held role is a no-op.
func (m *Module) GrantRole(caller [20]byte, role string, principal [20]byte) error {
	if m == nil || m.state == nil {
		return ErrNotDeployed
	}
	trimmed := strings.TrimSpace(role)
	if trimmed == "" {
		return ErrEmptyRole
	}
	if principal == ([20]byte{}) {
		return ErrInvalidPrincipal
	}
	if err := m.authorizeAdminOf(trimmed, caller); err != nil {
		return err
	}
	if m.state.HasRole(trimmed, principal) {
		return nil
	}
	if err := m.state.RoleGrant(trimmed, principal); err != nil {
		return err
	}
	m.emit(NewRoleGrantedEvent(trimmed, principal, caller))
	return nil
}

// RevokeRole removes role from principal. Only callable by a holder of the
// role's administrating role. Revoking an unheld role is a no-op.
func (m *Module) RevokeRole(caller [20]byte, role string, principal [20]byte) error {
	if m == nil || m.state == nil {
		return ErrNotDeployed
	}
	trimmed := strings.TrimSpace(role)
	if trimmed == "" {
		return ErrEmptyRole
	}
	if err := m.authorizeAdminOf(trimmed, caller); err != nil {
		return err
	}
	if !m.state.HasRole(trimmed, principal) {
		return nil
	}
	if err := m.state.RoleRevoke(trimmed, principal); err != nil {
		return err
	}
	m.emit(NewRoleRevokedEvent(trimmed, principal, caller))
	return nil
}

// HasRole reports whether principal holds role. Pure lookup, no side effects.
func (m *Module) HasRole(role string, principal [20]byte) bool {
	if m == nil || m.state == nil {
		return false
	}
	return m.state.HasRole(strings.TrimSpace(role), principal)
}

// Pause flips the protocol-wide pause switch on. Requires the pauser role.
func (m *Module) Pause(caller [20]byte) error {
	return m.setPaused(caller, true)
}

// Unpause flips the protocol-wide pause switch off. Requires the pauser role.
func (m *Module) Unpause(caller [20]byte) error {
	return m.setPaused(caller, false)
}

func (m *Module) setPaused(caller [20]byte, paused bool) error {
	if m == nil || m.state == nil {
		return ErrNotDeployed
	}
	if !m.state.HasRole(RolePauser, caller) {
		return ErrUnauthorized
	}
	if err := m.state.SetPaused(paused); err != nil {
		return err
	}
	m.emit(NewPauseEvent(paused, caller))
	return nil
}

// IsPaused reports the pause switch. Read errors surface as false so a
// storage fault cannot wedge the protocol shut; the triggering operation will
// hit the same fault on its own reads.
func (m *Module) IsPaused() bool {
	if m == nil || m.state == nil {
		return false
	}
	paused, err := m.state.Paused()
	if err != nil {
		return false
	}
	return paused
}
