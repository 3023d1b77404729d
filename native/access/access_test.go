package access

import (
	"bytes"
	"errors"
	"testing"

	"custodia/core/events"
	"custodia/registry"
	"custodia/storage"
)

func newTestModule(t *testing.T) (*Module, *events.Recorder) {
	t.Helper()
	db := storage.NewMemDB()
	t.Cleanup(db.Close)
	module := NewModule(registry.NewRegistry(db))
	recorder := &events.Recorder{}
	module.SetEmitter(recorder)
	return module, recorder
}

func testAddress(fill byte) [20]byte {
	var addr [20]byte
	copy(addr[:], bytes.Repeat([]byte{fill}, 20))
	return addr
}

func TestInitializeGrantsRootAndWiresAdmins(t *testing.T) {
	module, recorder := newTestModule(t)
	admin := testAddress(0xAD)

	if err := module.Initialize(admin); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if !module.HasRole(RoleAdmin, admin) {
		t.Fatalf("expected admin to hold the root role")
	}
	state := module.state
	for _, role := range append([]string{RoleAdmin}, operationalRoles...) {
		adminRole, ok, err := state.RoleAdmin(role)
		if err != nil {
			t.Fatalf("role admin lookup %s: %v", role, err)
		}
		if !ok {
			t.Fatalf("role %s left without an administrating role", role)
		}
		if adminRole != RoleAdmin {
			t.Fatalf("role %s administered by %s, expected %s", role, adminRole, RoleAdmin)
		}
	}
	if got := len(recorder.ByType(EventTypeInitialized)); got != 1 {
		t.Fatalf("expected one initialized event, got %d", got)
	}
}

func TestInitializeExactlyOnce(t *testing.T) {
	module, _ := newTestModule(t)

	if err := module.Initialize(testAddress(0x01)); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if err := module.Initialize(testAddress(0x01)); !errors.Is(err, ErrAlreadyInitialized) {
		t.Fatalf("expected ErrAlreadyInitialized, got %v", err)
	}
	// A second call fails regardless of arguments.
	if err := module.Initialize(testAddress(0x02)); !errors.Is(err, ErrAlreadyInitialized) {
		t.Fatalf("expected ErrAlreadyInitialized with different admin, got %v", err)
	}
}

func TestInitializeRejectsTemplate(t *testing.T) {
	template := NewTemplate()
	if err := template.Initialize(testAddress(0x01)); !errors.Is(err, ErrNotDeployed) {
		t.Fatalf("expected ErrNotDeployed, got %v", err)
	}
}

func TestInitializeRejectsNullAdmin(t *testing.T) {
	module, _ := newTestModule(t)
	if err := module.Initialize([20]byte{}); !errors.Is(err, ErrInvalidPrincipal) {
		t.Fatalf("expected ErrInvalidPrincipal, got %v", err)
	}
}

func TestGrantRole(t *testing.T) {
	module, recorder := newTestModule(t)
	admin := testAddress(0xAD)
	collector := testAddress(0xFC)
	outsider := testAddress(0x99)

	if err := module.Initialize(admin); err != nil {
		t.Fatalf("initialize: %v", err)
	}

	if err := module.GrantRole(outsider, RoleFeeCollector, collector); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if err := module.GrantRole(admin, RoleFeeCollector, collector); err != nil {
		t.Fatalf("grant: %v", err)
	}
	if !module.HasRole(RoleFeeCollector, collector) {
		t.Fatalf("expected collector to hold role")
	}

	// Granting an already-held role is a no-op, not an error, and emits
	// nothing.
	if err := module.GrantRole(admin, RoleFeeCollector, collector); err != nil {
		t.Fatalf("duplicate grant: %v", err)
	}
	if got := len(recorder.ByType(EventTypeRoleGranted)); got != 1 {
		t.Fatalf("expected one grant event, got %d", got)
	}
}

func TestGrantRoleRequiresAdminRelation(t *testing.T) {
	module, _ := newTestModule(t)
	admin := testAddress(0xAD)
	if err := module.Initialize(admin); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	// A role nobody wired an administrator for cannot be granted under.
	if err := module.GrantRole(admin, "ROLE_CUSTOM", testAddress(0x01)); !errors.Is(err, ErrRoleAdminUnset) {
		t.Fatalf("expected ErrRoleAdminUnset, got %v", err)
	}
	if err := module.GrantRole(admin, RolePauser, [20]byte{}); !errors.Is(err, ErrInvalidPrincipal) {
		t.Fatalf("expected ErrInvalidPrincipal, got %v", err)
	}
}

func TestRevokeRole(t *testing.T) {
	module, recorder := newTestModule(t)
	admin := testAddress(0xAD)
	pauser := testAddress(0x0A)

	if err := module.Initialize(admin); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if err := module.GrantRole(admin, RolePauser, pauser); err != nil {
		t.Fatalf("grant: %v", err)
	}
	if err := module.RevokeRole(admin, RolePauser, pauser); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if module.HasRole(RolePauser, pauser) {
		t.Fatalf("expected role revoked")
	}

	// Revoking an unheld role is a no-op, not an error, and emits nothing.
	if err := module.RevokeRole(admin, RolePauser, pauser); err != nil {
		t.Fatalf("duplicate revoke: %v", err)
	}
	if got := len(recorder.ByType(EventTypeRoleRevoked)); got != 1 {
		t.Fatalf("expected one revoke event, got %d", got)
	}

	if err := module.RevokeRole(pauser, RolePauser, admin); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestPauseSwitch(t *testing.T) {
	module, recorder := newTestModule(t)
	admin := testAddress(0xAD)
	pauser := testAddress(0x0A)

	if err := module.Initialize(admin); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if err := module.Pause(admin); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("root admin does not pause without the pauser role, got %v", err)
	}
	if err := module.GrantRole(admin, RolePauser, pauser); err != nil {
		t.Fatalf("grant: %v", err)
	}
	if err := module.Pause(pauser); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if !module.IsPaused() {
		t.Fatalf("expected protocol paused")
	}
	if err := module.Unpause(pauser); err != nil {
		t.Fatalf("unpause: %v", err)
	}
	if module.IsPaused() {
		t.Fatalf("expected protocol unpaused")
	}
	if got := len(recorder.ByType(EventTypePauseSet)); got != 2 {
		t.Fatalf("expected two pause events, got %d", got)
	}
}
