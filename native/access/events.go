package access

import (
	"encoding/hex"
	"strconv"

	"custodia/core/events"
)

const (
	EventTypeInitialized = "access.initialized"
	EventTypeRoleGranted = "access.role_granted"
	EventTypeRoleRevoked = "access.role_revoked"
	EventTypePauseSet    = "access.pause_set"
)

// NewInitializedEvent returns the canonical payload emitted once at
// initialization.
func NewInitializedEvent(admin [20]byte) *events.Event {
	return &events.Event{Type: EventTypeInitialized, Attributes: map[string]string{
		"admin": hex.EncodeToString(admin[:]),
	}}
}

// NewRoleGrantedEvent returns the payload emitted when a role is granted.
func NewRoleGrantedEvent(role string, principal, caller [20]byte) *events.Event {
	return roleEvent(EventTypeRoleGranted, role, principal, caller)
}

// NewRoleRevokedEvent returns the payload emitted when a role is revoked.
func NewRoleRevokedEvent(role string, principal, caller [20]byte) *events.Event {
	return roleEvent(EventTypeRoleRevoked, role, principal, caller)
}

// NewPauseEvent returns the payload emitted when the pause switch changes.
func NewPauseEvent(paused bool, caller [20]byte) *events.Event {
	return &events.Event{Type: EventTypePauseSet, Attributes: map[string]string{
		"paused": strconv.FormatBool(paused),
		"caller": hex.EncodeToString(caller[:]),
	}}
}

func roleEvent(eventType, role string, principal, caller [20]byte) *events.Event {
	return &events.Event{Type: eventType, Attributes: map[string]string{
		"role":      role,
		"principal": hex.EncodeToString(principal[:]),
		"caller":    hex.EncodeToString(caller[:]),
	}}
}
