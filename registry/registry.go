package registry

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/rlp"

	"custodia/storage"
)

// Registry provides addressed get/set access to the named storage partitions
// shared by every protocol module. It has no behaviour of its own beyond
// layout and addressing: authorization lives in native/access and reentrancy
// discipline in native/guard.
//
// Records are RLP encoded. Struct fields append at the end of the record and
// are never inserted, keeping old records decodable across upgrades.
type Registry struct {
	db storage.Database
}

// NewRegistry creates a registry over the provided database.
func NewRegistry(db storage.Database) *Registry {
	return &Registry{db: db}
}

var errNilDB = errors.New("registry: database not configured")

func (r *Registry) put(key []byte, value interface{}) error {
	if r == nil || r.db == nil {
		return errNilDB
	}
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return err
	}
	return r.db.Put(key, encoded)
}

// get decodes the record stored under key into out. The boolean reports
// whether the record existed.
func (r *Registry) get(key []byte, out interface{}) (bool, error) {
	if r == nil || r.db == nil {
		return false, errNilDB
	}
	data, err := r.db.Get(key)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if len(data) == 0 {
		return false, nil
	}
	if err := rlp.DecodeBytes(data, out); err != nil {
		return false, err
	}
	return true, nil
}

// TokenPut stores a token lookup record keyed by its token id.
func (r *Registry) TokenPut(t *TokenLookup) error {
	sanitized, err := SanitizeTokenLookup(t)
	if err != nil {
		return err
	}
	return r.put(tokenKey(sanitized.TokenID), sanitized)
}

// TokenGet retrieves a token lookup record.
func (r *Registry) TokenGet(tokenID uint64) (*TokenLookup, bool, error) {
	record := new(TokenLookup)
	ok, err := r.get(tokenKey(tokenID), record)
	if err != nil || !ok {
		return nil, false, err
	}
	return record, true, nil
}

// OfferPut stores an offer lookup record keyed by its offer id.
func (r *Registry) OfferPut(o *OfferLookup) error {
	sanitized, err := SanitizeOfferLookup(o)
	if err != nil {
		return err
	}
	return r.put(offerKey(sanitized.OfferID), sanitized)
}

// OfferGet retrieves an offer lookup record.
func (r *Registry) OfferGet(offerID uint64) (*OfferLookup, bool, error) {
	record := new(OfferLookup)
	ok, err := r.get(offerKey(offerID), record)
	if err != nil || !ok {
		return nil, false, err
	}
	return record, true, nil
}

// RoleAdminSet records the administrating role for the supplied role.
func (r *Registry) RoleAdminSet(role, admin string) error {
	trimmedRole := strings.TrimSpace(role)
	trimmedAdmin := strings.TrimSpace(admin)
	if trimmedRole == "" || trimmedAdmin == "" {
		return fmt.Errorf("registry: role and admin must not be empty")
	}
	return r.put(roleAdminKey(trimmedRole), trimmedAdmin)
}

// RoleAdmin returns the administrating role for the supplied role. The
// boolean reports whether an administrator has ever been set.
func (r *Registry) RoleAdmin(role string) (string, bool, error) {
	var admin string
	ok, err := r.get(roleAdminKey(role), &admin)
	if err != nil || !ok {
		return "", false, err
	}
	return admin, true, nil
}

// RoleGrant associates a principal with the supplied role. Duplicate grants
// are ignored while the stored member list stays sorted for determinism.
func (r *Registry) RoleGrant(role string, principal [20]byte) error {
	trimmed := strings.TrimSpace(role)
	if trimmed == "" {
		return fmt.Errorf("registry: role must not be empty")
	}
	members, err := r.roleMembers(trimmed)
	if err != nil {
		return err
	}
	for _, existing := range members {
		if bytes.Equal(existing, principal[:]) {
			return nil
		}
	}
	members = append(members, append([]byte(nil), principal[:]...))
	sort.Slice(members, func(i, j int) bool {
		return hex.EncodeToString(members[i]) < hex.EncodeToString(members[j])
	})
	return r.put(roleMembersKey(trimmed), members)
}

// RoleRevoke removes a principal from the supplied role. Revoking an unheld
// role is a no-op.
func (r *Registry) RoleRevoke(role string, principal [20]byte) error {
	trimmed := strings.TrimSpace(role)
	if trimmed == "" {
		return fmt.Errorf("registry: role must not be empty")
	}
	members, err := r.roleMembers(trimmed)
	if err != nil {
		return err
	}
	filtered := members[:0]
	found := false
	for _, existing := range members {
		if bytes.Equal(existing, principal[:]) {
			found = true
			continue
		}
		filtered = append(filtered, existing)
	}
	if !found {
		return nil
	}
	return r.put(roleMembersKey(trimmed), filtered)
}

// HasRole reports whether the principal holds the supplied role. Read errors
// surface as false, matching the best-effort semantics required by callers
// that gate on membership.
func (r *Registry) HasRole(role string, principal [20]byte) bool {
	members, err := r.roleMembers(strings.TrimSpace(role))
	if err != nil {
		return false
	}
	for _, member := range members {
		if bytes.Equal(member, principal[:]) {
			return true
		}
	}
	return false
}

// RoleMembers returns all principals holding the supplied role.
func (r *Registry) RoleMembers(role string) ([][20]byte, error) {
	raw, err := r.roleMembers(strings.TrimSpace(role))
	if err != nil {
		return nil, err
	}
	members := make([][20]byte, 0, len(raw))
	for _, entry := range raw {
		if len(entry) != 20 {
			return nil, fmt.Errorf("registry: malformed role member record")
		}
		var addr [20]byte
		copy(addr[:], entry)
		members = append(members, addr)
	}
	return members, nil
}

func (r *Registry) roleMembers(role string) ([][]byte, error) {
	var members [][]byte
	if _, err := r.get(roleMembersKey(role), &members); err != nil {
		return nil, err
	}
	return members, nil
}

// OracleConfigPut stores the singleton price feed configuration.
func (r *Registry) OracleConfigPut(cfg *PriceFeedConfig) error {
	if cfg == nil {
		return fmt.Errorf("registry: nil oracle config")
	}
	return r.put(oracleConfigKey(), cfg)
}

// OracleConfig retrieves the singleton price feed configuration.
func (r *Registry) OracleConfig() (*PriceFeedConfig, bool, error) {
	cfg := new(PriceFeedConfig)
	ok, err := r.get(oracleConfigKey(), cfg)
	if err != nil || !ok {
		return nil, false, err
	}
	return cfg, true, nil
}

// SetInitialized records the one-time initialization marker.
func (r *Registry) SetInitialized() error {
	return r.put(initializedKey(), true)
}

// Initialized reports whether the protocol has been initialised.
func (r *Registry) Initialized() (bool, error) {
	var done bool
	ok, err := r.get(initializedKey(), &done)
	if err != nil || !ok {
		return false, err
	}
	return done, nil
}

// SetPaused records the protocol-wide pause switch.
func (r *Registry) SetPaused(paused bool) error {
	return r.put(pausedKey(), paused)
}

// Paused reports whether the protocol is paused.
func (r *Registry) Paused() (bool, error) {
	var paused bool
	ok, err := r.get(pausedKey(), &paused)
	if err != nil || !ok {
		return false, err
	}
	return paused, nil
}
