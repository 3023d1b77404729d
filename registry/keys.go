package registry

import (
	"encoding/binary"
	"strings"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// Partition namespaces. Each partition's base key is the keccak256 hash of a
// human-readable namespace string, so independently developed modules cannot
// accidentally overlap. A namespace is never reused or renumbered once
// published; new data gets a new namespace.
const (
	nsTokens = "custodia.storage.tokens"
	nsOffers = "custodia.storage.offers"
	nsRoles  = "custodia.storage.roles"
	nsOracle = "custodia.storage.oracle"
	nsSystem = "custodia.storage.system"
)

var (
	tokenBase  = ethcrypto.Keccak256([]byte(nsTokens))
	offerBase  = ethcrypto.Keccak256([]byte(nsOffers))
	roleBase   = ethcrypto.Keccak256([]byte(nsRoles))
	oracleBase = ethcrypto.Keccak256([]byte(nsOracle))
	systemBase = ethcrypto.Keccak256([]byte(nsSystem))
)

// partitionBases lists every published base key. Kept in one place so the
// collision check in tests covers all partitions.
func partitionBases() map[string][]byte {
	return map[string][]byte{
		nsTokens: tokenBase,
		nsOffers: offerBase,
		nsRoles:  roleBase,
		nsOracle: oracleBase,
		nsSystem: systemBase,
	}
}

func recordKey(base []byte, id []byte) []byte {
	buf := make([]byte, len(base)+len(id))
	copy(buf, base)
	copy(buf[len(base):], id)
	return ethcrypto.Keccak256(buf)
}

func uint64Bytes(v uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, v)
	return buf
}

func tokenKey(tokenID uint64) []byte {
	return recordKey(tokenBase, uint64Bytes(tokenID))
}

func offerKey(offerID uint64) []byte {
	return recordKey(offerBase, uint64Bytes(offerID))
}

func roleAdminKey(role string) []byte {
	return recordKey(roleBase, []byte("admin:"+strings.TrimSpace(role)))
}

func roleMembersKey(role string) []byte {
	return recordKey(roleBase, []byte("members:"+strings.TrimSpace(role)))
}

func oracleConfigKey() []byte {
	return recordKey(oracleBase, []byte("config"))
}

func initializedKey() []byte {
	return recordKey(systemBase, []byte("initialized"))
}

func pausedKey() []byte {
	return recordKey(systemBase, []byte("paused"))
}
