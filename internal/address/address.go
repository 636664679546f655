// Package address derives deterministic record addresses from seed tuples,
// so every manager, package, access record and user profile has a stable
// composite key regardless of which node computes it.
package address

import (
	"encoding/binary"
	"encoding/hex"

	"github.com/zeebo/blake3"
)

// Seed prefixes, one per record type
const (
	seedManager = "expense_manager"
	seedPackage = "expense_package"
	seedAccess  = "access_record"
	seedUser    = "user_data"
)

// Derive hashes length-prefixed seed parts into a 32-byte hex address.
// The length prefix keeps ("ab","c") and ("a","bc") distinct.
func Derive(parts ...[]byte) string {
	hasher := blake3.New()
	var lenBuf [4]byte
	for _, part := range parts {
		binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(part)))
		hasher.Write(lenBuf[:])
		hasher.Write(part)
	}
	return hex.EncodeToString(hasher.Sum(nil))
}

// ForManager returns the address of the expense manager with the given name
func ForManager(name string) string {
	return Derive([]byte(seedManager), []byte(name))
}

// ForPackage returns the address of the package identified by
// (manager, owner, nonce)
func ForPackage(managerAddress, owner string, nonce uint32) string {
	var nonceBuf [4]byte
	binary.LittleEndian.PutUint32(nonceBuf[:], nonce)
	return Derive([]byte(seedPackage), []byte(managerAddress), []byte(owner), nonceBuf[:])
}

// ForAccessRecord returns the address of the access record for (manager, user)
func ForAccessRecord(managerAddress, user string) string {
	return Derive([]byte(seedAccess), []byte(managerAddress), []byte(user))
}

// ForUser returns the address of the profile record for a principal
func ForUser(principal string) string {
	return Derive([]byte(seedUser), []byte(principal))
}
