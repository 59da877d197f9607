package types

import (
	"strings"

	"cosmossdk.io/errors"
)

// Module name and store key
const (
	ModuleName = "launchpad"
	StoreKey   = ModuleName
	RouterKey  = ModuleName
)

// Store key prefixes
var (
	PoolKeyPrefix    = []byte{0x01}
	FactoryKeyPrefix = []byte{0x02}
	ParamsKey        = []byte{0x03}
)

// PoolIDSeparator joins the segments of a pool ID. Denoms may contain '/',
// so the separator is a character neither denoms nor bech32 addresses allow.
const PoolIDSeparator = "|"

// PoolID derives the map key of a pool from its (owner, assetA, assetB) triple
func PoolID(owner, assetA, assetB string) string {
	return strings.Join([]string{owner, assetA, assetB}, PoolIDSeparator)
}

// PoolOwnerPrefix returns the store prefix of every pool owned by owner
func PoolOwnerPrefix(owner string) []byte {
	return PoolKey(owner + PoolIDSeparator)
}

// ValidatePoolIDSegment rejects values that would make a pool ID ambiguous
func ValidatePoolIDSegment(value string, kind *errors.Error) error {
	if strings.Contains(value, PoolIDSeparator) {
		return kind.Wrapf("%q must not contain %q", value, PoolIDSeparator)
	}
	return nil
}

// PoolKey returns the store key for a pool
func PoolKey(poolID string) []byte {
	return append(append([]byte{}, PoolKeyPrefix...), []byte(poolID)...)
}

// FactoryKey returns the store key for a factory
func FactoryKey(factoryID string) []byte {
	return append(append([]byte{}, FactoryKeyPrefix...), []byte(factoryID)...)
}
