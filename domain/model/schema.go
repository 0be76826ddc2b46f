package model

import (
	"gochurn/domain/core"
)

// Schema is the ordered list of encoded column names a fitted model expects.
type Schema []string

// Fingerprint hashes the ordered column list
func (s Schema) Fingerprint() core.Hash {
	return core.ComputeListHash(s)
}

// Equal reports whether two schemas have the same columns in the same order
func (s Schema) Equal(other Schema) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// Clone returns an independent copy
func (s Schema) Clone() Schema {
	out := make(Schema, len(s))
	copy(out, s)
	return out
}
