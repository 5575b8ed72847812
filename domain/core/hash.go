package core

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Hash is a hex-encoded SHA-256 digest
type Hash string

// NewHash digests data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

func (h Hash) String() string { return string(h) }

func (h Hash) IsEmpty() bool { return h == "" }

// Short returns the first 12 hex characters, enough to tell runs apart in a table
func (h Hash) Short() string {
	if len(h) <= 12 {
		return string(h)
	}
	return string(h[:12])
}

// ComputeFingerprint digests named inputs. encoding/json writes map keys
// sorted, so the result does not depend on map order.
func ComputeFingerprint(inputs map[string]interface{}) Hash {
	data, err := json.Marshal(inputs)
	if err != nil {
		// only channels, funcs and NaN/Inf floats fail to encode
		data = []byte(fmt.Sprintf("%#v", inputs))
	}
	return NewHash(data)
}
