package hashutil

import (
	"encoding/hex"
	"fmt"

	"lukechampine.com/blake3"
)

type HashAlgo string

const (
	HashAlgoBLAKE3 HashAlgo = "blake3"
)

// HashBytes returns the hash of bytes as a hex string using the specified algorithm.
func HashBytes(data []byte, algo HashAlgo) (string, error) {
	switch algo {
	case HashAlgoBLAKE3:
		sum := blake3.Sum256(data)
		return hex.EncodeToString(sum[:]), nil
	default:
		return "", fmt.Errorf("unsupported hash algorithm: %s", algo)
	}
}

// ETag returns a strong HTTP entity tag for payload: the first 16 bytes of
// its blake3 digest, hex encoded and quoted.
func ETag(payload []byte) string {
	digest, err := HashBytes(payload, HashAlgoBLAKE3)
	if err != nil {
		return ""
	}
	return `"` + digest[:32] + `"`
}
