// Package scoring derives reproducible facial scores from a user and an
// image payload. Every value it produces is a pure function of its inputs;
// only the timestamps on a Result come from the injected clock.
package scoring

import (
	"crypto/sha256"
	"encoding/hex"
)

// seedSeparator joins the user id and the payload before hashing.
const seedSeparator = ":"

// DeriveSeed returns the lowercase hex SHA-256 digest of userID and
// imagePayload. Identical inputs always produce the identical seed, across
// processes and runtimes.
func DeriveSeed(userID, imagePayload string) string {
	sum := sha256.Sum256([]byte(userID + seedSeparator + imagePayload))
	return hex.EncodeToString(sum[:])
}
