// Package password implements the credential hashing scheme: a per-user
// random salt used as the key for a single-round HMAC-SHA1 over the plaintext,
// stored hex-encoded.
//
// Single-round HMAC with no stretching is weak by modern standards; it is kept
// as-is because changing it would invalidate every stored credential.
package password

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/hex"
	"math/rand"
	"strconv"
	"time"
)

// MakeSalt returns a fresh salt: the current wall clock mixed with
// randomness, as a decimal string.
func MakeSalt() string {
	v := float64(time.Now().UnixMilli()) * rand.Float64()

	return strconv.FormatInt(int64(v+0.5), 10)
}

// Hash computes the hex HMAC-SHA1 digest of plain keyed by salt. An empty
// plaintext hashes to the empty string, which no candidate ever matches.
func Hash(plain, salt string) string {
	if plain == "" {
		return ""
	}

	mac := hmac.New(sha1.New, []byte(salt))
	mac.Write([]byte(plain))

	return hex.EncodeToString(mac.Sum(nil))
}

// Set derives the stored credential pair for a new plaintext password.
func Set(plain string) (hash, salt string) {
	salt = MakeSalt()

	return Hash(plain, salt), salt
}

// Authenticate recomputes the digest for the candidate with the stored salt
// and compares it to the stored hash. A user with an empty stored hash always
// authenticates false.
func Authenticate(candidate, salt, storedHash string) bool {
	if storedHash == "" || candidate == "" {
		return false
	}

	return hmac.Equal([]byte(Hash(candidate, salt)), []byte(storedHash))
}
