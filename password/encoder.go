package password

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"strings"
)

// Encoder hashes plaintext passwords against an application-specific secret.
type Encoder struct {
	secret []byte
}

// NewEncoder returns an Encoder keyed with the application secret.
func NewEncoder(secret string) Encoder {
	return Encoder{secret: []byte(secret)}
}

// Encode returns the uppercase hex HMAC-SHA512 of plaintext. There is no
// salt: equal plaintext and secret always yield equal output, which allows
// direct equality lookup against the stored hash during credential
// verification.
func (e Encoder) Encode(plaintext string) string {
	mac := hmac.New(sha512.New, e.secret)
	mac.Write([]byte(plaintext))
	return strings.ToUpper(hex.EncodeToString(mac.Sum(nil)))
}

// Matches reports whether plaintext encodes to the stored hash. Comparison
// is case-insensitive on the hex representation.
func (e Encoder) Matches(plaintext, encoded string) bool {
	return e.Encode(plaintext) == strings.ToUpper(encoded)
}
