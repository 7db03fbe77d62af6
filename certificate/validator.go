// Package certificate validates mutual-TLS proxy headers for the
// machine-to-machine authentication path.
package certificate

import (
	"errors"
	"net/http"
	"strings"
)

// Proxy-injected header names, as set by an nginx-style TLS terminator.
const (
	HeaderVerify    = "ssl-client-verify"
	HeaderIssuerDN  = "ssl-client-issuer-dn"
	HeaderSubjectDN = "ssl-client-subject-dn"
)

var (
	// ErrNotPresent reports that the client did not present a certificate.
	ErrNotPresent = errors.New("client certificate not present")
	// ErrNotValid reports that a presented certificate failed validation.
	ErrNotValid = errors.New("client certificate not valid")
)

// Validator checks the fixed sequence of proxy headers against the
// configured trusted issuer suffixes. All three checks run unconditionally
// in sequence; the first failure wins.
type Validator struct {
	trustedIssuers []string
}

// NewValidator returns a Validator trusting issuer DNs that end with one of
// the given suffixes.
func NewValidator(trustedIssuers []string) *Validator {
	return &Validator{trustedIssuers: trustedIssuers}
}

// Validate runs the header checks and returns the raw subject DN for
// downstream principal lookup by certificate subject.
//
// ssl-client-verify must be SUCCESS: absent or NONE means no certificate
// was presented, any other value means verification failed upstream. The
// issuer DN must end with a trusted suffix and the subject DN must contain
// a CN= component.
func (v *Validator) Validate(h http.Header) (string, error) {
	switch verify := h.Get(HeaderVerify); verify {
	case "", "NONE":
		return "", ErrNotPresent
	case "SUCCESS":
	default:
		return "", ErrNotValid
	}

	issuer := h.Get(HeaderIssuerDN)
	if !v.trusted(issuer) {
		return "", ErrNotValid
	}

	subject := h.Get(HeaderSubjectDN)
	if !strings.Contains(subject, "CN=") {
		return "", ErrNotValid
	}

	return subject, nil
}

func (v *Validator) trusted(issuerDN string) bool {
	if issuerDN == "" {
		return false
	}
	for _, suffix := range v.trustedIssuers {
		if suffix != "" && strings.HasSuffix(issuerDN, suffix) {
			return true
		}
	}
	return false
}
