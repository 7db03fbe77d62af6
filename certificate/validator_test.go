package certificate

import (
	"errors"
	"net/http"
	"testing"
)

func headers(verify, issuer, subject string) http.Header {
	h := http.Header{}
	if verify != "" {
		h.Set(HeaderVerify, verify)
	}
	if issuer != "" {
		h.Set(HeaderIssuerDN, issuer)
	}
	if subject != "" {
		h.Set(HeaderSubjectDN, subject)
	}
	return h
}

func TestValidate(t *testing.T) {
	v := NewValidator([]string{"O=Example Corp,C=US"})

	cases := []struct {
		name    string
		h       http.Header
		subject string
		err     error
	}{
		{
			name:    "valid certificate",
			h:       headers("SUCCESS", "CN=Example CA,O=Example Corp,C=US", "CN=service-1,O=Example Corp,C=US"),
			subject: "CN=service-1,O=Example Corp,C=US",
		},
		{
			name: "no headers at all",
			h:    http.Header{},
			err:  ErrNotPresent,
		},
		{
			name: "verify reports NONE",
			h:    headers("NONE", "", ""),
			err:  ErrNotPresent,
		},
		{
			name: "verify reports failure",
			h:    headers("FAILED:unable to verify", "CN=Example CA,O=Example Corp,C=US", "CN=service-1"),
			err:  ErrNotValid,
		},
		{
			name: "untrusted issuer",
			h:    headers("SUCCESS", "CN=Rogue CA,O=Somewhere Else,C=US", "CN=service-1"),
			err:  ErrNotValid,
		},
		{
			name: "subject without CN",
			h:    headers("SUCCESS", "CN=Example CA,O=Example Corp,C=US", "O=Example Corp,C=US"),
			err:  ErrNotValid,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			subject, err := v.Validate(tc.h)
			if tc.err != nil {
				if !errors.Is(err, tc.err) {
					t.Fatalf("Validate = %v, want %v", err, tc.err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Validate: %v", err)
			}
			if subject != tc.subject {
				t.Fatalf("subject = %q, want %q", subject, tc.subject)
			}
		})
	}
}

func TestValidateNoTrustedIssuers(t *testing.T) {
	v := NewValidator(nil)
	h := headers("SUCCESS", "CN=Example CA,O=Example Corp,C=US", "CN=service-1")
	if _, err := v.Validate(h); !errors.Is(err, ErrNotValid) {
		t.Fatalf("empty trust list = %v, want ErrNotValid", err)
	}
}
