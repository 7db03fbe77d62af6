package token

// Role is the closed set of roles a token can be granted under.
type Role string

const (
	// RoleUser is the regular role granted after a fully completed login.
	RoleUser Role = "user"
	// RolePasswordSetup is granted when the principal must (re)set their
	// password before doing anything else.
	RolePasswordSetup Role = "passwordSetup"
	// RoleAccountCreation is granted during account-creation confirmation.
	RoleAccountCreation Role = "accountCreation"
	// RoleAccountRecovery is granted during the account-recovery flow.
	RoleAccountRecovery Role = "accountRecovery"
	// RoleMultiFactorPending is granted after first-factor success, before
	// the challenge code has been verified. It gates every endpoint except
	// code verification.
	RoleMultiFactorPending Role = "multiFactorPending"
)

// Temporary reports whether the role is granted for a narrow, one-shot
// purpose. Temporary roles never carry a refresh token and use the short
// access-token lifetime.
func (r Role) Temporary() bool {
	switch r {
	case RolePasswordSetup, RoleAccountCreation, RoleAccountRecovery, RoleMultiFactorPending:
		return true
	}
	return false
}
