package webauth

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/go-webauth/webauth/internal"
	"github.com/go-webauth/webauth/metrics"
)

// MultiFactorOptions carries the optional collaborators of a
// [MultiFactorHandler]. Sender is the regular delivery channel for locally
// generated codes. ExternalSender and ExternalValidator, when supplied
// together, externalize code issuance and validation entirely: the handler
// then never stores or checks a code itself.
type MultiFactorOptions struct {
	Sender            CodeSender
	ExternalSender    CodeSender
	ExternalValidator CodeValidator
	Logger            *zap.Logger
	Metrics           *metrics.Metrics
}

// MultiFactorHandler orchestrates generation, delivery and verification of
// challenge codes. Per (principal, purpose) the code moves through
// NoCode -> CodeIssued -> Consumed | Expired | Superseded.
type MultiFactorHandler struct {
	cfg       Config
	codes     ValidationCodeRepository
	sender    CodeSender
	extSender CodeSender
	extValid  CodeValidator
	log       *zap.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
}

// NewMultiFactorHandler builds a handler over the given code repository.
// Collaborator absence is checked once here and captured as capability
// state rather than re-checked throughout the flows.
func NewMultiFactorHandler(cfg Config, codes ValidationCodeRepository, opts MultiFactorOptions) *MultiFactorHandler {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &MultiFactorHandler{
		cfg:       cfg.withDefaults(),
		codes:     codes,
		sender:    opts.Sender,
		extSender: opts.ExternalSender,
		extValid:  opts.ExternalValidator,
		log:       log,
		metrics:   opts.Metrics,
		now:       time.Now,
	}
}

// delegated reports whether issuance and validation are fully externalized.
func (h *MultiFactorHandler) delegated() bool {
	return h.extSender != nil && h.extValid != nil
}

// SendIfNeeded dispatches a multi-factor challenge when, and only when, the
// principal actually requires one: multi-factor must be globally enabled,
// the principal must not be in a password reset, and the principal must
// have two-factor enabled. Anything else is a no-op.
//
// With a fully external sender+validator pair the call is delegated and no
// local code is created.
func (h *MultiFactorHandler) SendIfNeeded(ctx context.Context, principal AuthenticableEntity) error {
	if !h.cfg.MultiFactorEnabled || principal.MustResetPassword() || !principal.TwoFactorEnabled() {
		return nil
	}
	if h.delegated() {
		if err := h.extSender.SendCode(ctx, principal, "", time.Time{}, ""); err != nil {
			return fmt.Errorf("external code delivery: %w", err)
		}
		h.metrics.CodeSent()
		return nil
	}
	return h.SendCode(ctx, principal, PurposeMultiFactor, "")
}

// SendCode issues a fresh challenge code for the given purpose, replacing
// any prior code for that purpose, and dispatches it through the configured
// sender.
func (h *MultiFactorHandler) SendCode(ctx context.Context, principal AuthenticableEntity, purpose CodePurpose, channel string) error {
	if h.sender == nil {
		return ErrValidationCodeSenderNotFound
	}
	if err := h.codes.DeleteExistingCode(ctx, principal.ID(), purpose); err != nil {
		return fmt.Errorf("delete stale code: %w", err)
	}

	code, err := internal.NewNumericCode(validationCodeDigits)
	if err != nil {
		return err
	}
	now := h.now()
	vc := &ValidationCode{
		ID:          uuid.NewString(),
		PrincipalID: principal.ID(),
		Code:        code,
		Purpose:     purpose,
		CreatedAt:   now,
		ExpiresAt:   now.Add(ValidationCodeTTL),
	}
	if err := h.codes.SaveNewCode(ctx, vc); err != nil {
		return fmt.Errorf("save code: %w", err)
	}
	if err := h.sender.SendCode(ctx, principal, code, vc.ExpiresAt, channel); err != nil {
		return fmt.Errorf("code delivery: %w", err)
	}

	h.metrics.CodeSent()
	h.log.Debug("validation code dispatched",
		zap.String("principal", principal.ID()),
		zap.String("purpose", string(purpose)))
	return nil
}

// SendNew reissues a challenge code for resend and recovery flows. An
// external sender short-circuits the call. Otherwise a prior code of any
// purpose must exist to seed the new code's purpose tag: resend is only
// valid after an initial send, and fails with ErrValidationCodeNotFound
// when none exists.
func (h *MultiFactorHandler) SendNew(ctx context.Context, principal AuthenticableEntity, channel string) error {
	if h.extSender != nil {
		if err := h.extSender.SendCode(ctx, principal, "", time.Time{}, channel); err != nil {
			return fmt.Errorf("external code delivery: %w", err)
		}
		h.metrics.CodeSent()
		return nil
	}

	last, err := h.codes.GetLastCode(ctx, principal.ID())
	if err != nil {
		return fmt.Errorf("load last code: %w", err)
	}
	if last == nil {
		return ErrValidationCodeNotFound
	}
	return h.SendCode(ctx, principal, last.Purpose, channel)
}

// IsCodeValid verifies a presented code. With an external validator the
// check is delegated wholesale. Locally, a non-expired record matching
// (principal, code, purpose) is consumed on success: a second presentation
// of the same code returns false. A failed check has no side effects.
func (h *MultiFactorHandler) IsCodeValid(ctx context.Context, principal AuthenticableEntity, code string, purpose CodePurpose) (bool, error) {
	if h.extValid != nil {
		ok, err := h.extValid.IsCodeValid(ctx, principal, code)
		if err != nil {
			return false, fmt.Errorf("external code validation: %w", err)
		}
		h.countOutcome(ok)
		return ok, nil
	}

	vc, err := h.codes.GetExistingValidCode(ctx, principal.ID(), code, purpose)
	if err != nil {
		return false, fmt.Errorf("load code: %w", err)
	}
	if vc == nil || vc.Expired(h.now()) || vc.Code != code {
		h.countOutcome(false)
		return false, nil
	}
	// One-time use: consume on success.
	if err := h.codes.DeleteCode(ctx, vc); err != nil {
		return false, fmt.Errorf("consume code: %w", err)
	}
	h.countOutcome(true)
	return true, nil
}

func (h *MultiFactorHandler) countOutcome(ok bool) {
	if ok {
		h.metrics.CodeAccepted()
	} else {
		h.metrics.CodeRejected()
	}
}
