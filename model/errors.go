package model

import "errors"

// Error taxonomy for the economy engine. Validation and workflow errors are
// reported synchronously before any state change; conservation errors are
// fatal integrity failures and the offending record is flagged, never
// auto-repaired.
var (
	// validation
	ErrInvalidAmount    = errors.New("amount must be greater than zero")
	ErrInvalidThreshold = errors.New("threshold must be greater than zero")
	ErrInvalidRate      = errors.New("rate must be within (0, 0.10]")
	ErrInvalidStatus    = errors.New("invalid status value")

	// workflow state
	ErrIllegalTransition = errors.New("illegal status transition")
	ErrVotingClosed      = errors.New("voting window is closed")
	ErrVotingOpen        = errors.New("voting window is still open")
	ErrNotExecutable     = errors.New("record is not executable yet")
	ErrNotReversible     = errors.New("transaction is not reversible")
	ErrRetryExhausted    = errors.New("retry limit reached")

	// insufficient resources
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrRewardPoolDepleted  = errors.New("reward pool depleted")
	ErrExceedsMaxSupply    = errors.New("issuance would exceed max supply")
	ErrExceedsCirculating  = errors.New("burn exceeds circulating supply")

	// account state
	ErrAccountFrozen   = errors.New("account is frozen")
	ErrAccountNotFound = errors.New("account not found")

	// pool state
	ErrPoolNotActive = errors.New("token pool is not active")
	ErrPoolNotFound  = errors.New("token pool not found")

	// integrity; fatal, surfaced not auto-corrected
	ErrPoolConservation  = errors.New("pool conservation invariant violated")
	ErrBalanceIntegrity  = errors.New("balance totals do not match current balance")
	ErrHistoryIntegrity  = errors.New("history entry balance math mismatch")
	ErrDuplicateVote     = errors.New("voter already has a vote on this proposal")
	ErrIdempotentReplay  = errors.New("operation already executed for this idempotency key")
	ErrNothingToFinalize = errors.New("record already finalized")
)
