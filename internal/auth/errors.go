package auth

import "errors"

// Error taxonomy for credential validation. Handlers collapse all of these
// into generic client-facing messages; the distinctions exist for logging.
var (
	// ErrMalformedToken means the input is not a structurally valid token.
	ErrMalformedToken = errors.New("malformed token")

	// ErrInvalidSignature means the token signature does not verify.
	ErrInvalidSignature = errors.New("invalid token signature")

	// ErrTokenExpired means the token's expiry has passed.
	ErrTokenExpired = errors.New("token expired")

	// ErrWrongTokenKind means a token of the wrong kind was presented,
	// e.g. a refresh token used to authenticate a request.
	ErrWrongTokenKind = errors.New("wrong token kind")

	// ErrTokenRevoked means the token id is blacklisted or its refresh
	// record has already been consumed.
	ErrTokenRevoked = errors.New("token revoked")

	// ErrTokenNotFound means no persisted record matches the token id.
	ErrTokenNotFound = errors.New("token not found")

	// ErrSubjectNotFound means the subject resolved from a persisted
	// record no longer exists.
	ErrSubjectNotFound = errors.New("subject not found")

	// ErrCodeNotFound means no verification code matches (email, code,
	// purpose). Wrong-purpose redemptions land here as well, so callers
	// cannot probe which codes exist.
	ErrCodeNotFound = errors.New("verification code not found")

	// ErrCodeExpired means the verification code's TTL has lapsed.
	ErrCodeExpired = errors.New("verification code expired")

	// ErrCodeUsed means the verification code was already redeemed.
	ErrCodeUsed = errors.New("verification code already used")
)
