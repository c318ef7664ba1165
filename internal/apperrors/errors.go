package apperrors

import "errors"

// Sentinel errors shared across services and handlers. Handlers map these to
// HTTP statuses; services return them unwrapped or wrapped with %w so callers
// can branch with errors.Is.
var (
	// ErrNotFound indicates an unknown session, user, prompt, or message.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized indicates the caller is not the party allowed to
	// perform the action (wrong owner, wrong role).
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidOrExpiredToken indicates an invitation token that does not
	// exist, has been revoked, or is past its expiry.
	ErrInvalidOrExpiredToken = errors.New("invalid or expired invitation token")

	// ErrTokenAlreadyClaimed indicates the session's guest seat is already
	// bound to a different identity.
	ErrTokenAlreadyClaimed = errors.New("invitation already claimed by another guest")

	// ErrIncompleteResponses indicates a party confirmed readiness while one
	// or more required prompts have no response.
	ErrIncompleteResponses = errors.New("incomplete responses")

	// ErrNotReady indicates a mutual-responses read before both parties
	// confirmed readiness.
	ErrNotReady = errors.New("both parties must be ready before responses are revealed")

	// ErrAgendaAlreadyGenerated indicates an agenda exists and regeneration
	// was not explicitly requested.
	ErrAgendaAlreadyGenerated = errors.New("agenda already generated")

	// ErrPaywallBlocked indicates a free account with no trials remaining
	// attempted to start a session.
	ErrPaywallBlocked = errors.New("no trials remaining")

	// ErrSessionNotActive indicates an operation against a session whose
	// status does not permit it (expired, errored, or not yet in the
	// required state).
	ErrSessionNotActive = errors.New("session is not in a state that allows this action")

	// ErrEmptyContent indicates a response save with empty content.
	ErrEmptyContent = errors.New("response content must not be empty")

	// ErrEmailTaken indicates a registration with an email that already has
	// an account.
	ErrEmailTaken = errors.New("email already registered")
)
