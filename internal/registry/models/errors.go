package models

import (
	dErrors "shareledger/pkg/domain-errors"
)

// Registry error taxonomy. Each value is a coded error; match with errors.Is.
var (
	// ErrUnauthorized: the caller is not the admin for an admin-only operation.
	ErrUnauthorized = dErrors.New(dErrors.CodeForbidden, "caller is not the registry admin")
	// ErrNotFound: the operation targets an identity that is not registered.
	ErrNotFound = dErrors.New(dErrors.CodeNotFound, "shareholder not found")
	// ErrAlreadyRegistered: the identity is already registered.
	ErrAlreadyRegistered = dErrors.New(dErrors.CodeConflict, "shareholder already registered")
	// ErrInvalidShares: share counts must be non-negative.
	ErrInvalidShares = dErrors.New(dErrors.CodeInvalidInput, "shares must not be negative")
	// ErrInvalidIdentity: the supplied identity is empty or malformed.
	ErrInvalidIdentity = dErrors.New(dErrors.CodeBadRequest, "invalid identity")
	// ErrNotDeployed: the registry has no configuration yet.
	ErrNotDeployed = dErrors.New(dErrors.CodeInternal, "registry is not deployed")
	// ErrHistoryUnavailable: the configured audit sink cannot be read back.
	ErrHistoryUnavailable = dErrors.New(dErrors.CodeNotFound, "audit history is not available")
)
