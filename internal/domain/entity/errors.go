package entity

import "errors"

var (
	// ErrAlreadyExists is returned on a name/key collision for managers,
	// users, packages, or proposal executions.
	ErrAlreadyExists = errors.New("record already exists")

	// ErrUninitialized is returned when an operation references a manager
	// or user that has not been created.
	ErrUninitialized = errors.New("record is not initialized")

	// ErrIncorrectNonce is returned when a client-supplied package nonce
	// does not match the manager's current counter.
	ErrIncorrectNonce = errors.New("incorrect package nonce")

	// ErrAlreadyBound is returned when a governance or squad binding is
	// attempted on a manager that already has one.
	ErrAlreadyBound = errors.New("manager authorization binding already set")

	// ErrPackageFrozen is returned when an edit or submit is attempted
	// outside the CREATED state.
	ErrPackageFrozen = errors.New("expense package is frozen")

	// ErrPackageMissingInfo is returned when a package is submitted with an
	// empty name or zero quantity.
	ErrPackageMissingInfo = errors.New("expense package is missing required info")

	// ErrPackageNotApproved is returned when a withdrawal is attempted
	// outside the APPROVED state.
	ErrPackageNotApproved = errors.New("expense package has not been approved")

	// ErrNotAuthorized is returned when the caller fails the access check
	// for the requested capability.
	ErrNotAuthorized = errors.New("caller is not authorized")

	// ErrUserIsNotMember is returned when the caller holds no membership
	// token or squad equity for the manager's binding.
	ErrUserIsNotMember = errors.New("user is not a member of the manager")

	// ErrCannotApproveOwnExpense is returned when a reviewer attempts to
	// approve or deny their own package.
	ErrCannotApproveOwnExpense = errors.New("cannot approve or deny own expense")

	// ErrDataTooLarge is returned when a bounded string field exceeds its
	// maximum length. Input is rejected, never truncated.
	ErrDataTooLarge = errors.New("field data too large")
)
