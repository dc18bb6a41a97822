package core

import "errors"

var (
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrAmountOverflow     = errors.New("amount out of range")
	ErrInvalidDate        = errors.New("invalid date")
	ErrInvalidMonth       = errors.New("invalid month")
	ErrInvalidAccountType = errors.New("invalid account type")
	ErrNotFound           = errors.New("not found")
)

var (
	// ErrDuplicateName: a sibling group, item or account already has the name.
	ErrDuplicateName = errors.New("duplicate name")

	// ErrFundsPresent: the item still holds money and needs a reassignment target.
	ErrFundsPresent = errors.New("category has funds; choose a category to move them to")

	// ErrGroupNotEmpty: only groups without items may be deleted.
	ErrGroupNotEmpty = errors.New("group is not empty")

	ErrProtectedGroup = errors.New("group cannot be deleted")
	ErrProtectedItem  = errors.New("category cannot be deleted")

	// ErrMirrorIntegrity: a transaction references a mirror that cannot be found.
	ErrMirrorIntegrity = errors.New("mirror transaction missing")
)
