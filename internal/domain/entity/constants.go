package entity

// Maximum byte lengths for bounded string fields. Writes exceeding these
// limits fail with ErrDataTooLarge.
const (
	MaxManagerNameLen = 64
	MaxPackageNameLen = 64
	MaxDescriptionLen = 256
	MaxUsernameLen    = 64
	MaxRealNameLen    = 128
)

// Authorization binding kinds for an expense manager
const (
	BindingDirect     = "DIRECT"
	BindingGovernance = "GOVERNANCE"
	BindingSquad      = "SQUAD"
)
