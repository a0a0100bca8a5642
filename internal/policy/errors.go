package policy

import "errors"

// Policy validation errors.
//
// Design decision: We use package-level sentinel errors rather than creating
// new error instances at each validation site. This allows callers to use
// errors.Is() for programmatic handling while still providing human-readable
// messages. Errors that need the offending value are wrapped with fmt.Errorf
// and %w at the call site.
var (
	// ErrMissingPolicyName is returned when policy_name is empty.
	ErrMissingPolicyName = errors.New("policy has no policy_name")

	// ErrNoControls is returned when the policy defines no controls.
	ErrNoControls = errors.New("policy defines no controls")

	// ErrMissingControlID is returned when a control has no id.
	ErrMissingControlID = errors.New("control has no id")

	// ErrDuplicateControlID is returned when two controls share an id.
	ErrDuplicateControlID = errors.New("duplicate control id")

	// ErrMissingCheckType is returned when a control has no check_type.
	ErrMissingCheckType = errors.New("control has no check_type")

	// ErrPolicyNotFound is returned when the policy file does not exist.
	ErrPolicyNotFound = errors.New("policy file not found")
)
