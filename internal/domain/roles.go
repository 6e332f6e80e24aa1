package domain

// Role identifies an approval tier by its roster role value instead of
// by array position, so a reordered approval line keeps working.
type Role string

const (
	RolePreparer         Role = "담당"
	RoleSecretaryGeneral Role = "사무국장"
	RoleDirector         Role = "원장"
)

// ApprovalStep names one of the three approval flags.
type ApprovalStep string

const (
	StepPIC      ApprovalStep = "pic"
	StepSecGen   ApprovalStep = "secGen"
	StepDirector ApprovalStep = "director"
)

// RequiredRole returns the role allowed to toggle the given step.
// The pic flag is set at creation time and has no toggling role.
func RequiredRole(step ApprovalStep) (Role, bool) {
	switch step {
	case StepSecGen:
		return RoleSecretaryGeneral, true
	case StepDirector:
		return RoleDirector, true
	default:
		return "", false
	}
}
