package enums

import "fmt"

// CallerRole identifies who is invoking an operation.
type CallerRole string

const (
	CallerRoleBroker  CallerRole = "broker"
	CallerRoleTrucker CallerRole = "trucker"
	CallerRoleAdmin   CallerRole = "admin"
)

var validCallerRoles = []CallerRole{
	CallerRoleBroker,
	CallerRoleTrucker,
	CallerRoleAdmin,
}

// String implements fmt.Stringer.
func (c CallerRole) String() string {
	return string(c)
}

// IsValid reports whether the value matches a known CallerRole.
func (c CallerRole) IsValid() bool {
	for _, candidate := range validCallerRoles {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCallerRole converts raw input into a CallerRole.
func ParseCallerRole(value string) (CallerRole, error) {
	for _, candidate := range validCallerRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid caller role %q", value)
}
