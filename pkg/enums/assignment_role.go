package enums

import "fmt"

// AssignmentRole identifies the kind of party assigned to a kiosk.
type AssignmentRole string

const (
	AssignmentRoleManager  AssignmentRole = "manager"
	AssignmentRoleSalesRep AssignmentRole = "sales_rep"
)

var validAssignmentRoles = []AssignmentRole{
	AssignmentRoleManager,
	AssignmentRoleSalesRep,
}

// IsValid reports whether the value matches the canonical assignment role enum.
func (r AssignmentRole) IsValid() bool {
	for _, candidate := range validAssignmentRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseAssignmentRole converts raw input into AssignmentRole.
func ParseAssignmentRole(value string) (AssignmentRole, error) {
	for _, candidate := range validAssignmentRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid assignment role %q", value)
}
