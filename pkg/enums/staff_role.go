package enums

import "fmt"

// StaffRole scopes what a store operator may change through the admin routes.
type StaffRole string

const (
	// StaffRoleAdmin manages the catalog and stock.
	StaffRoleAdmin StaffRole = "admin"
	// StaffRoleStock may only restock.
	StaffRoleStock StaffRole = "stock"
)

var validStaffRoles = []StaffRole{StaffRoleAdmin, StaffRoleStock}

// String implements fmt.Stringer.
func (v StaffRole) String() string {
	return string(v)
}

// IsValid reports whether the value is a known StaffRole.
func (v StaffRole) IsValid() bool {
	for _, candidate := range validStaffRoles {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseStaffRole converts raw input into a StaffRole.
func ParseStaffRole(value string) (StaffRole, error) {
	for _, candidate := range validStaffRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid staff role %q", value)
}
