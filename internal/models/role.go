package models

// UserRole is the role claim carried by access tokens.
type UserRole string

const (
	RoleSuperAdmin UserRole = "SUPERADMIN"
	RoleAdmin      UserRole = "ADMIN"
	RoleTeacher    UserRole = "TEACHER"
	RoleStudent    UserRole = "STUDENT"
	RoleParent     UserRole = "PARENT"
)

// ImportOperatorRoles may run imports and download their reports.
var ImportOperatorRoles = []UserRole{RoleSuperAdmin, RoleAdmin}

// CanImport reports whether r is an import operator.
func (r UserRole) CanImport() bool {
	for _, allowed := range ImportOperatorRoles {
		if r == allowed {
			return true
		}
	}
	return false
}
