package models

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleFaculty            UserRole = "faculty"
	RoleInstitutionalAdmin UserRole = "institutional_admin"
	RoleSuperAdmin         UserRole = "superadmin"
	RoleAdvisor            UserRole = "advisor"
	RoleStudent            UserRole = "student"
)

// Valid reports whether the role is part of the known vocabulary.
func (r UserRole) Valid() bool {
	switch r {
	case RoleFaculty, RoleInstitutionalAdmin, RoleSuperAdmin, RoleAdvisor, RoleStudent:
		return true
	}
	return false
}

// CanViewOtherKPIs reports whether the role may read KPI strips of other users.
func (r UserRole) CanViewOtherKPIs() bool {
	return r == RoleSuperAdmin || r == RoleInstitutionalAdmin
}

// CanViewOtherFeeds reports whether the role may read activity feeds of other users.
func (r UserRole) CanViewOtherFeeds() bool {
	return r == RoleSuperAdmin
}
