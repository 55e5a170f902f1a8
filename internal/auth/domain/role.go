package domain

// Role is the privilege tier of an account. Tiers are strictly ordered:
// superadmin > admin > standard.
type Role string

const (
	RoleStandard   Role = "standard"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "superadmin"
)

// Role sets accepted by the gated login paths. Admin login accepts admin
// and above; super-admin login accepts only superadmin.
var (
	AnyRole        = []Role{RoleStandard, RoleAdmin, RoleSuperAdmin}
	AdminRoles     = []Role{RoleAdmin, RoleSuperAdmin}
	SuperAdminOnly = []Role{RoleSuperAdmin}
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleStandard, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// In reports whether r is a member of the required set. This is the single
// role-hierarchy check every gated flow uses.
func (r Role) In(required []Role) bool {
	for _, want := range required {
		if r == want {
			return true
		}
	}
	return false
}

func (r Role) String() string { return string(r) }
