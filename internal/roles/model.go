package roles

import "time"

// Role is the coarse actor classification.
type Role string

const (
	RoleUser       Role = "user"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// Permissions is the closed set of fine-grained capabilities. A fixed
// struct rather than a map so unknown permission names cannot be looked
// up silently.
type Permissions struct {
	ManageRequests bool `json:"manage_requests"`
	ManageFinance  bool `json:"manage_finance"`
	ManageUsers    bool `json:"manage_users"`
}

// Record is a stored role assignment for a principal. Absence of a
// record is a valid state meaning role=user with no permissions.
type Record struct {
	PrincipalID string      `json:"principalId"`
	Email       string      `json:"email,omitempty"`
	Role        Role        `json:"role"`
	Permissions Permissions `json:"permissions"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// Grant is the resolved role plus permissions for one action.
type Grant struct {
	Role        Role        `json:"role"`
	Permissions Permissions `json:"permissions"`
}

// IsAdmin reports whether the grant carries admin or super_admin role.
func (g Grant) IsAdmin() bool {
	return g.Role == RoleAdmin || g.Role == RoleSuperAdmin
}

// IsSuperAdmin reports whether the grant carries the super_admin role.
func (g Grant) IsSuperAdmin() bool {
	return g.Role == RoleSuperAdmin
}
