package user

import (
	"time"

	userDatamodel "github.com/stocklane/inventory-management/internal/core/datamodel/user"
)

// AdminRoleName is special-cased: holders of this role pass every permission
// check regardless of explicit role-permission links.
const AdminRoleName = "Admin"

type Permission struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type Role struct {
	ID          int64        `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Permissions []Permission `json:"permissions,omitempty"`
}

// HasPermission reports whether the role grants the named permission.
// Names are matched exactly, case-sensitive.
func (r *Role) HasPermission(permission string) bool {
	for _, p := range r.Permissions {
		if p.Name == permission {
			return true
		}
	}
	return false
}

type User struct {
	ID           int64      `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	PasswordHash *string    `json:"-"`
	FirstName    string     `json:"first_name,omitempty"`
	LastName     string     `json:"last_name,omitempty"`
	IsActive     bool       `json:"is_active"`
	CreatedAt    time.Time  `json:"created_at"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
	Roles        []Role     `json:"roles,omitempty"`
}

func (u *User) HasRole(name string) bool {
	for _, r := range u.Roles {
		if r.Name == name {
			return true
		}
	}
	return false
}

// IsAdmin is derived from the role associations on every call rather than
// stored, so role changes take effect immediately.
func (u *User) IsAdmin() bool {
	return u.HasRole(AdminRoleName)
}

// HasPermission is an OR across the user's roles: at least one assigned role
// must grant the permission. Admins short-circuit to true.
func (u *User) HasPermission(permission string) bool {
	if u.IsAdmin() {
		return true
	}
	for _, r := range u.Roles {
		if r.HasPermission(permission) {
			return true
		}
	}
	return false
}

// PermissionNames returns the deduplicated union of permissions granted by
// the user's roles.
func (u *User) PermissionNames() []string {
	seen := make(map[string]struct{})
	var names []string
	for _, r := range u.Roles {
		for _, p := range r.Permissions {
			if _, ok := seen[p.Name]; ok {
				continue
			}
			seen[p.Name] = struct{}{}
			names = append(names, p.Name)
		}
	}
	return names
}

func (u *User) HasUsablePassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}

func (u *User) FullName() string {
	if u.FirstName != "" && u.LastName != "" {
		return u.FirstName + " " + u.LastName
	}
	return u.Username
}

func ToDataModel(u *User) *userDatamodel.User {
	roles := make([]userDatamodel.Role, 0, len(u.Roles))
	for _, r := range u.Roles {
		roles = append(roles, RoleToDataModel(r))
	}
	return &userDatamodel.User{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		IsActive:     u.IsActive,
		CreatedAt:    u.CreatedAt,
		LastLogin:    u.LastLogin,
		Roles:        roles,
	}
}

func FromDataModel(u *userDatamodel.User) *User {
	roles := make([]Role, 0, len(u.Roles))
	for _, r := range u.Roles {
		roles = append(roles, RoleFromDataModel(&r))
	}
	return &User{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		IsActive:     u.IsActive,
		CreatedAt:    u.CreatedAt,
		LastLogin:    u.LastLogin,
		Roles:        roles,
	}
}

func RoleToDataModel(r Role) userDatamodel.Role {
	perms := make([]userDatamodel.Permission, 0, len(r.Permissions))
	for _, p := range r.Permissions {
		perms = append(perms, userDatamodel.Permission{ID: p.ID, Name: p.Name, Description: p.Description})
	}
	return userDatamodel.Role{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Permissions: perms,
	}
}

func RoleFromDataModel(r *userDatamodel.Role) Role {
	perms := make([]Permission, 0, len(r.Permissions))
	for _, p := range r.Permissions {
		perms = append(perms, Permission{ID: p.ID, Name: p.Name, Description: p.Description})
	}
	return Role{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Permissions: perms,
	}
}
