package user

// CreateUserDTO carries the fields for admin user creation and registration.
// RoleNames is resolved best-effort: names with no matching role are dropped.
type CreateUserDTO struct {
	Username  string   `json:"username"`
	Email     string   `json:"email"`
	Password  string   `json:"password"`
	FirstName string   `json:"first_name"`
	LastName  string   `json:"last_name"`
	RoleNames []string `json:"roles"`
}

// UpdateUserDTO is a partial payload: nil pointers mean "leave unchanged".
// A non-nil RoleNames fully replaces the user's role set.
type UpdateUserDTO struct {
	Username  *string   `json:"username"`
	Email     *string   `json:"email"`
	Password  *string   `json:"password"`
	FirstName *string   `json:"first_name"`
	LastName  *string   `json:"last_name"`
	IsActive  *bool     `json:"is_active"`
	RoleNames *[]string `json:"roles"`
}
