package role

// UpdatePermissionsDTO carries the full replacement permission set for a
// role. An empty list clears every permission from the role.
type UpdatePermissionsDTO struct {
	PermissionIDs []int64 `json:"permission_ids"`
}
