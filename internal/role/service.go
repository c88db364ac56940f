package role

import (
	"errors"
	"log/slog"

	"github.com/stocklane/inventory-management/internal"
	"github.com/stocklane/inventory-management/internal/user"
)

// ErrNotFound is returned by repositories when a role does not exist.
var ErrNotFound = errors.New("role not found")

type Repository interface {
	GetAll() ([]user.Role, error)
	GetByID(id int64) (*user.Role, error)
	GetAllPermissions() ([]user.Permission, error)
	PermissionsByIDs(ids []int64) ([]user.Permission, error)
	ReplacePermissions(roleID int64, permissionIDs []int64) error
}

type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger}
}

// GetAllRoles returns every role with its permissions, ordered by name.
func (s *Service) GetAllRoles() ([]user.Role, error) {
	roles, err := s.repo.GetAll()
	if err != nil {
		s.logger.Error("failed to list roles", "error", err)
		return nil, internal.NewInternalError("failed to list roles", err)
	}
	return roles, nil
}

func (s *Service) GetRoleByID(id int64) (*user.Role, error) {
	r, err := s.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, internal.ErrRoleNotFound
		}
		s.logger.Error("failed to get role", "role_id", id, "error", err)
		return nil, internal.NewInternalError("failed to get role", err)
	}
	return r, nil
}

// GetAllPermissions returns the full permission catalogue, ordered by name.
func (s *Service) GetAllPermissions() ([]user.Permission, error) {
	perms, err := s.repo.GetAllPermissions()
	if err != nil {
		s.logger.Error("failed to list permissions", "error", err)
		return nil, internal.NewInternalError("failed to list permissions", err)
	}
	return perms, nil
}

// UpdateRolePermissions replaces the role's permission set with the given
// IDs. Unknown IDs are dropped with a warning rather than failing the whole
// update, so the result is exactly the valid subset.
func (s *Service) UpdateRolePermissions(roleID int64, permissionIDs []int64) (*user.Role, error) {
	if _, err := s.GetRoleByID(roleID); err != nil {
		return nil, err
	}

	valid, err := s.repo.PermissionsByIDs(permissionIDs)
	if err != nil {
		s.logger.Error("failed to resolve permissions", "role_id", roleID, "error", err)
		return nil, internal.NewInternalError("failed to resolve permissions", err)
	}

	if len(valid) < len(dedupeIDs(permissionIDs)) {
		known := make(map[int64]struct{}, len(valid))
		for _, p := range valid {
			known[p.ID] = struct{}{}
		}
		for _, id := range permissionIDs {
			if _, ok := known[id]; !ok {
				s.logger.Warn("dropping unknown permission id", "role_id", roleID, "permission_id", id)
			}
		}
	}

	validIDs := make([]int64, 0, len(valid))
	for _, p := range valid {
		validIDs = append(validIDs, p.ID)
	}

	if err := s.repo.ReplacePermissions(roleID, validIDs); err != nil {
		s.logger.Error("failed to update role permissions", "role_id", roleID, "error", err)
		return nil, internal.NewInternalError("failed to update role permissions", err)
	}

	return s.GetRoleByID(roleID)
}

func dedupeIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
