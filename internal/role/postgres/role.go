package postgres

import (
	"errors"

	"gorm.io/gorm"

	userDatamodel "github.com/stocklane/inventory-management/internal/core/datamodel/user"
	"github.com/stocklane/inventory-management/internal/role"
	"github.com/stocklane/inventory-management/internal/user"
)

type RoleRepository struct {
	db *gorm.DB
}

func NewRoleRepository(db *gorm.DB) role.Repository {
	return &RoleRepository{db: db}
}

func (r *RoleRepository) GetAll() ([]user.Role, error) {
	var rows []userDatamodel.Role
	if err := r.db.Preload("Permissions").Order("name ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	roles := make([]user.Role, 0, len(rows))
	for i := range rows {
		roles = append(roles, user.RoleFromDataModel(&rows[i]))
	}
	return roles, nil
}

func (r *RoleRepository) GetByID(id int64) (*user.Role, error) {
	var row userDatamodel.Role
	if err := r.db.Preload("Permissions").First(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, role.ErrNotFound
		}
		return nil, err
	}
	domain := user.RoleFromDataModel(&row)
	return &domain, nil
}

func (r *RoleRepository) GetAllPermissions() ([]user.Permission, error) {
	var rows []userDatamodel.Permission
	if err := r.db.Order("name ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	perms := make([]user.Permission, 0, len(rows))
	for _, p := range rows {
		perms = append(perms, user.Permission{ID: p.ID, Name: p.Name, Description: p.Description})
	}
	return perms, nil
}

func (r *RoleRepository) PermissionsByIDs(ids []int64) ([]user.Permission, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []userDatamodel.Permission
	if err := r.db.Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	perms := make([]user.Permission, 0, len(rows))
	for _, p := range rows {
		perms = append(perms, user.Permission{ID: p.ID, Name: p.Name, Description: p.Description})
	}
	return perms, nil
}

// ReplacePermissions swaps the role's permission set for the given IDs in a
// single transaction.
func (r *RoleRepository) ReplacePermissions(roleID int64, permissionIDs []int64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var row userDatamodel.Role
		if err := tx.First(&row, roleID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return role.ErrNotFound
			}
			return err
		}

		var perms []userDatamodel.Permission
		if len(permissionIDs) > 0 {
			if err := tx.Where("id IN ?", permissionIDs).Find(&perms).Error; err != nil {
				return err
			}
		}
		return tx.Model(&row).Association("Permissions").Replace(perms)
	})
}
