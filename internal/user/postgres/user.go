package postgres

import (
	"errors"

	"gorm.io/gorm"

	userDatamodel "github.com/stocklane/inventory-management/internal/core/datamodel/user"
	"github.com/stocklane/inventory-management/internal/user"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) user.Repository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetAll() ([]*userDatamodel.User, error) {
	var users []*userDatamodel.User
	err := r.db.Preload("Roles.Permissions").Order("username ASC").Find(&users).Error
	return users, err
}

func (r *UserRepository) GetByID(id int64) (*userDatamodel.User, error) {
	var u userDatamodel.User
	err := r.db.Preload("Roles.Permissions").First(&u, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, user.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) UsernameExists(username string, excludeID int64) (bool, error) {
	var count int64
	q := r.db.Model(&userDatamodel.User{}).Where("LOWER(username) = LOWER(?)", username)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	err := q.Count(&count).Error
	return count > 0, err
}

func (r *UserRepository) EmailExists(email string, excludeID int64) (bool, error) {
	var count int64
	q := r.db.Model(&userDatamodel.User{}).Where("LOWER(email) = LOWER(?)", email)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	err := q.Count(&count).Error
	return count > 0, err
}

func (r *UserRepository) RolesByNames(names []string) ([]userDatamodel.Role, error) {
	if len(names) == 0 {
		return nil, nil
	}
	var roles []userDatamodel.Role
	err := r.db.Preload("Permissions").Where("name IN ?", names).Find(&roles).Error
	return roles, err
}

func (r *UserRepository) Create(u *userDatamodel.User) error {
	return r.db.Create(u).Error
}

// Update saves scalar columns and, when replaceRoles is set, swaps the role
// association for the one carried on the model.
func (r *UserRepository) Update(u *userDatamodel.User, replaceRoles bool) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Roles").Save(u).Error; err != nil {
			return err
		}
		if replaceRoles {
			roles := make([]userDatamodel.Role, len(u.Roles))
			copy(roles, u.Roles)
			if err := tx.Model(u).Association("Roles").Replace(roles); err != nil {
				return err
			}
		}
		return nil
	})
}

// Delete removes the user's OAuth account rows first to satisfy the foreign
// key, then the role links, then the user row. Everything happens in one
// transaction; a failure anywhere rolls the whole operation back.
func (r *UserRepository) Delete(id int64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var u userDatamodel.User
		if err := tx.First(&u, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return user.ErrNotFound
			}
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&userDatamodel.OAuthAccount{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&u).Association("Roles").Clear(); err != nil {
			return err
		}
		return tx.Delete(&u).Error
	})
}
