package postgres

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/stocklane/inventory-management/internal/auth"
	userDatamodel "github.com/stocklane/inventory-management/internal/core/datamodel/user"
	"github.com/stocklane/inventory-management/internal/user"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) auth.UserRepository {
	return &Repository{db: db}
}

func (r *Repository) GetByUsername(username string) (*userDatamodel.User, error) {
	var u userDatamodel.User
	err := r.db.Preload("Roles.Permissions").Where("username = ?", username).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, user.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *Repository) GetByEmail(email string) (*userDatamodel.User, error) {
	var u userDatamodel.User
	err := r.db.Preload("Roles.Permissions").Where("LOWER(email) = LOWER(?)", email).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, user.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *Repository) GetByID(id int64) (*userDatamodel.User, error) {
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

func (r *Repository) UpdateLastLogin(id int64, at time.Time) error {
	return r.db.Model(&userDatamodel.User{}).Where("id = ?", id).Update("last_login", at).Error
}

func (r *Repository) UpdatePasswordHash(id int64, hash string) error {
	res := r.db.Model(&userDatamodel.User{}).Where("id = ?", id).Update("password_hash", hash)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return user.ErrNotFound
	}
	return nil
}

// ResolveOAuthLogin maps a provider identity onto a local user in one
// transaction. Existing (provider, subject) link: refresh the stored token.
// Known email: attach a new link to that user. Otherwise: create the user
// (username derived from baseUsername, suffixed until free) and the link.
// Any failure rolls the whole resolution back.
func (r *Repository) ResolveOAuthLogin(provider, providerUserID, email, token, baseUsername string) (*userDatamodel.User, error) {
	var resolved *userDatamodel.User

	err := r.db.Transaction(func(tx *gorm.DB) error {
		var account userDatamodel.OAuthAccount
		err := tx.Where("provider = ? AND provider_user_id = ?", provider, providerUserID).First(&account).Error
		switch {
		case err == nil:
			account.Token = token
			if err := tx.Save(&account).Error; err != nil {
				return err
			}
			var u userDatamodel.User
			if err := tx.Preload("Roles.Permissions").First(&u, account.UserID).Error; err != nil {
				return err
			}
			resolved = &u
			return nil

		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		var u userDatamodel.User
		err = tx.Preload("Roles.Permissions").Where("LOWER(email) = LOWER(?)", email).First(&u).Error
		switch {
		case err == nil:
			// Email already registered locally: link the provider identity.

		case errors.Is(err, gorm.ErrRecordNotFound):
			username, uerr := availableUsername(tx, baseUsername)
			if uerr != nil {
				return uerr
			}
			u = userDatamodel.User{
				Username: username,
				Email:    email,
				IsActive: true,
			}
			if err := tx.Create(&u).Error; err != nil {
				return err
			}

		default:
			return err
		}

		link := userDatamodel.OAuthAccount{
			Provider:       provider,
			ProviderUserID: providerUserID,
			UserID:         u.ID,
			Token:          token,
		}
		if err := tx.Create(&link).Error; err != nil {
			return err
		}

		resolved = &u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resolved, nil
}

// availableUsername returns base, or base with the smallest numeric suffix
// that is not taken yet.
func availableUsername(tx *gorm.DB, base string) (string, error) {
	candidate := base
	for i := 2; ; i++ {
		var count int64
		if err := tx.Model(&userDatamodel.User{}).Where("LOWER(username) = LOWER(?)", candidate).Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s%d", base, i)
	}
}
