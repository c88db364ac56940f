package user

import "time"

// User is the persisted account row. PasswordHash is nullable: accounts
// created through an OAuth provider carry no local password.
type User struct {
	ID           int64      `gorm:"primaryKey"`
	Username     string     `gorm:"column:username;size:64;uniqueIndex;not null"`
	Email        string     `gorm:"column:email;size:120;uniqueIndex;not null"`
	PasswordHash *string    `gorm:"column:password_hash;size:128"`
	FirstName    string     `gorm:"column:first_name;size:64"`
	LastName     string     `gorm:"column:last_name;size:64"`
	IsActive     bool       `gorm:"column:is_active;default:true"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	LastLogin    *time.Time `gorm:"column:last_login"`
	Roles        []Role     `gorm:"many2many:user_roles"`
}

func (User) TableName() string {
	return "users"
}

type Role struct {
	ID          int64        `gorm:"primaryKey"`
	Name        string       `gorm:"column:name;size:80;uniqueIndex;not null"`
	Description string       `gorm:"column:description;size:255"`
	Permissions []Permission `gorm:"many2many:role_permissions"`
}

func (Role) TableName() string {
	return "roles"
}

type Permission struct {
	ID          int64  `gorm:"primaryKey"`
	Name        string `gorm:"column:name;size:100;uniqueIndex;not null"`
	Description string `gorm:"column:description;size:255"`
}

func (Permission) TableName() string {
	return "permissions"
}

// OAuthAccount links a provider-issued subject id to a local user. A user may
// hold one account per provider; the (provider, provider_user_id) pair is
// unique across all rows.
type OAuthAccount struct {
	ID             int64     `gorm:"primaryKey"`
	Provider       string    `gorm:"column:provider;size:50;not null;uniqueIndex:idx_provider_subject"`
	ProviderUserID string    `gorm:"column:provider_user_id;size:255;not null;uniqueIndex:idx_provider_subject"`
	UserID         int64     `gorm:"column:user_id;not null;index"`
	Token          string    `gorm:"column:token;type:text"`
	CreatedAt      time.Time `gorm:"column:created_at"`
}

func (OAuthAccount) TableName() string {
	return "oauth_accounts"
}
