package cmd

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

// appPermissions is the full permission catalogue. The seeder is idempotent:
// existing rows are left alone, missing ones are added.
var appPermissions = []struct {
	Name string
	Desc string
}{
	{"view_dashboard", "Allow viewing the main dashboard"},
	{"view_products", "Allow viewing product list and details"},
	{"add_products", "Allow adding new products"},
	{"edit_products", "Allow editing existing products"},
	{"delete_products", "Allow deleting products"},
	{"manage_stock", "Allow adjusting stock levels (stock in/out)"},
	{"view_reports", "Allow viewing inventory reports"},
	{"manage_users", "Allow managing users (add/edit/delete/assign roles)"},
	{"view_users", "Allow viewing the user list"},
}

var defaultRoles = []struct {
	Name string
	Desc string
}{
	{"Admin", "Administrator with full access"},
	{"User", "Standard user role"},
}

// rolePermissions maps role name to the permission names it carries. Admin
// gets the whole catalogue; it would short-circuit permission checks anyway,
// but the explicit grants keep the admin UI readable.
var rolePermissions = map[string][]string{
	"Admin": allPermissionNames(),
	"User":  {"view_dashboard", "view_products"},
}

func allPermissionNames() []string {
	names := make([]string, 0, len(appPermissions))
	for _, p := range appPermissions {
		names = append(names, p.Name)
	}
	return names
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed roles, permissions and the initial admin account",
	Long:  `Seed the permission catalogue, the default Admin/User roles and an initial admin user.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		db, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		defer db.Close()

		if clearData {
			clearSeedData(db)
		}

		seedRoles(db)
		seedPermissions(db)
		seedRoleGrants(db)
		seedAdminAccount(db, cfg.Security.BCryptCost)
	},
}

func clearSeedData(db *sqlx.DB) {
	// Link tables first so the foreign keys are satisfied.
	for _, table := range []string{"role_permissions", "user_roles", "oauth_accounts", "permissions", "roles", "users"} {
		if _, err := db.Exec(fmt.Sprintf("DELETE FROM %s", table)); err != nil {
			log.Fatalf("failed to clear %s: %v", table, err)
		}
	}
	fmt.Println("Cleared existing identity data")
}

func seedRoles(db *sqlx.DB) {
	for _, r := range defaultRoles {
		var id int64
		err := db.QueryRow("SELECT id FROM roles WHERE name = $1", r.Name).Scan(&id)
		if err == nil {
			continue
		}
		if err != sql.ErrNoRows {
			log.Fatalf("failed to look up role %s: %v", r.Name, err)
		}
		if _, err := db.Exec("INSERT INTO roles (name, description) VALUES ($1, $2)", r.Name, r.Desc); err != nil {
			log.Fatalf("failed to insert role %s: %v", r.Name, err)
		}
		fmt.Println("Seeded role:", r.Name)
	}
}

func seedPermissions(db *sqlx.DB) {
	for _, p := range appPermissions {
		var id int64
		err := db.QueryRow("SELECT id FROM permissions WHERE name = $1", p.Name).Scan(&id)
		if err == nil {
			continue
		}
		if err != sql.ErrNoRows {
			log.Fatalf("failed to look up permission %s: %v", p.Name, err)
		}
		if _, err := db.Exec("INSERT INTO permissions (name, description) VALUES ($1, $2)", p.Name, p.Desc); err != nil {
			log.Fatalf("failed to insert permission %s: %v", p.Name, err)
		}
		fmt.Println("Seeded permission:", p.Name)
	}
}

func seedRoleGrants(db *sqlx.DB) {
	for roleName, permNames := range rolePermissions {
		var roleID int64
		if err := db.QueryRow("SELECT id FROM roles WHERE name = $1", roleName).Scan(&roleID); err != nil {
			log.Fatalf("role %s not found after seeding: %v", roleName, err)
		}

		for _, permName := range permNames {
			var permID int64
			if err := db.QueryRow("SELECT id FROM permissions WHERE name = $1", permName).Scan(&permID); err != nil {
				log.Fatalf("permission %s not found after seeding: %v", permName, err)
			}

			var one int
			err := db.QueryRow("SELECT 1 FROM role_permissions WHERE role_id = $1 AND permission_id = $2", roleID, permID).Scan(&one)
			if err == nil {
				continue
			}
			if err != sql.ErrNoRows {
				log.Fatalf("failed to check grant %s/%s: %v", roleName, permName, err)
			}
			if _, err := db.Exec("INSERT INTO role_permissions (role_id, permission_id) VALUES ($1, $2)", roleID, permID); err != nil {
				log.Fatalf("failed to grant %s to %s: %v", permName, roleName, err)
			}
		}
		fmt.Println("Granted permissions to role:", roleName)
	}
}

func seedAdminAccount(db *sqlx.DB, bcryptCost int) {
	username := envOrDefault("SEED_ADMIN_USERNAME", "admin")
	email := envOrDefault("SEED_ADMIN_EMAIL", "admin@example.com")
	password := envOrDefault("SEED_ADMIN_PASSWORD", "changeme123")

	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}

	var userID int64
	err := db.QueryRow("SELECT id FROM users WHERE LOWER(username) = LOWER($1)", username).Scan(&userID)
	switch {
	case err == sql.ErrNoRows:
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
		if err != nil {
			log.Fatalf("failed to hash admin password: %v", err)
		}
		if err := db.QueryRow(
			"INSERT INTO users (username, email, password_hash, is_active, created_at) VALUES ($1, $2, $3, true, now()) RETURNING id",
			username, email, string(hash),
		).Scan(&userID); err != nil {
			log.Fatalf("failed to insert admin user: %v", err)
		}
		fmt.Println("Seeded admin user:", username)
	case err != nil:
		log.Fatalf("failed to look up admin user: %v", err)
	default:
		fmt.Println("Admin user already exists:", username)
	}

	var roleID int64
	if err := db.QueryRow("SELECT id FROM roles WHERE name = 'Admin'").Scan(&roleID); err != nil {
		log.Fatalf("Admin role not found: %v", err)
	}

	var one int
	err = db.QueryRow("SELECT 1 FROM user_roles WHERE user_id = $1 AND role_id = $2", userID, roleID).Scan(&one)
	if err == sql.ErrNoRows {
		if _, err := db.Exec("INSERT INTO user_roles (user_id, role_id) VALUES ($1, $2)", userID, roleID); err != nil {
			log.Fatalf("failed to assign Admin role: %v", err)
		}
		fmt.Println("Assigned Admin role to:", username)
	} else if err != nil {
		log.Fatalf("failed to check admin role assignment: %v", err)
	}
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
