package postgres_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	userDatamodel "github.com/stocklane/inventory-management/internal/core/datamodel/user"
	"github.com/stocklane/inventory-management/internal/user"
	userPostgres "github.com/stocklane/inventory-management/internal/user/postgres"
)

func TestUserPostgres(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "User Postgres Suite")
}

var _ = Describe("User PostgreSQL Repository", func() {
	var (
		db   *gorm.DB
		repo user.Repository
	)

	hash := "$2a$10$N9qo8uLOickgx2ZMRZoMye"
	newUser := func(username, email string, roles ...userDatamodel.Role) *userDatamodel.User {
		return &userDatamodel.User{
			Username:     username,
			Email:        email,
			PasswordHash: &hash,
			IsActive:     true,
			Roles:        roles,
		}
	}

	BeforeEach(func() {
		var err error
		// Use SQLite in-memory database for testing
		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger: gormLogger.Default.LogMode(gormLogger.Silent),
		})
		Expect(err).NotTo(HaveOccurred())

		err = db.AutoMigrate(
			&userDatamodel.Permission{},
			&userDatamodel.Role{},
			&userDatamodel.User{},
			&userDatamodel.OAuthAccount{},
		)
		Expect(err).NotTo(HaveOccurred())

		repo = userPostgres.NewUserRepository(db)
	})

	Describe("Create and GetByID", func() {
		It("should persist the user with its role associations", func() {
			role := userDatamodel.Role{Name: "User", Permissions: []userDatamodel.Permission{{Name: "view_products"}}}
			Expect(db.Create(&role).Error).NotTo(HaveOccurred())

			u := newUser("alice", "alice@example.com", role)
			Expect(repo.Create(u)).To(Succeed())
			Expect(u.ID).To(BeNumerically(">", 0))

			loaded, err := repo.GetByID(u.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.Roles).To(HaveLen(1))
			Expect(loaded.Roles[0].Permissions).To(HaveLen(1))
			Expect(loaded.Roles[0].Permissions[0].Name).To(Equal("view_products"))
		})

		It("should return the sentinel for a missing id", func() {
			_, err := repo.GetByID(12345)
			Expect(err).To(MatchError(user.ErrNotFound))
		})
	})

	Describe("UsernameExists and EmailExists", func() {
		BeforeEach(func() {
			Expect(repo.Create(newUser("alice", "alice@example.com"))).To(Succeed())
		})

		It("should match case-insensitively", func() {
			taken, err := repo.UsernameExists("ALICE", 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(taken).To(BeTrue())

			taken, err = repo.EmailExists("Alice@Example.COM", 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(taken).To(BeTrue())
		})

		It("should exclude the row under update", func() {
			loaded, err := repo.GetAll()
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded).To(HaveLen(1))

			taken, err := repo.UsernameExists("alice", loaded[0].ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(taken).To(BeFalse())
		})
	})

	Describe("Update", func() {
		var (
			viewer userDatamodel.Role
			editor userDatamodel.Role
			u      *userDatamodel.User
		)

		BeforeEach(func() {
			viewer = userDatamodel.Role{Name: "Viewer"}
			editor = userDatamodel.Role{Name: "Editor"}
			Expect(db.Create(&viewer).Error).NotTo(HaveOccurred())
			Expect(db.Create(&editor).Error).NotTo(HaveOccurred())

			u = newUser("alice", "alice@example.com", viewer)
			Expect(repo.Create(u)).To(Succeed())
		})

		It("should keep the role set when replaceRoles is false", func() {
			u.FirstName = "Alice"
			u.Roles = nil
			Expect(repo.Update(u, false)).To(Succeed())

			loaded, err := repo.GetByID(u.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.FirstName).To(Equal("Alice"))
			Expect(loaded.Roles).To(HaveLen(1))
			Expect(loaded.Roles[0].Name).To(Equal("Viewer"))
		})

		It("should swap the role set when replaceRoles is true", func() {
			u.Roles = []userDatamodel.Role{editor}
			Expect(repo.Update(u, true)).To(Succeed())

			loaded, err := repo.GetByID(u.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.Roles).To(HaveLen(1))
			Expect(loaded.Roles[0].Name).To(Equal("Editor"))
		})

		It("should clear all roles for an empty replacement set", func() {
			u.Roles = nil
			Expect(repo.Update(u, true)).To(Succeed())

			loaded, err := repo.GetByID(u.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.Roles).To(BeEmpty())
		})
	})

	Describe("Delete", func() {
		It("should remove the user, its role links and every OAuth account", func() {
			role := userDatamodel.Role{Name: "User"}
			Expect(db.Create(&role).Error).NotTo(HaveOccurred())

			u := newUser("alice", "alice@example.com", role)
			Expect(repo.Create(u)).To(Succeed())

			for _, link := range []userDatamodel.OAuthAccount{
				{Provider: "google", ProviderUserID: "sub-1", UserID: u.ID},
				{Provider: "github", ProviderUserID: "sub-2", UserID: u.ID},
			} {
				Expect(db.Create(&link).Error).NotTo(HaveOccurred())
			}

			Expect(repo.Delete(u.ID)).To(Succeed())

			_, err := repo.GetByID(u.ID)
			Expect(err).To(MatchError(user.ErrNotFound))

			var oauthCount int64
			Expect(db.Model(&userDatamodel.OAuthAccount{}).Where("user_id = ?", u.ID).Count(&oauthCount).Error).NotTo(HaveOccurred())
			Expect(oauthCount).To(BeZero())

			var linkCount int64
			Expect(db.Table("user_roles").Where("user_id = ?", u.ID).Count(&linkCount).Error).NotTo(HaveOccurred())
			Expect(linkCount).To(BeZero())

			// The role itself survives the cascade.
			var roleCount int64
			Expect(db.Model(&userDatamodel.Role{}).Count(&roleCount).Error).NotTo(HaveOccurred())
			Expect(roleCount).To(Equal(int64(1)))
		})

		It("should keep every row when the transaction fails partway", func() {
			role := userDatamodel.Role{Name: "User"}
			Expect(db.Create(&role).Error).NotTo(HaveOccurred())

			u := newUser("alice", "alice@example.com", role)
			Expect(repo.Create(u)).To(Succeed())

			for _, link := range []userDatamodel.OAuthAccount{
				{Provider: "google", ProviderUserID: "sub-1", UserID: u.ID},
				{Provider: "github", ProviderUserID: "sub-2", UserID: u.ID},
			} {
				Expect(db.Create(&link).Error).NotTo(HaveOccurred())
			}

			// Fail the last statement of the cascade so the earlier
			// deletes have already run inside the transaction.
			Expect(db.Exec(`CREATE TRIGGER block_user_delete BEFORE DELETE ON users
				BEGIN SELECT RAISE(ABORT, 'delete blocked'); END`).Error).NotTo(HaveOccurred())

			Expect(repo.Delete(u.ID)).To(HaveOccurred())

			loaded, err := repo.GetByID(u.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.Username).To(Equal("alice"))

			var oauthCount int64
			Expect(db.Model(&userDatamodel.OAuthAccount{}).Where("user_id = ?", u.ID).Count(&oauthCount).Error).NotTo(HaveOccurred())
			Expect(oauthCount).To(Equal(int64(2)))

			var linkCount int64
			Expect(db.Table("user_roles").Where("user_id = ?", u.ID).Count(&linkCount).Error).NotTo(HaveOccurred())
			Expect(linkCount).To(Equal(int64(1)))
		})

		It("should return the sentinel for a missing id", func() {
			Expect(repo.Delete(999)).To(MatchError(user.ErrNotFound))
		})
	})
})
