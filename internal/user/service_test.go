package user

import (
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/stocklane/inventory-management/internal"
	userDatamodel "github.com/stocklane/inventory-management/internal/core/datamodel/user"
)

func TestUser(t *testing.T) {
	gomega.RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "User Module Suite")
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Mock repository counting store accesses
type mockRepository struct {
	usersByID   map[int64]*userDatamodel.User
	roles       map[string]userDatamodel.Role
	nextID      int64
	queryCount  int
	created     *userDatamodel.User
	updated     *userDatamodel.User
	replaced    bool
	deletedID   int64
	returnError error
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		usersByID: map[int64]*userDatamodel.User{
			1: {ID: 1, Username: "alice", Email: "alice@example.com", IsActive: true},
			2: {ID: 2, Username: "bob", Email: "bob@example.com", IsActive: true},
		},
		roles: map[string]userDatamodel.Role{
			"Admin": {ID: 1, Name: "Admin"},
			"User":  {ID: 2, Name: "User"},
		},
		nextID: 3,
	}
}

func (m *mockRepository) GetAll() ([]*userDatamodel.User, error) {
	m.queryCount++
	if m.returnError != nil {
		return nil, m.returnError
	}
	out := make([]*userDatamodel.User, 0, len(m.usersByID))
	for _, u := range m.usersByID {
		out = append(out, u)
	}
	return out, nil
}

func (m *mockRepository) GetByID(id int64) (*userDatamodel.User, error) {
	m.queryCount++
	if m.returnError != nil {
		return nil, m.returnError
	}
	if u, ok := m.usersByID[id]; ok {
		return u, nil
	}
	return nil, ErrNotFound
}

func (m *mockRepository) UsernameExists(username string, excludeID int64) (bool, error) {
	m.queryCount++
	if m.returnError != nil {
		return false, m.returnError
	}
	for _, u := range m.usersByID {
		if strings.EqualFold(u.Username, username) && u.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockRepository) EmailExists(email string, excludeID int64) (bool, error) {
	m.queryCount++
	if m.returnError != nil {
		return false, m.returnError
	}
	for _, u := range m.usersByID {
		if strings.EqualFold(u.Email, email) && u.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockRepository) RolesByNames(names []string) ([]userDatamodel.Role, error) {
	m.queryCount++
	if m.returnError != nil {
		return nil, m.returnError
	}
	var out []userDatamodel.Role
	for _, name := range names {
		if r, ok := m.roles[name]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockRepository) Create(u *userDatamodel.User) error {
	m.queryCount++
	if m.returnError != nil {
		return m.returnError
	}
	u.ID = m.nextID
	m.nextID++
	m.usersByID[u.ID] = u
	m.created = u
	return nil
}

func (m *mockRepository) Update(u *userDatamodel.User, replaceRoles bool) error {
	m.queryCount++
	if m.returnError != nil {
		return m.returnError
	}
	m.usersByID[u.ID] = u
	m.updated = u
	m.replaced = replaceRoles
	return nil
}

func (m *mockRepository) Delete(id int64) error {
	m.queryCount++
	if m.returnError != nil {
		return m.returnError
	}
	if _, ok := m.usersByID[id]; !ok {
		return ErrNotFound
	}
	delete(m.usersByID, id)
	m.deletedID = id
	return nil
}

var _ = ginkgo.Describe("UserService", func() {
	var (
		service  *Service
		mockRepo *mockRepository
	)

	ginkgo.BeforeEach(func() {
		mockRepo = newMockRepository()
		service = NewService(mockRepo, bcrypt.MinCost, newTestLogger())
	})

	ginkgo.Describe("CreateUser", func() {
		ginkgo.Context("when the payload is malformed", func() {
			ginkgo.It("should fail before any store access", func() {
				_, err := service.CreateUser(CreateUserDTO{
					Username: "",
					Email:    "not-an-email",
					Password: "short",
				})

				gomega.Expect(err).To(gomega.HaveOccurred())
				gomega.Expect(mockRepo.queryCount).To(gomega.BeZero())
			})

			ginkgo.It("should report every failing field at once", func() {
				_, err := service.CreateUser(CreateUserDTO{
					Username: "",
					Email:    "not-an-email",
					Password: "short",
				})

				appErr, ok := apperrors.IsAppError(err)
				gomega.Expect(ok).To(gomega.BeTrue())
				details, ok := appErr.Details.(apperrors.ValidationErrors)
				gomega.Expect(ok).To(gomega.BeTrue())
				fields := make([]string, 0, len(details.Errors))
				for _, e := range details.Errors {
					fields = append(fields, e.Field)
				}
				gomega.Expect(fields).To(gomega.ContainElements("username", "email", "password"))
			})
		})

		ginkgo.Context("when the username or email is taken", func() {
			ginkgo.It("should return a conflict regardless of case", func() {
				_, err := service.CreateUser(CreateUserDTO{
					Username: "ALICE",
					Email:    "fresh@example.com",
					Password: "long-enough",
				})

				appErr, ok := apperrors.IsAppError(err)
				gomega.Expect(ok).To(gomega.BeTrue())
				gomega.Expect(appErr.Type).To(gomega.Equal(apperrors.ErrorTypeConflict))
			})

			ginkgo.It("should name both conflicting fields when both collide", func() {
				_, err := service.CreateUser(CreateUserDTO{
					Username: "alice",
					Email:    "Bob@Example.com",
					Password: "long-enough",
				})

				appErr, _ := apperrors.IsAppError(err)
				details := appErr.Details.(apperrors.ValidationErrors)
				fields := make([]string, 0, len(details.Errors))
				for _, e := range details.Errors {
					fields = append(fields, e.Field)
				}
				gomega.Expect(fields).To(gomega.ConsistOf("username", "email"))
			})
		})

		ginkgo.Context("when the payload is valid", func() {
			ginkgo.It("should persist a bcrypt hash, never the plaintext", func() {
				created, err := service.CreateUser(CreateUserDTO{
					Username: "carol",
					Email:    "carol@example.com",
					Password: "plain-secret",
				})

				gomega.Expect(err).ToNot(gomega.HaveOccurred())
				gomega.Expect(created.PasswordHash).ToNot(gomega.BeNil())
				gomega.Expect(*mockRepo.created.PasswordHash).ToNot(gomega.ContainSubstring("plain-secret"))
				gomega.Expect(
					bcrypt.CompareHashAndPassword([]byte(*mockRepo.created.PasswordHash), []byte("plain-secret")),
				).To(gomega.Succeed())
			})

			ginkgo.It("should resolve known roles and drop unknown names", func() {
				created, err := service.CreateUser(CreateUserDTO{
					Username:  "carol",
					Email:     "carol@example.com",
					Password:  "plain-secret",
					RoleNames: []string{"User", "Wizard"},
				})

				gomega.Expect(err).ToNot(gomega.HaveOccurred())
				gomega.Expect(created.Roles).To(gomega.HaveLen(1))
				gomega.Expect(created.Roles[0].Name).To(gomega.Equal("User"))
			})
		})
	})

	ginkgo.Describe("UpdateUser", func() {
		ginkgo.It("should leave omitted fields untouched", func() {
			active := false
			updated, err := service.UpdateUser(1, UpdateUserDTO{IsActive: &active})

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(updated.Username).To(gomega.Equal("alice"))
			gomega.Expect(updated.Email).To(gomega.Equal("alice@example.com"))
			gomega.Expect(updated.IsActive).To(gomega.BeFalse())
			gomega.Expect(mockRepo.replaced).To(gomega.BeFalse())
		})

		ginkgo.It("should replace the whole role set when roles are present", func() {
			roles := []string{"Admin"}
			updated, err := service.UpdateUser(1, UpdateUserDTO{RoleNames: &roles})

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(mockRepo.replaced).To(gomega.BeTrue())
			gomega.Expect(updated.Roles).To(gomega.HaveLen(1))
			gomega.Expect(updated.Roles[0].Name).To(gomega.Equal("Admin"))
		})

		ginkgo.It("should clear all roles for an explicit empty list", func() {
			roles := []string{}
			updated, err := service.UpdateUser(1, UpdateUserDTO{RoleNames: &roles})

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(mockRepo.replaced).To(gomega.BeTrue())
			gomega.Expect(updated.Roles).To(gomega.BeEmpty())
		})

		ginkgo.It("should allow keeping your own username on update", func() {
			name := "alice"
			_, err := service.UpdateUser(1, UpdateUserDTO{Username: &name})

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
		})

		ginkgo.It("should reject taking another user's email", func() {
			email := "bob@example.com"
			_, err := service.UpdateUser(1, UpdateUserDTO{Email: &email})

			appErr, ok := apperrors.IsAppError(err)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(appErr.Type).To(gomega.Equal(apperrors.ErrorTypeConflict))
		})

		ginkgo.It("should return not found for an unknown id", func() {
			name := "whoever"
			_, err := service.UpdateUser(99, UpdateUserDTO{Username: &name})

			gomega.Expect(err).To(gomega.MatchError(apperrors.ErrUserNotFound))
		})
	})

	ginkgo.Describe("DeleteUser", func() {
		ginkgo.It("should delete an existing user", func() {
			err := service.DeleteUser(2)

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(mockRepo.deletedID).To(gomega.Equal(int64(2)))
		})

		ginkgo.It("should return not found for an unknown id", func() {
			err := service.DeleteUser(99)

			gomega.Expect(err).To(gomega.MatchError(apperrors.ErrUserNotFound))
		})
	})

	ginkgo.Describe("GetUserByID", func() {
		ginkgo.It("should wrap repository failures as internal errors", func() {
			mockRepo.returnError = errors.New("connection reset")

			_, err := service.GetUserByID(1)

			appErr, ok := apperrors.IsAppError(err)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(appErr.Type).To(gomega.Equal(apperrors.ErrorTypeInternal))
		})
	})
})
