package role

import (
	"errors"
	"io"
	"log/slog"
	"sort"
	"testing"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	"github.com/stocklane/inventory-management/internal"
	"github.com/stocklane/inventory-management/internal/user"
)

func TestRole(t *testing.T) {
	gomega.RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "Role Module Suite")
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type mockRepository struct {
	roles       map[int64]*user.Role
	catalogue   map[int64]user.Permission
	replacedIDs map[int64][]int64
	returnError error
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		roles: map[int64]*user.Role{
			1: {ID: 1, Name: "User", Permissions: []user.Permission{{ID: 1, Name: "view_products"}}},
			2: {ID: 2, Name: "Admin"},
		},
		catalogue: map[int64]user.Permission{
			1: {ID: 1, Name: "view_products"},
			2: {ID: 2, Name: "edit_products"},
			3: {ID: 3, Name: "view_reports"},
		},
		replacedIDs: make(map[int64][]int64),
	}
}

func (m *mockRepository) GetAll() ([]user.Role, error) {
	if m.returnError != nil {
		return nil, m.returnError
	}
	out := make([]user.Role, 0, len(m.roles))
	for _, r := range m.roles {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *mockRepository) GetByID(id int64) (*user.Role, error) {
	if m.returnError != nil {
		return nil, m.returnError
	}
	if r, ok := m.roles[id]; ok {
		copied := *r
		return &copied, nil
	}
	return nil, ErrNotFound
}

func (m *mockRepository) GetAllPermissions() ([]user.Permission, error) {
	if m.returnError != nil {
		return nil, m.returnError
	}
	out := make([]user.Permission, 0, len(m.catalogue))
	for _, p := range m.catalogue {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *mockRepository) PermissionsByIDs(ids []int64) ([]user.Permission, error) {
	if m.returnError != nil {
		return nil, m.returnError
	}
	var out []user.Permission
	seen := make(map[int64]struct{})
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if p, ok := m.catalogue[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockRepository) ReplacePermissions(roleID int64, permissionIDs []int64) error {
	if m.returnError != nil {
		return m.returnError
	}
	r, ok := m.roles[roleID]
	if !ok {
		return ErrNotFound
	}
	m.replacedIDs[roleID] = permissionIDs
	perms := make([]user.Permission, 0, len(permissionIDs))
	for _, id := range permissionIDs {
		perms = append(perms, m.catalogue[id])
	}
	r.Permissions = perms
	return nil
}

var _ = ginkgo.Describe("RoleService", func() {
	var (
		service  *Service
		mockRepo *mockRepository
	)

	ginkgo.BeforeEach(func() {
		mockRepo = newMockRepository()
		service = NewService(mockRepo, newTestLogger())
	})

	ginkgo.Describe("GetAllRoles", func() {
		ginkgo.It("should return roles ordered by name with permissions attached", func() {
			roles, err := service.GetAllRoles()

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(roles).To(gomega.HaveLen(2))
			gomega.Expect(roles[0].Name).To(gomega.Equal("Admin"))
			gomega.Expect(roles[1].Name).To(gomega.Equal("User"))
			gomega.Expect(roles[1].Permissions).To(gomega.HaveLen(1))
		})
	})

	ginkgo.Describe("GetRoleByID", func() {
		ginkgo.It("should return not found for an unknown id", func() {
			_, err := service.GetRoleByID(99)

			gomega.Expect(err).To(gomega.MatchError(internal.ErrRoleNotFound))
		})
	})

	ginkgo.Describe("UpdateRolePermissions", func() {
		ginkgo.It("should replace the permission set", func() {
			updated, err := service.UpdateRolePermissions(1, []int64{2, 3})

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(updated.HasPermission("edit_products")).To(gomega.BeTrue())
			gomega.Expect(updated.HasPermission("view_reports")).To(gomega.BeTrue())
			gomega.Expect(updated.HasPermission("view_products")).To(gomega.BeFalse())
		})

		ginkgo.It("should drop unknown permission ids and apply the valid subset", func() {
			updated, err := service.UpdateRolePermissions(1, []int64{2, 999})

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(mockRepo.replacedIDs[1]).To(gomega.ConsistOf(int64(2)))
			gomega.Expect(updated.HasPermission("edit_products")).To(gomega.BeTrue())
		})

		ginkgo.It("should clear every permission for an empty set", func() {
			updated, err := service.UpdateRolePermissions(1, nil)

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(updated.Permissions).To(gomega.BeEmpty())
		})

		ginkgo.It("should return not found for an unknown role", func() {
			_, err := service.UpdateRolePermissions(99, []int64{1})

			gomega.Expect(err).To(gomega.MatchError(internal.ErrRoleNotFound))
		})

		ginkgo.It("should wrap repository failures as internal errors", func() {
			mockRepo.returnError = errors.New("connection reset")

			_, err := service.UpdateRolePermissions(1, []int64{1})

			appErr, ok := internal.IsAppError(err)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(appErr.Type).To(gomega.Equal(internal.ErrorTypeInternal))
		})
	})
})
