package user

import (
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
)

var _ = ginkgo.Describe("User authorization model", func() {
	var (
		viewer Role
		editor Role
		admin  Role
	)

	ginkgo.BeforeEach(func() {
		viewer = Role{ID: 1, Name: "Viewer", Permissions: []Permission{
			{ID: 1, Name: "view_products"},
			{ID: 2, Name: "view_reports"},
		}}
		editor = Role{ID: 2, Name: "Editor", Permissions: []Permission{
			{ID: 1, Name: "view_products"},
			{ID: 3, Name: "edit_products"},
		}}
		admin = Role{ID: 3, Name: AdminRoleName}
	})

	ginkgo.Describe("Role.HasPermission", func() {
		ginkgo.It("should match permission names exactly", func() {
			gomega.Expect(viewer.HasPermission("view_products")).To(gomega.BeTrue())
			gomega.Expect(viewer.HasPermission("View_Products")).To(gomega.BeFalse())
			gomega.Expect(viewer.HasPermission("edit_products")).To(gomega.BeFalse())
		})
	})

	ginkgo.Describe("User.HasPermission", func() {
		ginkgo.It("should grant a permission held by any assigned role", func() {
			u := User{Roles: []Role{viewer, editor}}

			gomega.Expect(u.HasPermission("view_reports")).To(gomega.BeTrue())
			gomega.Expect(u.HasPermission("edit_products")).To(gomega.BeTrue())
			gomega.Expect(u.HasPermission("manage_users")).To(gomega.BeFalse())
		})

		ginkgo.It("should grant everything to Admin role holders", func() {
			u := User{Roles: []Role{admin}}

			gomega.Expect(u.HasPermission("edit_products")).To(gomega.BeTrue())
			gomega.Expect(u.HasPermission("anything_at_all")).To(gomega.BeTrue())
		})

		ginkgo.It("should grant nothing to a user with no roles", func() {
			u := User{}

			gomega.Expect(u.HasPermission("view_products")).To(gomega.BeFalse())
		})
	})

	ginkgo.Describe("User.IsAdmin", func() {
		ginkgo.It("should be derived only from the role list", func() {
			u := User{Roles: []Role{viewer}}
			gomega.Expect(u.IsAdmin()).To(gomega.BeFalse())

			u.Roles = append(u.Roles, admin)
			gomega.Expect(u.IsAdmin()).To(gomega.BeTrue())

			u.Roles = u.Roles[:1]
			gomega.Expect(u.IsAdmin()).To(gomega.BeFalse())
		})
	})

	ginkgo.Describe("User.PermissionNames", func() {
		ginkgo.It("should deduplicate the union across roles", func() {
			u := User{Roles: []Role{viewer, editor}}

			gomega.Expect(u.PermissionNames()).To(gomega.ConsistOf(
				"view_products", "view_reports", "edit_products",
			))
		})
	})

	ginkgo.Describe("User.HasUsablePassword", func() {
		ginkgo.It("should be false for OAuth-only accounts", func() {
			empty := ""
			hash := "$2a$10$something"

			gomega.Expect((&User{}).HasUsablePassword()).To(gomega.BeFalse())
			gomega.Expect((&User{PasswordHash: &empty}).HasUsablePassword()).To(gomega.BeFalse())
			gomega.Expect((&User{PasswordHash: &hash}).HasUsablePassword()).To(gomega.BeTrue())
		})
	})
})
